// internal/config/source.go
//
// Source kinds, precedence, and the per-load source records.
//
// Context
// -------
// Five kinds of source feed the merge.  Their order is fixed and global:
//
//	secrets > environment > dotenv > file > default
//
// Every load produces exactly one SourceRecord per kind.  Records describe
// what was probed and whether it was found; they never influence the merge
// result.

package config

import (
	"sort"

	"go.uber.org/zap/zapcore"
)

// SourceKind names one physical origin of configuration values.
type SourceKind string

const (
	SourceSecrets     SourceKind = "secrets"
	SourceEnvironment SourceKind = "environment"
	SourceDotenv      SourceKind = "dotenv"
	SourceFile        SourceKind = "file"
	SourceDefault     SourceKind = "default"
)

// Precedence lists the source kinds from highest to lowest priority.
var Precedence = []SourceKind{
	SourceSecrets,
	SourceEnvironment,
	SourceDotenv,
	SourceFile,
	SourceDefault,
}

// Rank returns the priority of k; higher wins.  Unknown kinds rank below
// defaults.
func (k SourceKind) Rank() int {
	for i, p := range Precedence {
		if p == k {
			return len(Precedence) - i
		}
	}
	return 0
}

// SourceRecord describes one probed source.
type SourceRecord struct {
	Kind      SourceKind `json:"kind"`
	Location  string     `json:"location"`
	Available bool       `json:"available"`
	Note      string     `json:"note,omitempty"`
}

// MarshalLogObject lets records travel as structured zap fields.
func (r SourceRecord) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("kind", string(r.Kind))
	enc.AddString("location", r.Location)
	enc.AddBool("available", r.Available)
	if r.Note != "" {
		enc.AddString("note", r.Note)
	}
	return nil
}

// sortRecords orders records by precedence, highest first.
func sortRecords(rs []SourceRecord) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Kind.Rank() > rs[j].Kind.Rank()
	})
}
