package config

import (
	"fmt"
	"strings"
)

// Report renders the diagnostics table for one load, highest precedence
// first:
//
//	Configuration sources
//	=====================
//	  secrets      /run/secrets      missing  (not found)
//	  environment  process environment  found
//	  ...
//	Priority order: Secrets > Environment Variables > Dotenv Files > YAML > Defaults
func Report(records []SourceRecord) string {
	rs := append([]SourceRecord(nil), records...)
	sortRecords(rs)

	kindW, locW := len("kind"), len("location")
	for _, r := range rs {
		kindW = max(kindW, len(r.Kind))
		locW = max(locW, len(r.Location))
	}

	var b strings.Builder
	b.WriteString("Configuration sources\n")
	b.WriteString("=====================\n")
	for _, r := range rs {
		status := "missing"
		if r.Available {
			status = "found"
		}
		line := fmt.Sprintf("  %-*s  %-*s  %-7s", kindW, r.Kind, locW, r.Location, status)
		if r.Note != "" {
			line += "  (" + r.Note + ")"
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}
	b.WriteString("Priority order: Secrets > Environment Variables > Dotenv Files > YAML > Defaults\n")
	return b.String()
}
