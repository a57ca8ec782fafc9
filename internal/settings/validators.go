package settings

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yanizio/confstack/internal/config"
)

var errAWSAuth = errors.New("either AWS_PROFILE or both AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be provided")

// checkAWSAuth requires a profile or a complete key pair.
func checkAWSAuth(c *config.Config) error {
	if c.Has(KeyAWSProfile) {
		return nil
	}
	if c.Has(KeyAWSAccessKey) && c.Has(KeyAWSSecretKey) {
		return nil
	}
	return errAWSAuth
}

// LogAttributes are the placeholders LOG_FORMAT may reference.
var LogAttributes = map[string]bool{
	"asctime":   true,
	"created":   true,
	"filename":  true,
	"funcName":  true,
	"levelname": true,
	"levelno":   true,
	"lineno":    true,
	"message":   true,
	"module":    true,
	"msecs":     true,
	"name":      true,
	"pathname":  true,
	"process":   true,
	"thread":    true,
}

var placeholder = regexp.MustCompile(`%\(([^)]*)\)([sd])`)

// validateLogFormat accepts only %(attr)s / %(attr)d placeholders naming a
// known attribute.  Brace interpolation and dangling %( are rejected.
func validateLogFormat(v any) error {
	s, _ := v.(string)
	if strings.Contains(s, "{") || strings.Contains(s, "}") {
		return fmt.Errorf("invalid log format %q: brace interpolation is not supported", s)
	}
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		if !LogAttributes[m[1]] {
			return fmt.Errorf("invalid log format %q: unknown attribute %q", s, m[1])
		}
	}
	if strings.Contains(placeholder.ReplaceAllString(s, ""), "%(") {
		return fmt.Errorf("invalid log format %q: malformed placeholder", s)
	}
	return nil
}

// FormatAttributes returns the attributes a valid LOG_FORMAT references, in
// order of first appearance.
func FormatAttributes(format string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(format, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

var layoutElement = regexp.MustCompile(`2006|06|Jan|January|01|1|Mon|Monday|02|_2|2|15|03|3|04|4|05|5|PM|pm|MST|Z07|-07`)

// validateDateLayout requires a Go time layout containing at least one
// reference-time element.
func validateDateLayout(v any) error {
	s, _ := v.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("date layout must not be empty")
	}
	if strings.Contains(s, "%") {
		return fmt.Errorf("date layout %q uses strftime directives, use a Go layout such as 2006-01-02 15:04:05", s)
	}
	if !layoutElement.MatchString(s) {
		return fmt.Errorf("date layout %q contains no reference-time element", s)
	}
	return nil
}
