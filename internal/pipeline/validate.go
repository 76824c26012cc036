package pipeline

import "strings"

// Validation is a best-effort sanity check over one joined output stream.
type Validation struct {
	Valid    bool
	Warnings []string
	Errors   []string
}

// ValidateOutput flags truncation markers and suspiciously short output.
// Advisory; callers decide whether to surface warnings or re-run.
func ValidateOutput(output string) Validation {
	v := Validation{Valid: true}

	if strings.Contains(output, "[TRUNCATED]") || strings.Contains(output, "[INCOMPLETE]") {
		v.Warnings = append(v.Warnings, "output may be truncated")
	}
	if len(output) < 50 {
		v.Errors = append(v.Errors, "output suspiciously short")
		v.Valid = false
	}

	return v
}
