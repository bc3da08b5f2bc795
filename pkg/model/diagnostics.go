package model

import "fmt"

type WarningCode string

const (
	WarnUnsupportedPattern WarningCode = "unsupported_pattern"
	WarnUninferablePattern WarningCode = "uninferable_pattern"
	WarnDuplicateRequest   WarningCode = "duplicate_request"
	WarnDuplicateConflict  WarningCode = "duplicate_conflict"
	WarnUnorderedConflict  WarningCode = "unordered_conflict"
	WarnNotCanonical       WarningCode = "not_canonical"
	WarnOffGridTime        WarningCode = "off_grid_time"
	WarnBadRow             WarningCode = "bad_row"
	WarnNoCandidates       WarningCode = "no_candidates"
	WarnNotOptimal         WarningCode = "not_optimal"
)

// Warning is a recoverable data-quality problem. The affected record has
// already been skipped or repaired when a Warning is reported.
type Warning struct {
	Code    WarningCode `json:"code"`
	Course  CourseName  `json:"course,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Course == "" {
		return fmt.Sprintf("Warning: %s", w.Message)
	}
	return fmt.Sprintf("Warning: %s: %s", w.Course, w.Message)
}

// Diagnostics collects warnings in the order they were raised.
type Diagnostics []Warning

func (d *Diagnostics) Add(code WarningCode, course CourseName, format string, args ...any) {
	*d = append(*d, Warning{Code: code, Course: course, Message: fmt.Sprintf(format, args...)})
}

func (d Diagnostics) Has(code WarningCode) bool {
	for _, w := range d {
		if w.Code == code {
			return true
		}
	}
	return false
}
