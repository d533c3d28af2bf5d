package dataset

import (
	"fmt"
	"strings"
)

// SourceNotFoundError is returned when the spreadsheet file does not exist.
type SourceNotFoundError struct {
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source file not found: %s", e.Path)
}

// MissingColumnsError is returned when a required column is absent after
// header normalization. Columns holds exactly the missing names, in the
// order the caller required them.
type MissingColumnsError struct {
	Dataset string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("dataset %q is missing columns: %s", e.Dataset, strings.Join(e.Columns, ", "))
}

// InvalidDateError is returned when a date cell cannot be parsed.
type InvalidDateError struct {
	Column string
	Row    int
	Value  string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q in column %q, row %d", e.Value, e.Column, e.Row)
}

// OutOfRangeError is returned when a fractional metric falls outside [0, 1].
type OutOfRangeError struct {
	Column string
	Row    int
	Value  float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("value %g in column %q, row %d is outside [0, 1]", e.Value, e.Column, e.Row)
}
