package csvfile

import "fmt"

// ColumnError reports a required column missing from the header.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// ParseError reports a cell that could not be converted to its column type.
// Row is the 1-based line number in the file, header included.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d, column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
