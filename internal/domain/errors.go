package domain

import "errors"

// I/O sentinels shared by every file adapter.
var (
	// ErrInputNotFound means the input file does not exist.
	ErrInputNotFound = errors.New("input file not found")
	// ErrOutputLocked means the output file could not be opened for writing,
	// typically because another program holds it open.
	ErrOutputLocked = errors.New("output file is locked or not writable")
)
