package ics

// NewLine defines the default newline for Unix systems.  It resolves to
// WithNewLineUnix which uses LF line endings.
const (
	NewLine = WithNewLineUnix
)
