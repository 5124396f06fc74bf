package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by ingestion and the route gateway.
// Callers classify failures with errors.Is.
var (
	ErrMissingInput    = errors.New("missing input")
	ErrMalformedRecord = errors.New("malformed record")
	ErrExternalService = errors.New("external service failure")
	ErrInitialization  = errors.New("driving time initialization failed")
)

// RecordError describes a single unparseable or invalid row.
type RecordError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *RecordError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s line %d column %q: %v", e.File, e.Line, e.Column, e.Err)
}

// A RecordError is always a malformed record, whatever its cause.
func (e *RecordError) Unwrap() []error { return []error{ErrMalformedRecord, e.Err} }
