package accidents

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is returned when the export file does not exist.
	ErrFileNotFound = errors.New("accident file not found")
	// ErrSeverityColumnMissing is returned when no header resolves to GRAVEDAD.
	ErrSeverityColumnMissing = errors.New("severity column (GRAVEDAD) could not be identified")
	// ErrUnsupportedEncoding is returned for an unknown encoding name.
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")
	// ErrNoDateData is returned when a date range is applied to a table
	// without any valid dates.
	ErrNoDateData = errors.New("no valid dates to filter")
	// ErrIncompleteDateRange is returned when only one date bound is set.
	ErrIncompleteDateRange = errors.New("date range requires both start and end")
)

// LoadError is a fatal failure to build the canonical table.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load accidents: %v", e.Err)
	}
	return fmt.Sprintf("load accidents from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
