package sysinfo

import "fmt"

// ReadError wraps a failure to read a platform measurement
type ReadError struct {
	What  string // measurement, e.g. "storage"
	Path  string // file or mount point, if any
	Cause error
}

func (e *ReadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to read %s from %s: %v", e.What, e.Path, e.Cause)
	}
	return fmt.Sprintf("failed to read %s: %v", e.What, e.Cause)
}

func (e *ReadError) Unwrap() error {
	return e.Cause
}
