package provider

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// WriteError wraps a failed create/update/delete after it was issued. The
// optimistic mutation engine reverts local state when it sees one.
type WriteError struct {
	Collection string
	Id         string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s/%s failed: %v", e.Collection, e.Id, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsWriteError reports whether err is (or wraps) a WriteError.
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}
