package publish

import "fmt"

// ValidationError rejects a publish before any remote call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid post: %s", e.Reason)
}

// UploadError means the object store did not yield a usable URL. The caller's
// locally selected image is untouched so the user may retry manually.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("image upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
