package completion

import (
	"context"
	"errors"
	"fmt"
)

// ErrBackend matches every BackendError via errors.Is.
var ErrBackend = errors.New("completion backend failed")

// BackendError is returned for network errors, backend rejections and timeouts.
// It is terminal for the request; nothing is retried.
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrBackend) match any BackendError.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// Timeout reports whether the call failed because its deadline expired.
func (e *BackendError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}
