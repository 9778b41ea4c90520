package backend

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable matches every *NetworkError through errors.Is.
var ErrBackendUnavailable = errors.New("backend unavailable")

// NetworkError is a transport or HTTP failure on one backend endpoint. Callers may retry.
type NetworkError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Body       string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend %s: http status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("backend %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrBackendUnavailable }

// Retryable reports whether repeating the call can succeed.
func (e *NetworkError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == 429
}
