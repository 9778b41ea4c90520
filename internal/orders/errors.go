package orders

import (
	"errors"
	"fmt"
)

// DefaultFailureMessage is reported when the backend gives no reason.
const DefaultFailureMessage = "Failed to create order"

var (
	// ErrOrderRejected matches every *RejectedError.
	ErrOrderRejected = errors.New("order rejected")
	// ErrAmbiguousResponse matches every *AmbiguousResponseError.
	ErrAmbiguousResponse = errors.New("ambiguous order response")
)

// RejectedError is a create-order failure that carries the backend's own message.
type RejectedError struct {
	Message   string
	Reference string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("create order rejected: %s", e.Message)
}

func (e *RejectedError) Is(target error) bool { return target == ErrOrderRejected }

// AmbiguousResponseError is a create-order response that cannot be read as success or as a
// failure with a reason. It is never treated as success.
type AmbiguousResponseError struct {
	Message   string
	Reference string
	Raw       string
}

func (e *AmbiguousResponseError) Error() string {
	if e.Reference != "" {
		return fmt.Sprintf("create order: %s (reference %s)", e.Message, e.Reference)
	}
	return fmt.Sprintf("create order: %s", e.Message)
}

func (e *AmbiguousResponseError) Is(target error) bool { return target == ErrAmbiguousResponse }
