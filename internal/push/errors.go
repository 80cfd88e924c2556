package push

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError is a client-fault input problem. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps a failure of the subscription store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ProviderError is a rejected or failed delivery to one push endpoint.
// StatusCode is zero when the push service was never reached.
type ProviderError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("push service returned status %d", e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Expired reports whether the push service says the subscription is gone.
func (e *ProviderError) Expired() bool {
	return e.StatusCode == 404 || e.StatusCode == 410
}
