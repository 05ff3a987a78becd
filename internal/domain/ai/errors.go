package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrRefused indicates the model declined to answer.
var ErrRefused = errors.New("ai refused the request")

// RefusalError carries the model's own explanation.
type RefusalError struct {
	Message string
}

func (e *RefusalError) Error() string {
	if e.Message == "" {
		return ErrRefused.Error()
	}
	return e.Message
}

func (e *RefusalError) Is(target error) bool { return target == ErrRefused }

// ProviderError is a failed call to the provider API.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	return target == ErrQuotaExceeded && e.Status == http.StatusTooManyRequests
}

// Transient reports whether the call may succeed when repeated.
func (e *ProviderError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}
