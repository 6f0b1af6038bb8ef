package ai

import (
	"fmt"
)

// ErrRateLimit indicates the gateway answered 429. The caller may retry later; this client never does.
type ErrRateLimit struct {
	Err error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("ai gateway rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrPaymentRequired indicates the gateway answered 402 because credits are exhausted.
type ErrPaymentRequired struct {
	Err error
}

func (e *ErrPaymentRequired) Error() string {
	return fmt.Sprintf("ai gateway credits exhausted: %v", e.Err)
}

func (e *ErrPaymentRequired) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers every other non-2xx answer and transport failures.
type ErrProviderUnavailable struct {
	StatusCode int
	Err        error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ai gateway unavailable (status %d): %v", e.StatusCode, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("ai gateway unavailable: %v", e.Err)
	}
	return "ai gateway unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model's text could not be turned into the expected JSON shape.
type ErrInvalidResponse struct {
	Raw string
	Err error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid ai response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }
