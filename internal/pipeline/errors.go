package pipeline

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/noah-isme/gema-academic-api/pkg/ai"
)

// Kind classifies why a run failed.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindInvalidInput    Kind = "invalid_input"
	KindNotFound        Kind = "not_found"
	KindRateLimited     Kind = "rate_limited"
	KindPaymentRequired Kind = "payment_required"
	KindUpstream        Kind = "upstream"
	KindParse           Kind = "parse"
	KindPersistence     Kind = "persistence"
	KindInternal        Kind = "internal"
)

// Caller-facing messages for upstream and parse failures.
const (
	MessageRateLimited     = "Rate limit exceeded. Please try again later."
	MessagePaymentRequired = "AI credits exhausted. Please add credits to continue."
	MessageUpstream        = "AI service unavailable"
	MessageParse           = "Could not process AI response"
	MessagePersistence     = "Failed to save AI result"
	MessageInternal        = "internal server error"
)

// Error ends a run. Message is safe to show to callers; Err keeps the cause for logs.
type Error struct {
	Stage   Stage
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s at %s: %s: %v", e.Kind, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Stage, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindPaymentRequired:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// NewError builds an Error for the given stage.
func NewError(stage Stage, kind Kind, message string, err error) *Error {
	return &Error{Stage: stage, Kind: kind, Message: message, Err: err}
}

// Classify turns a gateway or extractor error into a kind and caller-facing message.
// Anything unrecognised is internal.
func Classify(err error) (Kind, string) {
	var (
		existing    *Error
		rateLimit   *ai.ErrRateLimit
		payment     *ai.ErrPaymentRequired
		unavailable *ai.ErrProviderUnavailable
		invalid     *ai.ErrInvalidResponse
	)

	switch {
	case errors.As(err, &existing):
		return existing.Kind, existing.Message
	case errors.As(err, &rateLimit):
		return KindRateLimited, MessageRateLimited
	case errors.As(err, &payment):
		return KindPaymentRequired, MessagePaymentRequired
	case errors.As(err, &unavailable):
		return KindUpstream, MessageUpstream
	case errors.As(err, &invalid):
		return KindParse, MessageParse
	default:
		return KindInternal, MessageInternal
	}
}

// IsParseFailure reports whether err came from extracting or validating model output.
func IsParseFailure(err error) bool {
	var invalid *ai.ErrInvalidResponse
	return errors.As(err, &invalid)
}
