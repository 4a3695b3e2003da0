package leads

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure. Each kind maps to exactly one HTTP status.
type Kind uint8

const (
	KindInternal Kind = iota
	KindUnsupportedMediaType
	KindValidation
	KindPayloadTooLarge
	KindConfiguration
	KindDelivery
)

// Status returns the HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case KindValidation:
		return http.StatusBadRequest
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindDelivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindUnsupportedMediaType:
		return "unsupported_media"
	case KindValidation:
		return "validation"
	case KindPayloadTooLarge:
		return "too_large"
	case KindConfiguration:
		return "config"
	case KindDelivery:
		return "delivery"
	default:
		return "internal"
	}
}

// Error is the tagged error every pipeline stage returns. Message is what
// the caller sees.
type Error struct {
	Kind    Kind
	Message string

	// Field names the offending field for length failures (logged only).
	Field string

	// Provider response echoed back on delivery failures.
	ProviderStatus int
	ProviderBody   string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("leads: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("leads: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind and message so sentinel comparisons survive wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

var (
	// ErrUnsupportedMediaType is returned for anything but urlencoded or multipart bodies
	ErrUnsupportedMediaType = &Error{Kind: KindUnsupportedMediaType, Message: "Unsupported content type"}

	// ErrMissingFields is returned when a required field is empty
	ErrMissingFields = &Error{Kind: KindValidation, Message: "Missing required fields"}

	// ErrMissingIntent is returned when the inquiry type is in the schema but empty
	ErrMissingIntent = &Error{Kind: KindValidation, Message: "Missing inquiry type"}

	// ErrConsentRequired is returned unless consent is exactly "yes"
	ErrConsentRequired = &Error{Kind: KindValidation, Message: "Consent required"}

	// ErrPayloadTooLarge is returned when a field exceeds its length limit
	ErrPayloadTooLarge = &Error{Kind: KindPayloadTooLarge, Message: "Payload too large"}

	// ErrInternal is the generic, non-revealing failure
	ErrInternal = &Error{Kind: KindInternal, Message: "Server error"}
)

func tooLarge(field string) *Error {
	return &Error{Kind: KindPayloadTooLarge, Message: ErrPayloadTooLarge.Message, Field: field}
}

func notConfigured(setting string) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf("Server not configured: %s missing", setting)}
}

func deliveryFailed(status int, body string, cause error) *Error {
	return &Error{Kind: KindDelivery, Message: "Email failed", ProviderStatus: status, ProviderBody: body, Err: cause}
}

func internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: ErrInternal.Message, Err: cause}
}

// asError converts any error into a tagged one; untagged errors become internal.
func asError(err error) *Error {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged
	}
	return internal(err)
}
