// Error kinds shared across the booking core. Callers match on the kind
// rather than the message: NoMatchingOffer means no inventory exists for
// the requested route/date/class at all, while NoAvailability means
// matching offers exist but are at capacity. The two produce different
// user-facing guidance, so they must stay distinct.
package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindNoMatchingOffer ErrorKind = "no_matching_offer"
	KindNoAvailability  ErrorKind = "no_availability"
	KindPersistence     ErrorKind = "persistence"
	KindNotFound        ErrorKind = "not_found"
	KindTransition      ErrorKind = "transition"
)

type Error struct {
	Kind   ErrorKind
	Reason string
	cause  error
}

func NewError(kind ErrorKind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func WrapError(kind ErrorKind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the error kind, or an empty kind for untyped errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
