// Package apperr carries the stable error kinds surfaced by the campaign and
// donation services. Controllers map a Kind to an HTTP status; callers branch
// on Kind, never on message text.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindStateConflict     Kind = "STATE_CONFLICT"
	KindForbidden         Kind = "FORBIDDEN"
	KindNotFound          Kind = "NOT_FOUND"
	KindProcessor         Kind = "PROCESSOR_ERROR"
	KindSignatureInvalid  Kind = "SIGNATURE_INVALID"
	KindPaymentIncomplete Kind = "PAYMENT_INCOMPLETE"
	KindMetadataParse     Kind = "METADATA_PARSE_ERROR"
	KindInternal          Kind = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, apperr.NotFound("")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) *Error { return New(KindValidation, format, args...) }
func StateConflict(format string, args ...any) *Error {
	return New(KindStateConflict, format, args...)
}
func Forbidden(format string, args ...any) *Error { return New(KindForbidden, format, args...) }
func NotFound(format string, args ...any) *Error  { return New(KindNotFound, format, args...) }
func PaymentIncomplete(format string, args ...any) *Error {
	return New(KindPaymentIncomplete, format, args...)
}
func MetadataParse(format string, args ...any) *Error {
	return New(KindMetadataParse, format, args...)
}
func SignatureInvalid(err error) *Error {
	return Wrap(KindSignatureInvalid, err, "webhook signature verification failed")
}
func Processor(err error, format string, args ...any) *Error {
	return Wrap(KindProcessor, err, format, args...)
}
func Internal(err error, format string, args ...any) *Error {
	return Wrap(KindInternal, err, format, args...)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
