package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that map failures onto responses or
// retry policy.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindSettlement
)

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// Validation reports bad input or a business-rule violation. Not retried.
func Validation(msg string) error {
	return &Error{kind: KindValidation, msg: msg}
}

// NotFound reports a missing booking, departure or payment. Not retried.
func NotFound(msg string) error {
	return &Error{kind: KindNotFound, msg: msg}
}

// Settlement wraps a payment-gateway communication or integration failure.
// The caller's own redelivery (e.g. a gateway webhook retry) is the retry path.
func Settlement(msg string, err error) error {
	return &Error{kind: KindSettlement, msg: msg, err: err}
}

func IsValidation(err error) bool { return isKind(err, KindValidation) }

func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

func IsSettlement(err error) bool { return isKind(err, KindSettlement) }

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == kind
}
