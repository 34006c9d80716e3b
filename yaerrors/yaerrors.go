// Package yaerrors provides the error type returned across the module.
//
// An Error carries an HTTP-style status code, the original cause (so that
// errors.Is works against the kinds declared in errors.go) and a traceback
// string that grows every time the error is passed up with Wrap.
//
// Example:
//
//	err := yaerrors.FromError(http.StatusBadRequest, yaerrors.ErrMalformedInput, "parse modulus")
//	err = err.Wrap("load public key")
//
//	fmt.Println(err)                                     // 400 | load public key -> parse modulus: malformed input
//	fmt.Println(errors.Is(err, yaerrors.ErrMalformedInput)) // true
package yaerrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/YaCodeDev/GoYaVarRSA/yalogger"
)

// Error is the error interface used by every package of the module.
type Error interface {
	error
	Wrap(msg string) Error
	Wrapf(format string, args ...any) Error
	WrapWithLog(msg string, log yalogger.Logger) Error
	Code() int
	Unwrap() error
	UnwrapLastError() string
}

const (
	codeSeparate  = " | "
	errorSeparate = " -> "
)

type yaError struct {
	code      int
	cause     error
	traceback string
}

// FromError builds an Error around cause. The cause stays reachable through
// Unwrap, so kinds such as ErrMalformedInput can be matched with errors.Is.
func FromError(code int, cause error, wrap string) Error {
	return &yaError{
		code:      code,
		cause:     cause,
		traceback: fmt.Sprintf("%s: %v", wrap, cause),
	}
}

// FromErrorWithLog is FromError that also writes the message at error level.
func FromErrorWithLog(code int, cause error, wrap string, log yalogger.Logger) Error {
	msg := fmt.Sprintf("%s: %v", wrap, cause)
	log.Error(msg)

	return &yaError{
		code:      code,
		cause:     cause,
		traceback: msg,
	}
}

// FromString builds an Error with a fresh cause made from msg.
func FromString(code int, msg string) Error {
	return &yaError{
		code:      code,
		cause:     errors.New(msg), //nolint:err113
		traceback: msg,
	}
}

// FromStringWithLog is FromString that also writes the message at error level.
func FromStringWithLog(code int, msg string, log yalogger.Logger) Error {
	log.Error(msg)

	return FromString(code, msg)
}

// Internal is a shorthand for FromError with http.StatusInternalServerError.
func Internal(cause error, wrap string) Error {
	return FromError(http.StatusInternalServerError, cause, wrap)
}

// Error returns "<code> | <traceback>".
func (e *yaError) Error() string {
	safetyCheck(&e)

	return fmt.Sprintf("%d%s%s", e.code, codeSeparate, e.traceback)
}

// Unwrap returns the cause the error was created from.
func (e *yaError) Unwrap() error {
	safetyCheck(&e)

	return e.cause
}

// UnwrapLastError returns the outermost traceback entry.
func (e *yaError) UnwrapLastError() string {
	safetyCheck(&e)

	before, _, found := strings.Cut(e.traceback, errorSeparate)
	if !found {
		return e.traceback
	}

	return before
}

// Wrap prepends msg to the traceback. Call it every time the error crosses a
// function boundary so the final message reads like a call path.
func (e *yaError) Wrap(msg string) Error {
	safetyCheck(&e)
	e.traceback = fmt.Sprintf("%s%s%s", msg, errorSeparate, e.traceback)

	return e
}

// Wrapf is Wrap with a format string.
func (e *yaError) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Sprintf(format, args...))
}

// WrapWithLog is Wrap that also writes msg at error level.
func (e *yaError) WrapWithLog(msg string, log yalogger.Logger) Error {
	log.Error(msg)

	return e.Wrap(msg)
}

// Code returns the status code of the error.
func (e *yaError) Code() int {
	safetyCheck(&e)

	return e.code
}

// safetyCheck replaces a nil receiver with a teapot error.
func safetyCheck(err **yaError) {
	if *err == nil {
		*err = &yaError{
			code:      http.StatusTeapot,
			cause:     ErrTeapot,
			traceback: ErrTeapot.Error(),
		}
	}
}
