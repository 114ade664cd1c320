// Package apierr provides a typed, numeric error taxonomy for HTTP services
// and the JSON envelope used to carry it across service boundaries.
//
// Every failure is classified by a Descriptor registered once at start-up.
// Handlers return *Error values created from descriptors; the Translator turns
// them (and any unexpected error) into a {code, msg, data, error_detail}
// envelope. A peer that receives the envelope can rebuild the same *Error
// from its code (see package remote).
package apierr

import (
	"errors"
	"fmt"
	"maps"
)

// Error is one occurrence of a Descriptor.
//
// Errors are values: every With* method returns a copy and never mutates the
// receiver, so a prototype *Error can be shared between call sites.
type Error struct {
	Code    Code
	Name    string
	Message string
	Status  int

	// Detail is appended to the message and sent to the caller.
	Detail string
	// Data is merged into the envelope's data field.
	Data map[string]any

	// Not serialized:
	private string
	cause   error
}

// New creates an Error from d without detail.
func (d Descriptor) New() *Error {
	status := d.Status
	if status == 0 {
		status = DefaultStatus
	}
	return &Error{
		Code:    d.Code,
		Name:    d.Name,
		Message: d.Message,
		Status:  status,
	}
}

// WithDetail creates an Error from d carrying a public detail.
func (d Descriptor) WithDetail(detail string) *Error {
	return d.New().WithDetail(detail)
}

// Errorf creates an Error from d with a formatted public detail.
func (d Descriptor) Errorf(format string, args ...any) *Error {
	return d.New().WithDetail(fmt.Sprintf(format, args...))
}

// Raise creates an Error from d with public detail, private detail and data.
// Empty arguments are ignored.
func (d Descriptor) Raise(detail, private string, data map[string]any) *Error {
	return d.New().WithDetail(detail).WithPrivateDetail(private).WithData(data)
}

// Error renders message, public detail and private detail. The result is
// meant for logs; the envelope never contains the private detail.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.private != "" {
		msg += "\n" + e.private
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same code. Detail, data
// and status are ignored.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// PrivateDetail returns the log-only detail.
func (e *Error) PrivateDetail() string { return e.private }

// Descriptor returns the template e was created from.
func (e *Error) Descriptor() Descriptor {
	return Descriptor{Code: e.Code, Name: e.Name, Message: e.Message, Status: e.Status}
}

// WithDetail returns a copy of e with the public detail replaced.
func (e *Error) WithDetail(detail string) *Error {
	c := e.clone()
	c.Detail = detail
	return c
}

// WithPrivateDetail returns a copy of e with the log-only detail replaced.
func (e *Error) WithPrivateDetail(private string) *Error {
	c := e.clone()
	c.private = private
	return c
}

// WithData returns a copy of e with data merged over the existing payload.
func (e *Error) WithData(data map[string]any) *Error {
	c := e.clone()
	if len(data) == 0 {
		return c
	}
	merged := make(map[string]any, len(c.Data)+len(data))
	maps.Copy(merged, c.Data)
	maps.Copy(merged, data)
	c.Data = merged
	return c
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	c := e.clone()
	c.cause = cause
	return c
}

// WithStatus overrides the HTTP status.
func (e *Error) WithStatus(status int) *Error {
	c := e.clone()
	if status != 0 {
		c.Status = status
	}
	return c
}

func (e *Error) clone() *Error {
	c := *e
	return &c
}

// Is reports whether err carries the code of d.
func Is(err error, d Descriptor) bool {
	return HasCode(err, d.Code)
}

// HasCode reports whether err is an *Error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
