// SPDX-License-Identifier: GPL-3.0-or-later

package mbus

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable means the bus could not be reached or answered with garbage.
	ErrUnavailable = errors.New("management bus unavailable")
	// ErrNotFound means the object or attribute is not registered.
	ErrNotFound = errors.New("not found")
	// ErrTypeMismatch means a value or an argument had an unexpected type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrRemote means the host executed the call and raised an exception.
	ErrRemote = errors.New("remote exception")
	// ErrMalformedName means an object name could not be parsed.
	ErrMalformedName = errors.New("malformed object name")
)

// Error is returned by every Client call.
type Error struct {
	Op     string // read, exec, search, version
	Name   string
	Member string // attribute or operation
	Err    error
	Detail string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Name != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Name)
	}
	if e.Member != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Member)
		sb.WriteString("]")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(op, name, member string, kind error, format string, a ...any) *Error {
	return &Error{Op: op, Name: name, Member: member, Err: kind, Detail: fmt.Sprintf(format, a...)}
}

// IsUnavailable reports whether err means the bus itself cannot be used right now.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
