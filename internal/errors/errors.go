// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package errors

import (
	"errors"
	"fmt"
)

// Kind defines the category of error the impairment engine can produce.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfigMissing
	KindConfigSectionMissing
	KindConfigFieldMissing
	KindAllocationFailed
	KindKernelQueue
	KindKernelReceive
	KindInvalidLinkKind
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfigMissing:
		return "config_missing"
	case KindConfigSectionMissing:
		return "config_section_missing"
	case KindConfigFieldMissing:
		return "config_field_missing"
	case KindAllocationFailed:
		return "allocation_failed"
	case KindKernelQueue:
		return "kernel_queue"
	case KindKernelReceive:
		return "kernel_receive"
	case KindInvalidLinkKind:
		return "invalid_link_kind"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error represents a structured error produced by the impairment engine.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
	Attributes map[string]any
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// New creates a new Error of the specified kind.
func New(kind Kind, msg string) error {
	return &Error{
		Kind:    kind,
		Message: msg,
	}
}

// Errorf creates a new Error of the specified kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error as a new Error of the specified kind.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:       kind,
		Message:    msg,
		Underlying: err,
	}
}

// Wrapf wraps an existing error as a new Error of the specified kind with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		Underlying: err,
	}
}

// Attr attaches an attribute to an error. If err is not an *Error, it is wrapped as KindUnknown.
func Attr(err error, key string, val any) error {
	if err == nil {
		return nil
	}

	var e *Error
	if !errors.As(err, &e) {
		e = &Error{
			Kind:       KindUnknown,
			Message:    err.Error(),
			Underlying: err,
		}
	}

	if e.Attributes == nil {
		e.Attributes = make(map[string]any)
	}
	e.Attributes[key] = val
	return e
}

// GetKind returns the Kind of the error, or KindUnknown if err carries no Kind.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// GetAttributes returns all attributes associated with the error and its chain.
func GetAttributes(err error) map[string]any {
	attrs := make(map[string]any)
	var e *Error

	tempErr := err
	for tempErr != nil {
		if errors.As(tempErr, &e) {
			for k, v := range e.Attributes {
				if _, ok := attrs[k]; !ok {
					attrs[k] = v
				}
			}
			tempErr = e.Underlying
		} else {
			break
		}
	}

	return attrs
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if it has one.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
