package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDuplicateIdentity    = errors.New("identity already in use")
	ErrAuthFailed           = errors.New("invalid email or password")
	ErrAuthenticationFailed = errors.New("invalid token")
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrForbidden            = errors.New("forbidden")
	ErrNoticeInactive       = errors.New("notice is no longer active")
	ErrOwnNotice            = errors.New("cannot respond to own notice")
	ErrAlreadyResponded     = errors.New("already responded to notice")
	ErrNoticeCompleted      = errors.New("notice is already completed")
)

// DuplicateIdentityError names the identity field that is already taken.
type DuplicateIdentityError struct {
	Field string
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}

func (e *DuplicateIdentityError) Unwrap() error { return ErrDuplicateIdentity }

// ValidationError carries per-field messages for bad input.
type ValidationError struct {
	Fields map[string]string
}

// FieldNames returns the failing fields in sorted order.
func (e *ValidationError) FieldNames() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *ValidationError) Error() string {
	keys := e.FieldNames()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// fieldErrors accumulates validation messages, keeping the first per field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
