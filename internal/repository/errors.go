package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// DuplicateKeyError reports which unique field a write collided on.
// Field is a logical name: "email", "username", "token", "response".
type DuplicateKeyError struct {
	Field string
}

func (e DuplicateKeyError) Error() string {
	if e.Field == "" {
		return ErrDuplicateKey.Error()
	}
	return fmt.Sprintf("%v: %s", ErrDuplicateKey, e.Field)
}

func (e DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }
