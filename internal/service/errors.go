package service

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateEmail is returned by Register when the normalized email
	// already belongs to an account.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is the single login failure. It never says
	// whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is returned by lookups that matched no account.
	ErrNotFound = errors.New("account not found")
)

// ValidationError reports malformed or missing input. Message is safe to
// show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Password policy rules, in the order they are checked.
const (
	RuleMinLength = "min_length"
	RuleUpper     = "uppercase"
	RuleLower     = "lowercase"
	RuleDigit     = "digit"
)

// WeakPasswordError names the first password rule the input failed.
type WeakPasswordError struct {
	Rule    string
	Message string
}

func (e *WeakPasswordError) Error() string { return e.Message }

// StorageError wraps an unexpected persistence failure. Callers log it and
// answer with a generic message; Err must not reach clients.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error { return &StorageError{Op: op, Err: err} }
