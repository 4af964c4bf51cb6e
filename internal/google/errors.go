package google

import (
	"errors"
	"fmt"
)

// Operations reported in AuthError
const (
	OpLoadCredentials = "load credentials"
	OpLoadToken       = "load token"
	OpInteractive     = "interactive login"
	OpSaveToken       = "save token"
)

// ErrNoToken is returned by a TokenStore when nothing has been cached yet.
var ErrNoToken = errors.New("no cached token")

// ErrNotInteractive is returned when a login is needed but nobody can complete it.
var ErrNotInteractive = errors.New("stdin is not a terminal")

// AuthError is returned when a session cannot be obtained
type AuthError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return fmt.Sprintf("google auth: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *AuthError) Unwrap() error {
	return e.Err
}
