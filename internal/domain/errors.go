package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrAuthentication matches every AuthenticationError.
	ErrAuthentication = errors.New("authentication failed")
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrCollaborator matches every CollaboratorError.
	ErrCollaborator = errors.New("collaborator failure")
	// ErrSessionBusy is returned when a login or registration is already in flight.
	ErrSessionBusy = errors.New("session operation in flight")
	// ErrNoSession is returned by operations that need an authenticated session.
	ErrNoSession = errors.New("no active session")
)

// ValidationError reports locally detectable bad input. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// AuthenticationError carries a user-displayable message from a rejected
// login or registration.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// NotFoundError reports a reference to a missing entity, e.g. a cart line.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CollaboratorError reports an unreachable collaborator or malformed data from it.
type CollaboratorError struct {
	Collaborator string
	Op           string
	StatusCode   int
	Err          error
}

func (e *CollaboratorError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Collaborator, e.Op)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}

// Unauthorized reports whether the collaborator rejected the credential.
func (e *CollaboratorError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsUnauthorized reports whether err is a CollaboratorError caused by a
// rejected credential.
func IsUnauthorized(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce) && ce.Unauthorized()
}
