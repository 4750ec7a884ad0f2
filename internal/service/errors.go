package service

import (
	"errors"
	"fmt"
)

// Errors returned by the services. Callers match them with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrMissingStudioName  = errors.New("studio name is required for developers")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("only buyers can own a cart or library")
	ErrGameNotFound       = errors.New("game not found")
	ErrAlreadyOwned       = errors.New("game already owned")
	ErrAlreadyInCart      = errors.New("game already in cart")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrStorage            = errors.New("storage error")
)

var classified = []error{
	ErrValidation,
	ErrUsernameTaken,
	ErrMissingStudioName,
	ErrInvalidCredentials,
	ErrForbidden,
	ErrGameNotFound,
	ErrAlreadyOwned,
	ErrAlreadyInCart,
	ErrSessionNotFound,
	ErrStorage,
}

// storageError tags a store failure so the HTTP layer can map it.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// validationError reports bad caller input.
func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// classify passes known service errors through and tags everything else as storage.
func classify(op string, err error) error {
	for _, known := range classified {
		if errors.Is(err, known) {
			return err
		}
	}
	return storageError(op, err)
}
