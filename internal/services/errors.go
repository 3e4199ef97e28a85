package services

import (
	"errors"
	"strings"

	"imgstore/internal/validation"
)

var (
	// ErrDuplicateUsername is returned when a registration collides with an
	// existing username.
	ErrDuplicateUsername = errors.New("username is already taken")
	// ErrDuplicateExternalID is returned when an external identity cannot be
	// linked because its id is already bound elsewhere.
	ErrDuplicateExternalID = errors.New("external identity is already linked")
	// ErrAuthenticationFailed covers both an unknown username and a wrong
	// password so callers cannot tell them apart.
	ErrAuthenticationFailed = errors.New("invalid username or password")
	// ErrInvalidFileType is returned for uploads outside the image whitelist.
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrEmptyFile is returned for uploads without content.
	ErrEmptyFile = errors.New("file is empty")
	// ErrFileTooLarge is returned for uploads above MaxImageSize.
	ErrFileTooLarge = errors.New("file size exceeds the maximum limit")
	// ErrNoImages is returned when a user has not uploaded anything yet.
	ErrNoImages = errors.New("no image is associated with the account")
)

// ValidationError aggregates every field violation of a request.
type ValidationError struct {
	Fields []validation.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
