package app

import "errors"

var (
	ErrAvatarTooLarge = errors.New("Image must be 5MB or smaller.")
	ErrAvatarType     = errors.New("Please choose a JPEG, PNG, GIF or WebP image.")
	ErrEmptyPost      = errors.New("title and content are required")
	ErrNotConfirmed   = errors.New("deletion not confirmed")

	errMissingCredentials = errors.New("Username and password are required.")
	errInvalidEmail       = errors.New("Please enter a valid email address.")
)
