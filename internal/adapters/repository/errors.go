package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("user not found")
	ErrAlreadyExists = errors.New("user already exists")
	ErrNotBlocked    = errors.New("user is not blocked")
)
