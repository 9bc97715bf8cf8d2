package roster

import "errors"

var (
	// ErrNotFound is returned when a meeting id is unknown to the roster.
	ErrNotFound = errors.New("meeting not found")

	// ErrAlreadyJoined is returned when a user joins a meeting twice.
	ErrAlreadyJoined = errors.New("user already in meeting")

	// ErrNotParticipant is returned when a user leaves a meeting they are
	// not part of.
	ErrNotParticipant = errors.New("user not in meeting")
)
