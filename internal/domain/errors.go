package domain

import "errors"

var (
	ErrEmptyCatalog       = errors.New("catalog must contain at least one track")
	ErrDuplicateTrackID   = errors.New("duplicate track id")
	ErrInvalidTrack       = errors.New("invalid track")
	ErrInvalidDuration    = errors.New("invalid timer duration")
	ErrInvalidSharingMode = errors.New("invalid sharing mode")
	ErrNotInTimer         = errors.New("the timer is not open")
	ErrUnknownCommand     = errors.New("unknown session command")
	ErrSessionClosed      = errors.New("session is closed")
)
