package domain

import "errors"

// Errors raised by the Event aggregate. They are expected per-request outcomes, never fatal.
var (
	ErrEventClosed        = errors.New("event is closed")
	ErrNotAdministrator   = errors.New("only the administrator can modify the event")
	ErrOptionNotFound     = errors.New("option not found")
	ErrUserNotInGuestList = errors.New("user is not in the guest list")
	ErrNoOptionVoted      = errors.New("no option has been voted")
)

// Errors raised by the collaborators around the aggregate.
var (
	ErrNotFound            = errors.New("not found")
	ErrOptionAlreadyExists = errors.New("option already exists")
	ErrInvalidOptionKey    = errors.New("invalid option date or time")
	ErrInvalidInput        = errors.New("invalid input")
	// ErrConflict is returned by Save when the stored event changed since it was loaded.
	ErrConflict = errors.New("event was modified concurrently")
)
