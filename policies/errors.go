package policies

import "errors"

var (
	// ErrUnexpectedNotification is returned when a notification arrives out of
	// the State, Action, Reward order
	ErrUnexpectedNotification = errors.New("unexpected notification")
	// ErrMissingField is returned by config validation
	ErrMissingField = errors.New("missing field")
)
