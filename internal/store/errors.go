package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrSlotTaken is returned by CreateIfFree when the requested time range
	// already holds an active booking for the specialist.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrNotClaimed is returned when a waitlist transition requires the entry
	// to be in the claimed state and it is not.
	ErrNotClaimed = errors.New("waitlist entry not claimed")
)
