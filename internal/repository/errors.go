// Package repository persists consumed session events.  Sentinel values let
// callers tell bad input from storage failures.
package repository

import "errors"

// ErrInvalidEvent is returned when an event cannot be stored as given,
// e.g. its timestamp does not parse.
var ErrInvalidEvent = errors.New("invalid event")
