package icefall

import "github.com/pkg/errors"

// Sentinel errors surfaced at the facade boundary.
var (
	// ErrInvalidArgument rejects malformed launch or reset arguments;
	// no state changes.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsatisfiableQueue rejects a revealed piece the bag cannot
	// produce while speculation is on; the caller must reset.
	ErrUnsatisfiableQueue = errors.New("piece not drawable from bag")

	// ErrDead reports an operation on a destroyed bot. Search death is
	// reported through the Dead poll status instead.
	ErrDead = errors.New("bot is dead")
)
