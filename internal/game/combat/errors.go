package combat

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the Manager. Concrete errors wrap one of these, so
// callers classify with errors.Is.
var (
	// ErrNotFound covers unknown player, monster, or session ids.
	ErrNotFound = errors.New("not found")
	// ErrInvalidActor covers an actor that is not the requester, is dead, or
	// targets an illegal participant.
	ErrInvalidActor = errors.New("invalid actor")
	// ErrInvalidState covers requests against a session that is no longer in progress.
	ErrInvalidState = errors.New("invalid state")
	// ErrPreconditionFailed covers missing or malformed request fields.
	ErrPreconditionFailed = errors.New("precondition failed")
)

// ErrSessionNotFound is returned by a Store when no session has the given id.
var ErrSessionNotFound = fmt.Errorf("combat session %w", ErrNotFound)

// ErrPlayerNotFound is returned by a PlayerStore when no player has the given id.
var ErrPlayerNotFound = fmt.Errorf("player %w", ErrNotFound)
