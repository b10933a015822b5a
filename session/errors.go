// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"fmt"

	"github.com/danielhkuo/gatherfun/store"
)

var (
	ErrNotFound            = store.ErrNotFound
	ErrNotHost             = errors.New("only the host can do that")
	ErrNotParticipant      = errors.New("not a participant of this session")
	ErrInvalidTransition   = errors.New("transition not allowed from current status")
	ErrPhaseClosed         = errors.New("session is no longer accepting this action")
	ErrPreferencesRequired = errors.New("submit preferences before voting")
	ErrNoVotes             = errors.New("no votes recorded yet")
	ErrAlreadyPlayed       = errors.New("tie-break already played")
	ErrAlreadyFinished     = errors.New("session already finished")
	ErrNotFinished         = errors.New("session has not finished yet")
	ErrCandidatesNotLoaded = errors.New("candidate pool is empty")
)

// ValidationError reports a rejected input field. Nothing is written when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
