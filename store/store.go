// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"

	"github.com/danielhkuo/gatherfun/models"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrConflict = errors.New("session was modified concurrently")
)

// Mutator inspects the current session and returns the patch to merge into it.
// Returning an error aborts the update without writing. The session passed in
// is a private copy.
type Mutator func(current *models.Session) (models.Patch, error)

// Store persists sessions and pushes every committed version to subscribers.
type Store interface {
	// Create assigns an ID and version 1 and stores the session.
	Create(ctx context.Context, s *models.Session) (*models.Session, error)

	Get(ctx context.Context, id string) (*models.Session, error)

	// Update runs fn and merges its patch atomically with respect to other
	// updates of the same session. A patch that changes nothing is not written.
	Update(ctx context.Context, id string, fn Mutator) (*models.Session, error)

	// Subscribe delivers the current session and then every later version.
	// The channel is closed when ctx is done.
	Subscribe(ctx context.Context, id string) (<-chan *models.Session, error)
}

// Notifier is told about every committed write.
type Notifier interface {
	Changed(id string, version int64)
}
