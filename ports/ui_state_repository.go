package ports

import (
	"context"

	"ecgrisk/domain/core"
	"ecgrisk/domain/state"
)

// UIStateRepository persists session snapshots so a reconnecting client
// resumes where it left off.
type UIStateRepository interface {
	// Save stores the snapshot, replacing any older version for the session
	Save(ctx context.Context, snap state.Snapshot) error

	// Get returns the stored snapshot, or nil and no error when none exists
	Get(ctx context.Context, id core.SessionID) (*state.Snapshot, error)

	// Delete removes the session's snapshot
	Delete(ctx context.Context, id core.SessionID) error
}
