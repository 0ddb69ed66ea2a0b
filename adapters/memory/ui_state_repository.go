package memory

import (
	"context"
	"sync"

	"ecgrisk/domain/core"
	"ecgrisk/domain/state"
)

// UIStateRepository keeps the newest snapshot per session.
type UIStateRepository struct {
	mu    sync.RWMutex
	snaps map[core.SessionID]state.Snapshot
}

// NewUIStateRepository returns an empty repository.
func NewUIStateRepository() *UIStateRepository {
	return &UIStateRepository{snaps: make(map[core.SessionID]state.Snapshot)}
}

// Save ignores snapshots older than the stored one.
func (r *UIStateRepository) Save(ctx context.Context, snap state.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.snaps[snap.SessionID]; ok && old.Version > snap.Version {
		return nil
	}
	r.snaps[snap.SessionID] = snap
	return nil
}

func (r *UIStateRepository) Get(ctx context.Context, id core.SessionID) (*state.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	snap, ok := r.snaps[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (r *UIStateRepository) Delete(ctx context.Context, id core.SessionID) error {
	r.mu.Lock()
	delete(r.snaps, id)
	r.mu.Unlock()
	return nil
}

// Len reports how many sessions have a snapshot.
func (r *UIStateRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snaps)
}
