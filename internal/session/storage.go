package session

import (
	"context"
	"log"
	"sync"
	"time"

	"ecgrisk/domain/core"
	"ecgrisk/domain/state"
	"ecgrisk/ports"
)

// snapshotWriter coalesces snapshot saves. Ticks change state twenty times a
// second; only the newest snapshot per session is written.
type snapshotWriter struct {
	repo    ports.UIStateRepository
	timeout time.Duration

	saveMu  sync.Mutex
	mu      sync.Mutex
	pending map[core.SessionID]state.Snapshot
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newSnapshotWriter(repo ports.UIStateRepository, timeout time.Duration) *snapshotWriter {
	if timeout <= 0 {
		timeout = time.Second
	}
	w := &snapshotWriter{
		repo:    repo,
		timeout: timeout,
		pending: make(map[core.SessionID]state.Snapshot),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue replaces any unsaved snapshot for the same session.
func (w *snapshotWriter) enqueue(snap state.Snapshot) {
	w.mu.Lock()
	if old, ok := w.pending[snap.SessionID]; !ok || old.Version <= snap.Version {
		w.pending[snap.SessionID] = snap
	}
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// remove drops any unsaved snapshot and deletes the stored one. It waits
// for an in-flight save so the delete is not overtaken.
func (w *snapshotWriter) remove(ctx context.Context, id core.SessionID) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()
	return w.repo.Delete(ctx, id)
}

// flush writes everything pending on the caller's goroutine.
func (w *snapshotWriter) flush(ctx context.Context) error {
	w.saveMu.Lock()
	defer w.saveMu.Unlock()
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[core.SessionID]state.Snapshot)
	w.mu.Unlock()

	var firstErr error
	for _, snap := range batch {
		if err := w.repo.Save(ctx, snap); err != nil {
			log.Printf("[Session] Failed to persist snapshot for %s: %v", snap.SessionID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (w *snapshotWriter) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.wake:
			ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
			_ = w.flush(ctx)
			cancel()
		case <-w.done:
			return
		}
	}
}

// close stops the background loop and writes what is left.
func (w *snapshotWriter) close(ctx context.Context) error {
	w.once.Do(func() { close(w.done) })
	<-w.stopped
	return w.flush(ctx)
}
