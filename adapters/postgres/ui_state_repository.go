package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"

	"ecgrisk/domain/core"
	"ecgrisk/domain/state"
	"ecgrisk/internal/errors"
)

// UIStateRepository stores dashboard session snapshots in ui_state_cache so a
// reconnecting browser resumes where it left off.
type UIStateRepository struct {
	db *sqlx.DB
}

// NewUIStateRepository creates a new UI state repository
func NewUIStateRepository(db *sqlx.DB) *UIStateRepository {
	return &UIStateRepository{db: db}
}

// Save upserts the snapshot. An older version never overwrites a newer one.
func (r *UIStateRepository) Save(ctx context.Context, snap state.Snapshot) error {
	uiStateJSON, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to marshal UI state")
	}

	query := `
		INSERT INTO ui_state_cache (session_id, ui_state, version, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			ui_state = EXCLUDED.ui_state,
			version = EXCLUDED.version,
			last_updated = EXCLUDED.last_updated
		WHERE ui_state_cache.version <= EXCLUDED.version`

	_, err = r.db.ExecContext(ctx, query,
		snap.SessionID.String(),
		uiStateJSON,
		snap.Version,
		snap.LastUpdated,
	)
	if err != nil {
		return errors.DatabaseError("failed to save UI state", err)
	}
	return nil
}

// Get returns nil and no error when the session has no cached state.
func (r *UIStateRepository) Get(ctx context.Context, id core.SessionID) (*state.Snapshot, error) {
	query := `SELECT ui_state FROM ui_state_cache WHERE session_id = $1`

	var uiStateJSON []byte
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&uiStateJSON)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.DatabaseError("failed to get UI state", err)
	}

	var snap state.Snapshot
	if err := json.Unmarshal(uiStateJSON, &snap); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal UI state")
	}
	return &snap, nil
}

// Delete removes the UI state cache for a session
func (r *UIStateRepository) Delete(ctx context.Context, id core.SessionID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ui_state_cache WHERE session_id = $1`, id.String()); err != nil {
		return errors.DatabaseError("failed to delete UI state", err)
	}
	return nil
}

// Stale lists sessions whose cache has not been touched within maxAge.
func (r *UIStateRepository) Stale(ctx context.Context, maxAge time.Duration) ([]core.SessionID, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids,
		`SELECT session_id FROM ui_state_cache WHERE last_updated < $1 ORDER BY last_updated`,
		time.Now().Add(-maxAge))
	if err != nil {
		return nil, errors.DatabaseError("failed to query stale sessions", err)
	}
	out := make([]core.SessionID, len(ids))
	for i, id := range ids {
		out[i] = core.SessionID(id)
	}
	return out, nil
}

// Cleanup deletes caches older than maxAge and reports how many went.
func (r *UIStateRepository) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM ui_state_cache WHERE last_updated < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, errors.DatabaseError("failed to cleanup old UI states", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
