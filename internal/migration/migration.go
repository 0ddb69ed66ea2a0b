package migration

import (
	"context"
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"ecgrisk/internal/errors"
)

//go:embed sql/*.sql
var files embed.FS

// Migration is one versioned schema change.
type Migration struct {
	Version  string
	Name     string
	SQL      string
	Checksum string
}

// Status pairs a migration with whether it has been applied.
type Status struct {
	Migration
	Applied bool
}

// Runner applies the embedded migrations in version order and records each
// in schema_migrations.
type Runner struct {
	migrations []Migration
}

// NewRunner loads the embedded migrations.
func NewRunner() (*Runner, error) {
	ms, err := Load(files)
	if err != nil {
		return nil, err
	}
	return &Runner{migrations: ms}, nil
}

// Migrations returns the known migrations in order.
func (r *Runner) Migrations() []Migration {
	return append([]Migration(nil), r.migrations...)
}

// Version returns the newest known version.
func (r *Runner) Version() string {
	if len(r.migrations) == 0 {
		return ""
	}
	return r.migrations[len(r.migrations)-1].Version
}

// Load reads NNN_name.sql files from fsys's sql directory.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "sql")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read migrations")
	}

	var out []Migration
	seen := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		parts := strings.SplitN(strings.TrimSuffix(e.Name(), ".sql"), "_", 2)
		if len(parts) < 2 {
			return nil, errors.ConfigInvalid("migration file name must be NNN_name.sql: " + e.Name())
		}
		if prev, dup := seen[parts[0]]; dup {
			return nil, errors.ConfigInvalid(fmt.Sprintf("migration version %s used by %s and %s", parts[0], prev, e.Name()))
		}
		seen[parts[0]] = e.Name()

		data, err := fs.ReadFile(fsys, path.Join("sql", e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", e.Name())
		}
		out = append(out, Migration{
			Version:  parts[0],
			Name:     parts[1],
			SQL:      string(data),
			Checksum: checksum(data),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Run executes every pending migration, each in its own transaction. An
// applied migration whose file has since changed is an error.
func (r *Runner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := ensureTable(ctx, db); err != nil {
		return err
	}
	applied, err := appliedChecksums(ctx, db)
	if err != nil {
		return err
	}
	if err := verify(r.migrations, applied); err != nil {
		return err
	}

	for _, m := range pending(r.migrations, applied) {
		if err := apply(ctx, db, m); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s_%s", m.Version, m.Name)
		}
		log.Printf("[Migration] Applied %s_%s", m.Version, m.Name)
	}
	return nil
}

// Status reports which migrations have been applied.
func (r *Runner) Status(ctx context.Context, db *sqlx.DB) ([]Status, error) {
	if err := ensureTable(ctx, db); err != nil {
		return nil, err
	}
	applied, err := appliedChecksums(ctx, db)
	if err != nil {
		return nil, err
	}
	out := make([]Status, len(r.migrations))
	for i, m := range r.migrations {
		_, ok := applied[m.Version]
		out[i] = Status{Migration: m, Applied: ok}
	}
	return out, nil
}

func ensureTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`)
	if err != nil {
		return errors.DatabaseError("failed to create schema_migrations table", err)
	}
	return nil
}

func appliedChecksums(ctx context.Context, db *sqlx.DB) (map[string]string, error) {
	var rows []struct {
		Version  string `db:"version"`
		Checksum string `db:"checksum"`
	}
	if err := db.SelectContext(ctx, &rows, `SELECT version, checksum FROM schema_migrations`); err != nil {
		return nil, errors.DatabaseError("failed to read applied migrations", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Version] = row.Checksum
	}
	return out, nil
}

func apply(ctx context.Context, db *sqlx.DB, m Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)`, m.Version, m.Checksum); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func verify(ms []Migration, applied map[string]string) error {
	for _, m := range ms {
		if sum, ok := applied[m.Version]; ok && sum != m.Checksum {
			return errors.ConfigInvalid(fmt.Sprintf("migration %s_%s changed after it was applied", m.Version, m.Name))
		}
	}
	return nil
}

func pending(ms []Migration, applied map[string]string) []Migration {
	var out []Migration
	for _, m := range ms {
		if _, ok := applied[m.Version]; !ok {
			out = append(out, m)
		}
	}
	return out
}

func checksum(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
