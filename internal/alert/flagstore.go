package alert

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"standwatch/internal/logging"
)

// Flag records that the turn alert for one stand has fired.
type Flag struct {
	StandID int64
	FiredAt time.Time
}

// FlagStore persists notification flags in SQLite so a restarted watch session
// does not re-alert for a crossing it already announced.
type FlagStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenFlagStore initializes or connects to the flag database at path.
func OpenFlagStore(path string, logger *slog.Logger) (*FlagStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure flag store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open flag db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &FlagStore{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "flagstore"),
	}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *FlagStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS notification_flags (
        key      TEXT PRIMARY KEY,
        stand_id INTEGER NOT NULL,
        fired_at TEXT NOT NULL
    )`)
	if err != nil {
		return fmt.Errorf("create flag schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *FlagStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func flagKey(standID int64) string {
	return fmt.Sprintf("notified_%d", standID)
}

// Lookup returns the flag for a stand if one is set.
func (s *FlagStore) Lookup(ctx context.Context, standID int64) (Flag, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT stand_id, fired_at FROM notification_flags WHERE key = ?`, flagKey(standID))

	var id int64
	var firedAt string
	if err := row.Scan(&id, &firedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Flag{}, false, nil
		}
		return Flag{}, false, fmt.Errorf("lookup flag: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, firedAt)
	if err != nil {
		return Flag{}, false, fmt.Errorf("parse flag timestamp %q: %w", firedAt, err)
	}
	return Flag{StandID: id, FiredAt: parsed}, true, nil
}

// Mark records that the alert for a stand fired at the given time, replacing
// any existing flag.
func (s *FlagStore) Mark(ctx context.Context, standID int64, firedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_flags (key, stand_id, fired_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET fired_at = excluded.fired_at`,
		flagKey(standID), standID, firedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("mark flag: %w", err)
	}
	return nil
}

// Clear removes the flag for a stand. Clearing an absent flag is not an error.
func (s *FlagStore) Clear(ctx context.Context, standID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM notification_flags WHERE key = ?`, flagKey(standID))
	if err != nil {
		return fmt.Errorf("clear flag: %w", err)
	}
	return nil
}

// List returns all flags currently set.
func (s *FlagStore) List(ctx context.Context) ([]Flag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stand_id, fired_at FROM notification_flags ORDER BY stand_id`)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	defer rows.Close()

	var flags []Flag
	for rows.Next() {
		var id int64
		var firedAt string
		if err := rows.Scan(&id, &firedAt); err != nil {
			return nil, fmt.Errorf("scan flag: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, firedAt)
		if err != nil {
			return nil, fmt.Errorf("parse flag timestamp %q: %w", firedAt, err)
		}
		flags = append(flags, Flag{StandID: id, FiredAt: parsed})
	}
	return flags, rows.Err()
}

// SweepAll removes every flag. Used at session teardown.
func (s *FlagStore) SweepAll(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notification_flags`)
	if err != nil {
		return 0, fmt.Errorf("sweep flags: %w", err)
	}
	swept, _ := res.RowsAffected()
	if swept > 0 {
		s.logger.Debug("swept notification flags", logging.Int64("count", swept))
	}
	return int(swept), nil
}
