package persist

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/etnz/tally"
	"github.com/etnz/tally/date"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	saved_at  TEXT NOT NULL,
	document  BLOB NOT NULL
);
`

// DefaultKeep is the number of snapshots kept by default.
const DefaultKeep = 20

// SQLite keeps the last saved states as snapshots in a SQLite database.
type SQLite struct {
	db   *sql.DB
	keep int
}

// Snapshot describes a saved state.
type Snapshot struct {
	ID      int64
	SavedAt time.Time
	Size    int
}

// OpenSQLite opens (or creates) the database at path. It keeps the last
// 'keep' snapshots, DefaultKeep when keep is not positive.
func OpenSQLite(path string, keep int) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &SQLite{db: db, keep: keep}, nil
}

// Close closes the database.
func (q *SQLite) Close() error { return q.db.Close() }

// Save inserts a new snapshot and prunes the oldest ones.
func (q *SQLite) Save(ctx context.Context, s *tally.State) error {
	var buf bytes.Buffer
	if err := tally.EncodeState(&buf, s); err != nil {
		return err
	}
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots (saved_at, document) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), buf.Bytes()); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)`, q.keep); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit()
}

// Load decodes the latest snapshot.
func (q *SQLite) Load(ctx context.Context, today date.Date) (*tally.State, error) {
	var doc []byte
	err := q.db.QueryRowContext(ctx, `SELECT document FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no snapshot: %w", fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return tally.DecodeState(bytes.NewReader(doc), today)
}

// Snapshots lists the kept snapshots, latest first.
func (q *SQLite) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, saved_at, length(document) FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()
	var snapshots []Snapshot
	for rows.Next() {
		var (
			s       Snapshot
			savedAt string
		)
		if err := rows.Scan(&s.ID, &savedAt, &s.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if s.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", s.ID, err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
