package sqlsource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/arloliu/spanq/source"
)

// Schema creates the default tables.
const Schema = `
CREATE TABLE IF NOT EXISTS slice (
	id       INTEGER PRIMARY KEY,
	track_id INTEGER NOT NULL,
	ts       INTEGER NOT NULL,
	dur      INTEGER NOT NULL,
	depth    INTEGER NOT NULL DEFAULT 0,
	name     TEXT
);
CREATE INDEX IF NOT EXISTS slice_track_ts ON slice(track_id, ts);
CREATE TABLE IF NOT EXISTS actual_frame_timeline_slice (
	id       INTEGER PRIMARY KEY,
	jank_tag TEXT
);
CREATE TABLE IF NOT EXISTS trace_bounds (
	start_ts INTEGER NOT NULL,
	end_ts   INTEGER NOT NULL
);
`

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

// Open opens a SQLite database with the pure Go driver and checks that it
// is reachable. dsn is a file path or MemoryDSN.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every connection to :memory: sees its own database.
	if dsn == MemoryDSN {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// InitSchema creates the default tables if they do not exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}

// Load replaces the trace bounds and inserts slices into the default
// tables in one transaction. A slice with a non-empty Category also gets a
// category row.
func Load(ctx context.Context, db *sql.DB, bounds source.Bounds, items ...source.Slice) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM trace_bounds"); err != nil {
		return fmt.Errorf("clearing trace bounds: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO trace_bounds(start_ts, end_ts) VALUES (?, ?)",
		bounds.StartPs, bounds.EndPs); err != nil {
		return fmt.Errorf("inserting trace bounds: %w", err)
	}

	sliceStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO slice(id, track_id, ts, dur, depth, name) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing slice insert: %w", err)
	}
	defer sliceStmt.Close()

	tagStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO actual_frame_timeline_slice(id, jank_tag) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing category insert: %w", err)
	}
	defer tagStmt.Close()

	for _, s := range items {
		if _, err = sliceStmt.ExecContext(ctx, s.ID, s.TrackID, s.Ts, s.Dur, int64(s.Depth), s.Name); err != nil {
			return fmt.Errorf("inserting slice %d: %w", s.ID, err)
		}
		if s.Category == "" {
			continue
		}
		if _, err = tagStmt.ExecContext(ctx, s.ID, s.Category); err != nil {
			return fmt.Errorf("inserting category for slice %d: %w", s.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}

	return nil
}
