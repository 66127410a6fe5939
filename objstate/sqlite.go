package objstate

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS state_snapshots (
	id TEXT PRIMARY KEY,
	tick INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL,
	object TEXT NOT NULL,
	open INTEGER NOT NULL,
	powered INTEGER NOT NULL,
	parent_type TEXT NOT NULL DEFAULT '',
	parent_relation TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	cause TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS state_snapshots_object ON state_snapshots (object, tick);`

// SQLiteLog persists snapshots in a SQLite table.
type SQLiteLog struct {
	db *sql.DB
}

func OpenSQLiteLog(path string) (*SQLiteLog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

func (l *SQLiteLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *SQLiteLog) AddState(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l == nil || l.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO state_snapshots (id, tick, recorded_at, object, open, powered, parent_type, parent_relation, action, cause)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Tick, snap.Time.UTC().UnixMilli(), snap.Object,
		boolToInt(snap.Open), boolToInt(snap.Powered),
		snap.Parent.Type, snap.Parent.Relation, string(snap.Action), string(snap.Cause),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// History returns every snapshot for object in tick order.
func (l *SQLiteLog) History(ctx context.Context, object string) ([]Snapshot, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, tick, recorded_at, object, open, powered, parent_type, parent_relation, action, cause
		 FROM state_snapshots WHERE object = ? ORDER BY tick, recorded_at`, object)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap          Snapshot
			millis        int64
			open, powered int
			action, cause string
		)
		if err := rows.Scan(&snap.ID, &snap.Tick, &millis, &snap.Object, &open, &powered,
			&snap.Parent.Type, &snap.Parent.Relation, &action, &cause); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Time = time.UnixMilli(millis).UTC()
		snap.Open = open != 0
		snap.Powered = powered != 0
		snap.Action = Action(action)
		snap.Cause = Cause(cause)
		out = append(out, snap)
	}
	return out, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
