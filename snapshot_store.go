package babylon

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runTimeLayout is fixed width so stored timestamps sort lexically.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z"

// Run kinds.
const (
	RunExport = "export"
	RunImport = "import"
)

// Run is one persisted export or import execution.
type Run struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	StartedAt time.Time `json:"started_at"`
	Files     int       `json:"files"`
	Rows      int       `json:"rows"`
	NewFiles  int       `json:"new_files"`
}

// NewRun starts a run record of the given kind.
func NewRun(kind string) Run {
	return Run{ID: uuid.NewString(), Kind: kind, StartedAt: time.Now().UTC()}
}

// SnapshotStore persists the snapshot in a SQLite database.
type SnapshotStore struct {
	db   *sql.DB
	path string
}

// OpenSnapshotStore opens (creating if needed) the snapshot database at path
// and applies pending schema migrations.
func OpenSnapshotStore(ctx context.Context, path string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	if err := runMigrations(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	return &SnapshotStore{db: db, path: path}, nil
}

func runMigrations(dsn string) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("migration open: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("migration init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	version, dirty, _ := m.Version()
	LogDebug("snapshot schema version=%d dirty=%v", version, dirty)
	return nil
}

// Close releases the database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Load reads the whole snapshot into memory.
func (s *SnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	snap := NewSnapshot()

	rows, err := s.db.QueryContext(ctx, `SELECT path, sheet_id FROM message_files`)
	if err != nil {
		return nil, fmt.Errorf("load files: %w", err)
	}
	files := make(map[string]*SnapshotFile)
	for rows.Next() {
		var (
			path string
			id   int
		)
		if err := rows.Scan(&path, &id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files[path] = &SnapshotFile{ID: id, Messages: NewMessages()}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT path, msg_key, msg_value FROM messages ORDER BY path, position`)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	for rows.Next() {
		var (
			path, key string
			value     sql.NullString
		)
		if err := rows.Scan(&path, &key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan message: %w", err)
		}
		f, ok := files[path]
		if !ok {
			continue
		}
		if value.Valid {
			f.Messages.Set(key, value.String)
		} else {
			f.Messages.Put(key, nil)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	for p, f := range files {
		snap.putFile(p, f)
	}

	var next int
	err = s.db.QueryRowContext(ctx, `SELECT value FROM snapshot_meta WHERE name = 'next_id'`).Scan(&next)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("load meta: %w", err)
	default:
		snap.setNextID(next)
	}
	return snap, nil
}

// Save replaces the stored snapshot with snap and appends run, atomically.
func (s *SnapshotStore) Save(ctx context.Context, snap *Snapshot, run Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM message_files`); err != nil {
		return fmt.Errorf("clear files: %w", err)
	}

	for _, p := range snap.ListFiles() {
		f, _ := snap.File(p)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO message_files (path, sheet_id) VALUES (?, ?)`, p, f.ID); err != nil {
			return fmt.Errorf("save file %s: %w", p, err)
		}
		for i, k := range f.Messages.Keys() {
			v, _ := f.Messages.Get(k)
			var value sql.NullString
			if v != nil {
				value = sql.NullString{String: *v, Valid: true}
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO messages (path, position, msg_key, msg_value) VALUES (?, ?, ?, ?)`,
				p, i, k, value); err != nil {
				return fmt.Errorf("save message %s in %s: %w", k, p, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (name, value) VALUES ('next_id', ?)
		 ON CONFLICT (name) DO UPDATE SET value = excluded.value`, snap.NextID()); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	if run.ID != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, kind, started_at, file_count, row_count, new_file_count) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, run.Kind, run.StartedAt.UTC().Format(runTimeLayout), run.Files, run.Rows, run.NewFiles); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}
	return tx.Commit()
}

// Runs returns the most recent runs, newest first.
func (s *SnapshotStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, started_at, file_count, row_count, new_file_count
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var out []Run
	for rows.Next() {
		var (
			r  Run
			ts string
		)
		if err := rows.Scan(&r.ID, &r.Kind, &ts, &r.Files, &r.Rows, &r.NewFiles); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var err error
		r.StartedAt, err = time.Parse(runTimeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunsBefore returns the runs started before t, oldest first.
func (s *SnapshotStore) RunsBefore(ctx context.Context, t time.Time) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, started_at, file_count, row_count, new_file_count
		 FROM runs WHERE started_at < ? ORDER BY started_at`, t.UTC().Format(runTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// DeleteRunsBefore deletes the runs started before t.
func (s *SnapshotStore) DeleteRunsBefore(ctx context.Context, t time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, t.UTC().Format(runTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
