// Package history persists training runs and their per-epoch metrics in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FlavioCFOliveira/xorclass/internal/net"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	config     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS epochs (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	epoch    INTEGER NOT NULL,
	loss     REAL NOT NULL,
	accuracy REAL NOT NULL,
	seconds  REAL NOT NULL,
	PRIMARY KEY (run_id, epoch)
);`

// Store is a SQLite-backed history of training runs.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Epoch is one stored row.
type Epoch struct {
	Epoch    int
	Loss     float64
	Accuracy float64
	Seconds  float64
}

// Run is a stored training run.
type Run struct {
	ID        string
	StartedAt time.Time
	Config    string
}

// StartRun registers a new run and returns its id. config is stored verbatim
// (the command passes its YAML-encoded configuration).
func (s *Store) StartRun(ctx context.Context, config string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, config) VALUES (?, ?, ?)`,
		id, time.Now().UnixNano(), config)
	if err != nil {
		return "", fmt.Errorf("history: insert run: %w", err)
	}
	return id, nil
}

// AddEpoch stores the metrics of one epoch.
func (s *Store) AddEpoch(ctx context.Context, runID string, e Epoch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO epochs (run_id, epoch, loss, accuracy, seconds) VALUES (?, ?, ?, ?, ?)`,
		runID, e.Epoch, e.Loss, e.Accuracy, e.Seconds)
	if err != nil {
		return fmt.Errorf("history: insert epoch %d: %w", e.Epoch, err)
	}
	return nil
}

// Epochs returns the stored epochs of a run in order.
func (s *Store) Epochs(ctx context.Context, runID string) ([]Epoch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT epoch, loss, accuracy, seconds FROM epochs WHERE run_id = ? ORDER BY epoch`, runID)
	if err != nil {
		return nil, fmt.Errorf("history: query epochs: %w", err)
	}
	defer rows.Close()

	var out []Epoch
	for rows.Next() {
		var e Epoch
		if err := rows.Scan(&e.Epoch, &e.Loss, &e.Accuracy, &e.Seconds); err != nil {
			return nil, fmt.Errorf("history: scan epoch: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs returns every stored run, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, started_at, config FROM runs ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started int64
		if err := rows.Scan(&r.ID, &started, &r.Config); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Recorder is a training callback that writes one row per epoch.
type Recorder struct {
	net.BaseCallback

	store *Store
	runID string
	start time.Time
	// Err holds the first write error; later epochs are skipped once set.
	Err error
}

// NewRecorder starts a run in store and returns a callback recording into it.
func NewRecorder(ctx context.Context, store *Store, config string) (*Recorder, error) {
	id, err := store.StartRun(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Recorder{store: store, runID: id}, nil
}

// RunID returns the id of the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

func (r *Recorder) OnTrainBegin(n *net.Network, p net.Params) {
	r.start = time.Now()
}

func (r *Recorder) OnEpochEnd(epoch int, logs net.Logs) {
	if r.Err != nil {
		return
	}
	r.Err = r.store.AddEpoch(context.Background(), r.runID, Epoch{
		Epoch:    epoch,
		Loss:     logs.Loss,
		Accuracy: logs.Accuracy,
		Seconds:  time.Since(r.start).Seconds(),
	})
}
