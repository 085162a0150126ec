// Package history keeps a SQLite record of training runs and their epochs.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harbom/Deep-Fried-Learning/model"
	"github.com/harbom/Deep-Fried-Learning/params"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

var ErrUnknownRun = errors.New("history: unknown run")

type Store struct {
	db *sql.DB
}

// Run is one row of the runs table.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	DataPath   string
	Examples   int
	VocabSize  int
	SeqLen     int
	Config     string // yaml snapshot
	BestEpoch  int
	BestLoss   float64
	Stopped    bool
}

// Open creates the database at path if needed. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs(
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER,
			data_path TEXT NOT NULL,
			examples INTEGER NOT NULL,
			vocab_size INTEGER NOT NULL,
			seq_len INTEGER NOT NULL,
			config TEXT NOT NULL,
			best_epoch INTEGER NOT NULL DEFAULT -1,
			best_loss REAL,
			stopped INTEGER NOT NULL DEFAULT 0
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS epochs(
			run_id TEXT NOT NULL REFERENCES runs(id),
			epoch INTEGER NOT NULL,
			loss REAL NOT NULL,
			val_loss REAL NOT NULL,
			val_acc REAL NOT NULL,
			improved INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			PRIMARY KEY(run_id, epoch)
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create epochs: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// StartRun inserts a new run and returns its generated id.
func (s *Store) StartRun(cfg params.Config, examples, vocabSize, seqLen int) (string, error) {
	snapshot, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		"INSERT INTO runs(id, started_at, data_path, examples, vocab_size, seq_len, config) VALUES(?,?,?,?,?,?,?)",
		id, time.Now().UnixMilli(), cfg.Data.CaptionsPath, examples, vocabSize, seqLen, string(snapshot))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

func (s *Store) RecordEpoch(runID string, st model.EpochStats) error {
	_, err := s.db.Exec(
		"INSERT INTO epochs(run_id, epoch, loss, val_loss, val_acc, improved, duration_ms) VALUES(?,?,?,?,?,?,?)",
		runID, st.Epoch, st.Loss, st.ValLoss, st.ValAcc, st.Improved, st.Duration.Milliseconds())
	return err
}

// FinishRun stamps the run with its outcome.
func (s *Store) FinishRun(runID string, h model.History) error {
	var best any
	if h.BestEpoch > 0 {
		best = h.BestLoss
	}
	res, err := s.db.Exec(
		"UPDATE runs SET finished_at = ?, best_epoch = ?, best_loss = ?, stopped = ? WHERE id = ?",
		time.Now().UnixMilli(), h.BestEpoch, best, h.Stopped, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	return nil
}

// Runs lists every run, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, data_path, examples, vocab_size, seq_len,
		       config, best_epoch, best_loss, stopped
		FROM runs ORDER BY started_at, rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  int64
			finished sql.NullInt64
			bestLoss sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.DataPath, &r.Examples, &r.VocabSize,
			&r.SeqLen, &r.Config, &r.BestEpoch, &bestLoss, &r.Stopped); err != nil {
			return nil, err
		}
		r.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			r.FinishedAt = time.UnixMilli(finished.Int64)
		}
		r.BestLoss = bestLoss.Float64
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Epochs returns the recorded epochs of one run in order.
func (s *Store) Epochs(runID string) ([]model.EpochStats, error) {
	rows, err := s.db.Query(
		"SELECT epoch, loss, val_loss, val_acc, improved, duration_ms FROM epochs WHERE run_id = ? ORDER BY epoch",
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EpochStats
	for rows.Next() {
		var st model.EpochStats
		var ms int64
		if err := rows.Scan(&st.Epoch, &st.Loss, &st.ValLoss, &st.ValAcc, &st.Improved, &ms); err != nil {
			return nil, err
		}
		st.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, st)
	}
	return out, rows.Err()
}
