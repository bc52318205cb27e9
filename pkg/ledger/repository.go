// Package ledger persists pipeline runs and per-stage outcomes in SQLite so
// re-runs and the status command can see what happened before.
package ledger

import (
	"database/sql"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/surxe/wrfexporter/pkg/errors"
)

// Repository provides database operations for the run ledger.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (and if needed creates) the ledger database.
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("ledger_init", "db_path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("ledger_open_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to open ledger database")
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("ledger_schema_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to create ledger schema")
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// StartRun inserts a new run row in the running state.
func (r *Repository) StartRun() (int64, error) {
	result, err := r.db.Exec(`INSERT INTO runs (status) VALUES (?)`, StatusRunning)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert run")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get run id")
	}
	slog.Info("ledger_run_started", "run_id", id)
	return id, nil
}

// FinishRun closes a run with its final status.
func (r *Repository) FinishRun(runID int64, status string) error {
	_, err := r.db.Exec(
		`UPDATE runs SET status = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, runID)
	if err != nil {
		return errors.Wrap(err, "failed to finish run")
	}
	slog.Info("ledger_run_finished", "run_id", runID, "status", status)
	return nil
}

// RecordStage appends a stage outcome to a run.
func (r *Repository) RecordStage(runID int64, stage, outcome, marker, detail string) error {
	_, err := r.db.Exec(
		`INSERT INTO stage_results (run_id, stage, outcome, marker, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, stage, outcome, marker, detail)
	if err != nil {
		return errors.Wrap(err, "failed to record stage result")
	}
	slog.Debug("ledger_stage_recorded", "run_id", runID, "stage", stage, "outcome", outcome)
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *Repository) ListRuns(limit int) ([]*Run, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, finished_at, status FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.StartedAt, &finished, &run.Status); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// StagesForRun returns a run's stage results in insertion order.
func (r *Repository) StagesForRun(runID int64) ([]*StageResult, error) {
	rows, err := r.db.Query(
		`SELECT id, run_id, stage, outcome, marker, detail FROM stage_results WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stage results")
	}
	defer rows.Close()

	var results []*StageResult
	for rows.Next() {
		sr := &StageResult{}
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Stage, &sr.Outcome, &sr.Marker, &sr.Detail); err != nil {
			return nil, errors.Wrap(err, "failed to scan stage result")
		}
		results = append(results, sr)
	}
	return results, rows.Err()
}

// Purge deletes all ledger contents. Used by the clean command.
func (r *Repository) Purge() error {
	if _, err := r.db.Exec(`DELETE FROM stage_results`); err != nil {
		return errors.Wrap(err, "failed to purge stage results")
	}
	if _, err := r.db.Exec(`DELETE FROM runs`); err != nil {
		return errors.Wrap(err, "failed to purge runs")
	}
	slog.Info("ledger_purged")
	return nil
}
