package ledger

import "time"

// Schema creates the run ledger tables.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	finished_at DATETIME,
	status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS stage_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL,
	stage TEXT NOT NULL,
	outcome TEXT NOT NULL,
	marker TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT '',
	recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (run_id) REFERENCES runs(id)
);

CREATE INDEX IF NOT EXISTS idx_stage_results_run_id ON stage_results(run_id);
`

// Run statuses
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// Run is one pipeline invocation.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
}

// StageResult is the recorded outcome of one stage within a run. Marker
// carries whatever identifier the stage reported for the next run's presence
// check (dependency version tag, manifest id, artifact path).
type StageResult struct {
	ID      int64
	RunID   int64
	Stage   string
	Outcome string
	Marker  string
	Detail  string
}
