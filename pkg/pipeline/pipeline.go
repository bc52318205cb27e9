package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/surxe/wrfexporter/pkg/errors"
	"github.com/surxe/wrfexporter/pkg/ledger"
)

// Outcome is the recorded result of one stage.
type Outcome string

const (
	OutcomeRan     Outcome = "ran"
	OutcomeForced  Outcome = "forced"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Recorder receives run and stage outcomes as they happen. Satisfied by
// *ledger.Repository; ledger failures never fail the pipeline.
type Recorder interface {
	StartRun() (int64, error)
	FinishRun(runID int64, status string) error
	RecordStage(runID int64, stage, outcome, marker, detail string) error
}

// StageReport is one stage's outcome within a Result.
type StageReport struct {
	Name    string
	Outcome Outcome
	Marker  string
	Err     error
}

// Result aggregates per-stage outcomes for one run. Err is the first stage
// failure, annotated with the stage name and error kind.
type Result struct {
	RunID  int64
	Stages []StageReport
	Err    error
}

// Failed reports whether any stage failed.
func (r *Result) Failed() bool { return r.Err != nil }

// Pipeline runs the fixed stage sequence with fail-fast semantics.
type Pipeline struct {
	rec   Recorder
	steps []Step
}

// New builds a pipeline over the given steps, in execution order.
func New(rec Recorder, steps ...Step) *Pipeline {
	return &Pipeline{rec: rec, steps: steps}
}

// Execute runs the stages strictly in order. A skipped stage counts as a
// successful no-op; the first failure halts the run since later stages
// structurally depend on earlier stages' artifacts.
func (p *Pipeline) Execute(ctx context.Context) *Result {
	result := &Result{}

	// rec is per-run: an unavailable ledger disables recording for this
	// run only, not for later Execute calls on the same pipeline.
	rec := p.rec
	if rec != nil {
		id, err := rec.StartRun()
		if err != nil {
			slog.Warn("ledger_unavailable", "error", err)
			rec = nil
		} else {
			result.RunID = id
		}
	}

	for _, step := range p.steps {
		report := p.runStep(ctx, rec, result.RunID, step)
		result.Stages = append(result.Stages, report)

		if report.Outcome == OutcomeFailed {
			result.Err = report.Err
			slog.Error("pipeline_halted", "stage", step.Name,
				"kind", string(errors.KindOf(report.Err)), "error", report.Err)
			break
		}
	}

	if rec != nil {
		status := ledger.StatusOK
		if result.Failed() {
			status = ledger.StatusFailed
		}
		if err := rec.FinishRun(result.RunID, status); err != nil {
			slog.Warn("ledger_finish_failed", "error", err)
		}
	}

	return result
}

func (p *Pipeline) runStep(ctx context.Context, rec Recorder, runID int64, step Step) StageReport {
	decision := Decide(step)
	slog.Info("stage_gate", "stage", step.Name, "decision", decision.String(),
		"enabled", step.Enabled, "force", step.Force)

	if decision == Skip {
		record(rec, runID, step.Name, OutcomeSkipped, "", "")
		return StageReport{Name: step.Name, Outcome: OutcomeSkipped}
	}

	start := time.Now()
	marker, err := step.Invoke(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		err = errors.WithStage(err, step.Name)
		slog.Error("stage_failed", "stage", step.Name, "elapsed", elapsed, "error", err)
		record(rec, runID, step.Name, OutcomeFailed, marker, err.Error())
		return StageReport{Name: step.Name, Outcome: OutcomeFailed, Marker: marker, Err: err}
	}

	outcome := OutcomeRan
	if decision == Forced {
		outcome = OutcomeForced
	}
	slog.Info("stage_complete", "stage", step.Name, "outcome", string(outcome),
		"elapsed", elapsed, "marker", marker)
	record(rec, runID, step.Name, outcome, marker, "")
	return StageReport{Name: step.Name, Outcome: outcome, Marker: marker}
}

func record(rec Recorder, runID int64, stage string, outcome Outcome, marker, detail string) {
	if rec == nil {
		return
	}
	if err := rec.RecordStage(runID, stage, string(outcome), marker, detail); err != nil {
		slog.Warn("ledger_record_failed", "stage", stage, "error", err)
	}
}
