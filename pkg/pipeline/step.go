// Package pipeline sequences the four extraction stages, gating each one on
// resolved configuration and observed on-disk state.
package pipeline

import (
	"context"
	"log/slog"
)

// Decision is the step gate's verdict for one stage.
type Decision int

const (
	Skip Decision = iota
	Run
	Forced
)

func (d Decision) String() string {
	switch d {
	case Run:
		return "run"
	case Forced:
		return "forced"
	default:
		return "skip"
	}
}

// Step is one pipeline stage: its enable/force gates, a presence check that
// detects "already satisfied", and the collaborator invocation it wraps.
// Invoke returns the marker (version tag, manifest id, artifact path) the
// stage reports for the next run's presence check.
type Step struct {
	Name    string
	Enabled bool
	Force   bool
	Present func() bool
	Invoke  func(ctx context.Context) (marker string, err error)
}

// Decide applies the gate rules. It is a pure function of the step's
// configuration and the state its presence check observes right now:
// calling it twice against unchanged state yields the same decision.
func Decide(s Step) Decision {
	if !s.Enabled {
		return Skip
	}
	if s.Force {
		return Forced
	}
	if s.Present != nil && s.Present() {
		slog.Info("stage_presence_satisfied", "stage", s.Name)
		return Skip
	}
	return Run
}
