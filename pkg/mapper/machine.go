// Package mapper drives the mapping extraction workflow: launch the game,
// inject the Dumper-7 payload, poll for the SDK dump, and collect the
// mapping file. The workflow runs as a durable state machine using the
// superfly/fsm library so an interrupted run resumes where it stopped.
package mapper

import (
	"context"
	"sync"
	"time"

	"github.com/superfly/fsm"

	"github.com/surxe/wrfexporter/pkg/errors"
	"github.com/surxe/wrfexporter/pkg/inject"
	"github.com/surxe/wrfexporter/pkg/proc"
)

// initGrace gives the game time to initialize before injection.
const initGrace = 15 * time.Second

// Machine holds dependencies for FSM transitions
type Machine struct {
	injector      inject.Injector
	pollInterval  time.Duration
	injectTimeout time.Duration
	maxRetries    int

	// findGame looks up the game process by image name; swapped in tests.
	findGame func() (int, bool)

	mu   sync.Mutex
	game *proc.Proc
}

// NewMachine creates a new FSM machine with dependencies
func NewMachine(injector inject.Injector, pollInterval, injectTimeout time.Duration, maxRetries int) *Machine {
	return &Machine{
		injector:      injector,
		pollInterval:  pollInterval,
		injectTimeout: injectTimeout,
		maxRetries:    maxRetries,
		findGame:      func() (int, bool) { return proc.FindPID(GameExeName) },
	}
}

// Register registers the mapping extraction FSM
func (m *Machine) Register(ctx context.Context, manager *fsm.Manager) (fsm.Start[MapperRequest, MapperResponse], fsm.Resume, error) {
	start, resume, err := fsm.Register[MapperRequest, MapperResponse](manager, "mapping-extract").
		Start(StateLaunch, m.handleLaunch).
		To(StateInject, m.handleInject).
		To(StatePoll, m.handlePoll).
		To(StateExtract, m.handleExtract).
		To(StateComplete, m.handleComplete).
		End(StateFailed).
		Build(ctx)

	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to register FSM")
	}

	return start, resume, nil
}

// Close terminates the game process if this machine still owns one.
// Safe to call on every exit path.
func (m *Machine) Close() {
	m.stopGame(0)
}

func (m *Machine) trackGame(p *proc.Proc) {
	m.mu.Lock()
	m.game = p
	m.mu.Unlock()
}

// stopGame terminates the tracked game process, falling back to a
// by-name kill when the handle is gone (resumed run in a new process).
func (m *Machine) stopGame(pid int) {
	m.mu.Lock()
	p := m.game
	m.game = nil
	m.mu.Unlock()

	if p != nil {
		p.Terminate(10 * time.Second)
		return
	}
	if pid != 0 {
		proc.TerminateByName(GameExeName)
	}
}
