//go:build !windows
// +build !windows

package mapper

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/superfly/fsm"

	"github.com/surxe/wrfexporter/pkg/inject"
	"github.com/surxe/wrfexporter/pkg/proc"
)

// Every terminal path funnels through stopGame, so confirming it kills a
// tracked process covers the cleanup invariant.
func TestStopGameTerminatesTrackedProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix process fixture")
	}

	p, err := proc.Start("sleep", []string{"60"})
	if err != nil {
		t.Fatalf("start fixture process: %v", err)
	}

	m := NewMachine(inject.New(), time.Second, time.Minute, 3)
	m.trackGame(p)
	m.stopGame(p.PID)

	waitForExit(t, p)
}

// Close is the deferred session release; it must be a no-op without a
// tracked process and must not panic when called twice.
func TestCloseIdempotent(t *testing.T) {
	m := NewMachine(inject.New(), time.Second, time.Minute, 3)
	m.Close()
	m.Close()
}

// A second game instance would fight the injected one over the dump
// dir, so launch must refuse while one is running.
func TestHandleLaunchRefusesRunningGame(t *testing.T) {
	m := NewMachine(inject.New(), time.Second, time.Minute, 3)
	m.findGame = func() (int, bool) { return 4242, true }

	dir := t.TempDir()
	req := fsm.NewRequest(&MapperRequest{
		GameExe: filepath.Join(dir, GameExeName),
		DLLPath: filepath.Join(dir, "Dumper-7.dll"),
		DumpDir: filepath.Join(dir, "dump"),
	}, &MapperResponse{})

	_, err := m.handleLaunch(context.Background(), req)
	if err == nil {
		t.Fatal("expected launch to refuse while the game is running")
	}
	if !strings.Contains(err.Error(), "is already running (pid 4242)") {
		t.Errorf("error = %q, want running-instance refusal", err)
	}
}

// When the payload never produces a mapping the poll must give up
// after the configured timeout and shut the game down.
func TestHandlePollTimesOutAndStopsGame(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix process fixture")
	}

	p, err := proc.Start("sleep", []string{"60"})
	if err != nil {
		t.Fatalf("start fixture process: %v", err)
	}

	m := NewMachine(inject.New(), 5*time.Millisecond, 40*time.Millisecond, 3)
	m.findGame = func() (int, bool) { return p.PID, true }
	m.trackGame(p)

	req := fsm.NewRequest(&MapperRequest{
		DumpDir: t.TempDir(),
	}, &MapperResponse{PID: p.PID})

	_, err = m.handlePoll(context.Background(), req)
	if err == nil {
		t.Fatal("expected poll to fail once the timeout elapsed")
	}
	if !strings.Contains(err.Error(), "no mapping in") {
		t.Errorf("error = %q, want mapping timeout", err)
	}

	waitForExit(t, p)
}

func waitForExit(t *testing.T, p *proc.Proc) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for p.Running() {
		select {
		case <-deadline:
			t.Fatal("tracked process still running")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
