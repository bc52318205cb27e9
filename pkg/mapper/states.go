package mapper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/superfly/fsm"

	"github.com/surxe/wrfexporter/pkg/errors"
	"github.com/surxe/wrfexporter/pkg/proc"
)

// checkRetries aborts the FSM once a state has been retried too often.
func (m *Machine) checkRetries(ctx context.Context, state string) error {
	if retryCount := fsm.RetryFromContext(ctx); retryCount >= uint64(m.maxRetries) {
		slog.Error("max_retries_exceeded", "state", state, "max_retries", m.maxRetries)
		return fsm.Abort(fmt.Errorf("max retries (%d) exceeded in %s", m.maxRetries, state))
	}
	return nil
}

// handleLaunch starts the game after checking nothing else holds it
func (m *Machine) handleLaunch(ctx context.Context, req *fsm.Request[MapperRequest, MapperResponse]) (*fsm.Response[MapperResponse], error) {
	slog.Info("fsm_state_launch", "game_exe", req.Msg.GameExe)
	if err := m.checkRetries(ctx, StateLaunch); err != nil {
		return nil, err
	}

	// A running instance would fight the injected one over the dump dir.
	if pid, found := m.findGame(); found {
		slog.Error("game_already_running", "pid", pid)
		return nil, fsm.Abort(errors.New(errors.ConflictError,
			"%s is already running (pid %d), close it first", GameExeName, pid))
	}

	if _, err := os.Stat(req.Msg.DLLPath); err != nil {
		return nil, fsm.Abort(errors.New(errors.LaunchError,
			"payload not found at %s", req.Msg.DLLPath))
	}
	if _, err := os.Stat(req.Msg.GameExe); err != nil {
		return nil, fsm.Abort(errors.New(errors.LaunchError,
			"game executable not found at %s", req.Msg.GameExe))
	}

	// Stale dumps from an earlier run would be indistinguishable from a
	// fresh one when polling.
	if err := os.MkdirAll(req.Msg.DumpDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create dump dir")
	}
	if err := ClearArtifacts(req.Msg.DumpDir); err != nil {
		return nil, errors.Wrap(err, "failed to clear dump dir")
	}

	p, err := proc.Start(req.Msg.GameExe, nil)
	if err != nil {
		slog.Error("game_launch_failed", "game_exe", req.Msg.GameExe, "error", err)
		return nil, fsm.Abort(errors.WrapKind(err, errors.LaunchError, "failed to launch game"))
	}
	m.trackGame(p)

	resp := req.W.Msg
	if resp == nil {
		resp = &MapperResponse{}
	}
	resp.PID = p.PID
	slog.Info("game_launched", "pid", p.PID)

	// Injection into a half-initialized process crashes it.
	select {
	case <-time.After(initGrace):
	case <-ctx.Done():
		m.stopGame(resp.PID)
		return nil, ctx.Err()
	}

	return fsm.NewResponse(resp), nil
}

// handleInject loads the payload into the running game
func (m *Machine) handleInject(ctx context.Context, req *fsm.Request[MapperRequest, MapperResponse]) (*fsm.Response[MapperResponse], error) {
	slog.Info("fsm_state_inject", "dll", req.Msg.DLLPath)
	if err := m.checkRetries(ctx, StateInject); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	if _, running := m.findGame(); !running {
		m.stopGame(resp.PID)
		return nil, fsm.Abort(errors.New(errors.LaunchError,
			"game exited during initialization (pid %d)", resp.PID))
	}

	if err := m.injector.Inject(ctx, resp.PID, req.Msg.DLLPath); err != nil {
		// The payload sometimes dumps before the injector can confirm the
		// remote thread, so an existing dump trumps the reported failure.
		if _, locErr := LocateMapping(req.Msg.DumpDir); locErr == nil {
			slog.Warn("injection_failed_but_dump_present", "error", err)
			return fsm.NewResponse(resp), nil
		}
		m.stopGame(resp.PID)
		slog.Error("injection_failed", "pid", resp.PID, "error", err)
		return nil, fsm.Abort(err)
	}

	slog.Info("payload_injected", "pid", resp.PID)
	return fsm.NewResponse(resp), nil
}

// handlePoll waits for the payload to finish writing the SDK dump
func (m *Machine) handlePoll(ctx context.Context, req *fsm.Request[MapperRequest, MapperResponse]) (*fsm.Response[MapperResponse], error) {
	slog.Info("fsm_state_poll", "dump_dir", req.Msg.DumpDir, "timeout", m.injectTimeout)
	if err := m.checkRetries(ctx, StatePoll); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	started := time.Now()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.stopGame(resp.PID)
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if path, err := LocateMapping(req.Msg.DumpDir); err == nil {
			resp.MappingFile = path
			slog.Info("mapping_found", "path", path, "elapsed", time.Since(started).Round(time.Second))
			return fsm.NewResponse(resp), nil
		}

		if _, running := m.findGame(); !running {
			// The dump may land between the process dying and this tick.
			if path, err := LocateMapping(req.Msg.DumpDir); err == nil {
				resp.MappingFile = path
				return fsm.NewResponse(resp), nil
			}
			m.stopGame(resp.PID)
			return nil, fsm.Abort(errors.New(errors.InjectionError,
				"game exited before producing a mapping in %s", req.Msg.DumpDir))
		}

		if elapsed := time.Since(started); elapsed > m.injectTimeout {
			m.stopGame(resp.PID)
			slog.Error("mapping_poll_timeout", "dump_dir", req.Msg.DumpDir, "elapsed", elapsed.Round(time.Second))
			return nil, fsm.Abort(errors.New(errors.InjectionTimeout,
				"no mapping in %s after %s", req.Msg.DumpDir, elapsed.Round(time.Second)))
		}
	}
}

// handleExtract copies the mapping file out and shuts the game down
func (m *Machine) handleExtract(ctx context.Context, req *fsm.Request[MapperRequest, MapperResponse]) (*fsm.Response[MapperResponse], error) {
	if err := m.checkRetries(ctx, StateExtract); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}
	slog.Info("fsm_state_extract", "mapping", resp.MappingFile, "dest", req.Msg.OutputFile)

	if err := CopyMapping(resp.MappingFile, req.Msg.OutputFile); err != nil {
		m.stopGame(resp.PID)
		slog.Error("mapping_copy_failed", "error", err)
		return nil, fsm.Abort(err)
	}
	resp.OutputFile = req.Msg.OutputFile

	m.stopGame(resp.PID)
	slog.Info("mapping_extracted", "path", req.Msg.OutputFile)
	return fsm.NewResponse(resp), nil
}

// handleComplete marks the FSM as complete
func (m *Machine) handleComplete(ctx context.Context, req *fsm.Request[MapperRequest, MapperResponse]) (*fsm.Response[MapperResponse], error) {
	resp := req.W.Msg
	if resp == nil {
		resp = &MapperResponse{}
	}
	resp.Status = "complete"
	slog.Info("fsm_complete", "output_file", resp.OutputFile)
	return fsm.NewResponse(resp), nil
}
