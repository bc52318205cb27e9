package proc

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// FindPID looks for a running process by image name. On Windows it shells
// out to tasklist and tolerates the truncated image names tasklist prints
// for long executables; elsewhere it uses pgrep.
func FindPID(name string) (int, bool) {
	if runtime.GOOS == "windows" {
		return findPIDWindows(name)
	}
	out, err := exec.Command("pgrep", "-f", name).Output()
	if err != nil {
		return 0, false
	}
	first := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	pid, err := strconv.Atoi(first)
	if err != nil {
		return 0, false
	}
	return pid, true
}

func findPIDWindows(name string) (int, bool) {
	out, err := exec.Command("tasklist", "/FI", "IMAGENAME eq "+name).Output()
	if err != nil {
		return 0, false
	}

	// tasklist truncates long image names; match on a lowercase prefix.
	base := strings.ToLower(strings.TrimSuffix(name, ".exe"))
	short := base
	if len(short) > 20 {
		short = short[:20]
	}

	for _, line := range strings.Split(string(out), "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "image name") || strings.Contains(lower, "=====") {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(name)) &&
			!strings.Contains(lower, base) && !strings.Contains(lower, short) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			if pid, err := strconv.Atoi(fields[1]); err == nil {
				return pid, true
			}
		}
	}
	return 0, false
}

// WaitForPID polls until a process with the given image name appears or the
// context expires.
func WaitForPID(ctx context.Context, name string, interval time.Duration) (int, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if pid, ok := FindPID(name); ok {
			slog.Info("process_detected", "process", name, "pid", pid)
			return pid, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

// TerminateByName force-kills every process with the given image name.
// Used as a fallback when the session handle could not confirm termination.
func TerminateByName(name string) bool {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("taskkill", "/F", "/IM", name)
	} else {
		cmd = exec.Command("pkill", "-f", name)
	}

	if err := cmd.Run(); err != nil {
		slog.Warn("terminate_by_name_failed", "process", name, "error", err)
		return false
	}
	slog.Info("terminated_by_name", "process", name)
	return true
}
