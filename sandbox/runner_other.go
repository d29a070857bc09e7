//go:build !linux

package sandbox

import (
	"context"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// Run provides an unhardened fallback for platforms other than Linux: the
// target still runs under the wall-clock deadline with SIGKILL escalation,
// but rlimits, namespace unsharing, and seccomp are Linux-only concepts and
// are silently skipped.
func Run(ctx context.Context, cfg Config, log zerolog.Logger) Result {
	cmd := exec.Command(cfg.Path, cfg.Argv...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.Envp

	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("path", cfg.Path).Msg("sandbox: spawn failed")
		return Result{Outcome: OutcomeSpawnFailed, ExitCode: -1}
	}

	deadline := cfg.Deadline
	if deadline <= 0 {
		deadline = 365 * 24 * time.Hour
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case err := <-done:
		if err == nil {
			return Result{Outcome: OutcomeOK, ExitCode: 0}
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return Result{Outcome: OutcomeOK, ExitCode: exitErr.ExitCode()}
		}
		return Result{Outcome: OutcomeSpawnFailed, ExitCode: -1}
	case <-timer.C:
		log.Warn().Str("path", cfg.Path).Dur("deadline", deadline).Msg("sandbox: deadline exceeded, sending SIGKILL")
		_ = cmd.Process.Kill()
		<-done
		return Result{Outcome: OutcomeTimeout, ExitCode: -2}
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return Result{Outcome: OutcomeTimeout, ExitCode: -2}
	}
}
