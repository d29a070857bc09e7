// Package sandbox implements a process-level sandbox runner: start the
// target executable under best-effort OS hardening (an RLIMIT_AS limit and,
// where the caller has the capability, namespace unsharing), wait for it to
// complete against a wall-clock deadline, and escalate to SIGKILL on expiry.
// On Linux a seccomp syscall filter is built and seccomp support is probed,
// but the filter is not installed into the child.
package sandbox

import (
	"time"

	"github.com/pbnjay/memory"

	"github.com/trion-lang/trion/trionerr"
)

// Outcome is the four-way result of a sandboxed run.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeTimeout
	OutcomeSignaled
	OutcomeSpawnFailed
)

// Config describes one sandboxed run.
type Config struct {
	Path     string
	Argv     []string
	Envp     []string
	Dir      string
	Deadline time.Duration // wall-clock limit; <=0 means no limit
	// AddressSpaceLimit bounds RLIMIT_AS in bytes. Zero uses DefaultLimits().
	AddressSpaceLimit uint64
	// UID/GID, if non-nil, are used only on Linux when the child starts in a
	// new user namespace: they become its uid/gid inside that namespace,
	// mapped to the caller's own uid/gid on the host. No setuid/setgid is
	// performed, so the child's host credentials do not change, and without
	// namespace capability (or off Linux) they are ignored.
	UID, GID *uint32
}

// Result reports how a sandboxed run concluded.
type Result struct {
	Outcome  Outcome
	ExitCode int
}

// os/exec.Cmd.Wait already blocks on a dedicated goroutine without
// busy-polling, so Run below selects that goroutine's result against a
// time.Timer for the deadline instead of a manual poll loop.

// DefaultLimits returns a conservative default RLIMIT_AS, sized as a
// fraction of total system memory via github.com/pbnjay/memory so a host
// that doesn't configure an explicit limit still gets one.
func DefaultLimits() uint64 {
	total := memory.TotalMemory()
	if total == 0 {
		// memory.TotalMemory can't determine the total on an unsupported
		// platform; fall back to a fixed, generous ceiling rather than an
		// unbounded address space.
		return 4 << 30 // 4GiB
	}
	return total / 2
}

// Err maps r's Outcome to the trionerr taxonomy, for embedders that want a
// Go error rather than a raw return code.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeOK:
		return nil
	case OutcomeTimeout:
		return trionerr.ErrTimeout
	case OutcomeSignaled:
		return trionerr.Wrap(trionerr.ErrHandlerFailed, "sandbox: process was signaled")
	default:
		return trionerr.ErrSpawnFailed
	}
}
