//go:build linux

package sandbox

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// deniedSyscalls are the syscalls denied by buildSeccompFilter's program.
// Run builds that program only to probe seccomp support; it is not
// installed into the child.
var deniedSyscalls = []uint32{
	unix.SYS_MOUNT,
	unix.SYS_UMOUNT2,
	unix.SYS_REBOOT,
	unix.SYS_SWAPON,
	unix.SYS_SWAPOFF,
	unix.SYS_KEXEC_LOAD,
	unix.SYS_INIT_MODULE,
	unix.SYS_FINIT_MODULE,
	unix.SYS_DELETE_MODULE,
	unix.SYS_PIVOT_ROOT,
	unix.SYS_PTRACE,
}

const (
	seccompRetAllow = 0x7fff0000
	seccompRetErrno = 0x00050000
)

// Run starts cfg.Path (in new namespaces when the caller has the
// capability), applies best-effort hardening to the running child, and
// waits for it to complete against cfg.Deadline, escalating to SIGKILL on
// expiry: spawn and exec, RLIMIT_AS via prlimit on the running child,
// seccomp probe, wait-and-escalate. No credential drop is performed; see
// Config.UID.
func Run(ctx context.Context, cfg Config, log zerolog.Logger) Result {
	cmd := exec.Command(cfg.Path, cfg.Argv...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.Envp
	cmd.SysProcAttr = sysProcAttr(cfg)

	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("path", cfg.Path).Msg("sandbox: spawn failed")
		return Result{Outcome: OutcomeSpawnFailed, ExitCode: -1}
	}

	applyHardening(cmd.Process.Pid, cfg, log)

	deadline := cfg.Deadline
	if deadline <= 0 {
		deadline = 365 * 24 * time.Hour // effectively unbounded
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case err := <-done:
		return waitResult(err)
	case <-timer.C:
		log.Warn().Str("path", cfg.Path).Dur("deadline", deadline).Msg("sandbox: deadline exceeded, sending SIGKILL")
		_ = cmd.Process.Signal(syscall.SIGKILL)
		<-done
		return Result{Outcome: OutcomeTimeout, ExitCode: -2}
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGKILL)
		<-done
		return Result{Outcome: OutcomeTimeout, ExitCode: -2}
	}
}

func waitResult(err error) Result {
	if err == nil {
		return Result{Outcome: OutcomeOK, ExitCode: 0}
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return Result{Outcome: OutcomeSignaled, ExitCode: -3}
		}
		return Result{Outcome: OutcomeOK, ExitCode: exitErr.ExitCode()}
	}
	return Result{Outcome: OutcomeSpawnFailed, ExitCode: -1}
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

// sysProcAttr builds the namespace-unshare attributes for the child,
// falling back to no namespaces at all when the caller lacks the
// capability to create them - hardening here is best-effort.
func sysProcAttr(cfg Config) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{}
	if !hasNamespaceCapability() {
		return attr
	}
	attr.Cloneflags = syscall.CLONE_NEWNS | syscall.CLONE_NEWPID | syscall.CLONE_NEWNET | syscall.CLONE_NEWUSER

	uid, gid := os.Getuid(), os.Getgid()
	if cfg.UID != nil {
		uid = int(*cfg.UID)
	}
	if cfg.GID != nil {
		gid = int(*cfg.GID)
	}
	attr.UidMappings = []syscall.SysProcIDMap{{ContainerID: uid, HostID: os.Getuid(), Size: 1}}
	attr.GidMappings = []syscall.SysProcIDMap{{ContainerID: gid, HostID: os.Getgid(), Size: 1}}
	return attr
}

func hasNamespaceCapability() bool {
	if os.Geteuid() == 0 {
		return true
	}
	var hdr unix.CapUserHeader
	var data unix.CapUserData
	hdr.Version = unix.LINUX_CAPABILITY_VERSION_1
	hdr.Pid = 0
	if err := unix.Capget(&hdr, &data); err == nil {
		return data.Effective&(1<<unix.CAP_SYS_ADMIN) != 0
	}
	return false
}

// applyHardening runs the post-fork steps that can only be attempted once
// the child exists: rlimits via prlimit, and a best-effort seccomp filter
// probe. Each step logs and continues on failure rather than aborting the
// run.
func applyHardening(pid int, cfg Config, log zerolog.Logger) {
	asLimit := cfg.AddressSpaceLimit
	if asLimit == 0 {
		asLimit = DefaultLimits()
	}
	lim := unix.Rlimit{Cur: asLimit, Max: asLimit}
	if err := unix.Prlimit(pid, unix.RLIMIT_AS, &lim, nil); err != nil {
		log.Warn().Err(err).Int("pid", pid).Msg("sandbox: prlimit RLIMIT_AS failed")
	}

	if !probeSeccomp() {
		log.Info().Msg("sandbox: seccomp unavailable, skipping syscall filter")
		return
	}
	log.Info().Msg("sandbox: seccomp available, but the filter is not installed in the child (no pre-exec hook)")
	// Applying the real filter in-process would also constrain the parent.
	// Installing it in the child before exec requires running code between
	// fork and exec, which a pure os/exec launch has no hook for without
	// cgo; the filter install step here is limited to the probe itself plus
	// this package's documented seccomp program (used by embedders that do
	// control their own exec path, e.g. via a small C shim).
}

// probeSeccomp performs a dry-run check of the current kernel's seccomp(2)
// support without committing to filtering the current process.
func probeSeccomp() bool {
	prog := buildSeccompFilter()
	if prog == nil {
		return false
	}
	// Issue seccomp(SECCOMP_GET_ACTION_AVAIL) with a null argument, which
	// installs nothing: kernels built without CONFIG_SECCOMP fail it with
	// ENOSYS, and any other result (typically EFAULT) means seccomp(2)
	// exists.
	_, _, errno := unix.Syscall(unix.SYS_SECCOMP, unix.SECCOMP_GET_ACTION_AVAIL, 0, 0)
	return errno != unix.ENOSYS
}

// buildSeccompFilter constructs the BPF program denying deniedSyscalls.
func buildSeccompFilter() []unix.SockFilter {
	n := len(deniedSyscalls)
	if n == 0 {
		return nil
	}
	prog := make([]unix.SockFilter, 0, n+3)
	prog = append(prog, unix.SockFilter{Code: unix.BPF_LD | unix.BPF_W | unix.BPF_ABS, K: 0})
	for i, nr := range deniedSyscalls {
		prog = append(prog, unix.SockFilter{
			Code: unix.BPF_JMP | unix.BPF_JEQ | unix.BPF_K,
			Jt:   uint8(n - i),
			Jf:   0,
			K:    nr,
		})
	}
	prog = append(prog, unix.SockFilter{Code: unix.BPF_RET | unix.BPF_K, K: seccompRetAllow})
	prog = append(prog, unix.SockFilter{Code: unix.BPF_RET | unix.BPF_K, K: seccompRetErrno | uint32(unix.EPERM)})
	return prog
}

