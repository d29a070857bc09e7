// Command trion-host is a minimal embedder: it loads optional config,
// applies process-wide tuning, spins up one capsule, and demonstrates the
// syscall registry and audit log end to end. It exists to exercise
// trionffi the way a real embedder would, not as a general-purpose tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/trion-lang/trion/capsule"
	"github.com/trion-lang/trion/syscallreg"
	"github.com/trion-lang/trion/trionaudit"
	"github.com/trion-lang/trion/trionconfig"
	"github.com/trion-lang/trion/trionffi"
)

func main() {
	configPath := flag.String("config", "", "optional TOML tuning file")
	auditPath := flag.String("audit-log", "", "optional audit log path")
	flag.Parse()

	cfg, err := trionconfig.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "trion-host: load config:", err)
		os.Exit(1)
	}
	if *auditPath != "" {
		cfg.AuditLogPath = *auditPath
	}
	if err := trionconfig.Apply(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "trion-host: apply config:", err)
		os.Exit(1)
	}

	log := trionaudit.DefaultLog()

	capsule.RegisterEventCallback(func(kind capsule.EventKind, name string, id uuid.UUID) {
		log.Logf("%s name=%q id=%s", kind, name, id)
	})

	echo, err := capsule.Create("echo", func(c *capsule.Capsule, userCtx any) {
		log.Logf("capsule_worker_ran name=%q", c.Name())
	}, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "trion-host: create capsule:", err)
		os.Exit(1)
	}

	if err := echo.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "trion-host: start capsule:", err)
		os.Exit(1)
	}
	_ = echo.Send(context.Background(), "hello")
	echo.Join()
	echo.Destroy()

	code := trionffi.TrSyscallRegister("host.ping", func(args []byte) ([]byte, error) {
		return []byte("pong"), nil
	}, syscallreg.FlagAudit, "")
	if code != 0 {
		fmt.Fprintln(os.Stderr, "trion-host: register syscall failed:", trionffi.TrGetLastError())
		os.Exit(1)
	}

	result, code := trionffi.TrSyscallInvoke("host.ping", nil, "")
	if code != 0 {
		fmt.Fprintln(os.Stderr, "trion-host: invoke syscall failed:", trionffi.TrGetLastError())
		os.Exit(1)
	}
	fmt.Printf("trion-host: host.ping -> %s\n", result)

	log.Logf("trion_host_demo_complete")
}
