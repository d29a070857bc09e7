// Package trionconfig loads the tunable knobs of a Trion host - quarantine
// default capacity, capsule inbox capacity, audit log path, sandbox default
// limits, channel default timeouts - from an optional TOML file, and applies
// process-wide runtime tuning (GOMAXPROCS, GOMEMLIMIT) exactly once per
// process. Of the loaded values, Apply uses only AuditLogPath; the other
// packages do not read Config and keep their own built-in defaults.
package trionconfig

import (
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/KimMachineGun/automemlimit/memlimit"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/trion-lang/trion/sandbox"
	"github.com/trion-lang/trion/trionaudit"
	"github.com/trion-lang/trion/trionerr"
)

// Config holds every tunable default a Trion host can override via file.
type Config struct {
	QuarantineDefaultCapacity int           `toml:"quarantine_default_capacity"`
	CapsuleInboxCapacity      int           `toml:"capsule_inbox_capacity"`
	AuditLogPath              string        `toml:"audit_log_path"`
	SandboxAddressSpaceLimit  uint64        `toml:"sandbox_address_space_limit"`
	ChannelDefaultTimeout     time.Duration `toml:"channel_default_timeout"`
}

// Default returns the hard-coded defaults used when no file is supplied:
// quarantine's 16, capsule's 32, and sandbox's memory-fraction default.
func Default() Config {
	return Config{
		QuarantineDefaultCapacity: 16,
		CapsuleInboxCapacity:      32,
		AuditLogPath:              "",
		SandboxAddressSpaceLimit:  sandbox.DefaultLimits(),
		ChannelDefaultTimeout:     30 * time.Second,
	}
}

// Load reads path as TOML into Default()'s values, overriding only the
// keys present in the file. An empty path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, trionerr.Wrap(err, "trionconfig: load %s", path)
	}
	return cfg, nil
}

var (
	applyOnce sync.Once
	applyErr  error
)

// Apply sizes GOMAXPROCS and GOMEMLIMIT for the container/cgroup the
// process is actually running under, and opens cfg's audit log as the
// process-wide default. It runs at most once per process, via sync.Once,
// the same lazy-singleton pattern used by capsule's event registry and
// trionaudit.DefaultLog. Every call, including ones after the first,
// returns whatever error that single application produced.
func Apply(cfg Config) error {
	applyOnce.Do(func() {
		if _, err := maxprocs.Set(); err != nil {
			applyErr = trionerr.Wrap(err, "trionconfig: apply: set GOMAXPROCS")
			return
		}
		if _, err := memlimit.SetGoMemLimitWithOpts(memlimit.WithRatio(0.9)); err != nil {
			applyErr = trionerr.Wrap(err, "trionconfig: apply: set GOMEMLIMIT")
			return
		}
		if cfg.AuditLogPath != "" {
			if err := trionaudit.Open(trionaudit.DefaultLog(), cfg.AuditLogPath); err != nil {
				applyErr = trionerr.Wrap(err, "trionconfig: apply: open audit log")
				return
			}
		}
	})
	return applyErr
}
