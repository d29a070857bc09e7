package trionconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecConstants(t *testing.T) {
	cfg := Default()
	require.Equal(t, 16, cfg.QuarantineDefaultCapacity)
	require.Equal(t, 32, cfg.CapsuleInboxCapacity)
	require.Greater(t, cfg.SandboxAddressSpaceLimit, uint64(0))
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trion.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
quarantine_default_capacity = 64
capsule_inbox_capacity = 128
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 64, cfg.QuarantineDefaultCapacity)
	require.Equal(t, 128, cfg.CapsuleInboxCapacity)
	// Untouched fields keep their defaults.
	require.Equal(t, 30*time.Second, cfg.ChannelDefaultTimeout)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid toml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestApplyIsIdempotent(t *testing.T) {
	cfg := Default()
	err1 := Apply(cfg)
	err2 := Apply(cfg)
	require.Equal(t, err1, err2)
}
