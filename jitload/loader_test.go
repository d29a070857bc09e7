package jitload

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trion-lang/trion/trionerr"
)

func TestFilterDiagnosticsDropsNoisyLines(t *testing.T) {
	in := "In file included from foo.s:1:\nreal error: undefined symbol\nld: warning: noop\n"
	out := filterDiagnostics(in)
	require.Contains(t, out, "real error: undefined symbol")
	require.NotContains(t, out, "In file included from")
	require.NotContains(t, out, "ld: warning:")
}

func TestLoadFailsCleanlyWhenToolchainMissing(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	defer l.Close()

	// "bogus assembly source" is not valid input for clang or nasm (and
	// either may also be missing from PATH), so every build attempt fails
	// and Load should surface ErrBuildFailed plus a non-empty diagnostic
	// rather than panicking.
	_, diag, err := l.Load("bogus assembly source", "entry")
	require.Error(t, err)
	require.ErrorIs(t, err, trionerr.ErrBuildFailed)
	require.NotEmpty(t, diag)
}
