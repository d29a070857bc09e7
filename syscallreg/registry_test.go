package syscallreg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trion-lang/trion/trionaudit"
	"github.com/trion-lang/trion/trionerr"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.log")
	var l trionaudit.Log
	require.NoError(t, trionaudit.Open(&l, path))
	t.Cleanup(func() { trionaudit.Close(&l) })
	return New(&l), path
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	r, _ := newTestRegistry(t)

	err := r.Register(Entry{Handler: func([]byte) ([]byte, error) { return nil, nil }})
	require.ErrorIs(t, err, trionerr.ErrInvalidArgs)

	err = r.Register(Entry{Name: "echo"})
	require.ErrorIs(t, err, trionerr.ErrInvalidArgs)
}

func TestInvokeUnknownNameIsNotFound(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Invoke("missing", nil, "")
	require.ErrorIs(t, err, trionerr.ErrNotFound)
}

// TestAuthRoundTrip checks that a syscall registered with an auth token
// rejects the wrong token and accepts the right one, with both outcomes
// reaching the audit log.
func TestAuthRoundTrip(t *testing.T) {
	r, path := newTestRegistry(t)

	called := false
	err := r.Register(Entry{
		Name: "privileged.shutdown",
		Handler: func(argsJSON []byte) ([]byte, error) {
			called = true
			return []byte(`{"ok":true}`), nil
		},
		Flags:     FlagAudit,
		AuthToken: "secret-token",
	})
	require.NoError(t, err)

	_, err = r.Invoke("privileged.shutdown", nil, "wrong-token")
	require.ErrorIs(t, err, trionerr.ErrAuthFailed)
	require.False(t, called)

	result, err := r.Invoke("privileged.shutdown", nil, "secret-token")
	require.NoError(t, err)
	require.True(t, called)

	var decoded map[string]bool
	require.NoError(t, json.Unmarshal(result, &decoded))
	require.True(t, decoded["ok"])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	log := string(data)
	require.Contains(t, log, "syscall_registered name=\"privileged.shutdown\"")
	require.Contains(t, log, "syscall_invoke_failed_auth name=\"privileged.shutdown\"")
	require.Contains(t, log, "syscall_invoke name=\"privileged.shutdown\"")
	require.Contains(t, log, "syscall_invoke_result name=\"privileged.shutdown\" ok=true")
}

func TestInvokeNoTokenRequired(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.Register(Entry{
		Name:    "echo",
		Handler: func(b []byte) ([]byte, error) { return b, nil },
	}))

	result, err := r.Invoke("echo", []byte("hi"), "")
	require.NoError(t, err)
	require.Equal(t, "hi", string(result))
}

func TestInvokeHandlerFailureWrapsErrHandlerFailed(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.Register(Entry{
		Name:    "boom",
		Handler: func([]byte) ([]byte, error) { return nil, require.AnError },
	}))

	_, err := r.Invoke("boom", nil, "")
	require.ErrorIs(t, err, trionerr.ErrHandlerFailed)
}

func TestUnregisterSwapsLastEntry(t *testing.T) {
	r, _ := newTestRegistry(t)
	noop := func([]byte) ([]byte, error) { return nil, nil }
	require.NoError(t, r.Register(Entry{Name: "a", Handler: noop}))
	require.NoError(t, r.Register(Entry{Name: "b", Handler: noop}))
	require.NoError(t, r.Register(Entry{Name: "c", Handler: noop}))
	require.Equal(t, 3, r.Len())

	require.NoError(t, r.Unregister("a"))
	require.Equal(t, 2, r.Len())

	_, err := r.Invoke("a", nil, "")
	require.ErrorIs(t, err, trionerr.ErrNotFound)

	_, err = r.Invoke("b", nil, "")
	require.NoError(t, err)
	_, err = r.Invoke("c", nil, "")
	require.NoError(t, err)

	err = r.Unregister("does-not-exist")
	require.ErrorIs(t, err, trionerr.ErrNotFound)
}
