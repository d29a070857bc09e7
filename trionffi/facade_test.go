package trionffi

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trion-lang/trion/trionerr"
)

func TestQuarantineRoundTrip(t *testing.T) {
	qh := TrQuarantineNew(0)
	bh, code := TrQuarantineAlloc(qh, 4)
	require.Equal(t, trionerr.CodeOk, code)

	code = TrQuarantineFree(qh, bh)
	require.Equal(t, trionerr.CodeOk, code)

	// Double free can't find bh in the bag anymore.
	code = TrQuarantineFree(qh, bh)
	require.NotEqual(t, trionerr.CodeOk, code)

	TrQuarantineDestroy(qh)
}

func TestChannelSendRecvRoundTrip(t *testing.T) {
	ch, code := TrChannelNew(1)
	require.Equal(t, trionerr.CodeOk, code)

	require.Equal(t, trionerr.CodeOk, TrChannelSend(ch, "hello", 0))

	item, code := TrChannelRecv(ch, 0)
	require.Equal(t, trionerr.CodeRecvOkItem, code)
	require.Equal(t, "hello", item)

	TrChannelClose(ch)

	_, code = TrChannelRecv(ch, 0)
	require.Equal(t, trionerr.CodeOk, code)
}

func TestBase12RoundTrip(t *testing.T) {
	s := TrBase12Encode([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	require.Equal(t, "9ba461593", s)

	mag, scale, neg, code := TrBase12Decode(s)
	require.Equal(t, trionerr.CodeOk, code)
	require.Equal(t, 0, scale)
	require.False(t, neg)
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, mag)
}

func TestSyscallRoundTrip(t *testing.T) {
	code := TrSyscallRegister("ffi.echo", func(b []byte) ([]byte, error) { return b, nil }, 0, "")
	require.Equal(t, trionerr.CodeOk, code)

	result, code := TrSyscallInvoke("ffi.echo", []byte("ping"), "")
	require.Equal(t, trionerr.CodeOk, code)
	require.Equal(t, "ping", string(result))
}

func TestGetLastErrorReflectsFailure(t *testing.T) {
	_, code := TrQuarantineAlloc(Handle(999999), 1)
	require.NotEqual(t, trionerr.CodeOk, code)
	// A bad handle never reaches trionerr.Wrap, so nothing overwrites the
	// goroutine's last-error slot here.
	_ = TrGetLastError()

	// A failure inside the wrapped package does record a last error.
	qh := TrQuarantineNew(0)
	_, code = TrQuarantineAlloc(qh, 0)
	require.Equal(t, trionerr.CodeGeneric, code)
	require.Contains(t, TrGetLastError(), "quarantine: alloc")
	TrQuarantineDestroy(qh)
}
