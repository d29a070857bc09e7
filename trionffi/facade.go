// Package trionffi is a flat, "tr_"-prefixed function table: a single
// surface a non-Go embedder (over cgo, or any FFI layer that can call
// exported Go functions) uses to drive the quarantine, channel, capsule,
// base-12, syscall and audit packages through integer handles and a small
// return-code table, falling back to trionerr.LastError for diagnostic
// detail. A call given an unknown handle returns CodeGeneric (or does
// nothing) without recording a last error. Every internal package already
// exposes an idiomatic Go API; this package is purely a narrow C-linkage
// adapter, not a second implementation.
package trionffi

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trion-lang/trion/capsule"
	"github.com/trion-lang/trion/dodecagram"
	"github.com/trion-lang/trion/mpchan"
	"github.com/trion-lang/trion/quarantine"
	"github.com/trion-lang/trion/syscallreg"
	"github.com/trion-lang/trion/trionaudit"
	"github.com/trion-lang/trion/trionerr"
)

// Handle is an opaque reference to a component struct, standing in for an
// untyped pointer handle at the C-linkage boundary.
type Handle int64

var (
	handleMu   sync.Mutex
	handles    = map[Handle]any{}
	nextHandle Handle = 1
)

func register(v any) Handle {
	handleMu.Lock()
	defer handleMu.Unlock()
	h := nextHandle
	nextHandle++
	handles[h] = v
	return h
}

func lookup(h Handle) (any, bool) {
	handleMu.Lock()
	defer handleMu.Unlock()
	v, ok := handles[h]
	return v, ok
}

func release(h Handle) {
	handleMu.Lock()
	defer handleMu.Unlock()
	delete(handles, h)
}

// contextFor converts a millisecond timeout convention (0 or negative
// blocks forever) into a context.Context for mpchan/capsule's
// context-based blocking API.
func contextFor(timeoutMs int64) (context.Context, context.CancelFunc) {
	if timeoutMs <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), time.Duration(timeoutMs)*time.Millisecond)
}

// --- quarantine ---

// TrQuarantineNew creates a quarantine and returns its handle.
func TrQuarantineNew(initialCapacity int) Handle {
	return register(quarantine.New(initialCapacity))
}

// TrQuarantineAlloc allocates size bytes from qh, returning a block handle
// and a generic return code (0 ok, -1 error).
func TrQuarantineAlloc(qh Handle, size int) (Handle, trionerr.Code) {
	v, ok := lookup(qh)
	if !ok {
		return 0, trionerr.CodeGeneric
	}
	q := v.(*quarantine.Quarantine)
	b, err := q.Alloc(size)
	if err != nil {
		return 0, trionerr.ToCode(err)
	}
	return register(b), trionerr.CodeOk
}

// TrQuarantineFree releases bh from qh.
func TrQuarantineFree(qh, bh Handle) trionerr.Code {
	qv, ok := lookup(qh)
	if !ok {
		return trionerr.CodeGeneric
	}
	bv, ok := lookup(bh)
	if !ok {
		return trionerr.CodeGeneric
	}
	q := qv.(*quarantine.Quarantine)
	b := bv.(*quarantine.Block)
	if err := q.Free(b); err != nil {
		return trionerr.ToCode(err)
	}
	release(bh)
	return trionerr.CodeOk
}

// TrQuarantineSeal seals qh against further allocation.
func TrQuarantineSeal(qh Handle) {
	if v, ok := lookup(qh); ok {
		v.(*quarantine.Quarantine).Seal()
	}
}

// TrQuarantineDestroy releases every block in qh and invalidates the handle.
func TrQuarantineDestroy(qh Handle) {
	if v, ok := lookup(qh); ok {
		v.(*quarantine.Quarantine).Destroy()
		release(qh)
	}
}

// --- channel ---

// TrChannelNew creates a bounded channel of the given capacity.
func TrChannelNew(capacity int) (Handle, trionerr.Code) {
	ch, err := mpchan.New[any](capacity)
	if err != nil {
		return 0, trionerr.ToCode(err)
	}
	return register(ch), trionerr.CodeOk
}

// TrChannelSend sends item on ch, blocking up to timeoutMs (0 means
// forever).
func TrChannelSend(ch Handle, item any, timeoutMs int64) trionerr.Code {
	v, ok := lookup(ch)
	if !ok {
		return trionerr.CodeGeneric
	}
	c := v.(*mpchan.Channel[any])
	ctx, cancel := contextFor(timeoutMs)
	defer cancel()
	if err := c.Send(ctx, item); err != nil {
		return trionerr.ToCode(err)
	}
	return trionerr.CodeOk
}

// TrChannelRecv receives from ch, blocking up to timeoutMs. Returns
// CodeRecvOkItem (1) with a value, or CodeOk (0) when the channel is
// closed and drained.
func TrChannelRecv(ch Handle, timeoutMs int64) (any, trionerr.Code) {
	v, ok := lookup(ch)
	if !ok {
		return nil, trionerr.CodeGeneric
	}
	c := v.(*mpchan.Channel[any])
	ctx, cancel := contextFor(timeoutMs)
	defer cancel()
	item, err := c.Recv(ctx)
	if err != nil {
		if errors.Is(err, trionerr.ErrDrained) {
			return nil, trionerr.CodeOk
		}
		return nil, trionerr.ToCode(err)
	}
	return item, trionerr.CodeRecvOkItem
}

// TrChannelClose closes ch, waking every blocked sender and receiver.
func TrChannelClose(ch Handle) {
	if v, ok := lookup(ch); ok {
		v.(*mpchan.Channel[any]).Close()
	}
}

// --- capsule ---

// TrCapsuleCreate creates a capsule named name running entry, and returns
// its handle.
func TrCapsuleCreate(name string, entry capsule.EntryFunc, userCtx any) (Handle, trionerr.Code) {
	c, err := capsule.Create(name, entry, userCtx)
	if err != nil {
		return 0, trionerr.ToCode(err)
	}
	return register(c), trionerr.CodeOk
}

// TrCapsuleStart starts ch's worker.
func TrCapsuleStart(ch Handle) trionerr.Code {
	v, ok := lookup(ch)
	if !ok {
		return trionerr.CodeGeneric
	}
	if err := v.(*capsule.Capsule).Start(); err != nil {
		return trionerr.ToCode(err)
	}
	return trionerr.CodeOk
}

// TrCapsuleSend forwards msg to ch's inbox, blocking up to timeoutMs.
func TrCapsuleSend(ch Handle, msg any, timeoutMs int64) trionerr.Code {
	v, ok := lookup(ch)
	if !ok {
		return trionerr.CodeGeneric
	}
	ctx, cancel := contextFor(timeoutMs)
	defer cancel()
	if err := v.(*capsule.Capsule).Send(ctx, msg); err != nil {
		return trionerr.ToCode(err)
	}
	return trionerr.CodeOk
}

// TrCapsuleJoin blocks until ch's worker has exited.
func TrCapsuleJoin(ch Handle) {
	if v, ok := lookup(ch); ok {
		v.(*capsule.Capsule).Join()
	}
}

// TrCapsuleDestroy tears down ch and invalidates the handle.
func TrCapsuleDestroy(ch Handle) {
	if v, ok := lookup(ch); ok {
		v.(*capsule.Capsule).Destroy()
		release(ch)
	}
}

// --- base-12 ---

// TrBase12Encode renders magnitude as unscaled base-12 text.
func TrBase12Encode(magnitude []byte) string {
	return dodecagram.Encode(magnitude)
}

// TrBase12Decode parses s, returning the magnitude, scale, sign, and a
// status code.
func TrBase12Decode(s string) ([]byte, int, bool, trionerr.Code) {
	mag, scale, neg, err := dodecagram.Decode(s)
	if err != nil {
		return nil, 0, false, trionerr.ToCode(err)
	}
	return mag, scale, neg, trionerr.CodeOk
}

// --- syscall registry ---

var (
	syscallOnce sync.Once
	syscallReg  *syscallreg.Registry
)

func defaultSyscallRegistry() *syscallreg.Registry {
	syscallOnce.Do(func() {
		syscallReg = syscallreg.New(trionaudit.DefaultLog())
	})
	return syscallReg
}

// TrSyscallRegister registers a named, optionally token-gated handler on
// the process-wide syscall registry.
func TrSyscallRegister(name string, handler syscallreg.Handler, flags syscallreg.Flag, authToken string) trionerr.Code {
	err := defaultSyscallRegistry().Register(syscallreg.Entry{
		Name:      name,
		Handler:   handler,
		Flags:     flags,
		AuthToken: authToken,
	})
	return trionerr.ToCode(err)
}

// TrSyscallInvoke calls the named syscall with the given auth token.
func TrSyscallInvoke(name string, argsJSON []byte, authToken string) ([]byte, trionerr.Code) {
	result, err := defaultSyscallRegistry().Invoke(name, argsJSON, authToken)
	if err != nil {
		return nil, trionerr.ToCode(err)
	}
	return result, trionerr.CodeOk
}

// --- audit / last-error ---

// TrAuditLogf appends a record to the process-wide audit log.
func TrAuditLogf(format string, args ...any) {
	trionaudit.DefaultLog().Logf(format, args...)
}

// TrGetLastError returns the calling goroutine's last recorded error
// message.
func TrGetLastError() string {
	return trionerr.LastError()
}
