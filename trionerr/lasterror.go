package trionerr

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// lastErrors holds one message per goroutine, approximating an OS-thread
// local diagnostic slot. goroutineIDOf below is a stdlib-only fallback for
// identifying the calling goroutine - it is deliberately narrow in scope
// (this slot only) rather than a general-purpose goroutine-local-storage
// facility.
var (
	lastErrorsMu sync.Mutex
	lastErrors   = map[int64]string{}
)

// setLast records msg as the last error for the calling goroutine, replacing
// any previous value. The lock only serializes the map mutation; readers and
// writers on different goroutines never contend over the same slot except
// during this brief swap.
func setLast(msg string) {
	id := goroutineIDOf()
	lastErrorsMu.Lock()
	lastErrors[id] = msg
	lastErrorsMu.Unlock()
}

// LastError returns the calling goroutine's most recently recorded error
// message, or "" if none has been set (or it was cleared).
func LastError() string {
	id := goroutineIDOf()
	lastErrorsMu.Lock()
	msg := lastErrors[id]
	lastErrorsMu.Unlock()
	return msg
}

// ClearLastError discards the calling goroutine's last error, if any.
func ClearLastError() {
	id := goroutineIDOf()
	lastErrorsMu.Lock()
	delete(lastErrors, id)
	lastErrorsMu.Unlock()
}

// goroutineIDOf parses the numeric goroutine ID out of a runtime.Stack
// header ("goroutine 123 [running]:"). It is slow and allocates; callers on
// a hot path should not call LastError/setLast in a loop without reason.
func goroutineIDOf() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return -1
	}
	b = b[len(prefix):]
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
