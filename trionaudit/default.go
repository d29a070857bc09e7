package trionaudit

import "sync"

// defaultLog is the process-wide audit log every Trion component emits to
// unless a host constructs and threads through its own *Log, initialized
// exactly once via sync.Once.
var (
	defaultOnce sync.Once
	defaultLog  *Log
)

// DefaultLog returns the process-wide Log, initializing it on first use.
func DefaultLog() *Log {
	defaultOnce.Do(func() {
		defaultLog = &Log{}
	})
	return defaultLog
}
