package capsule

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind distinguishes the two notifications a capsule's worker emits
// over its lifetime.
type EventKind int

const (
	// EventStart fires once the worker goroutine is running (Start has
	// already set the running state) and is about to call the entry
	// procedure.
	EventStart EventKind = iota
	// EventStop fires once the worker has drained its inbox and cleared
	// its running flag, immediately before the worker goroutine exits.
	EventStop
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "capsule_start"
	case EventStop:
		return "capsule_stop"
	default:
		return "capsule_unknown"
	}
}

// EventCallback observes capsule lifecycle transitions. capsuleID lets an
// embedder correlate start/stop pairs for capsules that share a name.
type EventCallback func(kind EventKind, capsuleName string, capsuleID uuid.UUID)

// callbackRegistry is the global, lazily-initialized observer list.
// There is no deregistration: callbacks live for the process.
type callbackRegistry struct {
	mu  sync.Mutex
	cbs []EventCallback
}

var (
	globalRegistry     *callbackRegistry
	globalRegistryOnce sync.Once
)

// registry returns the singleton registry, initializing it exactly once
// via sync.Once rather than a hand-rolled double-checked flag.
func registry() *callbackRegistry {
	globalRegistryOnce.Do(func() {
		globalRegistry = &callbackRegistry{}
	})
	return globalRegistry
}

// RegisterEventCallback appends cb to the global observer list. Order of
// registration determines order of invocation. Panics if cb is nil.
func RegisterEventCallback(cb EventCallback) {
	if cb == nil {
		panic(`capsule: nil event callback`)
	}
	r := registry()
	r.mu.Lock()
	r.cbs = append(r.cbs, cb)
	r.mu.Unlock()
}

// emit copies the current observer list under the registry lock, then
// invokes every callback outside the lock. This is intentional: a callback
// that itself calls back into the capsule API (e.g. registering another
// observer, or creating a capsule) cannot deadlock against the registry
// lock. The cost is that a callback registered concurrently with an
// in-flight emit may or may not observe that emit.
func emit(kind EventKind, name string, id uuid.UUID) {
	r := registry()
	r.mu.Lock()
	snapshot := make([]EventCallback, len(r.cbs))
	copy(snapshot, r.cbs)
	r.mu.Unlock()

	for _, cb := range snapshot {
		cb(kind, name, id)
	}
}
