// Package syscallreg implements a named, authenticated, audited effect
// dispatch table: a host registers handlers under a name, and a capsule
// (or anything else with a *Registry) invokes them by name, optionally
// gated by a token.
package syscallreg

import (
	"sync"

	"github.com/trion-lang/trion/trionaudit"
	"github.com/trion-lang/trion/trionerr"
)

// Flag bits for an Entry.
type Flag uint8

const (
	// FlagAudit causes Invoke to emit syscall_invoke/syscall_invoke_result
	// records around a call to this entry's handler.
	FlagAudit Flag = 1 << iota
	// FlagTrustedOnly marks an entry as reserved for trusted callers. The
	// registry itself does not interpret this bit - enforcing it is the
	// embedder's concern; it is advisory metadata, not something Invoke
	// checks.
	FlagTrustedOnly
)

// Handler runs a syscall's effect and returns an opaque result blob
// (conventionally JSON, but any byte string passes through unexamined).
// Any context a handler needs is simply captured by its closure, so
// Handler takes only the argument blob.
type Handler func(argsJSON []byte) (result []byte, err error)

// Entry is one registered syscall.
type Entry struct {
	Name        string
	Handler     Handler
	Flags       Flag
	AuthToken   string // empty means no authentication is required
	Description string
}

// Registry is a global-shaped (but independently constructible, for
// testing) ordered collection of syscall entries, protected by its own
// lock. Names are unique only by convention: Invoke and Unregister both
// take the first match.
type Registry struct {
	mu      sync.Mutex
	entries []*Entry
	audit   *trionaudit.Log
}

// New creates a Registry that emits audit records to audit. Passing nil
// uses trionaudit.DefaultLog(), which itself falls back to standard error
// until a host opens a file.
func New(audit *trionaudit.Log) *Registry {
	if audit == nil {
		audit = trionaudit.DefaultLog()
	}
	return &Registry{audit: audit}
}

// Register appends e to the registry and emits a syscall_registered audit
// record. Name and Handler are required.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return trionerr.Wrap(trionerr.ErrInvalidArgs, "syscallreg: register: empty name")
	}
	if e.Handler == nil {
		return trionerr.Wrap(trionerr.ErrInvalidArgs, "syscallreg: register: nil handler for %s", e.Name)
	}

	entry := e // Go strings are immutable value copies; no separate "copy in" step is needed.

	r.mu.Lock()
	r.entries = append(r.entries, &entry)
	r.mu.Unlock()

	r.audit.Logf("syscall_registered name=%q trusted_only=%t has_token=%t", e.Name, e.Flags&FlagTrustedOnly != 0, e.AuthToken != "")
	return nil
}

// Unregister removes the first entry named name, swapping the last entry
// into the freed slot. Returns ErrNotFound if no entry matches.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	idx := -1
	for i, e := range r.entries {
		if e.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return trionerr.Wrap(trionerr.ErrNotFound, "syscallreg: unregister: %s", name)
	}
	last := len(r.entries) - 1
	r.entries[idx] = r.entries[last]
	r.entries[last] = nil
	r.entries = r.entries[:last]
	r.mu.Unlock()

	r.audit.Logf("syscall_unregistered name=%q", name)
	return nil
}

// Invoke looks up name, checks authToken against the entry's configured
// token (if any), and calls the handler: lookup, auth check, optional
// pre-call audit record, the call itself, then an optional post-call audit
// record.
func (r *Registry) Invoke(name string, argsJSON []byte, authToken string) ([]byte, error) {
	r.mu.Lock()
	var found *Entry
	for _, e := range r.entries {
		if e.Name == name {
			found = e
			break
		}
	}
	r.mu.Unlock()

	if found == nil {
		return nil, trionerr.Wrap(trionerr.ErrNotFound, "syscallreg: invoke: %s", name)
	}

	if found.AuthToken != "" && authToken != found.AuthToken {
		r.audit.Logf("syscall_invoke_failed_auth name=%q", name)
		return nil, trionerr.Wrap(trionerr.ErrAuthFailed, "syscallreg: invoke: %s", name)
	}

	handler := found.Handler
	audited := found.Flags&FlagAudit != 0

	if audited {
		r.audit.Logf("syscall_invoke name=%q args=%s", name, argsJSON)
	}

	result, err := handler(argsJSON)

	if audited {
		r.audit.Logf("syscall_invoke_result name=%q ok=%t", name, err == nil)
	}

	if err != nil {
		return nil, trionerr.Wrap(trionerr.ErrHandlerFailed, "syscallreg: invoke: %s: %v", name, err)
	}
	return result, nil
}

// Len returns the number of currently registered entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
