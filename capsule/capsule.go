// Package capsule implements an actor-like unit of execution: a named
// capsule owning one quarantine, one bounded inbox, and a worker goroutine
// running an embedder-supplied entry procedure.
package capsule

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/trion-lang/trion/mpchan"
	"github.com/trion-lang/trion/quarantine"
	"github.com/trion-lang/trion/trionerr"
)

const defaultInboxCapacity = 32

// EntryFunc is the embedder-supplied body a capsule runs on its worker. It
// receives the capsule (for Send/TrySend to itself, or inspecting its name)
// and the opaque userCtx passed to Create.
type EntryFunc func(c *Capsule, userCtx any)

const (
	stateNew int32 = iota
	stateRunning
	stateStopped
)

// Capsule is a named actor: one quarantine, one inbox, one worker. Create a
// Capsule with Create; it does not start running until Start is called.
type Capsule struct {
	id        uuid.UUID
	nameBlock *quarantine.Block // name lives inside the capsule's own quarantine
	arena     *quarantine.Quarantine
	inbox     *mpchan.Channel[any]
	entry     EntryFunc
	userCtx   any

	state int32 // atomic, one of the state* constants
	wg    sync.WaitGroup
}

// Create allocates a capsule named name, owning a fresh quarantine and a
// 32-capacity inbox. No worker is started; call Start for that. entry must
// not be nil.
func Create(name string, entry EntryFunc, userCtx any) (*Capsule, error) {
	if entry == nil {
		return nil, trionerr.Wrap(trionerr.ErrInvalidArgs, "capsule: create: nil entry")
	}

	arena := quarantine.New(16)
	nameBlock, err := arena.Strdup(name)
	if err != nil {
		arena.Destroy()
		return nil, trionerr.Wrap(err, "capsule: create: name alloc")
	}

	inbox, err := mpchan.New[any](defaultInboxCapacity)
	if err != nil {
		arena.Destroy()
		return nil, trionerr.Wrap(err, "capsule: create: inbox")
	}

	return &Capsule{
		id:        uuid.New(),
		nameBlock: nameBlock,
		arena:     arena,
		inbox:     inbox,
		entry:     entry,
		userCtx:   userCtx,
	}, nil
}

// ID returns the capsule's correlation identifier, stable for its lifetime.
func (c *Capsule) ID() uuid.UUID {
	return c.id
}

// Name returns the capsule's name, read back from its own quarantine.
func (c *Capsule) Name() string {
	b := c.nameBlock.Bytes()
	if n := len(b); n > 0 && b[n-1] == 0 {
		b = b[:n-1]
	}
	return string(b)
}

// Running reports whether the worker has started and not yet exited.
func (c *Capsule) Running() bool {
	return atomic.LoadInt32(&c.state) == stateRunning
}

// Start spawns the worker goroutine. It fails with ErrAlreadyRunning if the
// capsule is already running, or has already finished running once: a
// capsule's running state transitions false->true->false and never cycles
// back, so a capsule is single-use. There is no SpawnFailed case in this
// implementation - a Go goroutine launch cannot itself fail the way an OS
// thread_create can; trionerr.ErrSpawnFailed remains part of the taxonomy
// for the trionffi boundary, where a host embedding this core over a
// thread-per-OS-thread runtime could still hit real spawn failure.
func (c *Capsule) Start() error {
	if !atomic.CompareAndSwapInt32(&c.state, stateNew, stateRunning) {
		return trionerr.Wrap(trionerr.ErrAlreadyRunning, "capsule: start: %s", c.Name())
	}
	c.wg.Add(1)
	go c.runWorker()
	return nil
}

// Join waits for the worker to exit. It returns immediately if Start was
// never called (sync.WaitGroup.Wait on a zero counter is already a no-op).
func (c *Capsule) Join() {
	c.wg.Wait()
}

// Send forwards msg to the capsule's inbox, per the same blocking rules as
// mpchan.Channel.Send.
func (c *Capsule) Send(ctx context.Context, msg any) error {
	return c.inbox.Send(ctx, msg)
}

// TrySend forwards msg to the capsule's inbox without waiting.
func (c *Capsule) TrySend(msg any) error {
	return c.inbox.TrySend(msg)
}

// Destroy closes the inbox (waking the worker if it is blocked receiving,
// though the worker never blocks on its own inbox outside message
// handling), joins the worker, and destroys the quarantine - which frees
// the name block along with everything else.
func (c *Capsule) Destroy() {
	c.inbox.Close()
	c.Join()
	c.arena.Destroy()
}

// runWorker is the capsule's worker wrapper (Start has already set the
// running state): emit capsule_start, run the entry, drain the inbox non-blockingly (messages
// are discarded - their memory is the embedder's concern), clear running,
// emit capsule_stop.
func (c *Capsule) runWorker() {
	defer c.wg.Done()

	emit(EventStart, c.Name(), c.id)
	c.entry(c, c.userCtx)

	for {
		if _, err := c.inbox.TryRecv(); err != nil {
			break
		}
	}

	atomic.StoreInt32(&c.state, stateStopped)
	emit(EventStop, c.Name(), c.id)
}
