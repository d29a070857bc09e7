// Package mpchan implements a bounded multi-producer/multi-consumer
// channel: a fixed-capacity ring buffer with blocking,
// non-blocking, and timed send/recv, plus a monotone close that wakes every
// waiter and lets receivers drain whatever is left before reporting Drained.
//
// Send/Recv take a context.Context the way longpoll.Channel does: a
// never-canceled context blocks indefinitely, a context with a deadline
// bounds the wait and surfaces as trionerr.ErrTimeout on expiry. TrySend and
// TryRecv exist separately for the genuinely non-blocking case, since an
// already-expired context and "don't wait at all" are different requests.
package mpchan

import (
	"context"
	"errors"
	"sync"

	"github.com/trion-lang/trion/trionerr"
)

// waiter is a single-use wake-up signal: closing it wakes exactly the one
// goroutine holding it, which then re-validates the channel's state under
// the lock rather than trusting the wake-up itself.
type waiter chan struct{}

// Channel is a bounded FIFO queue of items of type T. The zero value is not
// usable; construct with New.
type Channel[T any] struct {
	mu     sync.Mutex
	buf    []T
	head   int
	tail   int
	count  int
	closed bool

	sendWaiters []waiter // goroutines blocked in Send, waiting for space
	recvWaiters []waiter // goroutines blocked in Recv, waiting for an item
}

// New creates a Channel with the given fixed capacity. capacity must be at
// least 1.
func New[T any](capacity int) (*Channel[T], error) {
	if capacity < 1 {
		return nil, trionerr.Wrap(trionerr.ErrInvalidArgs, "mpchan: new: capacity %d", capacity)
	}
	return &Channel[T]{buf: make([]T, capacity)}, nil
}

// Cap returns the channel's fixed capacity.
func (c *Channel[T]) Cap() int {
	return len(c.buf)
}

// Len returns the number of items currently buffered.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Send inserts item, blocking until space is available, the channel closes,
// or ctx is done. A context.Context with no deadline (e.g.
// context.Background()) blocks indefinitely; one with a deadline surfaces
// trionerr.ErrTimeout when it expires. Passing a nil ctx panics.
func (c *Channel[T]) Send(ctx context.Context, item T) error {
	if ctx == nil {
		panic(`mpchan: nil context`)
	}
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return trionerr.Wrap(trionerr.ErrClosed, "mpchan: send")
		}
		if c.count < len(c.buf) {
			c.push(item)
			wakeOne(&c.recvWaiters)
			c.mu.Unlock()
			return nil
		}
		w := make(waiter)
		c.sendWaiters = append(c.sendWaiters, w)
		c.mu.Unlock()

		if err := waitOrTimeout(ctx, w); err != nil {
			c.removeWaiter(&c.sendWaiters, w)
			return mapCtxErr(err, "mpchan: send")
		}
	}
}

// TrySend inserts item without waiting. It returns trionerr.ErrWouldBlock if
// the channel is full, and trionerr.ErrClosed if the channel is closed.
func (c *Channel[T]) TrySend(item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return trionerr.Wrap(trionerr.ErrClosed, "mpchan: try send")
	}
	if c.count == len(c.buf) {
		return trionerr.Wrap(trionerr.ErrWouldBlock, "mpchan: try send")
	}
	c.push(item)
	wakeOne(&c.recvWaiters)
	return nil
}

// Recv removes and returns the oldest item, blocking until one is
// available, ctx is done, or the channel is closed and drained. On a closed
// and empty channel it returns trionerr.ErrDrained, distinct from a plain
// context timeout, so callers can tell "terminal" from "try again later"
// apart. Passing a nil ctx panics.
func (c *Channel[T]) Recv(ctx context.Context) (T, error) {
	if ctx == nil {
		panic(`mpchan: nil context`)
	}
	for {
		c.mu.Lock()
		if c.count > 0 {
			item := c.pop()
			wakeOne(&c.sendWaiters)
			c.mu.Unlock()
			return item, nil
		}
		if c.closed {
			c.mu.Unlock()
			var zero T
			return zero, trionerr.Wrap(trionerr.ErrDrained, "mpchan: recv")
		}
		w := make(waiter)
		c.recvWaiters = append(c.recvWaiters, w)
		c.mu.Unlock()

		if err := waitOrTimeout(ctx, w); err != nil {
			c.removeWaiter(&c.recvWaiters, w)
			var zero T
			return zero, mapCtxErr(err, "mpchan: recv")
		}
	}
}

// TryRecv removes and returns the oldest item without waiting. It returns
// trionerr.ErrWouldBlock if the channel is open and empty, and
// trionerr.ErrDrained if the channel is closed and empty.
func (c *Channel[T]) TryRecv() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count > 0 {
		item := c.pop()
		wakeOne(&c.sendWaiters)
		return item, nil
	}
	var zero T
	if c.closed {
		return zero, trionerr.Wrap(trionerr.ErrDrained, "mpchan: try recv")
	}
	return zero, trionerr.Wrap(trionerr.ErrWouldBlock, "mpchan: try recv")
}

// Close marks the channel closed and wakes every waiter so each re-checks
// the closed flag: blocked sends return ErrClosed, blocked receives either
// dequeue a remaining item or return ErrDrained. Close is idempotent - a
// second call is a no-op; once closed, a channel never reopens.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, w := range c.sendWaiters {
		close(w)
	}
	for _, w := range c.recvWaiters {
		close(w)
	}
	c.sendWaiters = nil
	c.recvWaiters = nil
}

// Closed reports whether Close has been called.
func (c *Channel[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// push and pop assume the caller holds c.mu and has already verified space
// or availability respectively.
func (c *Channel[T]) push(item T) {
	c.buf[c.tail] = item
	c.tail = (c.tail + 1) % len(c.buf)
	c.count++
}

func (c *Channel[T]) pop() T {
	item := c.buf[c.head]
	var zero T
	c.buf[c.head] = zero
	c.head = (c.head + 1) % len(c.buf)
	c.count--
	return item
}

// wakeOne signals the oldest waiter on list, if any. Popping from the front
// keeps rough FIFO wake order, though there is no guarantee of fairness
// across competing waiters.
func wakeOne(list *[]waiter) {
	if len(*list) == 0 {
		return
	}
	w := (*list)[0]
	*list = (*list)[1:]
	close(w)
}

// removeWaiter drops w from list if it's still present (it may already have
// been popped and closed by a concurrent wakeOne, in which case this is a
// no-op - the caller still reports its context error, accepting the same
// kind of missed-wake race tolerated elsewhere in this package).
func (c *Channel[T]) removeWaiter(list *[]waiter, w waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, candidate := range *list {
		if candidate == w {
			last := len(*list) - 1
			(*list)[i] = (*list)[last]
			*list = (*list)[:last]
			return
		}
	}
}

func waitOrTimeout(ctx context.Context, w waiter) error {
	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func mapCtxErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return trionerr.Wrap(trionerr.ErrTimeout, op)
	}
	return err
}
