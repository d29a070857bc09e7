package capsule

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pool supervises a fixed set of capsules as a unit, the way
// kubestack.Stack supervises a process group: every member starts
// concurrently, StartAll reports the first member's Start failure, and
// Wait joins every member. Errors inside an EntryFunc are not collected;
// Wait returns nothing.
//
// Pool is a convenience for hosts that want "start N capsules, shut them
// all down together" without hand-rolling a WaitGroup; a single Capsule
// does not need it.
type Pool struct {
	mu       sync.Mutex
	capsules []*Capsule
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Add registers an already-created capsule with the pool. It does not start
// it - call StartAll, or Start the capsule yourself before or after Add.
func (p *Pool) Add(c *Capsule) {
	p.mu.Lock()
	p.capsules = append(p.capsules, c)
	p.mu.Unlock()
}

// StartAll starts every capsule in the pool concurrently, using an
// errgroup.Group so the first Start failure (e.g. a capsule started twice)
// is captured without stopping the other members from starting.
func (p *Pool) StartAll(ctx context.Context) error {
	p.mu.Lock()
	members := append([]*Capsule(nil), p.capsules...)
	p.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, c := range members {
		c := c
		g.Go(func() error {
			if err := c.Start(); err != nil {
				return fmt.Errorf("start capsule %s: %w", c.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Wait joins every capsule in the pool.
func (p *Pool) Wait() {
	p.mu.Lock()
	members := append([]*Capsule(nil), p.capsules...)
	p.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(members))
	for _, c := range members {
		c := c
		go func() {
			defer wg.Done()
			c.Join()
		}()
	}
	wg.Wait()
}

// DestroyAll destroys every capsule in the pool concurrently.
func (p *Pool) DestroyAll() {
	p.mu.Lock()
	members := append([]*Capsule(nil), p.capsules...)
	p.capsules = nil
	p.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(members))
	for _, c := range members {
		c := c
		go func() {
			defer wg.Done()
			c.Destroy()
		}()
	}
	wg.Wait()
}
