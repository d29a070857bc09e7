// Package quarantine implements a tracked heap arena: a bag of allocations
// that can be grown, individually freed, sealed against further growth, and
// finally destroyed wholesale.
//
// Go's garbage collector already reclaims memory, so "allocation" here means
// a reference-counted-by-the-bag *Block handed back to the caller; what the
// quarantine actually buys a Trion host is bookkeeping (so a capsule's
// untrusted entry procedure can't smuggle allocations past its arena) and
// the seal/destroy lifecycle, not manual free() semantics.
package quarantine

import (
	"sync"

	"github.com/trion-lang/trion/trionerr"
)

const defaultInitialCapacity = 16

// Block is an opaque handle to a single allocation owned by a Quarantine.
// Its identity (pointer equality) is what Free uses to locate it in the
// bag via a linear scan.
type Block struct {
	data []byte
}

// Bytes returns the block's backing storage. Writing through the returned
// slice is the caller's responsibility to synchronize; the quarantine does
// not itself guard concurrent access to a single block's contents.
func (b *Block) Bytes() []byte {
	return b.data
}

// Quarantine is a tracked arena of allocations, protected by its own lock.
// The zero value is not usable; construct with New.
type Quarantine struct {
	mu     sync.Mutex
	bag    []*Block
	sealed bool
}

// New creates a Quarantine with room for initialCapacity allocations before
// the backing slice must grow. A zero or negative initialCapacity uses
// defaultInitialCapacity.
func New(initialCapacity int) *Quarantine {
	if initialCapacity <= 0 {
		initialCapacity = defaultInitialCapacity
	}
	return &Quarantine{
		bag: make([]*Block, 0, initialCapacity),
	}
}

// Alloc records and returns a new Block of the given size. It fails with
// ErrInvalidArgs if size is zero, or ErrSealed if the quarantine has been
// sealed. A failed Alloc leaves the bag unchanged.
func (q *Quarantine) Alloc(size int) (*Block, error) {
	if size <= 0 {
		return nil, trionerr.Wrap(trionerr.ErrInvalidArgs, "quarantine: alloc: size %d", size)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sealed {
		return nil, trionerr.Wrap(trionerr.ErrSealed, "quarantine: alloc")
	}

	b := &Block{data: make([]byte, size)}
	q.bag = append(q.bag, b)
	return b, nil
}

// Strdup copies s (plus a trailing NUL, for parity with C-string
// conventions) into a new Block allocated via Alloc.
func (q *Quarantine) Strdup(s string) (*Block, error) {
	b, err := q.Alloc(len(s) + 1)
	if err != nil {
		return nil, trionerr.Wrap(err, "quarantine: strdup")
	}
	copy(b.data, s)
	b.data[len(s)] = 0
	return b, nil
}

// Free releases b, removing it from the bag by swapping the last entry into
// its slot - order of retention has no semantic meaning, so this is O(1)
// once the O(n) scan locates b. Returns ErrNotFound if b is not (or is no
// longer) a member of this quarantine's bag.
func (q *Quarantine) Free(b *Block) error {
	if b == nil {
		return trionerr.Wrap(trionerr.ErrInvalidArgs, "quarantine: free: nil block")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for i, member := range q.bag {
		if member == b {
			last := len(q.bag) - 1
			q.bag[i] = q.bag[last]
			q.bag[last] = nil
			q.bag = q.bag[:last]
			b.data = nil
			return nil
		}
	}
	return trionerr.Wrap(trionerr.ErrNotFound, "quarantine: free")
}

// Seal idempotently marks the quarantine as sealed: every subsequent Alloc
// fails with ErrSealed. Sealing never clears.
func (q *Quarantine) Seal() {
	q.mu.Lock()
	q.sealed = true
	q.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (q *Quarantine) Sealed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sealed
}

// Len returns the number of allocations currently live in the bag.
func (q *Quarantine) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.bag)
}

// Cap returns the current backing capacity of the bag.
func (q *Quarantine) Cap() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return cap(q.bag)
}

// Destroy releases every still-registered allocation and leaves the
// quarantine empty and sealed. Destroying an already-destroyed quarantine
// is a no-op.
func (q *Quarantine) Destroy() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, b := range q.bag {
		b.data = nil
		q.bag[i] = nil
	}
	q.bag = nil
	q.sealed = true
}
