// Package cache implements the slot-indexed constraints cache (C1): a
// concurrent store of admitted constraints with conflict detection and
// chain-progression-driven pruning.
package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/boltprotocol/bolt-core/primitives"
)

// ConflictKind identifies why a constraints message was rejected by
// ConflictsWith/Insert.
type ConflictKind int

const (
	// TopOfBlock is returned when both the incoming message and some
	// stored entry for the slot set the top-of-block flag.
	TopOfBlock ConflictKind = iota + 1
	// DuplicateTransaction is returned when an incoming raw transaction
	// equals a transaction already stored for the slot.
	DuplicateTransaction
)

func (k ConflictKind) String() string {
	switch k {
	case TopOfBlock:
		return "multiple top-of-block constraints per slot"
	case DuplicateTransaction:
		return "duplicate transaction in the same slot"
	default:
		return "unknown conflict"
	}
}

// Conflict reports a non-fatal, per-request admission rejection.
type Conflict struct {
	Kind ConflictKind
}

func (c *Conflict) Error() string {
	return c.Kind.String()
}

// DecodeError wraps a transaction-decode failure encountered during
// Insert. It is non-fatal and does not pollute the cache: the whole
// insert is aborted before any mutation occurs.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: %s", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Cache is a concurrent, slot-keyed store of admitted constraints.
//
// The zero value is not usable; construct with New. All operations are
// synchronous and bounded only by lock acquisition: there are no
// suspension points.
type Cache struct {
	mu    sync.RWMutex
	slots map[uint64][]primitives.ConstraintsWithProofData
}

// New creates an empty constraints cache.
func New() *Cache {
	return &Cache{slots: make(map[uint64][]primitives.ConstraintsWithProofData)}
}

// ConflictsWith is a pure read: it returns the first conflict found between
// message and the constraints already stored for slot, or nil if there is
// none. It is a pure function of cache state and message — repeated calls
// without an intervening mutation return the same verdict.
func (c *Cache) ConflictsWith(slot uint64, message *primitives.ConstraintsMessage) *Conflict {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conflictsWithLocked(slot, message)
}

// conflictsWithLocked performs the conflict scan assuming the caller
// already holds at least a read lock.
func (c *Cache) conflictsWithLocked(slot uint64, message *primitives.ConstraintsMessage) *Conflict {
	stored, ok := c.slots[slot]
	if !ok {
		return nil
	}

	for _, existing := range stored {
		if message.Top && existing.Message.Top {
			return &Conflict{Kind: TopOfBlock}
		}

		for _, incoming := range message.Transactions {
			for _, existingTx := range existing.Message.Transactions {
				if incoming.Equal(existingTx) {
					return &Conflict{Kind: DuplicateTransaction}
				}
			}
		}
	}

	return nil
}

// Insert admits message for slot. Conflict detection precedes decoding, so
// a conflicting batch is rejected before any transaction is decoded. The
// whole check-then-write sequence runs under the cache's exclusive lock,
// so no concurrent insertion for the same slot can introduce a duplicate
// between the check and the write.
//
// Returns a *Conflict or a *DecodeError on rejection; both are non-fatal
// and the caller may retry or drop the request.
func (c *Cache) Insert(slot uint64, message primitives.ConstraintsMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conflict := c.conflictsWithLocked(slot, &message); conflict != nil {
		return conflict
	}

	withProofs, err := primitives.NewConstraintsWithProofData(message)
	if err != nil {
		return &DecodeError{Err: err}
	}

	c.slots[slot] = append(c.slots[slot], withProofs)
	return nil
}

// Remove atomically removes and returns the entire sequence stored for
// slot, in insertion order, leaving slot absent from the cache. Returns
// (nil, false) if slot had no entries.
func (c *Cache) Remove(slot uint64) ([]primitives.ConstraintsWithProofData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq, ok := c.slots[slot]
	if !ok {
		return nil, false
	}
	delete(c.slots, slot)
	return seq, true
}

// RemoveBefore deletes every slot strictly less than slot. After it
// returns, every surviving key is >= slot.
func (c *Cache) RemoveBefore(slot uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.slots {
		if k < slot {
			delete(c.slots, k)
		}
	}
}

// AsConflict reports whether err is a *Conflict and, if so, returns it.
func AsConflict(err error) (*Conflict, bool) {
	var c *Conflict
	if errors.As(err, &c) {
		return c, true
	}
	return nil, false
}
