// Package block implements the control block shared by every co-owning
// container of one managed value.
//
// A Control is the single bookkeeping record behind a group of containers:
// it holds the owned value pointer and the live-owner count. Containers
// never touch the count directly; they go through Retain/Release, which
// enforce the pairing discipline: every Retain is matched by exactly one
// Release over a container's lifetime, and the value is handed back for
// teardown by exactly one Release (the one that observes the count reach
// zero).
//
// The count is a plain int with no synchronization. Shared ownership across
// goroutines without external locking is undefined behavior by contract,
// not a bug to paper over with atomics.
package block

import "errors"

// Bookkeeping violations. These indicate a logic error in the owning
// container, never a runtime condition: a correct caller cannot trigger
// them, so they panic instead of returning.
var (
	// ErrBlockReused reports a Retain on a block whose count already
	// reached zero. A dead block must never be re-shared.
	ErrBlockReused = errors.New("block: retain on released control block")

	// ErrOverReleased reports a Release beyond the number of live owners.
	ErrOverReleased = errors.New("block: release below zero owners")

	// ErrNilValue reports a New with no value to own. The empty container
	// state is represented by the absence of a block, never by a block
	// around nil.
	ErrNilValue = errors.New("block: new control block with nil value")
)

// Control is the control block for one managed value.
//
// Invariants:
//   - owners equals the number of live containers referencing this block.
//   - value is non-nil until the zero transition; Release detaches it
//     exactly once, at the moment owners reaches 0.
//   - a block whose owners reached 0 is dead: no further Retain or Release
//     is legal on it.
type Control[T any] struct {
	value  *T
	owners int
	tag    uint64 // opaque diagnostic tag, see SetTag
}

// New creates a control block owning value, with a single owner.
//
// The caller transfers ownership of value exclusively to the block; it must
// not free or re-adopt the pointer afterward. value must be non-nil — the
// empty container state is represented by the absence of a block, not by a
// block with a nil value — so a nil value panics with ErrNilValue rather
// than produce a block whose zero transition hands back nothing.
func New[T any](value *T) *Control[T] {
	if value == nil {
		panic(ErrNilValue)
	}
	return &Control[T]{value: value, owners: 1}
}

// Retain records one additional owner and returns the new count.
//
// Panics with ErrBlockReused if the block is already dead.
func (c *Control[T]) Retain() int {
	if c.owners == 0 {
		panic(ErrBlockReused)
	}
	c.owners++
	return c.owners
}

// Release records the departure of one owner.
//
// On the zero transition it detaches the managed value and returns it with
// last=true; the caller is responsible for running the value's teardown.
// For every other decrement it returns (nil, false).
//
// Panics with ErrOverReleased if called on a dead block.
func (c *Control[T]) Release() (orphan *T, last bool) {
	if c.owners == 0 {
		panic(ErrOverReleased)
	}
	c.owners--
	if c.owners > 0 {
		return nil, false
	}
	orphan = c.value
	c.value = nil
	return orphan, true
}

// Owners returns the current live-owner count.
func (c *Control[T]) Owners() int {
	return c.owners
}

// Value returns the managed value pointer, or nil after the zero
// transition.
func (c *Control[T]) Value() *T {
	return c.value
}

// SetTag attaches an opaque diagnostic tag to the block. The block never
// interprets it; the owning layer uses it to correlate the block with
// external bookkeeping (leak tracking).
func (c *Control[T]) SetTag(tag uint64) {
	c.tag = tag
}

// Tag returns the diagnostic tag, or 0 if none was set.
func (c *Control[T]) Tag() uint64 {
	return c.tag
}
