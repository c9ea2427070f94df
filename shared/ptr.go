package shared

import (
	"errors"
	"reflect"

	"github.com/lifestyle-sc/ksl/internal/shared/block"
	"github.com/lifestyle-sc/ksl/internal/shared/tracker"
)

// ErrEmptyDeref is the panic value raised by Deref on an empty container.
// Dereferencing an empty container is a programming error, not a runtime
// condition: there is no recovery path and no retry.
var ErrEmptyDeref = errors.New("shared: deref of empty container")

// Ptr is a reference-counted shared-ownership container for a single
// heap-allocated value.
//
// Every co-owning Ptr references one control block holding the value and
// the live-owner count. The value is torn down exactly once, by the last
// owner's Release (or Reset, or reassignment).
//
// The zero value is a valid empty container: it manages nothing,
// UseCount() is 0, Get() is nil.
//
// Ownership changes go through methods, never through Go assignment:
// copying a Ptr with `q := p` aliases the control block WITHOUT counting
// the new owner and breaks the bookkeeping. Use Clone to share and
// Transfer/Take to move.
//
// Not safe for concurrent use: the owner count is deliberately unsynchronized
// (single-threaded ownership model). Sharing a block across goroutines
// without external locking is undefined behavior.
type Ptr[T any] struct {
	cb *block.Control[T]
}

// Empty returns an empty container. Equivalent to the zero value; provided
// for call sites where the explicit constructor reads better.
func Empty[T any]() Ptr[T] {
	return Ptr[T]{}
}

// Adopt takes exclusive ownership of v and returns a container managing it
// with an owner count of 1.
//
// The caller must not retain or independently tear down v afterward —
// ownership transfers entirely to the container. A nil v yields an empty
// container (no control block is allocated).
func Adopt[T any](v *T) Ptr[T] {
	if v == nil {
		return Ptr[T]{}
	}
	cb := block.New(v)
	if tracker.Enabled() {
		cb.SetTag(tracker.Alloc(reflect.TypeOf((*T)(nil)).Elem().String()))
	}
	return Ptr[T]{cb: cb}
}

// New allocates a copy of v and returns a container owning it.
// Shorthand for Adopt(&v) with the allocation done here.
func New[T any](v T) Ptr[T] {
	return Adopt(&v)
}

// Clone returns a new container sharing p's control block, incrementing
// the owner count by one. Cloning an empty container yields another empty
// container. p itself is unmodified.
func (p *Ptr[T]) Clone() Ptr[T] {
	if p.cb == nil {
		return Ptr[T]{}
	}
	p.cb.Retain()
	return Ptr[T]{cb: p.cb}
}

// Transfer moves ownership out of p: the returned container takes over p's
// control block without touching the owner count, and p is left empty.
// This is a transfer, not a new share — the block's total owner count is
// unchanged.
func (p *Ptr[T]) Transfer() Ptr[T] {
	out := Ptr[T]{cb: p.cb}
	p.cb = nil
	return out
}

// Assign makes p share src's control block (copy assignment).
//
// p's current ownership is released first, which may tear down p's old
// value if p was its last owner; then src's count is incremented. Assigning
// a container to itself is a no-op. Returns p for chaining.
func (p *Ptr[T]) Assign(src *Ptr[T]) *Ptr[T] {
	if p == src {
		return p
	}
	p.release()
	if src.cb != nil {
		src.cb.Retain()
		p.cb = src.cb
	}
	return p
}

// Take moves src's ownership into p (move assignment).
//
// p's current ownership is released first; then p takes over src's control
// block without touching the owner count and src is left empty. Taking from
// itself is a no-op. Returns p for chaining.
func (p *Ptr[T]) Take(src *Ptr[T]) *Ptr[T] {
	if p == src {
		return p
	}
	p.release()
	p.cb = src.cb
	src.cb = nil
	return p
}

// Deref returns a read-write pointer to the managed value.
//
// Panics with ErrEmptyDeref on an empty container: empty access is a
// contract violation that must fail fast, never be tolerated silently.
func (p *Ptr[T]) Deref() *T {
	if p.cb == nil {
		panic(ErrEmptyDeref)
	}
	return p.cb.Value()
}

// Get returns the raw, non-owning pointer to the managed value, or nil if
// the container is empty. No ownership transfer, no side effect.
func (p *Ptr[T]) Get() *T {
	if p.cb == nil {
		return nil
	}
	return p.cb.Value()
}

// UseCount returns the number of live containers sharing the managed
// value, or 0 for an empty container.
func (p *Ptr[T]) UseCount() int {
	if p.cb == nil {
		return 0
	}
	return p.cb.Owners()
}

// IsValid reports whether the container currently manages a value.
func (p *Ptr[T]) IsValid() bool {
	return p.cb != nil
}

// Reset releases p's ownership, leaving it empty. If p was the last owner,
// the managed value is torn down. Reset on an empty container is a no-op.
func (p *Ptr[T]) Reset() {
	p.release()
}

// ResetTo releases p's current ownership, then adopts v exactly as Adopt
// does. The old value (if p was its last owner) is torn down before the
// new one is installed.
func (p *Ptr[T]) ResetTo(v *T) {
	p.release()
	*p = Adopt(v)
}

// Release releases p's ownership, leaving it empty.
//
// This is the container's destructor: callers pair every constructed or
// cloned container with exactly one Release, typically via defer, which
// also gives the last-constructed-first-destroyed order within a scope.
// Release is idempotent per container — releasing an already-empty
// container does nothing.
func (p *Ptr[T]) Release() {
	p.release()
}

// release decrements the owner count and, on the zero transition, retires
// the block's tracking record and runs the value's teardown. Afterward p
// holds no block reference, so a second release is a no-op rather than a
// double decrement.
func (p *Ptr[T]) release() {
	if p.cb == nil {
		return
	}
	orphan, last := p.cb.Release()
	if last {
		tracker.Free(p.cb.Tag())
		dispose(orphan)
	}
	p.cb = nil
}
