// Package shared provides a reference-counted shared-ownership container
// for heap values, with explicit move semantics, rebinding, and owner-count
// introspection.
//
// # Quick Start
//
//	p := shared.New(42)          // owner count 1
//	q := p.Clone()               // shared: both report 2
//	defer p.Release()
//	defer q.Release()
//
//	*q.Deref() = 7               // read-write access through any owner
//	fmt.Println(*p.Deref())      // 7
//
// The managed value is torn down exactly once, by whichever Release (or
// Reset, or reassignment) observes the owner count reach zero. Values whose
// pointer type implements [Disposer] get their Dispose method called at
// that moment; everything else is simply dropped to the garbage collector.
//
// # Ownership Operations
//
// Construction: [New] allocates and owns, [Adopt] takes over an existing
// pointer, [Empty] (or the zero value) manages nothing.
//
// Sharing and moving:
//   - [Ptr.Clone] — new co-owner, count +1
//   - [Ptr.Transfer] — move ownership out, source left empty, count unchanged
//   - [Ptr.Assign] — copy assignment: release current, share src
//   - [Ptr.Take] — move assignment: release current, take over src
//
// Access and introspection: [Ptr.Deref] (panics on empty), [Ptr.Get],
// [Ptr.UseCount], [Ptr.IsValid].
//
// Rebinding and teardown: [Ptr.Reset], [Ptr.ResetTo], [Ptr.Release].
//
// # The One Rule
//
// Never copy a Ptr with Go assignment. `q := p` aliases the control block
// without counting the new owner; the count then underruns and the value is
// torn down while owners are still live. Every share goes through Clone,
// every move through Transfer or Take, and every container ends with
// exactly one Release.
//
// Deferring Release at construction gives deterministic, reverse-order
// teardown within a scope:
//
//	a := shared.New(newConn())
//	defer a.Release()
//	b := a.Clone()
//	defer b.Release() // released before a, like nested scopes unwinding
//
// # Concurrency
//
// The owner count is deliberately unsynchronized: this is a single-threaded
// ownership model. Cloning, assigning, or releasing containers that share a
// control block from multiple goroutines without external locking is
// undefined behavior. This is a documented limitation, not an oversight —
// the primitive targets code where ownership stays on one goroutine and the
// count must cost nothing.
//
// # Leak Tracking
//
// For tests and debug builds, [EnableTracking] records the creation stack
// of every control block and [ReportLeaks] names every value whose last
// owner never released it. See track.go.
//
// # Non-Goals
//
// No weak references, no per-container custom deleters, no array
// specialization, no thread-safe count, no allocator customization.
package shared
