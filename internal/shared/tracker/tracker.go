// Package tracker implements debug-time accounting of live control blocks.
//
// When enabled, every control-block allocation records where it was created
// (up to 8 stack frames, deduplicated by hash) and every final release
// retires that record. Whatever is still live at Report time is a leak
// candidate: a managed value whose last owner never released it.
//
// Design:
//   - Fixed-size stack traces (8 frames, 64 bytes per stack)
//   - Hash-based deduplication (FNV-1a) in a global sync.Map depot
//   - Live set keyed by a monotonically increasing block id
//   - Disabled path: one atomic load per alloc/free, no allocation
//
// Tracking is a diagnostic aid for tests and debug builds, not a production
// feature; Enable/Disable are not meant to be toggled around individual
// allocations.
package tracker

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
)

// MaxFrames is the maximum number of stack frames captured per allocation.
// Most ownership bugs are visible in the top 8 frames.
const MaxFrames = 8

// StackTrace is a fixed-size captured stack, stored once per unique stack.
type StackTrace struct {
	PC [MaxFrames]uintptr
}

// Origin describes one live control block.
type Origin struct {
	// ID is the block's generation-tagged allocation number: the current
	// generation in the top 16 bits, a 1-based sequence in the low 48.
	// Monotonic within a generation.
	ID uint64

	// Type is the Go type name of the managed value.
	Type string

	// Stack is the depot hash of the creation stack (0 if capture failed).
	Stack uint64
}

// Ids are generation-tagged so that a block allocated before a Disable (or
// Reset) can never be mistaken for one allocated after it. Layout:
// [Gen:16][Seq:48]. The generation bumps on every Disable/Reset; a Free
// carrying a stale generation is a release of a forgotten block and is
// ignored, while a missing id from the current generation is a genuine
// double free.
const (
	seqBits = 48
	seqMask = (1 << seqBits) - 1
	genMask = (1 << (64 - seqBits)) - 1
)

var (
	enabled    atomic.Bool
	nextSeq    atomic.Uint64
	generation atomic.Uint64

	allocated atomic.Uint64
	freed     atomic.Uint64

	mu     sync.Mutex
	live   map[uint64]Origin
	logger *zap.Logger

	// depot deduplicates creation stacks: uint64 hash → *StackTrace.
	depot sync.Map
)

func init() {
	live = make(map[uint64]Origin)
	logger = zap.NewNop()
}

// Enable turns tracking on. Subsequent block allocations are recorded with
// their creation stacks. A nil logger keeps the current one (Nop by
// default).
func Enable(l *zap.Logger) {
	mu.Lock()
	if l != nil {
		logger = l
	}
	mu.Unlock()
	enabled.Store(true)
}

// Disable turns tracking off and drops the live set. Blocks allocated while
// tracking was on are forgotten; their eventual release is ignored, even if
// tracking has been re-enabled by then (the generation bump makes their ids
// stale).
func Disable() {
	enabled.Store(false)
	generation.Add(1)
	mu.Lock()
	live = make(map[uint64]Origin)
	mu.Unlock()
}

// Enabled reports whether tracking is currently on.
func Enabled() bool {
	return enabled.Load()
}

// Alloc records a new control block and returns its id.
//
// Returns 0 when tracking is disabled; an id of 0 is never recorded and
// Free(0) is a no-op, so callers can pass the result through
// unconditionally.
func Alloc(typeName string) uint64 {
	if !enabled.Load() {
		return 0
	}

	id := (generation.Load()&genMask)<<seqBits | nextSeq.Add(1)&seqMask
	allocated.Add(1)

	stack := captureStack()

	mu.Lock()
	live[id] = Origin{ID: id, Type: typeName, Stack: stack}
	mu.Unlock()

	return id
}

// Free retires the record for id after the block's zero transition.
//
// id 0 (allocation was not tracked) is a no-op, as is any free while
// tracking is disabled, and any id from a previous generation — a block
// forgotten by an intervening Disable releasing after tracking came back
// on. Freeing an id of the current generation twice means the block's
// owner count reached zero twice — a bookkeeping violation that must never
// occur, so it panics.
func Free(id uint64) {
	if id == 0 || !enabled.Load() {
		return
	}
	if id>>seqBits != generation.Load()&genMask {
		return // forgotten by a Disable/Reset since allocation
	}

	mu.Lock()
	_, ok := live[id]
	if ok {
		delete(live, id)
	}
	mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("tracker: double free of control block %d", id))
	}
	freed.Add(1)
}

// LiveCount returns the number of tracked blocks not yet freed.
func LiveCount() int {
	mu.Lock()
	n := len(live)
	mu.Unlock()
	return n
}

// Live returns a snapshot of every live block, ordered by allocation.
func Live() []Origin {
	mu.Lock()
	out := make([]Origin, 0, len(live))
	for _, o := range live {
		out = append(out, o)
	}
	mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Report logs every live block with its creation stack and returns the
// live count. A return of 0 means no leak candidates.
func Report() int {
	origins := Live()

	mu.Lock()
	l := logger
	mu.Unlock()

	for _, o := range origins {
		l.Warn("live control block",
			zap.Uint64("id", o.ID),
			zap.String("type", o.Type),
			zap.String("created_at", GetStack(o.Stack).Format()),
		)
	}
	if len(origins) > 0 {
		l.Warn("leak check failed",
			zap.Int("live_blocks", len(origins)),
		)
	}

	return len(origins)
}

// Stats returns lifetime counters: blocks allocated, blocks freed, and
// blocks currently live, since the last Reset.
func Stats() (alloc, free uint64, liveNow int) {
	return allocated.Load(), freed.Load(), LiveCount()
}

// Reset clears all tracking state, including the stack depot and counters.
// The generation still advances, so ids handed out before the Reset stay
// stale rather than colliding with fresh ones. Test hook.
func Reset() {
	enabled.Store(false)
	generation.Add(1)
	mu.Lock()
	live = make(map[uint64]Origin)
	logger = zap.NewNop()
	mu.Unlock()
	nextSeq.Store(0)
	allocated.Store(0)
	freed.Store(0)
	depot = sync.Map{}
}

// captureStack captures the caller's stack, stores it in the depot, and
// returns its dedup hash (0 if no stack was available).
func captureStack() uint64 {
	// Skip runtime.Callers, captureStack, and Alloc so the trace starts at
	// the allocation site inside the container package.
	var pcs [MaxFrames]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return 0
	}

	hash := hashStack(pcs[:n])

	if _, exists := depot.Load(hash); exists {
		return hash
	}

	depot.Store(hash, &StackTrace{PC: pcs})
	return hash
}

// GetStack retrieves a deduplicated stack trace by hash, or nil.
func GetStack(hash uint64) *StackTrace {
	if hash == 0 {
		return nil
	}
	val, ok := depot.Load(hash)
	if !ok {
		return nil
	}
	return val.(*StackTrace)
}

// hashStack computes the FNV-1a hash of the program counters.
func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	for _, pc := range pcs {
		//nolint:gosec // G103: reading the PC value as bytes for hashing only.
		pcBytes := (*[8]byte)(unsafe.Pointer(&pc))[:]
		_, _ = h.Write(pcBytes) // Write never returns an error for hash.Hash.
	}
	return h.Sum64()
}

// Format renders the stack trace for a leak report, one frame per line.
// Runtime-internal frames are filtered out.
func (st *StackTrace) Format() string {
	if st == nil {
		return "<unknown>"
	}

	frames := runtime.CallersFrames(st.PC[:])

	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if strings.HasPrefix(frame.Function, "runtime.") {
			if !more {
				break
			}
			continue
		}

		fmt.Fprintf(&buf, "%s (%s:%d); ", frame.Function, frame.File, frame.Line)

		if !more {
			break
		}
	}

	out := strings.TrimSuffix(buf.String(), "; ")
	if out == "" {
		return "<runtime internal>"
	}
	return out
}
