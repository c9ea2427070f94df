package shared

import (
	"go.uber.org/zap"

	"github.com/lifestyle-sc/ksl/internal/shared/tracker"
)

// EnableTracking turns on live-block accounting.
//
// While enabled, every control block records its creation stack, and
// ReportLeaks can name every managed value whose last owner never released
// it. Tracking costs one atomic load per allocation and release when
// disabled, and a stack capture per allocation when enabled — enable it in
// tests and debug builds, not on hot production paths.
//
// Diagnostics are logged through l; pass nil to keep the current logger
// (a no-op logger by default).
func EnableTracking(l *zap.Logger) {
	tracker.Enable(l)
}

// DisableTracking turns off live-block accounting and forgets all tracked
// blocks.
func DisableTracking() {
	tracker.Disable()
}

// TrackingEnabled reports whether live-block accounting is on.
func TrackingEnabled() bool {
	return tracker.Enabled()
}

// LiveBlocks returns the number of tracked control blocks whose value has
// not been torn down yet. Only meaningful while tracking is enabled.
func LiveBlocks() int {
	return tracker.LiveCount()
}

// ReportLeaks logs every still-live tracked block — its managed type and
// creation stack — and returns the count. A return of 0 means every
// tracked value was released.
//
// Typical test usage:
//
//	shared.EnableTracking(logger)
//	defer func() {
//		if n := shared.ReportLeaks(); n != 0 {
//			t.Errorf("%d containers never released", n)
//		}
//	}()
func ReportLeaks() int {
	return tracker.Report()
}

// TrackingStats returns lifetime counters: blocks allocated, blocks freed,
// and blocks currently live.
func TrackingStats() (allocated, freed uint64, live int) {
	return tracker.Stats()
}
