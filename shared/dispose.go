package shared

// Disposer is the teardown hook for managed values.
//
// If the managed *T implements Disposer, the last owner's release calls
// Dispose exactly once, before the control block is retired. This is the
// value type's own destructor — fixed per type, never configurable per
// container — so there is no custom-deleter surface here.
//
// Values that do not implement Disposer are simply dropped to the garbage
// collector on the final release.
type Disposer interface {
	Dispose()
}

// dispose runs the value's teardown on the zero transition. Called exactly
// once per managed value, by the release that observed the count reach
// zero.
func dispose[T any](v *T) {
	if v == nil {
		return
	}
	if d, ok := any(v).(Disposer); ok {
		d.Dispose()
	}
}
