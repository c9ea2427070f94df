package shared

// Version information for the shared-ownership container library.
const (
	// Version is the current library version string.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the library.
type Info struct {
	// Version is the library version string.
	Version string

	// Model is the ownership model implemented.
	Model string

	// TrackingEnabled indicates whether live-block accounting is active.
	TrackingEnabled bool
}

// GetInfo returns information about the library and its current state.
//
// Example:
//
//	info := shared.GetInfo()
//	fmt.Printf("ksl/shared %s (%s)\n", info.Version, info.Model)
func GetInfo() Info {
	return Info{
		Version:         Version,
		Model:           "single-threaded reference counting",
		TrackingEnabled: TrackingEnabled(),
	}
}
