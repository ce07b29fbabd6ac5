package biseek

// Version constants
const (
	// Major is the major version number
	Major = 0

	// Minor is the minor version number
	Minor = 1

	// Patch is the patch version number
	Patch = 0
)

// Version returns the version string of biseek.
func Version() string {
	return "biseek 0.1.0 (speculative out-of-core search)"
}
