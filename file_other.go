//go:build !linux

package biseek

// File advisories are Linux fadvise calls; elsewhere they are no-ops. The
// engines that depend on them for correctness-of-performance (ring probes)
// are Linux-only anyway.

// AdviseRandom is a no-op on this platform.
func (f *File) AdviseRandom() error { return nil }

// AdviseWillNeed is a no-op on this platform.
func (f *File) AdviseWillNeed(off, length int64) error { return nil }
