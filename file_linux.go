//go:build linux

package biseek

import "golang.org/x/sys/unix"

// AdviseRandom tells the page cache to expect random access, stopping
// sequential read-ahead from flooding the cache around every probe.
func (f *File) AdviseRandom() error {
	return unix.Fadvise(f.Fd(), 0, f.size, unix.FADV_RANDOM)
}

// AdviseWillNeed starts non-blocking readahead over [off, off+length).
func (f *File) AdviseWillNeed(off, length int64) error {
	return unix.Fadvise(f.Fd(), off, length, unix.FADV_WILLNEED)
}
