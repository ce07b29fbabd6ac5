//go:build !linux

package biseek

// SearchRing needs io_uring, which only Linux provides. The mapped and
// partitioned engines work everywhere.
func SearchRing(path string, target uint64, flags RingFlags) (Outcome, error) {
	return Outcome{}, NewError(ErrNotSupported)
}
