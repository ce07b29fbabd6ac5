//go:build !linux

package biseek

// DropPageCache is Linux-only (/proc/sys/vm/drop_caches).
func DropPageCache() error {
	return NewError(ErrNotSupported)
}
