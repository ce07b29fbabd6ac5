//go:build linux

package biseek

import (
	"os"

	"golang.org/x/sys/unix"
)

// DropPageCache flushes dirty pages and asks the kernel to drop the clean
// page cache globally, so the next iteration measures cold reads. Needs
// root. Callers treat failure as a warning: a populated cache only skews
// timings, it cannot corrupt a search.
func DropPageCache() error {
	unix.Sync()
	f, err := os.OpenFile("/proc/sys/vm/drop_caches", os.O_WRONLY, 0)
	if err != nil {
		return WrapError(ErrIO, err)
	}
	defer f.Close()
	if _, err := f.Write([]byte("3")); err != nil {
		return WrapError(ErrIO, err)
	}
	return nil
}
