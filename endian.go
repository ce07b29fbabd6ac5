package biseek

import "unsafe"

// The file format stores elements in native byte order, so loads and
// stores are direct pointer casts on every architecture (zero overhead)

//go:nosplit
func putWord(b []byte, v uint64) {
	*(*uint64)(unsafe.Pointer(&b[0])) = v
}

//go:nosplit
func getWord(b []byte) uint64 {
	return *(*uint64)(unsafe.Pointer(&b[0]))
}
