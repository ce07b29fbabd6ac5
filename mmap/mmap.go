// Package mmap provides read-only memory mapping of sorted element files.
package mmap

import "unsafe"

// wordSize is the width of one stored element in bytes.
const wordSize = 8

// Map is a read-only memory-mapped view of a file of fixed-width 8-byte
// elements, addressable by element index.
type Map struct {
	data  []byte // mapped region
	count int64  // element count
}

// Data returns the mapped byte slice.
func (m *Map) Data() []byte {
	return m.data
}

// Count returns the number of mapped elements.
func (m *Map) Count() int64 {
	return m.count
}

// Uint64At returns the element at index i in native byte order. The bounds
// are the caller's responsibility, as with a slice index.
func (m *Map) Uint64At(i int64) uint64 {
	return *(*uint64)(unsafe.Pointer(&m.data[i*wordSize]))
}

// Error represents an mmap error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "mmap: " + e.Op + ": " + e.Err.Error()
	}
	return "mmap: " + e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Common errors
var (
	ErrInvalidSize = &Error{Op: "invalid size"}
	ErrMisaligned  = &Error{Op: "size not a multiple of the element width"}
	ErrNotMapped   = &Error{Op: "not mapped"}
	ErrEmptyFile   = &Error{Op: "empty file"}
)
