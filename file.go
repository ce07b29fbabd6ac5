package biseek

import (
	"os"
)

// File is a validated read-only handle to a sorted flat file of 8-byte
// unsigned integers. It is not safe for concurrent use; each search call
// owns its handle exclusively.
type File struct {
	f     *os.File
	size  int64
	count int64
}

// Open opens and validates the file at path. The size must be a non-zero
// multiple of ElementSize; an empty file is a validation error, not a
// not-found result.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapError(ErrIO, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, WrapError(ErrIO, err)
	}
	size := st.Size()
	if size%ElementSize != 0 {
		f.Close()
		return nil, NewError(ErrAlignment)
	}
	if size == 0 {
		f.Close()
		return nil, NewError(ErrEmpty)
	}
	return &File{f: f, size: size, count: size / ElementSize}, nil
}

// Count returns the number of stored elements.
func (f *File) Count() int64 { return f.count }

// Size returns the file size in bytes.
func (f *File) Size() int64 { return f.size }

// Fd returns the underlying descriptor for ring submission.
func (f *File) Fd() int { return int(f.f.Fd()) }

// OSFile returns the underlying *os.File for memory mapping.
func (f *File) OSFile() *os.File { return f.f }

// Close releases the descriptor.
func (f *File) Close() error { return f.f.Close() }

// Element reads the element at index idx with one positioned read.
func (f *File) Element(idx int64) (uint64, error) {
	var buf [ElementSize]byte
	if _, err := f.f.ReadAt(buf[:], idx*ElementSize); err != nil {
		return 0, WrapError(ErrIO, err)
	}
	return getWord(buf[:]), nil
}

// ReadRange reads elements [lo, hi] into buf, which must hold at least
// (hi-lo+1)*ElementSize bytes. Returns the filled slice.
func (f *File) ReadRange(lo, hi int64, buf []byte) ([]byte, error) {
	n := (hi - lo + 1) * ElementSize
	b := buf[:n]
	if _, err := f.f.ReadAt(b, lo*ElementSize); err != nil {
		return nil, WrapError(ErrIO, err)
	}
	return b, nil
}
