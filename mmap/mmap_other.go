//go:build !unix

package mmap

// ErrUnsupported reports that the platform provides no memory mapping.
var ErrUnsupported = &Error{Op: "not supported on this platform"}

// New is unavailable without a unix mmap syscall.
func New(fd int, length int64) (*Map, error) {
	return nil, ErrUnsupported
}

// MapFile is unavailable without a unix mmap syscall.
func MapFile(path string) (*Map, error) {
	return nil, ErrUnsupported
}

// Close releases nothing; no mapping can exist here.
func (m *Map) Close() error {
	return nil
}

// Advise has no mapping to hint about.
func (m *Map) Advise(advice int) error {
	return ErrNotMapped
}

// AdviseRandom has no mapping to hint about.
func (m *Map) AdviseRandom() error {
	return ErrNotMapped
}

// AdviseWillNeed has no mapping to hint about.
func (m *Map) AdviseWillNeed() error {
	return ErrNotMapped
}
