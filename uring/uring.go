//go:build linux

// Package uring is a minimal io_uring driver for batched single-element
// file reads: ring setup, submission, batched wait, completion harvest,
// optional kernel submission polling (SQPOLL) and buffer registration.
// It speaks the raw kernel ABI through golang.org/x/sys/unix.
package uring

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Kernel ABI constants (include/uapi/linux/io_uring.h)
const (
	// setup flags
	setupSQPoll uint32 = 1 << 1

	// feature bits reported by setup
	featSingleMmap uint32 = 1 << 0

	// enter flags
	enterGetEvents uint32 = 1 << 0
	enterSQWakeup  uint32 = 1 << 1

	// SQ ring flags (written by the kernel poller)
	sqNeedWakeup uint32 = 1 << 0

	// ring mmap offsets
	offSQRing int64 = 0
	offCQRing int64 = 0x8000000
	offSQEs   int64 = 0x10000000

	// opcodes
	opReadFixed uint8 = 4
	opRead      uint8 = 22

	// register opcodes
	regRegisterBuffers   uintptr = 0
	regUnregisterBuffers uintptr = 1
)

// Defaults applied by New when Config fields are zero.
const (
	DefaultEntries    = 64
	DefaultSQPollIdle = 2000 * time.Millisecond
)

// sqe is struct io_uring_sqe (64 bytes).
type sqe struct {
	opcode      uint8
	flags       uint8
	ioprio      uint16
	fd          int32
	off         uint64
	addr        uint64
	len         uint32
	opFlags     uint32
	userData    uint64
	bufIndex    uint16
	personality uint16
	spliceFdIn  int32
	addr3       uint64
	_           uint64
}

// CQE is struct io_uring_cqe (16 bytes). Res is the read's byte count or a
// negated errno.
type CQE struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

// sqOffsets is struct io_sqring_offsets.
type sqOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	flags       uint32
	dropped     uint32
	array       uint32
	resv1       uint32
	userAddr    uint64
}

// cqOffsets is struct io_cqring_offsets.
type cqOffsets struct {
	head        uint32
	tail        uint32
	ringMask    uint32
	ringEntries uint32
	overflow    uint32
	cqes        uint32
	flags       uint32
	resv1       uint32
	userAddr    uint64
}

// params is struct io_uring_params (120 bytes).
type params struct {
	sqEntries    uint32
	cqEntries    uint32
	flags        uint32
	sqThreadCPU  uint32
	sqThreadIdle uint32
	features     uint32
	wqFd         uint32
	resv         [3]uint32
	sqOff        sqOffsets
	cqOff        cqOffsets
}

// Error represents a uring error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "uring: " + e.Op + ": " + e.Err.Error()
	}
	return "uring: " + e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrSQFull means every submission slot is still owned by the kernel.
var ErrSQFull = &Error{Op: "submission queue full"}

// Config selects the ring geometry and modes requested at setup.
type Config struct {
	// Entries is the submission queue size (DefaultEntries when zero)
	Entries uint32

	// SQPoll requests a kernel-side submission poller thread. Needs
	// CAP_SYS_NICE (or root); setup fails without it.
	SQPoll bool

	// SQPollIdle is how long the poller spins before sleeping
	// (DefaultSQPollIdle when zero)
	SQPollIdle time.Duration
}

// Ring is one io_uring instance. It is not safe for concurrent use; the
// owner drives submissions and harvests from a single goroutine.
type Ring struct {
	fd int
	p  params

	sqMem   []byte
	cqMem   []byte // nil when the kernel serves SQ and CQ from one mapping
	sqesMem []byte

	sqHead  *uint32
	sqTail  *uint32
	sqMask  uint32
	sqFlags *uint32
	sqArray []uint32
	sqes    []sqe
	sqeTail uint32 // local produce counter, published on submit

	cqHead *uint32
	cqTail *uint32
	cqMask uint32
	cqes   []CQE

	sqpoll     bool
	registered bool
}

// New sets up an io_uring instance and maps its rings. It does not fall
// back when a requested mode is denied; the caller owns that decision.
func New(cfg Config) (*Ring, error) {
	entries := cfg.Entries
	if entries == 0 {
		entries = DefaultEntries
	}

	var p params
	if cfg.SQPoll {
		idle := cfg.SQPollIdle
		if idle == 0 {
			idle = DefaultSQPollIdle
		}
		p.flags |= setupSQPoll
		p.sqThreadIdle = uint32(idle.Milliseconds())
	}

	fd, _, errno := unix.Syscall6(unix.SYS_IO_URING_SETUP,
		uintptr(entries), uintptr(unsafe.Pointer(&p)), 0, 0, 0, 0)
	if errno != 0 {
		return nil, &Error{Op: "io_uring_setup", Err: errno}
	}

	r := &Ring{
		fd:     int(fd),
		p:      p,
		sqpoll: p.flags&setupSQPoll != 0,
	}
	if err := r.mapRings(); err != nil {
		unix.Close(r.fd)
		return nil, err
	}
	return r, nil
}

// mapRings maps the SQ/CQ rings and the SQE array and wires the shared
// head/tail pointers.
func (r *Ring) mapRings() error {
	sqSize := int(r.p.sqOff.array + r.p.sqEntries*4)
	cqSize := int(r.p.cqOff.cqes) + int(r.p.cqEntries)*int(unsafe.Sizeof(CQE{}))
	single := r.p.features&featSingleMmap != 0
	if single && cqSize > sqSize {
		sqSize = cqSize
	}

	sqMem, err := unix.Mmap(r.fd, offSQRing, sqSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return &Error{Op: "mmap sq ring", Err: err}
	}
	r.sqMem = sqMem

	cqMem := sqMem
	if !single {
		cqMem, err = unix.Mmap(r.fd, offCQRing, cqSize,
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
		if err != nil {
			unix.Munmap(sqMem)
			return &Error{Op: "mmap cq ring", Err: err}
		}
		r.cqMem = cqMem
	}

	sqesMem, err := unix.Mmap(r.fd, offSQEs, int(r.p.sqEntries)*int(unsafe.Sizeof(sqe{})),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		if r.cqMem != nil {
			unix.Munmap(r.cqMem)
		}
		unix.Munmap(sqMem)
		return &Error{Op: "mmap sqes", Err: err}
	}
	r.sqesMem = sqesMem

	r.sqHead = (*uint32)(unsafe.Pointer(&sqMem[r.p.sqOff.head]))
	r.sqTail = (*uint32)(unsafe.Pointer(&sqMem[r.p.sqOff.tail]))
	r.sqMask = *(*uint32)(unsafe.Pointer(&sqMem[r.p.sqOff.ringMask]))
	r.sqFlags = (*uint32)(unsafe.Pointer(&sqMem[r.p.sqOff.flags]))
	r.sqArray = unsafe.Slice((*uint32)(unsafe.Pointer(&sqMem[r.p.sqOff.array])), r.p.sqEntries)
	r.sqes = unsafe.Slice((*sqe)(unsafe.Pointer(&sqesMem[0])), r.p.sqEntries)
	r.sqeTail = atomic.LoadUint32(r.sqTail)

	r.cqHead = (*uint32)(unsafe.Pointer(&cqMem[r.p.cqOff.head]))
	r.cqTail = (*uint32)(unsafe.Pointer(&cqMem[r.p.cqOff.tail]))
	r.cqMask = *(*uint32)(unsafe.Pointer(&cqMem[r.p.cqOff.ringMask]))
	r.cqes = unsafe.Slice((*CQE)(unsafe.Pointer(&cqMem[r.p.cqOff.cqes])), r.p.cqEntries)
	return nil
}

// SQPollEnabled reports whether the kernel granted submission polling.
func (r *Ring) SQPollEnabled() bool { return r.sqpoll }

// BuffersRegistered reports whether a buffer set is currently registered.
func (r *Ring) BuffersRegistered() bool { return r.registered }

// Entries returns the granted submission queue size.
func (r *Ring) Entries() uint32 { return r.p.sqEntries }

// pushSQE claims the next submission slot. ErrSQFull when every slot is
// still owned by the kernel.
func (r *Ring) pushSQE(op uint8, fd int32, addr uintptr, n uint32, off uint64, bufIndex uint16, userData uint64) error {
	head := atomic.LoadUint32(r.sqHead)
	if r.sqeTail-head >= r.p.sqEntries {
		return ErrSQFull
	}
	idx := r.sqeTail & r.sqMask
	e := &r.sqes[idx]
	*e = sqe{
		opcode:   op,
		fd:       fd,
		off:      off,
		addr:     uint64(addr),
		len:      n,
		bufIndex: bufIndex,
		userData: userData,
	}
	r.sqArray[idx] = idx
	r.sqeTail++
	return nil
}

// PushRead queues one pointer-addressed read of len(buf) bytes at off.
// The buffer must stay reachable until the completion is harvested.
func (r *Ring) PushRead(fd int, buf []byte, off int64, userData uint64) error {
	return r.pushSQE(opRead, int32(fd), uintptr(unsafe.Pointer(&buf[0])), uint32(len(buf)), uint64(off), 0, userData)
}

// PushReadFixed queues one read into registered buffer slot bufIndex. The
// buffer must be part of the set passed to RegisterBuffers.
func (r *Ring) PushReadFixed(fd int, buf []byte, off int64, bufIndex uint16, userData uint64) error {
	return r.pushSQE(opReadFixed, int32(fd), uintptr(unsafe.Pointer(&buf[0])), uint32(len(buf)), uint64(off), bufIndex, userData)
}

// SubmitAndWait publishes all queued SQEs and blocks until at least wait
// completions are available. With SQPOLL active the submission itself is
// syscall-free; an enter call happens only to wake the poller or to wait.
func (r *Ring) SubmitAndWait(wait uint32) (int, error) {
	atomic.StoreUint32(r.sqTail, r.sqeTail)

	for {
		pending := r.sqeTail - atomic.LoadUint32(r.sqHead)
		var flags uint32
		submit := uintptr(pending)

		if r.sqpoll {
			// The poller consumes SQEs on its own; enter is needed
			// only for a sleeping poller or to wait for completions.
			submit = 0
			if atomic.LoadUint32(r.sqFlags)&sqNeedWakeup != 0 {
				flags |= enterSQWakeup
			}
			if wait == 0 && flags == 0 {
				return int(pending), nil
			}
		}
		if wait > 0 {
			flags |= enterGetEvents
		}

		n, _, errno := unix.Syscall6(unix.SYS_IO_URING_ENTER,
			uintptr(r.fd), submit, uintptr(wait), uintptr(flags), 0, 0)
		if errno == unix.EINTR {
			continue
		}
		if errno != 0 {
			return 0, &Error{Op: "io_uring_enter", Err: errno}
		}
		return int(n), nil
	}
}

// Submit publishes all queued SQEs without waiting.
func (r *Ring) Submit() (int, error) {
	return r.SubmitAndWait(0)
}

// PeekBatch copies up to len(dst) pending completions into dst without
// consuming them. Returns the number copied.
func (r *Ring) PeekBatch(dst []CQE) int {
	head := atomic.LoadUint32(r.cqHead)
	tail := atomic.LoadUint32(r.cqTail)
	n := 0
	for n < len(dst) && head+uint32(n) != tail {
		dst[n] = r.cqes[(head+uint32(n))&r.cqMask]
		n++
	}
	return n
}

// Advance consumes n completions, returning their CQ slots to the kernel.
func (r *Ring) Advance(n uint32) {
	if n > 0 {
		atomic.AddUint32(r.cqHead, n)
	}
}

// RegisterBuffers registers bufs as the ring's fixed buffer set; slot i of
// PushReadFixed addresses bufs[i]. The buffers must stay reachable until
// UnregisterBuffers or Close.
func (r *Ring) RegisterBuffers(bufs [][]byte) error {
	iovs := make([]unix.Iovec, len(bufs))
	for i, b := range bufs {
		iovs[i].Base = &b[0]
		iovs[i].SetLen(len(b))
	}
	_, _, errno := unix.Syscall6(unix.SYS_IO_URING_REGISTER,
		uintptr(r.fd), regRegisterBuffers, uintptr(unsafe.Pointer(&iovs[0])), uintptr(len(iovs)), 0, 0)
	if errno != 0 {
		return &Error{Op: "register buffers", Err: errno}
	}
	r.registered = true
	return nil
}

// UnregisterBuffers releases the registered buffer set.
func (r *Ring) UnregisterBuffers() error {
	if !r.registered {
		return nil
	}
	_, _, errno := unix.Syscall6(unix.SYS_IO_URING_REGISTER,
		uintptr(r.fd), regUnregisterBuffers, 0, 0, 0, 0)
	if errno != 0 {
		return &Error{Op: "unregister buffers", Err: errno}
	}
	r.registered = false
	return nil
}

// Close unregisters buffers, unmaps the rings and closes the ring fd. Safe
// to call more than once.
func (r *Ring) Close() error {
	if r.sqMem == nil {
		return nil
	}
	if r.registered {
		r.UnregisterBuffers()
	}

	var firstErr error
	if err := unix.Munmap(r.sqesMem); err != nil && firstErr == nil {
		firstErr = err
	}
	if r.cqMem != nil {
		if err := unix.Munmap(r.cqMem); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := unix.Munmap(r.sqMem); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := unix.Close(r.fd); err != nil && firstErr == nil {
		firstErr = err
	}

	r.sqMem, r.cqMem, r.sqesMem = nil, nil, nil
	r.sqes, r.sqArray, r.cqes = nil, nil, nil
	r.sqHead, r.sqTail, r.sqFlags = nil, nil, nil
	r.cqHead, r.cqTail = nil, nil
	return firstErr
}
