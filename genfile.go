package biseek

import (
	"bufio"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Chunking for the parallel writer
const (
	// genChunkElems is the element count of one pwrite chunk (512 KiB)
	genChunkElems = 1 << 16

	// genParallelAbove is the count above which chunks are written in
	// parallel; below it a single buffered writer is cheaper
	genParallelAbove = 1 << 20
)

// WriteSequence creates or truncates path and writes count ascending
// elements, element i holding i*step, native byte order. Large counts go
// through parallel disjoint-chunk pwrites; the output is byte-identical to
// the sequential path.
func WriteSequence(path string, count int64, step uint64) error {
	if count < 0 {
		return WrapError(ErrIO, fmt.Errorf("element count %d is negative", count))
	}

	f, err := os.Create(path)
	if err != nil {
		return WrapError(ErrIO, err)
	}

	if count > genParallelAbove {
		err = writeChunked(f, count, step)
	} else {
		err = writeSequential(f, count, step)
	}
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return WrapError(ErrIO, err)
	}
	return nil
}

func writeSequential(f *os.File, count int64, step uint64) error {
	w := bufio.NewWriterSize(f, 1<<20)
	var buf [ElementSize]byte
	for i := int64(0); i < count; i++ {
		putWord(buf[:], uint64(i)*step)
		if _, err := w.Write(buf[:]); err != nil {
			return WrapError(ErrIO, err)
		}
	}
	if err := w.Flush(); err != nil {
		return WrapError(ErrIO, err)
	}
	return nil
}

func writeChunked(f *os.File, count int64, step uint64) error {
	if err := f.Truncate(count * ElementSize); err != nil {
		return WrapError(ErrIO, err)
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for lo := int64(0); lo < count; lo += genChunkElems {
		hi := lo + genChunkElems
		if hi > count {
			hi = count
		}
		g.Go(func() error {
			buf := make([]byte, (hi-lo)*ElementSize)
			for i := lo; i < hi; i++ {
				putWord(buf[(i-lo)*ElementSize:], uint64(i)*step)
			}
			if _, err := f.WriteAt(buf, lo*ElementSize); err != nil {
				return WrapError(ErrIO, err)
			}
			return nil
		})
	}
	return g.Wait()
}
