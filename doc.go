// Package biseek locates 64-bit unsigned integers in large sorted flat
// files without loading them into memory.
//
// A data file is a headerless sequence of 8-byte elements in native byte
// order, sorted ascending. Files routinely exceed RAM, so every engine
// works out of core and reports how much I/O the search cost.
//
// Key features:
//   - Speculative asynchronous engine issuing batched probe reads over an
//     io_uring completion ring, with optional kernel submission polling
//     and registered probe buffers
//   - Adaptive strategy switching: small ranges collapse to a single
//     contiguous read and linear scan, mid-size ranges get a readahead
//     advisory before probing
//   - Memory-mapped engine running a classic binary search over a
//     read-only mapping
//   - Parallel engine splitting the file across workers that each binary
//     search a disjoint slice
//   - Test-file generation and page-cache dropping for cold-cache runs
//
// Basic usage:
//
//	out, err := biseek.SearchRing("/path/to/data", 123456, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if out.Found {
//	    fmt.Printf("found at byte offset %d after %d reads\n", out.Offset, out.Reads)
//	}
package biseek
