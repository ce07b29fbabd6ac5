package benchmarks

import (
	"fmt"
	"testing"

	"github.com/Giulio2002/biseek"
)

// BenchmarkEngines times one full search per iteration on cached flat
// files of several sizes, cycling through a mixed present/absent target
// set.
// Run with: go test -bench=BenchmarkEngines -benchtime=1s -run=^$ ./benchmarks/
func BenchmarkEngines(b *testing.B) {
	b.Cleanup(CleanupBenchCache)

	sizes := []int{100_000, 1_000_000, 10_000_000}

	for _, size := range sizes {
		sizeName := formatSize(size)
		path := getCachedFlatFile(b, size)
		targets := sampleTargets(size)

		b.Run(fmt.Sprintf("Ring_%s", sizeName), func(b *testing.B) {
			benchRing(b, path, targets, 0)
		})
		b.Run(fmt.Sprintf("Mapped_%s", sizeName), func(b *testing.B) {
			benchMapped(b, path, targets)
		})
		b.Run(fmt.Sprintf("Parallel_%s", sizeName), func(b *testing.B) {
			benchParallel(b, path, targets, 8)
		})
	}
}

// BenchmarkRingModes compares the ring engine's optional modes on one
// mid-size corpus.
// Run with: go test -bench=BenchmarkRingModes -benchtime=1s -run=^$ ./benchmarks/
func BenchmarkRingModes(b *testing.B) {
	b.Cleanup(CleanupBenchCache)

	const size = 1_000_000
	path := getCachedFlatFile(b, size)
	targets := sampleTargets(size)

	b.Run("Baseline", func(b *testing.B) {
		benchRing(b, path, targets, 0)
	})
	b.Run("FixedBuffers", func(b *testing.B) {
		benchRing(b, path, targets, biseek.RingFixedBuffers)
	})
	b.Run("SQPoll", func(b *testing.B) {
		benchRing(b, path, targets, biseek.RingSQPoll)
	})
	b.Run("NoHeuristics", func(b *testing.B) {
		benchRing(b, path, targets, biseek.RingNoHeuristics)
	})
}

// BenchmarkParallelWorkers sweeps the worker count of the partitioned
// engine on one mid-size corpus.
// Run with: go test -bench=BenchmarkParallelWorkers -benchtime=1s -run=^$ ./benchmarks/
func BenchmarkParallelWorkers(b *testing.B) {
	b.Cleanup(CleanupBenchCache)

	const size = 1_000_000
	path := getCachedFlatFile(b, size)
	targets := sampleTargets(size)

	for _, workers := range []int{1, 2, 4, 8, 16, 32} {
		b.Run(fmt.Sprintf("T%d", workers), func(b *testing.B) {
			benchParallel(b, path, targets, workers)
		})
	}
}

func formatSize(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%dM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%dk", n/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func benchRing(b *testing.B, path string, targets []uint64, flags biseek.RingFlags) {
	if _, err := biseek.SearchRing(path, targets[0], flags); err != nil {
		switch biseek.Code(err) {
		case biseek.ErrRingSetup, biseek.ErrNotSupported:
			b.Skipf("ring engine unavailable: %v", err)
		}
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := biseek.SearchRing(path, targets[i%len(targets)], flags); err != nil {
			b.Fatal(err)
		}
	}
}

func benchMapped(b *testing.B, path string, targets []uint64) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := biseek.SearchMapped(path, targets[i%len(targets)]); err != nil {
			b.Fatal(err)
		}
	}
}

func benchParallel(b *testing.B, path string, targets []uint64, workers int) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := biseek.SearchParallel(path, targets[i%len(targets)], workers); err != nil {
			b.Fatal(err)
		}
	}
}
