// Command biseek searches a sorted flat file of 8-byte unsigned integers
// for a target value, timing repeated iterations of a chosen engine.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"github.com/Giulio2002/biseek"
	"github.com/Giulio2002/biseek/stats"
)

// Exit codes. Engine results stay distinguishable from harness misuse.
const (
	exitFound    = 0
	exitNotFound = 1
	exitUsage    = 2
	exitFailure  = 3
)

type options struct {
	engine     string
	threads    int
	iterations int
	dropCache  bool
	sqpoll     bool
	fixedBufs  bool
	noHeur     bool
	create     bool
	size       int64
	step       uint64
	logFile    string
	quiet      bool
	version    bool

	path   string
	target uint64
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("biseek", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.StringVarP(&opts.engine, "engine", "e", "ring", "search engine: ring, mapped or parallel")
	fs.IntVarP(&opts.threads, "threads", "t", biseek.DefaultWorkers, "worker count (parallel engine)")
	fs.IntVarP(&opts.iterations, "iterations", "n", 1, "timed search repetitions")
	fs.BoolVarP(&opts.dropCache, "drop-cache", "d", false, "drop the OS page cache before every iteration (needs root)")
	fs.BoolVar(&opts.sqpoll, "sqpoll", false, "ring: request kernel submission polling (needs privilege)")
	fs.BoolVar(&opts.fixedBufs, "fixed-buffers", false, "ring: pre-register probe buffers")
	fs.BoolVar(&opts.noHeur, "no-heuristics", false, "ring: disable linear-scan and readahead switches")
	fs.BoolVarP(&opts.create, "create", "c", false, "create FILE before searching")
	fs.Int64VarP(&opts.size, "size", "s", 1000000, "element count for --create")
	fs.Uint64VarP(&opts.step, "step", "p", 10, "value step for --create")
	fs.StringVar(&opts.logFile, "log-file", "", "mirror output to this file")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress per-iteration lines")
	fs.BoolVarP(&opts.version, "version", "v", false, "print version and exit")
	return fs
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `Usage: biseek [flags] FILE TARGET

Searches FILE, a sorted flat file of 8-byte unsigned integers in native
byte order, for TARGET (decimal, or hex with an 0x prefix).

Flags:
%s
Exit status: 0 target found, 1 not found, 2 usage error, 3 engine failure.
`, fs.FlagUsages())
}

func run(args []string) int {
	var opts options
	fs := newFlagSet(&opts)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(os.Stdout, fs)
			return exitFound
		}
		fmt.Fprintf(os.Stderr, "biseek: %v\n", err)
		usage(os.Stderr, fs)
		return exitUsage
	}

	if opts.version {
		fmt.Println(biseek.Version())
		return exitFound
	}

	if fs.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "biseek: expected FILE and TARGET arguments, got %d\n", fs.NArg())
		usage(os.Stderr, fs)
		return exitUsage
	}
	opts.path = fs.Arg(0)

	target, err := strconv.ParseUint(fs.Arg(1), 0, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "biseek: invalid target %q: %v\n", fs.Arg(1), err)
		return exitUsage
	}
	opts.target = target

	if opts.iterations < 1 {
		fmt.Fprintf(os.Stderr, "biseek: iterations must be at least 1\n")
		return exitUsage
	}
	if opts.engine == "parallel" && opts.threads < 1 {
		fmt.Fprintf(os.Stderr, "biseek: threads must be at least 1\n")
		return exitUsage
	}
	if opts.create && opts.size < 1 {
		fmt.Fprintf(os.Stderr, "biseek: --size must be at least 1 element\n")
		return exitUsage
	}

	eng, err := selectEngine(&opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "biseek: %v\n", err)
		usage(os.Stderr, fs)
		return exitUsage
	}

	logger, err := newLogger(opts.logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "biseek: %v\n", err)
		return exitFailure
	}
	defer logger.Close()

	if opts.create {
		start := time.Now()
		if err := biseek.WriteSequence(opts.path, opts.size, opts.step); err != nil {
			logger.Errorf("creating %s: %v", opts.path, err)
			return exitFailure
		}
		logger.Infof("created %s: %d elements, step %d, %.3f s",
			opts.path, opts.size, opts.step, time.Since(start).Seconds())
	}

	samples := make([]float64, 0, opts.iterations)
	var last biseek.Outcome
	for i := 1; i <= opts.iterations; i++ {
		if opts.dropCache {
			if err := biseek.DropPageCache(); err != nil {
				// Reported, never fatal: a warm cache only skews timings
				logger.Errorf("cache drop failed: %v", err)
			}
		}

		start := time.Now()
		out, err := eng()
		wall := time.Since(start)
		if err != nil {
			logger.Errorf("search failed: %v", err)
			return exitFailure
		}

		if i == 1 {
			logNotices(logger, &opts, out)
		}
		samples = append(samples, float64(wall.Nanoseconds())/1e6)
		if !opts.quiet {
			logger.Infof("iter %d/%d: %.3f ms wall, %.3f ms search, %d reads, %d comparisons",
				i, opts.iterations,
				float64(wall.Nanoseconds())/1e6,
				float64(out.Elapsed.Nanoseconds())/1e6,
				out.Reads, out.Comparisons)
		}
		last = out
	}

	logger.Infof("engine %s over %s:\n%s", opts.engine, opts.path, stats.Aggregate(samples))

	if last.Found {
		logger.Infof("target %d found at byte offset %d (index %d)", opts.target, last.Offset, last.Index)
		return exitFound
	}
	logger.Infof("target %d not found", opts.target)
	return exitNotFound
}

func selectEngine(opts *options) (func() (biseek.Outcome, error), error) {
	switch opts.engine {
	case "ring":
		var flags biseek.RingFlags
		if opts.sqpoll {
			flags |= biseek.RingSQPoll
		}
		if opts.fixedBufs {
			flags |= biseek.RingFixedBuffers
		}
		if opts.noHeur {
			flags |= biseek.RingNoHeuristics
		}
		return func() (biseek.Outcome, error) {
			return biseek.SearchRing(opts.path, opts.target, flags)
		}, nil
	case "mapped":
		return func() (biseek.Outcome, error) {
			return biseek.SearchMapped(opts.path, opts.target)
		}, nil
	case "parallel":
		return func() (biseek.Outcome, error) {
			return biseek.SearchParallel(opts.path, opts.target, opts.threads)
		}, nil
	default:
		return nil, errors.Errorf("unknown engine %q (want ring, mapped or parallel)", opts.engine)
	}
}

// logNotices surfaces the degraded-mode fallbacks once, from the first
// iteration's capability report.
func logNotices(l *dualLogger, opts *options, out biseek.Outcome) {
	if opts.engine != "ring" {
		return
	}
	switch {
	case out.SQPoll:
		l.Infof("ring mode: kernel submission polling active")
	case opts.sqpoll:
		l.Infof("submission polling unavailable, continuing with a standard ring")
	}
	switch {
	case out.FixedBuffers:
		l.Infof("ring mode: fixed probe buffers registered")
	case opts.fixedBufs:
		l.Infof("buffer registration unavailable, continuing with pointer-addressed reads")
	}
}
