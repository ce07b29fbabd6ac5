package biseek

// File format constants
const (
	// ElementSize is the fixed width of one stored integer (bytes)
	ElementSize = 8
)

// Ring engine tuning
const (
	// QueueDepth is the submission/completion ring size requested at setup
	QueueDepth = 64

	// ParallelReads is the maximum probe fan-out per round
	ParallelReads = 4

	// FanoutMinRange is the range width above which a round fans out to
	// ParallelReads probes; at or below it a single probe is issued (a
	// narrow range gains nothing from fan-out and would waste ring slots)
	FanoutMinRange = ParallelReads * 100

	// LinearScanThreshold is the range width (elements, hi-lo) at or below
	// which the remaining range is read contiguously and scanned linearly
	// instead of probed
	LinearScanThreshold = 256

	// ReadaheadThreshold is the range width at or below which a will-need
	// advisory is issued over the remaining byte range before probing
	ReadaheadThreshold = 65536

	// SQPollIdleMillis is how long the kernel submission poller may idle
	// before sleeping (needs a wakeup enter call afterwards)
	SQPollIdleMillis = 2000
)

// Partitioned engine defaults
const (
	// DefaultWorkers is the worker count used when the caller passes zero
	DefaultWorkers = 32
)

// RingFlags select optional modes of the ring search engine.
type RingFlags uint

const (
	// RingSQPoll requests kernel-side submission queue polling. Needs
	// elevated privilege; falls back to a standard ring when denied.
	RingSQPoll RingFlags = 0x01

	// RingFixedBuffers pre-registers the probe buffers with the ring so
	// reads are addressed by slot index instead of pointer. Falls back to
	// pointer-addressed reads when registration is refused.
	RingFixedBuffers RingFlags = 0x02

	// RingNoHeuristics disables the small-range strategy switches (linear
	// scan and readahead advisory); every round probes.
	RingNoHeuristics RingFlags = 0x04
)
