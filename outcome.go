package biseek

import "time"

// Outcome is the result of one search invocation, any engine.
type Outcome struct {
	// Found reports whether the target value is present
	Found bool

	// Offset is the byte offset of the matching element when Found
	Offset int64

	// Index is the element index of the match (Offset / ElementSize)
	Index int64

	// Reads counts elementary element loads performed: probe reads,
	// linear-scan loads, direct reads, mapped loads
	Reads int64

	// Comparisons counts value-vs-target comparisons performed
	Comparisons int64

	// FailedReads counts probe completions discarded as partial or
	// errored (ring engine only)
	FailedReads int64

	// Rounds counts probe rounds the ring engine ran (diagnostics)
	Rounds int64

	// Elapsed is the wall-clock duration of the search, excluding file
	// open and validation
	Elapsed time.Duration

	// SQPoll reports whether kernel submission polling was active. May be
	// false even when requested (privilege fallback).
	SQPoll bool

	// FixedBuffers reports whether probe buffers were registered with the
	// ring. May be false even when requested (registration fallback).
	FixedBuffers bool
}

// markFound fills the match fields from a byte offset.
func (o *Outcome) markFound(off int64) {
	o.Found = true
	o.Offset = off
	o.Index = off / ElementSize
}
