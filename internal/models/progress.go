package models

import (
	"time"

	"go.uber.org/atomic"
)

// ProgressTracker exposes live counters for the current run. It is safe
// for concurrent reads from the ops endpoint and metrics gauges while the
// fetcher updates it.
type ProgressTracker struct {
	messages   atomic.Int64
	batches    atomic.Int64
	redacted   atomic.Int64
	dropped    atomic.Int64
	withheld   atomic.Int64
	retries    atomic.Int64
	lastUpdate atomic.Time

	stallTimeout time.Duration
}

func NewProgressTracker(stallTimeout time.Duration) *ProgressTracker {
	pt := &ProgressTracker{stallTimeout: stallTimeout}
	pt.lastUpdate.Store(time.Now())
	return pt
}

func (p *ProgressTracker) RecordBatch(messages int) {
	p.messages.Add(int64(messages))
	p.batches.Inc()
	p.lastUpdate.Store(time.Now())
}

// RecordAdvance marks forward movement of the cursor. Pages whose
// messages are all filtered out still count as progress.
func (p *ProgressTracker) RecordAdvance() {
	p.lastUpdate.Store(time.Now())
}

func (p *ProgressTracker) RecordRedacted(n int) { p.redacted.Add(int64(n)) }
func (p *ProgressTracker) RecordDropped(n int)  { p.dropped.Add(int64(n)) }
func (p *ProgressTracker) RecordWithheld()      { p.withheld.Inc() }
func (p *ProgressTracker) RecordRetry()         { p.retries.Inc() }

func (p *ProgressTracker) Messages() int64 { return p.messages.Load() }
func (p *ProgressTracker) Batches() int64  { return p.batches.Load() }

// IsStalled reports whether the run has made no progress within the
// stall timeout. A zero timeout disables the check.
func (p *ProgressTracker) IsStalled() bool {
	if p.stallTimeout <= 0 {
		return false
	}
	return time.Since(p.lastUpdate.Load()) > p.stallTimeout
}

type ProgressSnapshot struct {
	Messages   int64     `json:"messages"`
	Batches    int64     `json:"batches"`
	Redacted   int64     `json:"redacted"`
	Dropped    int64     `json:"dropped"`
	Withheld   int64     `json:"withheld"`
	Retries    int64     `json:"retries"`
	LastUpdate time.Time `json:"last_update"`
}

func (p *ProgressTracker) Snapshot() ProgressSnapshot {
	return ProgressSnapshot{
		Messages:   p.messages.Load(),
		Batches:    p.batches.Load(),
		Redacted:   p.redacted.Load(),
		Dropped:    p.dropped.Load(),
		Withheld:   p.withheld.Load(),
		Retries:    p.retries.Load(),
		LastUpdate: p.lastUpdate.Load(),
	}
}
