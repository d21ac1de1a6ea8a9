// Package observe defines the reporter interface the pipeline stages call
// explicitly instead of logging through a global. Stages stay pure: they
// report what happened and the installed Observer decides whether that becomes
// a log line, a metric, or nothing at all.
package observe

import (
	"sync"
	"time"
)

// Observer receives progress and diagnostics from pipeline stages.
// Implementations must be safe for concurrent use; aggregations report from
// worker goroutines.
type Observer interface {
	// Stage reports that a named stage finished after d, with err == nil on success.
	Stage(name string, d time.Duration, err error)
	// Count reports n rows of the given kind (e.g. "duplicates_removed").
	Count(kind string, n int)
	// Warn reports a non-fatal condition such as a duplicated reference key.
	Warn(err error)
	// Fail reports the terminal error of a run. It is called at most once.
	Fail(err error)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Stage(string, time.Duration, error) {}
func (Nop) Count(string, int)                  {}
func (Nop) Warn(error)                         {}
func (Nop) Fail(error)                         {}

// OrNop returns o, or Nop when o is nil.
func OrNop(o Observer) Observer {
	if o == nil {
		return Nop{}
	}
	return o
}

// Multi forwards every call to each observer in order.
type Multi []Observer

func (m Multi) Stage(name string, d time.Duration, err error) {
	for _, o := range m {
		o.Stage(name, d, err)
	}
}

func (m Multi) Count(kind string, n int) {
	for _, o := range m {
		o.Count(kind, n)
	}
}

func (m Multi) Warn(err error) {
	for _, o := range m {
		o.Warn(err)
	}
}

func (m Multi) Fail(err error) {
	for _, o := range m {
		o.Fail(err)
	}
}

// StageEvent is a recorded Stage call.
type StageEvent struct {
	Name     string
	Duration time.Duration
	Err      error
}

// Recorder keeps every call in memory. It is meant for tests and for callers
// that want to inspect a run after the fact.
type Recorder struct {
	mu     sync.Mutex
	stages []StageEvent
	counts map[string]int
	warns  []error
	fails  []error
}

func (r *Recorder) Stage(name string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, StageEvent{Name: name, Duration: d, Err: err})
}

func (r *Recorder) Count(kind string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[kind] += n
}

func (r *Recorder) Warn(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, err)
}

func (r *Recorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fails = append(r.fails, err)
}

// Stages returns a copy of the recorded stage events.
func (r *Recorder) Stages() []StageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StageEvent(nil), r.stages...)
}

// CountOf returns the accumulated count for kind.
func (r *Recorder) CountOf(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[kind]
}

// Warnings returns a copy of the recorded warnings.
func (r *Recorder) Warnings() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.warns...)
}

// Failures returns a copy of the recorded terminal errors.
func (r *Recorder) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.fails...)
}
