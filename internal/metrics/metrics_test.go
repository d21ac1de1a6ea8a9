package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

// install swaps the global backend for the duration of the test.
func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := current()
	fb := &fakeBackend{}
	SetBackend(fb)
	t.Cleanup(func() { SetBackend(orig) })
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("jobA", "clean", nil, 2*time.Second)
	RecordStep("jobB", "aggregate:country_sales", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}
	if len(fb.callsHistograms) != 2 {
		t.Fatalf("expected 2 histogram calls, got %d", len(fb.callsHistograms))
	}

	cc0 := fb.callsCounters[0]
	if cc0.name != StageTotal || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=%s, delta=1", cc0, StageTotal)
	}
	if cc0.labels["job"] != "jobA" || cc0.labels["step"] != "clean" || cc0.labels["status"] != "success" {
		t.Fatalf("counter[0].labels = %v; want jobA/clean/success", cc0.labels)
	}

	h0 := fb.callsHistograms[0]
	if h0.name != StageDuration {
		t.Fatalf("hist[0].name=%q; want %s", h0.name, StageDuration)
	}
	if h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0].value=%v; want ~2.0", h0.value)
	}

	cc1 := fb.callsCounters[1]
	if cc1.labels["status"] != "failure" {
		t.Fatalf("counter[1].labels[status]=%q; want failure", cc1.labels["status"])
	}
	if h1 := fb.callsHistograms[1]; h1.value < 1.5-0.001 || h1.value > 1.5+0.001 {
		t.Fatalf("hist[1].value=%v; want ~1.5", h1.value)
	}
}

func TestRecordRowWarningAndBatches(t *testing.T) {
	fb := install(t)

	RecordRow("jobX", "valid", 3)
	RecordRow("jobX", "valid", 0) // ignored
	RecordWarning("jobX", "join_ambiguity")
	RecordBatches("jobZ", 2)
	RecordBatches("jobZ", -1) // ignored

	if len(fb.callsCounters) != 3 {
		t.Fatalf("expected 3 counter calls, got %d", len(fb.callsCounters))
	}

	if c := fb.callsCounters[0]; c.name != RowsTotal || c.delta != 3 || c.labels["kind"] != "valid" {
		t.Fatalf("counter[0] = %#v; want %s delta=3 kind=valid", c, RowsTotal)
	}
	if c := fb.callsCounters[1]; c.name != WarningsTotal || c.labels["kind"] != "join_ambiguity" {
		t.Fatalf("counter[1] = %#v; want %s kind=join_ambiguity", c, WarningsTotal)
	}
	if c := fb.callsCounters[2]; c.name != BatchesTotal || c.delta != 2 || c.labels["job"] != "jobZ" {
		t.Fatalf("counter[2] = %#v; want %s delta=2 job=jobZ", c, BatchesTotal)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := install(t)

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	SetBackend(nil)
	if current() != Backend(fb) {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
