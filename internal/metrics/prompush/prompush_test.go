package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"retailetl/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// readCounterValue reads the current value of a Counter for assertions in tests.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	sum := m.GetSummary()
	return sum.GetSampleCount(), sum.GetSampleSum()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "retail", gatewayURL: "", wantErr: true},
		{name: "empty job name uses default", jobName: "", gatewayURL: "http://pushgateway:9091", wantJobName: "retailetl"},
		{name: "explicit job name is preserved", jobName: "nightly", gatewayURL: "http://pushgateway:9091", wantJobName: "nightly"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewBackend(%q, %q) error = nil, want non-nil", tt.jobName, tt.gatewayURL)
				}
				if b != nil {
					t.Fatalf("NewBackend(%q, %q) backend = %v, want nil", tt.jobName, tt.gatewayURL, b)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend(%q, %q) error = %v", tt.jobName, tt.gatewayURL, err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("backend.jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
			if b.stageCounter == nil || b.stageDuration == nil || b.rowCounter == nil ||
				b.warningCounter == nil || b.batchCounter == nil {
				t.Fatalf("collectors not initialized: %+v", b)
			}
		})
	}
}

func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("retail", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.StageTotal, 3, metrics.Labels{"step": "clean", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 5, metrics.Labels{"kind": "valid"})
	b.IncCounter(metrics.WarningsTotal, 1, metrics.Labels{"kind": "join_ambiguity"})
	b.IncCounter(metrics.BatchesTotal, 2, metrics.Labels{})
	b.IncCounter(metrics.BatchesTotal, 0.5, metrics.Labels{})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := readCounterValue(t, b.stageCounter.WithLabelValues("clean", "success")); got != 3 {
		t.Fatalf("stageCounter = %v, want 3", got)
	}
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("valid")); got != 5 {
		t.Fatalf("rowCounter = %v, want 5", got)
	}
	if got := readCounterValue(t, b.warningCounter.WithLabelValues("join_ambiguity")); got != 1 {
		t.Fatalf("warningCounter = %v, want 1", got)
	}
	if got := readCounterValue(t, b.batchCounter); got != 2.5 {
		t.Fatalf("batchCounter = %v, want 2.5", got)
	}
	if got := readCounterValue(t, b.stageCounter.WithLabelValues("x", "y")); got != 0 {
		t.Fatalf("untouched stageCounter = %v, want 0", got)
	}
}

func TestIncCounterNilCollectors(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "valid"})
	b.IncCounter(metrics.WarningsTotal, 1, metrics.Labels{"kind": "x"})
	b.IncCounter(metrics.BatchesTotal, 1, metrics.Labels{})
	b.ObserveHistogram(metrics.StageDuration, 1, metrics.Labels{})
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("retail", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.ObserveHistogram(metrics.StageDuration, 1.5, metrics.Labels{"step": "join", "status": "success"})
	b.ObserveHistogram("other_metric", 2.0, metrics.Labels{"step": "join", "status": "success"})

	count, sum := readSummaryCountSum(t, b.stageDuration, "join", "success")
	if count != 1 || sum != 1.5 {
		t.Fatalf("summary count=%d sum=%v, want 1 and 1.5", count, sum)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()

	type pushRequestInfo struct {
		method  string
		path    string
		bodyLen int
	}
	reqCh := make(chan pushRequestInfo, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushRequestInfo{method: r.Method, path: r.URL.Path, bodyLen: len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("retail-job", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"step": "load", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushRequestInfo
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush() did not send any request to the Pushgateway")
	}
	if got.method != http.MethodPut {
		t.Fatalf("push method = %q, want PUT", got.method)
	}
	if got.path != "/metrics/job/retail-job" {
		t.Fatalf("push path = %q, want /metrics/job/retail-job", got.path)
	}
	if got.bodyLen == 0 {
		t.Fatalf("push body is empty")
	}
}

func BenchmarkIncCounterRows(b *testing.B) {
	backend, err := NewBackend("retail", "http://example.com")
	if err != nil {
		b.Fatalf("NewBackend() error = %v", err)
	}
	labels := metrics.Labels{"kind": "valid"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.IncCounter(metrics.RowsTotal, 1, labels)
	}
}
