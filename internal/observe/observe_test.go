package observe

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"retailetl/internal/etlerr"

	"github.com/rs/zerolog"
)

func TestRecorderIsConcurrencySafe(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Stage(fmt.Sprintf("s%d", i), time.Millisecond, nil)
			r.Count("valid", 2)
		}(i)
	}
	wg.Wait()

	if got := len(r.Stages()); got != 50 {
		t.Fatalf("stages = %d, want 50", got)
	}
	if got := r.CountOf("valid"); got != 100 {
		t.Fatalf("CountOf(valid) = %d, want 100", got)
	}
}

func TestMultiFansOut(t *testing.T) {
	var a, b Recorder
	m := Multi{&a, &b}
	m.Warn(errors.New("w"))
	m.Fail(errors.New("f"))
	m.Count("canceled", 3)

	for _, r := range []*Recorder{&a, &b} {
		if len(r.Warnings()) != 1 || len(r.Failures()) != 1 || r.CountOf("canceled") != 3 {
			t.Fatalf("recorder missed events: warns=%v fails=%v", r.Warnings(), r.Failures())
		}
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(Nop); !ok {
		t.Fatal("OrNop(nil) should be Nop")
	}
	r := &Recorder{}
	if OrNop(r) != Observer(r) {
		t.Fatal("OrNop should return its argument")
	}
}

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&etlerr.JoinAmbiguity{Reference: "suppliers", Key: "1", Count: 2}, "join_ambiguity"},
		{fmt.Errorf("x: %w", &etlerr.EmptyGroupError{Report: "r"}), "empty_group"},
		{&etlerr.SchemaError{Table: "t", Missing: []string{"a"}}, "schema"},
		{&etlerr.LoadError{Source: "s", Err: errors.New("io")}, "load"},
		{&etlerr.RowError{Table: "transactions", Row: 1, Column: "UnitPrice", Err: errors.New("x")}, "decode"},
		{errors.New("boom"), "other"},
	}
	for _, c := range cases {
		if got := Kind(c.err); got != c.want {
			t.Errorf("Kind(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestLogWarnIncludesKind(t *testing.T) {
	var buf bytes.Buffer
	o := Log{L: zerolog.New(&buf).Level(zerolog.InfoLevel)}
	o.Stage("clean", time.Second, nil) // debug, filtered
	o.Warn(&etlerr.JoinAmbiguity{Reference: "continents", Key: "France", Count: 2})

	out := buf.String()
	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Fatalf("want exactly one line, got %q", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"kind":"join_ambiguity"`)) {
		t.Fatalf("missing kind in %q", out)
	}
}

func TestLogFailedStageStaysAtDebug(t *testing.T) {
	var buf bytes.Buffer
	o := Log{L: zerolog.New(&buf).Level(zerolog.InfoLevel)}
	o.Stage("aggregate", time.Second, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("failed stage logged at info or above: %q", buf.String())
	}

	buf.Reset()
	o.L = o.L.Level(zerolog.DebugLevel)
	o.Stage("aggregate", time.Second, errors.New("boom"))
	if !bytes.Contains(buf.Bytes(), []byte(`"level":"debug"`)) || !bytes.Contains(buf.Bytes(), []byte(`"error":"boom"`)) {
		t.Fatalf("debug stage line = %q", buf.String())
	}
}
