package config

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"retailetl/pkg/records"
)

func TestPipeline_Decode(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "retail-nightly",
	  "sources": {
	    "transactions": { "kind": "file", "file": { "path": "data/Online Retail.xlsx" }, "options": { "sheet": "Online Retail" } },
	    "suppliers": { "kind": "file", "file": { "path": "data/suppliers.csv" }, "format": "csv",
	                   "options": { "comma": ";", "header_map": { "Fournisseur": "Supplier" } } },
	    "continents": { "kind": "file", "file": { "path": "data/continents.json" } }
	  },
	  "reports": {
	    "target_country": "Germany",
	    "region_country": "EIRE",
	    "window": { "start": "2011-03-01", "end": "2011-06-01" },
	    "top_products": 5
	  },
	  "runtime": { "workers": 3, "aggregate_timeout": "1m30s", "empty_groups": "omit", "strict_joins": true },
	  "outputs": {
	    "parquet": "out/cleaned.parquet",
	    "storage": { "kind": "sqlite", "db": { "dsn": "file:out.db", "table_prefix": "retail_", "auto_create_table": true } }
	  }
	}`

	p, err := Decode(strings.NewReader(js))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p = WithDefaults(p)

	if p.Job != "retail-nightly" {
		t.Fatalf("job = %q", p.Job)
	}
	if got := p.Sources.Transactions.Format; got != "xlsx" {
		t.Fatalf("transactions format = %q, want inferred xlsx", got)
	}
	if got := p.Sources.Continents.Format; got != "json" {
		t.Fatalf("continents format = %q, want inferred json", got)
	}
	if got := p.Sources.Suppliers.Options.Rune("comma", ','); got != ';' {
		t.Fatalf("suppliers comma = %q, want ';'", got)
	}
	if hm := p.Sources.Suppliers.Options.StringMap("header_map"); hm["Fournisseur"] != "Supplier" {
		t.Fatalf("suppliers header_map = %#v", hm)
	}
	if p.Sources.Transactions.Options.String("sheet", "") != "Online Retail" {
		t.Fatalf("sheet option lost: %#v", p.Sources.Transactions.Options)
	}

	r := p.Reports
	if r.TargetCountry != "Germany" || r.RegionCountry != "EIRE" || r.RegionLabel != "eire" {
		t.Fatalf("reports = %#v", r)
	}
	if !r.Window.Start.Equal(time.Date(2011, 3, 1, 0, 0, 0, 0, time.UTC)) ||
		!r.Window.End.Equal(time.Date(2011, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("window = %v..%v", r.Window.Start, r.Window.End)
	}
	if r.TopProducts != 5 {
		t.Fatalf("top_products = %d, want 5", r.TopProducts)
	}

	rt := p.Runtime
	if rt.Workers != 3 || rt.AggregateTimeout.D() != 90*time.Second || rt.EmptyGroups != EmptyGroupsOmit || !rt.StrictJoins {
		t.Fatalf("runtime = %#v", rt)
	}

	st := p.Outputs.Storage
	if st.Kind != "sqlite" || st.DB.TablePrefix != "retail_" || !st.DB.AutoCreateTable || st.DB.BatchSize != DefaultBatchSize {
		t.Fatalf("storage = %#v", st)
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	if _, err := Decode(strings.NewReader(`{"job":"x","sorces":{}}`)); err == nil {
		t.Fatal("Decode accepted an unknown field")
	}
}

func TestDefault_ReferenceRun(t *testing.T) {
	t.Parallel()

	d := Default()
	if d.Reports.TargetCountry != "France" || d.Reports.RegionCountry != "United Kingdom" || d.Reports.RegionLabel != "uk" {
		t.Fatalf("default reports = %#v", d.Reports)
	}
	if d.Reports.Window.Start.Year() != 2011 || d.Reports.Window.End.Year() != 2012 {
		t.Fatalf("default window = %v..%v", d.Reports.Window.Start, d.Reports.Window.End)
	}
	if d.Runtime.EmptyGroups != EmptyGroupsFail || d.Runtime.AggregateTimeout.D() != DefaultAggregateTimeout {
		t.Fatalf("default runtime = %#v", d.Runtime)
	}
}

func TestWithDefaults_RegionLabelFromCountry(t *testing.T) {
	t.Parallel()

	p := WithDefaults(Pipeline{Reports: Reports{RegionCountry: "United Kingdom"}})
	if p.Reports.RegionLabel != "united_kingdom" {
		t.Fatalf("label = %q, want united_kingdom", p.Reports.RegionLabel)
	}
	p = WithDefaults(Pipeline{})
	if p.Reports.RegionLabel != DefaultRegionLabel {
		t.Fatalf("label = %q, want %q", p.Reports.RegionLabel, DefaultRegionLabel)
	}
}

func TestDuration_JSON(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Duration{
		`"45s"`: 45 * time.Second,
		`2.5`:   2500 * time.Millisecond,
		`""`:    0,
		`null`:  0,
	}
	for in, want := range cases {
		var d Duration
		if err := json.Unmarshal([]byte(in), &d); err != nil {
			t.Fatalf("Unmarshal(%s): %v", in, err)
		}
		if d.D() != want {
			t.Fatalf("Unmarshal(%s) = %v, want %v", in, d.D(), want)
		}
	}
	var d Duration
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Fatal("want error for invalid duration")
	}
	b, _ := json.Marshal(Duration(time.Minute))
	if string(b) != `"1m0s"` {
		t.Fatalf("Marshal = %s", b)
	}
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	var w Window
	if err := json.Unmarshal([]byte(`{"start":"2011-01-01","end":""}`), &w); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !w.Start.Equal(NewDate(2011, time.January, 1).Time) || !w.End.IsZero() {
		t.Fatalf("window = %#v", w)
	}
	b, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `{"start":"2011-01-01","end":""}` {
		t.Fatalf("Marshal = %s", b)
	}
	if err := json.Unmarshal([]byte(`{"start":"01/01/2011"}`), &w); err == nil {
		t.Fatal("want error for non-ISO date")
	}
}

func TestFormatFromPathAndSlug(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"a/Online Retail.XLSX": "xlsx",
		"s.csv":                "csv",
		"c.json":               "json",
		"noext":                "",
	} {
		if got := FormatFromPath(in); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", in, got, want)
		}
	}
	if got := records.Slug("  Channel  Islands "); got != "channel_islands" {
		t.Errorf("Slug = %q", got)
	}
}

// -----------------------------------------------------------------------------
// Options helper tests (hermetic).
// -----------------------------------------------------------------------------

func TestOptions_String_Bool_Int_Rune_DefaultsAndCoercion(t *testing.T) {
	t.Parallel()

	o := Options{
		"s": "hello",
		"b": true,
		"i": float64(42), // encoding/json decodes numbers as float64
		"r": ",",         // first rune will be used
	}

	// String
	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q, want hello", got)
	}
	if got := o.String("missing", "def"); got != "def" {
		t.Fatalf("String(missing) = %q, want def", got)
	}

	// Bool
	if got := o.Bool("b", false); got != true {
		t.Fatalf("Bool(b) = %v, want true", got)
	}
	if got := o.Bool("missing", true); got != true {
		t.Fatalf("Bool(missing) = %v, want true", got)
	}

	// Int (float64 → int)
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d, want 42", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Fatalf("Int(missing) = %d, want 7", got)
	}

	// Rune (first rune from string)
	if got := o.Rune("r", ';'); got != ',' {
		t.Fatalf("Rune(r) = %q, want ','", got)
	}
	if got := o.Rune("missing", 'X'); got != 'X' {
		t.Fatalf("Rune(missing) = %q, want 'X'", got)
	}

	// Validate that Rune picks the FIRST rune (not byte) for multi-byte char.
	o["r2"] = "ž" // multi-byte UTF-8 rune
	r := o.Rune("r2", 'x')
	if r == 0 || !utf8.ValidRune(r) {
		t.Fatalf("Rune(r2) = %#U, want valid rune", r)
	}
	if string(r) != "ž" {
		t.Fatalf("Rune(r2) = %#U (%q), want ž", r, string(r))
	}
}

func TestOptions_StringMap_StringSlice_Any(t *testing.T) {
	t.Parallel()

	o := Options{
		"m": map[string]any{"A": "a", "B": "b", "X": 1}, // non-string value "X" must be ignored
		"s1": []any{
			"alpha", "beta", 3, // ints ignored
		},
		"s2": []string{"gamma", "delta"},
		"nested": map[string]any{
			"k": "v",
		},
	}

	// StringMap should include only string values and skip non-strings.
	sm := o.StringMap("m")
	if !reflect.DeepEqual(sm, map[string]string{"A": "a", "B": "b"}) {
		t.Fatalf("StringMap(m) = %#v, want {A:a B:b}", sm)
	}
	// Missing key → empty map (not nil).
	sm2 := o.StringMap("missing")
	if sm2 == nil || len(sm2) != 0 {
		t.Fatalf("StringMap(missing) = %#v, want empty map", sm2)
	}

	// StringSlice supports []any with strings and filters non-strings.
	ss1 := o.StringSlice("s1")
	if !reflect.DeepEqual(ss1, []string{"alpha", "beta"}) {
		t.Fatalf("StringSlice(s1) = %#v, want [alpha beta]", ss1)
	}
	// And the native []string case.
	ss2 := o.StringSlice("s2")
	if !reflect.DeepEqual(ss2, []string{"gamma", "delta"}) {
		t.Fatalf("StringSlice(s2) = %#v, want [gamma delta]", ss2)
	}
	// Missing key → nil (intentional to distinguish unspecified from empty).
	if got := o.StringSlice("missing"); got != nil {
		t.Fatalf("StringSlice(missing) = %#v, want nil", got)
	}

	// Any returns raw nested values for callers to unmarshal later.
	anyv := o.Any("nested")
	m, ok := anyv.(map[string]any)
	if !ok || m["k"] != "v" {
		t.Fatalf("Any(nested) = %#v, want map with k=v", anyv)
	}
	if o.Any("missing") != nil {
		t.Fatalf("Any(missing) should be nil when key absent")
	}
}

// -----------------------------------------------------------------------------
// Options.UnmarshalJSON behavior tests
// -----------------------------------------------------------------------------
//
// A null "options" object decodes to a non-nil, empty map.

func TestOptions_UnmarshalJSON_NullYieldsEmptyMap(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	// options is explicitly null → non-nil, empty Options.
	const jsNull = `{"options": null}`
	var w wrapper
	if err := json.Unmarshal([]byte(jsNull), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts == nil || len(w.Opts) != 0 {
		t.Fatalf("Opts after null unmarshal = %#v, want non-nil empty map", w.Opts)
	}
}

func TestOptions_UnmarshalJSON_ObjectDecodesAsMap(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	const jsObj = `{"options": {"a":"x","b":true,"n": 3}}`
	var w wrapper
	if err := json.Unmarshal([]byte(jsObj), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if w.Opts.String("a", "") != "x" {
		t.Fatalf("Opts.String(a) = %q, want x", w.Opts.String("a", ""))
	}
	if w.Opts.Bool("b", false) != true {
		t.Fatalf("Opts.Bool(b) = %v, want true", w.Opts.Bool("b", false))
	}
	if w.Opts.Int("n", 0) != 3 {
		t.Fatalf("Opts.Int(n) = %d, want 3", w.Opts.Int("n", 0))
	}
}
