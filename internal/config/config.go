// Package config defines the JSON-serializable run configuration for the
// retail pipeline: where the three inputs come from, which reports to
// parameterize, runtime limits, exporters, metrics and logging.
//
// Example (trimmed):
//
//	{
//	  "job": "retail-nightly",
//	  "sources": {
//	    "transactions": { "kind": "file", "file": { "path": "data/Online Retail.xlsx" }, "format": "xlsx" },
//	    "suppliers":    { "kind": "file", "file": { "path": "data/suppliers.csv" }, "format": "csv" },
//	    "continents":   { "kind": "file", "file": { "path": "data/continents.json" }, "format": "json" }
//	  },
//	  "reports": { "target_country": "France", "region_country": "United Kingdom",
//	               "region_label": "uk", "window": { "start": "2011-01-01", "end": "2012-01-01" } },
//	  "runtime": { "workers": 4, "aggregate_timeout": "30s", "empty_groups": "fail" },
//	  "outputs": { "parquet": "out/cleaned.parquet", "json": "out/semi_cleaned.json" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Pipeline is the top-level object decoded from a run configuration file.
type Pipeline struct {
	// Job names the run for metrics labels and log lines.
	Job string `json:"job"`

	Sources Sources       `json:"sources"`
	Reports Reports       `json:"reports"`
	Runtime RuntimeConfig `json:"runtime"`
	Outputs Outputs       `json:"outputs"`
	Metrics MetricsConfig `json:"metrics"`
	Log     LogConfig     `json:"log"`
}

// Sources lists the three inputs of a run.
type Sources struct {
	Transactions Source `json:"transactions"`
	Suppliers    Source `json:"suppliers"`
	Continents   Source `json:"continents"`
}

// Source identifies one input and how to parse it.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`

	// Format selects the parser: "xlsx", "csv" or "json". When empty it is
	// inferred from the file extension or the URL path.
	Format string `json:"format"`

	// Options is a free-form map interpreted by the parser. Typical keys:
	//   sheet (string, xlsx), comma (string, csv), trim_space (bool),
	//   header_map (object), encoding (string, csv: "auto" or a charset name)
	Options Options `json:"options"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	// Timeout bounds each request; zero means 30s.
	Timeout Duration `json:"timeout"`
	// MaxRetries is the number of retries after the first attempt on
	// network errors, 429 and 5xx.
	MaxRetries         int  `json:"max_retries"`
	InsecureSkipVerify bool `json:"insecure_skip_verify"`
}

// Location returns the path or URL path used to infer the format.
func (s Source) Location() string {
	if s.Kind == "http" {
		if u, err := url.Parse(s.HTTP.URL); err == nil {
			return u.Path
		}
		return s.HTTP.URL
	}
	return s.File.Path
}

// Reports parameterizes the country- and window-specific reports.
type Reports struct {
	// TargetCountry drives best_product_in_<country>.
	TargetCountry string `json:"target_country"`

	// RegionCountry and Window drive <region>_<year>_supplier_sales.
	RegionCountry string `json:"region_country"`
	// RegionLabel is the <region> slug; defaults to the lowercased country.
	RegionLabel string `json:"region_label"`
	Window      Window `json:"window"`

	// TopProducts is N for the top_products report; 0 disables it.
	TopProducts int `json:"top_products"`
}

// Window is a half-open interval [Start, End).
type Window struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Empty-group policies.
const (
	EmptyGroupsFail = "fail"
	EmptyGroupsOmit = "omit"
)

// RuntimeConfig controls the aggregation fan-out and failure policies.
type RuntimeConfig struct {
	Workers          int      `json:"workers"`
	AggregateTimeout Duration `json:"aggregate_timeout"`
	// EmptyGroups is "fail" (default) or "omit".
	EmptyGroups string `json:"empty_groups"`
	// StrictJoins turns duplicated reference keys into a join failure.
	StrictJoins bool `json:"strict_joins"`
	// TidyDescriptions strips markup tags and repeated whitespace from
	// product descriptions during cleaning.
	TidyDescriptions bool `json:"tidy_descriptions"`
}

// Outputs configures the exporters. Empty paths disable the file exporters
// and an empty storage kind disables the SQL sink.
type Outputs struct {
	Parquet string  `json:"parquet"`
	JSON    string  `json:"json"`
	Storage Storage `json:"storage"`
}

// Storage selects the relational sink for report tables.
type Storage struct {
	// Kind selects the storage implementation: "sqlite", "postgres",
	// "mssql" or "mysql".
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the driver connection string.
	DSN string `json:"dsn"`

	// TablePrefix is prepended to every report table name (e.g. "retail_").
	TablePrefix string `json:"table_prefix"`

	// AutoCreateTable creates missing tables before loading.
	AutoCreateTable bool `json:"auto_create_table"`

	// BatchSize is the number of rows per CopyFrom call.
	BatchSize int `json:"batch_size"`
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string   `json:"backend"`
	PushgatewayURL string   `json:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr"`
	Namespace      string   `json:"namespace"`
	Tags           []string `json:"tags"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // "console" or "json"
}

// Duration is a time.Duration that decodes from a Go duration string
// ("30s") or from a number of seconds.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Duration(time.Duration(x * float64(time.Second)))
	case string:
		if x == "" {
			*d = 0
			return nil
		}
		p, err := time.ParseDuration(x)
		if err != nil {
			return fmt.Errorf("duration %q: %w", x, err)
		}
		*d = Duration(p)
	default:
		return fmt.Errorf("duration: unsupported JSON value %s", string(b))
	}
	return nil
}

// DateLayout is the JSON layout of Date.
const DateLayout = "2006-01-02"

// Date is a calendar date (midnight UTC) written as "2006-01-02". A zero Date
// marshals as an empty string.
type Date struct {
	time.Time
}

// NewDate returns the Date for y-m-d.
func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns the provided default when
// a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so float64 is accepted and truncated.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. Used for single-character settings such as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		switch m := v.(type) {
		case map[string]any:
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		case map[string]string:
			for k, s := range m {
				res[k] = s
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON decodes a null "options" object to a non-nil, empty map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
