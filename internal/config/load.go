package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"retailetl/pkg/records"
)

// Default values for a run that does not override them.
const (
	DefaultTargetCountry    = "France"
	DefaultRegionCountry    = "United Kingdom"
	DefaultRegionLabel      = "uk"
	DefaultAggregateTimeout = 30 * time.Second
	DefaultTopProducts      = 10
	DefaultBatchSize        = 5000
)

// Default returns a configuration with every report parameter set to the
// reference values: best product in France and United Kingdom supplier sales
// over calendar year 2011. Sources and outputs are left empty.
func Default() Pipeline {
	return Pipeline{
		Job: "retailetl",
		Reports: Reports{
			TargetCountry: DefaultTargetCountry,
			RegionCountry: DefaultRegionCountry,
			RegionLabel:   DefaultRegionLabel,
			Window: Window{
				Start: NewDate(2011, time.January, 1),
				End:   NewDate(2012, time.January, 1),
			},
			TopProducts: DefaultTopProducts,
		},
		Runtime: RuntimeConfig{
			Workers:          runtime.NumCPU(),
			AggregateTimeout: Duration(DefaultAggregateTimeout),
			EmptyGroups:      EmptyGroupsFail,
		},
		Metrics: MetricsConfig{Backend: "none"},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// Decode reads a Pipeline from r, rejecting unknown fields. No defaults are
// applied.
func Decode(r io.Reader) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode config: %w", err)
	}
	return p, nil
}

// Load decodes the file at path, then fills unset values from RETAIL_*
// environment variables and finally from Default.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return Pipeline{}, err
	}
	env, err := ReadEnv()
	if err != nil {
		return Pipeline{}, err
	}
	return WithDefaults(env.Apply(p)), nil
}

// WithDefaults returns p with zero-valued settings taken from Default. Values
// already set in p win.
func WithDefaults(p Pipeline) Pipeline {
	d := Default()

	p.Job = pickString(p.Job, d.Job)
	p.Reports.TargetCountry = pickString(p.Reports.TargetCountry, d.Reports.TargetCountry)
	if p.Reports.RegionCountry == "" {
		p.Reports.RegionCountry = d.Reports.RegionCountry
		p.Reports.RegionLabel = pickString(p.Reports.RegionLabel, d.Reports.RegionLabel)
	}
	if p.Reports.RegionLabel == "" {
		p.Reports.RegionLabel = records.Slug(p.Reports.RegionCountry)
	}
	if p.Reports.Window.Start.IsZero() && p.Reports.Window.End.IsZero() {
		p.Reports.Window = d.Reports.Window
	}

	p.Runtime.Workers = pickInt(p.Runtime.Workers, d.Runtime.Workers)
	if p.Runtime.AggregateTimeout == 0 {
		p.Runtime.AggregateTimeout = d.Runtime.AggregateTimeout
	}
	p.Runtime.EmptyGroups = pickString(p.Runtime.EmptyGroups, d.Runtime.EmptyGroups)

	p.Outputs.Storage.DB.BatchSize = pickInt(p.Outputs.Storage.DB.BatchSize, DefaultBatchSize)
	p.Metrics.Backend = pickString(p.Metrics.Backend, d.Metrics.Backend)
	p.Log.Level = pickString(p.Log.Level, d.Log.Level)
	p.Log.Format = pickString(p.Log.Format, d.Log.Format)

	for _, s := range []*Source{&p.Sources.Transactions, &p.Sources.Suppliers, &p.Sources.Continents} {
		s.Kind = pickString(s.Kind, "file")
		if s.Format == "" {
			s.Format = FormatFromPath(s.Location())
		}
		if s.Options == nil {
			s.Options = Options{}
		}
	}
	return p
}

// FormatFromPath infers the parser kind from a file extension.
func FormatFromPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xlsm"):
		return "xlsx"
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"):
		return "csv"
	case strings.HasSuffix(lower, ".json"):
		return "json"
	}
	return ""
}

func pickString(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func pickInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
