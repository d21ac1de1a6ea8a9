package pipeline

import (
	"runtime"
	"time"

	"retailetl/internal/aggregate"
	"retailetl/internal/config"
)

// Options parameterizes a run. Build it with FromConfig or DefaultOptions;
// zero numeric fields fall back to the package defaults.
type Options struct {
	Job string

	TargetCountry string
	RegionCountry string
	RegionLabel   string
	Window        aggregate.Window
	TopProducts   int

	Workers          int
	AggregateTimeout time.Duration
	// EmptyGroups is config.EmptyGroupsFail or config.EmptyGroupsOmit.
	EmptyGroups string
	StrictJoins bool
	// TidyDescriptions enables the description tidy step of the cleaner.
	TidyDescriptions bool
}

// FromConfig extracts the run options from a decoded pipeline file.
func FromConfig(p config.Pipeline) Options {
	return Options{
		Job:           p.Job,
		TargetCountry: p.Reports.TargetCountry,
		RegionCountry: p.Reports.RegionCountry,
		RegionLabel:   p.Reports.RegionLabel,
		Window: aggregate.Window{
			Start: p.Reports.Window.Start.Time,
			End:   p.Reports.Window.End.Time,
		},
		TopProducts:      p.Reports.TopProducts,
		Workers:          p.Runtime.Workers,
		AggregateTimeout: p.Runtime.AggregateTimeout.D(),
		EmptyGroups:      p.Runtime.EmptyGroups,
		StrictJoins:      p.Runtime.StrictJoins,
		TidyDescriptions: p.Runtime.TidyDescriptions,
	}
}

// DefaultOptions reproduces the reference run: France, the United Kingdom and
// calendar year 2011.
func DefaultOptions() Options {
	return FromConfig(config.Default())
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func (o Options) regionLabel() string {
	if o.RegionLabel != "" {
		return o.RegionLabel
	}
	return o.RegionCountry
}

func (o Options) omitEmpty() bool {
	return o.EmptyGroups == config.EmptyGroupsOmit
}
