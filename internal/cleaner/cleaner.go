// Package cleaner turns a raw transaction batch into the valid and canceled
// partitions. The steps run in a fixed order: full-row de-duplication on the
// raw values, the missing-value policy, then the cancellation partition.
package cleaner

import (
	"time"

	"retailetl/internal/observe"
	"retailetl/internal/transformer"
	"retailetl/internal/transformer/builtin"
	"retailetl/pkg/records"
)

// Stats counts rows at each step. Input = Duplicates + MissingDropped +
// Valid + Canceled.
type Stats struct {
	Input          int
	Duplicates     int
	MissingDropped int
	Valid          int
	Canceled       int
}

// Result is the output of Clean.
type Result struct {
	Valid    records.Batch
	Canceled records.Batch
	Stats    Stats
}

// Cleaner holds the configurable parts of the cleaning steps. The zero value
// keeps first duplicates and fills missing descriptions with "Unknown".
type Cleaner struct {
	DedupPolicy string
	// Unknown replaces a missing description; empty means records.UnknownDescription.
	Unknown string
	// TidyDescriptions strips markup and extra whitespace from descriptions
	// after the missing-value policy.
	TidyDescriptions bool
}

// Clean runs the cleaner with default settings.
func Clean(in records.Batch, obs observe.Observer) Result {
	return Cleaner{}.Clean(in, obs)
}

// Clean deduplicates, applies the missing-value policy and partitions in.
// It never modifies in.
func (c Cleaner) Clean(in records.Batch, obs observe.Observer) Result {
	obs = observe.OrNop(obs)
	start := time.Now()

	unknown := c.Unknown
	if unknown == "" {
		unknown = records.UnknownDescription
	}

	deduped := builtin.DeDup{Policy: c.DedupPolicy}.Apply(in)
	steps := transformer.Chain{
		builtin.Require{Fields: []string{builtin.FieldCustomerID, builtin.FieldQuantity}},
		builtin.FillDescription{Value: unknown},
	}
	if c.TidyDescriptions {
		steps = append(steps, builtin.TidyDescription{Empty: unknown})
	}
	complete := steps.Apply(deduped)
	canceled, valid := builtin.Partition(complete, records.Transaction.Canceled)

	st := Stats{
		Input:          len(in),
		Duplicates:     len(in) - len(deduped),
		MissingDropped: len(deduped) - len(complete),
		Valid:          len(valid),
		Canceled:       len(canceled),
	}
	obs.Count("input", st.Input)
	obs.Count("duplicates_removed", st.Duplicates)
	obs.Count("missing_dropped", st.MissingDropped)
	obs.Count("valid", st.Valid)
	obs.Count("canceled", st.Canceled)
	obs.Stage("clean", time.Since(start), nil)

	return Result{Valid: valid, Canceled: canceled, Stats: st}
}

// Deduplicate applies only the de-duplication step. The semi-cleaned JSON
// export is built from its output.
func Deduplicate(in records.Batch) records.Batch {
	return builtin.DeDup{}.Apply(in)
}
