// Package pipeline runs the retail batch end to end: it checks the input
// contracts, decodes and cleans the transactions, enriches both partitions
// with the reference tables and fans the aggregations out to a bounded worker
// pool.
//
// A run is all-or-nothing. The first failure cancels the remaining work and
// Run returns a single *etlerr.PipelineError naming the stage; no partial
// Bundle is ever returned.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retailetl/internal/cleaner"
	"retailetl/internal/decode"
	"retailetl/internal/etlerr"
	"retailetl/internal/join"
	"retailetl/internal/observe"
	"retailetl/internal/schema"
	"retailetl/pkg/records"

	"github.com/google/uuid"
)

// Stage names used in PipelineError and observer events.
const (
	StageSchema    = "schema"
	StageDecode    = "decode"
	StageClean     = "clean"
	StageJoin      = "join"
	StageAggregate = "aggregate"
	StageBundle    = "bundle"
)

// Input holds the three parsed tables of a run.
type Input struct {
	Transactions records.Table
	Suppliers    records.Table
	Continents   records.Table
}

// Run executes the pipeline over in. obs may be nil.
func Run(ctx context.Context, in Input, opts Options, obs observe.Observer) (*Bundle, error) {
	obs = observe.OrNop(obs)
	r := &run{
		opts: opts,
		obs:  obs,
		b: &Bundle{
			RunID:     uuid.New(),
			Job:       opts.Job,
			StartedAt: time.Now(),
			Options:   opts,
		},
	}
	if err := r.execute(ctx, in); err != nil {
		obs.Fail(err)
		return nil, err
	}
	r.b.Duration = time.Since(r.b.StartedAt)
	return r.b, nil
}

type run struct {
	opts Options
	obs  observe.Observer
	b    *Bundle

	txCols, supCols, contCols schema.Resolved
	batch                     records.Batch
	suppliers                 []records.SupplierRow
	continents                []records.ContinentRow
	cleaned                   cleaner.Result
}

func (r *run) execute(ctx context.Context, in Input) error {
	steps := []struct {
		stage string
		fn    func(context.Context) error
	}{
		{StageSchema, func(context.Context) error { return r.checkSchema(in) }},
		{StageDecode, func(context.Context) error { return r.decode(in) }},
		{StageClean, func(context.Context) error { return r.clean() }},
		{StageJoin, func(context.Context) error { return r.join() }},
		{StageAggregate, r.aggregate},
		{StageBundle, func(context.Context) error { return r.finish() }},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return &etlerr.PipelineError{Stage: s.stage, Err: err}
		}
		if err := s.fn(ctx); err != nil {
			var pe *etlerr.PipelineError
			if errors.As(err, &pe) {
				return pe
			}
			return &etlerr.PipelineError{Stage: s.stage, Err: err}
		}
	}
	return nil
}

// timed reports fn's duration and outcome as stage name.
func (r *run) timed(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.obs.Stage(name, time.Since(start), err)
	return err
}

func (r *run) checkSchema(in Input) error {
	return r.timed(StageSchema, func() error {
		var err error
		if r.txCols, err = schema.Check(in.Transactions, schema.Transactions); err != nil {
			return err
		}
		if r.supCols, err = schema.Check(in.Suppliers, schema.Suppliers); err != nil {
			return err
		}
		r.contCols, err = schema.Check(in.Continents, schema.Continents)
		return err
	})
}

func (r *run) decode(in Input) error {
	return r.timed(StageDecode, func() error {
		r.batch, r.b.Stats.Transactions = decode.Transactions(in.Transactions, r.txCols, r.obs)
		r.suppliers, r.b.Stats.Suppliers = decode.Suppliers(in.Suppliers, r.supCols)
		r.continents, r.b.Stats.Continents = decode.Continents(in.Continents, r.contCols)
		return nil
	})
}

func (r *run) clean() error {
	r.cleaned = cleaner.Cleaner{TidyDescriptions: r.opts.TidyDescriptions}.Clean(r.batch, r.obs)
	r.b.Stats.Clean = r.cleaned.Stats
	return nil
}

func (r *run) join() error {
	return r.timed(StageJoin, func() error {
		sup := join.SupplierIndex(r.suppliers)
		cont := join.ContinentIndex(r.continents)

		var ambiguous []error
		for _, ix := range []*join.Index{sup, cont} {
			for _, a := range ix.Ambiguities() {
				ambiguous = append(ambiguous, a)
			}
		}
		r.b.Stats.JoinWarnings = len(ambiguous)
		if len(ambiguous) > 0 && r.opts.StrictJoins {
			return errors.Join(ambiguous...)
		}
		for _, a := range ambiguous {
			r.obs.Warn(a)
		}

		r.b.CleanedData = join.Both(r.cleaned.Valid, sup, cont)
		r.b.Canceled = join.Both(r.cleaned.Canceled, sup, cont)
		r.b.SemiCleaned = join.Suppliers(join.Continents(records.Enrich(cleaner.Deduplicate(r.batch)), cont), sup)
		r.obs.Count("enriched_valid", len(r.b.CleanedData))
		r.obs.Count("enriched_canceled", len(r.b.Canceled))
		return nil
	})
}

func (r *run) finish() error {
	if r.b.CleanedData == nil {
		r.b.CleanedData = []records.Enriched{}
	}
	r.obs.Count("omitted_reports", len(r.b.Stats.Omitted))
	return nil
}

// errStage attaches a sub-stage to an error so execute keeps the most
// specific name, e.g. "aggregate:country_sales".
func errStage(stage, sub string, err error) error {
	return &etlerr.PipelineError{Stage: fmt.Sprintf("%s:%s", stage, sub), Err: err}
}
