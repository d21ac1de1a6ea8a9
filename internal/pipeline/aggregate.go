package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"retailetl/internal/aggregate"
	"retailetl/internal/etlerr"

	"golang.org/x/sync/errgroup"
)

// task is one independent aggregation. fn writes its result into the bundle
// field it owns; no two tasks share a field.
type task struct {
	name string
	fn   func(ctx context.Context) error
}

// buildTasks is a test seam. In production it returns the report set below.
var buildTasks = reportTasks

func reportTasks(b *Bundle) []task {
	valid, canceled, o := b.CleanedData, b.Canceled, b.Options
	tasks := []task{
		{aggregate.ReportCountrySales, func(ctx context.Context) (err error) {
			b.CountrySales, err = aggregate.CountrySales(ctx, valid)
			return err
		}},
		{aggregate.ReportMonthlyStats, func(ctx context.Context) (err error) {
			b.MonthlyStats, err = aggregate.MonthlyStats(ctx, valid)
			return err
		}},
		{b.BestProductName(), func(ctx context.Context) error {
			v, err := aggregate.BestProduct(ctx, valid, o.TargetCountry)
			if err == nil {
				b.BestProduct = &v
			}
			return err
		}},
		{aggregate.ReportBusiestHour, func(ctx context.Context) error {
			v, err := aggregate.BusiestHour(ctx, valid)
			if err == nil {
				b.BusiestHour = &v
			}
			return err
		}},
		{aggregate.ReportSupplierSales, func(ctx context.Context) (err error) {
			b.SupplierSales, err = aggregate.SupplierRanking(ctx, valid)
			return err
		}},
		{b.RegionalSuppliersName(), func(ctx context.Context) (err error) {
			b.RegionalSupplierSales, err = aggregate.RegionalSupplierRanking(ctx, valid, o.RegionCountry, o.Window)
			return err
		}},
		{aggregate.ReportContinentSales, func(ctx context.Context) (err error) {
			b.ContinentSales, err = aggregate.ContinentSales(ctx, valid)
			return err
		}},
		{aggregate.ReportMostCanceled, func(ctx context.Context) error {
			v, err := aggregate.MostCanceledContinent(ctx, canceled)
			if err == nil {
				b.MostCanceled = &v
			}
			return err
		}},
	}
	if o.TopProducts > 0 {
		tasks = append(tasks, task{aggregate.ReportTopProducts, func(ctx context.Context) (err error) {
			b.TopProducts, err = aggregate.TopProducts(ctx, valid, o.TopProducts)
			return err
		}})
	}
	return tasks
}

// aggregate runs every report on a pool of at most opts.workers() goroutines.
// The first failing task cancels the others.
func (r *run) aggregate(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.workers())

	var mu sync.Mutex
	for _, t := range buildTasks(r.b) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errStage(StageAggregate, t.name, err)
			}
			err := r.runTask(gctx, t)
			if r.omittable(err) {
				r.obs.Warn(err)
				mu.Lock()
				r.b.Stats.Omitted = append(r.b.Stats.Omitted, t.name)
				mu.Unlock()
				return nil
			}
			if err != nil {
				return errStage(StageAggregate, t.name, err)
			}
			return nil
		})
	}
	err := g.Wait()
	r.obs.Stage(StageAggregate, time.Since(start), err)
	if err != nil {
		return err
	}
	sort.Strings(r.b.Stats.Omitted)
	return nil
}

func (r *run) runTask(parent context.Context, t task) error {
	ctx := parent
	timeout := r.opts.AggregateTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}
	start := time.Now()
	err := t.fn(ctx)
	if err == nil {
		// A task that ignored its context still counts as late.
		err = ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		err = fmt.Errorf("exceeded aggregate timeout %s: %w", timeout, err)
	}
	stageErr := err
	if r.omittable(err) {
		stageErr = nil
	}
	r.obs.Stage(StageAggregate+":"+t.name, time.Since(start), stageErr)
	return err
}

// omittable reports whether err is an empty group the omit policy absorbs.
func (r *run) omittable(err error) bool {
	var eg *etlerr.EmptyGroupError
	return err != nil && r.opts.omitEmpty() && errors.As(err, &eg)
}
