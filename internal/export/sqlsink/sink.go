// Package sqlsink persists a pipeline bundle into a relational store through
// internal/storage. Every row-valued report gets its own table named
// <prefix><report>; the scalar reports share <prefix>report_values. Each row
// carries the run id, so successive runs append.
package sqlsink

import (
	"context"
	"fmt"
	"time"

	"retailetl/internal/config"
	"retailetl/internal/ddl"
	"retailetl/internal/logger"
	"retailetl/internal/metrics"
	"retailetl/internal/pipeline"
	"retailetl/internal/storage"

	"golang.org/x/sync/errgroup"
)

// Options configures a Sink.
type Options struct {
	Kind        string
	TablePrefix string
	AutoCreate  bool
	// BatchSize is the number of rows per CopyFrom call. Zero or less loads
	// each table in one batch.
	BatchSize int
}

// FromConfig maps the storage section of a pipeline config to Options.
func FromConfig(s config.Storage) Options {
	return Options{
		Kind:        s.Kind,
		TablePrefix: s.DB.TablePrefix,
		AutoCreate:  s.DB.AutoCreateTable,
		BatchSize:   s.DB.BatchSize,
	}
}

// Sink writes bundles into one Repository.
type Sink struct {
	repo storage.Repository
	opt  Options
}

// New returns a Sink over an already open repository.
func New(repo storage.Repository, opt Options) *Sink {
	return &Sink{repo: repo, opt: opt}
}

// Open opens the repository described by s and returns a Sink over it.
func Open(ctx context.Context, s config.Storage) (*Sink, error) {
	repo, err := storage.New(ctx, storage.Config{Kind: s.Kind, DSN: s.DB.DSN})
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", s.Kind, err)
	}
	return New(repo, FromConfig(s)), nil
}

// Close closes the underlying repository.
func (s *Sink) Close() { s.repo.Close() }

// Result maps each written table to its inserted row count.
type Result map[string]int64

// Write stores every report of b. Tables are written one after another; the
// first failure stops the write and names the table.
func (s *Sink) Write(ctx context.Context, b *pipeline.Bundle) (Result, error) {
	log := logger.FromContext(ctx)
	res := Result{}
	for _, t := range tables(b) {
		name := s.opt.TablePrefix + t.name
		start := time.Now()
		n, err := s.writeTable(ctx, b.Job, name, t)
		if err != nil {
			return res, fmt.Errorf("write table %s: %w", name, err)
		}
		res[name] = n
		metrics.RecordRow(b.Job, "stored", n)
		log.Info().Str("table", name).Int64("rows", n).Dur("took", time.Since(start)).Msg("sqlsink: table written")
	}
	return res, nil
}

func (s *Sink) writeTable(ctx context.Context, job, name string, t table) (int64, error) {
	td := ddl.TableDef{FQN: name, Columns: t.columns}
	if s.opt.AutoCreate {
		if err := storage.EnsureTable(ctx, s.opt.Kind, s.repo, td); err != nil {
			return 0, err
		}
	}
	if len(t.rows) == 0 {
		return 0, nil
	}

	size := s.opt.BatchSize
	if size <= 0 {
		size = len(t.rows)
	}
	batches := int64((len(t.rows) + size - 1) / size)

	g, gctx := errgroup.WithContext(ctx)
	in := make(chan []any, size)
	g.Go(func() error {
		defer close(in)
		for _, row := range t.rows {
			select {
			case in <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var n int64
	g.Go(func() error {
		var err error
		n, err = storage.LoadBatches(gctx, td.ColumnNames(), in, size, storage.TableCopyFn(s.repo, name))
		return err
	})
	if err := g.Wait(); err != nil {
		return n, err
	}
	metrics.RecordBatches(job, batches)
	return n, nil
}
