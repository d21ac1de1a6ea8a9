// Package ingest reads the three configured inputs of a run into parsed
// tables. It is the only place raw bytes are turned into records; every
// failure comes back as an *etlerr.LoadError naming the input.
package ingest

import (
	"context"
	"fmt"
	"time"

	"retailetl/internal/config"
	"retailetl/internal/datasource"
	"retailetl/internal/etlerr"
	"retailetl/internal/observe"
	"retailetl/internal/parser"
	pcsv "retailetl/internal/parser/csv"
	pjson "retailetl/internal/parser/json"
	"retailetl/internal/parser/xlsx"
	"retailetl/internal/pipeline"
	"retailetl/pkg/records"

	"golang.org/x/sync/errgroup"
)

// Input names, used as table names and in LoadError.Source.
const (
	Transactions = "transactions"
	Suppliers    = "suppliers"
	Continents   = "continents"
)

// NewParser returns the parser for src.Format, falling back to the file
// extension when the format is empty.
func NewParser(src config.Source) (parser.Parser, error) {
	format := src.Format
	if format == "" {
		format = config.FormatFromPath(src.Location())
	}
	switch format {
	case "xlsx":
		return xlsx.NewParser(xlsx.FromConfigOptions(src.Options)), nil
	case "csv":
		return pcsv.NewParser(pcsv.FromConfigOptions(src.Options)), nil
	case "json":
		return pjson.NewParser(pjson.FromConfigOptions(src.Options)), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Load reads the three inputs concurrently. The first failure cancels the
// other reads.
func Load(ctx context.Context, srcs config.Sources, obs observe.Observer) (pipeline.Input, error) {
	obs = observe.OrNop(obs)
	var in pipeline.Input

	g, gctx := errgroup.WithContext(ctx)
	for _, job := range []struct {
		name string
		src  config.Source
		dst  *records.Table
	}{
		{Transactions, srcs.Transactions, &in.Transactions},
		{Suppliers, srcs.Suppliers, &in.Suppliers},
		{Continents, srcs.Continents, &in.Continents},
	} {
		g.Go(func() error {
			start := time.Now()
			t, err := LoadOne(gctx, job.name, job.src)
			obs.Stage("load:"+job.name, time.Since(start), err)
			if err != nil {
				return err
			}
			obs.Count(job.name+"_rows", len(t.Rows))
			obs.Count(job.name+"_skipped", t.Skipped)
			*job.dst = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return pipeline.Input{}, err
	}
	return in, nil
}

// LoadOne opens and parses a single input.
func LoadOne(ctx context.Context, name string, src config.Source) (records.Table, error) {
	fail := func(err error) (records.Table, error) {
		return records.Table{}, &etlerr.LoadError{Source: name, Err: err}
	}

	p, err := NewParser(src)
	if err != nil {
		return fail(err)
	}
	ds, err := datasource.New(src)
	if err != nil {
		return fail(err)
	}
	rc, err := ds.Open(ctx)
	if err != nil {
		return fail(err)
	}
	defer rc.Close()

	t, err := p.Parse(ctx, rc)
	if err != nil {
		return fail(err)
	}
	t.Name = name
	return t, nil
}
