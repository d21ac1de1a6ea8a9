package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"retailetl/internal/config"
	"retailetl/internal/etlerr"
	"retailetl/internal/export/jsondump"
	"retailetl/internal/export/parquet"
	"retailetl/internal/export/sqlsink"
	"retailetl/internal/ingest"
	"retailetl/internal/logger"
	"retailetl/internal/metrics"
	"retailetl/internal/metrics/datadog"
	"retailetl/internal/metrics/prompush"
	"retailetl/internal/observe"
	"retailetl/internal/pipeline"

	"github.com/rs/zerolog"

	// register all backends with the storage factory.
	_ "retailetl/internal/storage/all"
)

type flags struct {
	cfgPath        string
	envFile        string
	validate       bool
	verbose        bool
	metricsBackend string
	pushgatewayURL string
	parquetPath    string
	jsonPath       string
	summary        bool
}

// run is main without the process exit, so tests can drive it.
func run(ctx context.Context, f flags, stdout, stderr io.Writer) int {
	if err := config.LoadDotEnv(f.envFile); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	p, err := config.Load(f.cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	p = f.apply(p)

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintf(stderr, "configuration is invalid: %s\n", f.cfgPath)
		return 1
	}
	if f.validate {
		fmt.Fprintf(stderr, "configuration is valid: %s\n", f.cfgPath)
		return 0
	}

	log := newLogger(p.Log, stderr)
	ctx = logger.WithContext(ctx, log)

	flush := setupMetrics(p, log)
	defer flush()

	obs := observe.Multi{observe.Log{L: log}, observe.Metrics{Job: p.Job}}
	start := time.Now()

	in, err := ingest.Load(ctx, p.Sources, obs)
	if err != nil {
		obs.Fail(&etlerr.PipelineError{Stage: "load", Err: err})
		return 1
	}
	b, err := pipeline.Run(ctx, in, pipeline.FromConfig(p), obs)
	if err != nil {
		// Run already reported the failure.
		return 1
	}
	if err := export(ctx, p.Outputs, b); err != nil {
		obs.Fail(&etlerr.PipelineError{Stage: "export", Err: err})
		return 1
	}

	if f.summary {
		writeSummary(stdout, b)
	}
	log.Info().
		Str("run_id", b.RunID.String()).
		Int("valid", b.Stats.Clean.Valid).
		Int("canceled", b.Stats.Clean.Canceled).
		Dur("took", time.Since(start)).
		Msg("run completed")
	return 0
}

// apply lets non-empty flags override the file.
func (f flags) apply(p config.Pipeline) config.Pipeline {
	if f.verbose {
		p.Log.Level = "debug"
	}
	if f.metricsBackend != "" {
		p.Metrics.Backend = f.metricsBackend
	}
	if f.pushgatewayURL != "" {
		p.Metrics.PushgatewayURL = f.pushgatewayURL
	}
	if f.parquetPath != "" {
		p.Outputs.Parquet = f.parquetPath
	}
	if f.jsonPath != "" {
		p.Outputs.JSON = f.jsonPath
	}
	return p
}

func newLogger(c config.LogConfig, w io.Writer) zerolog.Logger {
	if c.Format == "json" {
		return logger.NewJSON(w, c.Level)
	}
	return logger.NewWithWriter(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}, c.Level)
}

// setupMetrics installs the configured backend and returns its flush func.
// A backend that fails to initialize leaves metrics disabled.
func setupMetrics(p config.Pipeline, log zerolog.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch p.Metrics.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  p.Metrics.Namespace,
			Job:        p.Job,
			GlobalTags: p.Metrics.Tags,
		})
	case "", "none":
		log.Debug().Msg("metrics: disabled")
		return func() {}
	default:
		log.Warn().Str("backend", p.Metrics.Backend).Msg("metrics: unknown backend; metrics disabled")
		return func() {}
	}
	if err != nil {
		log.Warn().Err(err).Str("backend", p.Metrics.Backend).Msg("metrics: init failed; using nop")
		return func() {}
	}
	metrics.SetBackend(b)
	log.Debug().Str("backend", p.Metrics.Backend).Str("job", p.Job).Msg("metrics: enabled")
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("metrics: flush error")
		}
		if c, ok := b.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}

// export writes every configured output. The first failure stops the rest.
func export(ctx context.Context, o config.Outputs, b *pipeline.Bundle) error {
	log := logger.FromContext(ctx)
	if o.Parquet != "" {
		if err := parquet.WriteFile(ctx, o.Parquet, b.CleanedData); err != nil {
			return fmt.Errorf("parquet export: %w", err)
		}
		log.Info().Str("path", o.Parquet).Int("rows", len(b.CleanedData)).Msg("parquet written")
	}
	if o.JSON != "" {
		if err := jsondump.WriteFile(ctx, o.JSON, b.SemiCleaned); err != nil {
			return fmt.Errorf("json export: %w", err)
		}
		log.Info().Str("path", o.JSON).Int("rows", len(b.SemiCleaned)).Msg("json written")
	}
	if o.Storage.Kind != "" {
		sink, err := sqlsink.Open(ctx, o.Storage)
		if err != nil {
			return err
		}
		defer sink.Close()
		if _, err := sink.Write(ctx, b); err != nil {
			return fmt.Errorf("sql export: %w", err)
		}
	}
	return nil
}
