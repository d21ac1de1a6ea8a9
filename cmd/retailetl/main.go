package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
)

// main loads the run configuration, executes the pipeline and writes the
// configured outputs. It exits non-zero on any failure.
func main() {
	var f flags
	flag.StringVar(&f.cfgPath, "config", "configs/retail.json", "run config JSON path")
	flag.StringVar(&f.envFile, "env-file", ".env", "dotenv file with RETAIL_* overrides; ignored when missing")
	flag.BoolVar(&f.validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&f.verbose, "v", false, "enable debug logs")
	flag.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend (none, pushgateway, datadog); overrides config")
	flag.StringVar(&f.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL; overrides config")
	flag.StringVar(&f.parquetPath, "parquet", "", "write cleaned_data as Parquet to this path; overrides config")
	flag.StringVar(&f.jsonPath, "json", "", "write the semi-cleaned JSON dump to this path; overrides config")
	flag.BoolVar(&f.summary, "summary", true, "print a report summary table on stdout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, f, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
