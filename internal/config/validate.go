// This file adds a lightweight linter for Pipeline values. It performs static
// checks over a decoded Pipeline and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does
	// not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "sources.suppliers.file.path",
// "runtime.empty_groups"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of a Pipeline. Run it after
// WithDefaults; unset values that have defaults are not reported.
//
// Example:
//
//	p, err := config.Load(path)
//	if err != nil { ... }
//	for _, iss := range config.ValidatePipeline(p) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource("sources.transactions", p.Sources.Transactions)...)
	issues = append(issues, validateSource("sources.suppliers", p.Sources.Suppliers)...)
	issues = append(issues, validateSource("sources.continents", p.Sources.Continents)...)
	issues = append(issues, validateReports(p.Reports)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	issues = append(issues, validateOutputs(p.Outputs)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateLog(p.Log)...)

	return issues
}

func validateSource(path string, s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  path + ".kind must not be empty",
		})
	}
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		u, err := url.Parse(s.HTTP.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".http.url",
				Message:  fmt.Sprintf("http source requires an absolute http(s) URL, got %q", s.HTTP.URL),
			})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path + ".http.max_retries",
				Message:  "max_retries must be >= 0",
			})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".http.insecure_skip_verify",
				Message:  "TLS certificate verification is disabled",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown source kind %q; want \"file\" or \"http\"", s.Kind),
		})
	}

	switch s.Format {
	case "xlsx", "csv", "json":
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".format",
			Message:  "format is empty and cannot be inferred from the file extension",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".format",
			Message:  fmt.Sprintf("unknown format %q; want xlsx, csv or json", s.Format),
		})
	}

	if s.Format == "csv" {
		if enc := s.Options.String("encoding", ""); enc != "" && enc != "auto" && enc != "utf-8" &&
			enc != "windows-1252" && enc != "iso-8859-1" && enc != "utf-16le" && enc != "utf-16be" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path + ".options.encoding",
				Message:  fmt.Sprintf("unrecognized encoding %q; input will be treated as UTF-8", enc),
			})
		}
	}
	return issues
}

func validateReports(r Reports) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.TargetCountry) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "reports.target_country",
			Message:  "target_country must not be empty",
		})
	}
	if strings.TrimSpace(r.RegionCountry) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "reports.region_country",
			Message:  "region_country must not be empty",
		})
	}
	if strings.ContainsAny(r.RegionLabel, " \t/") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "reports.region_label",
			Message:  fmt.Sprintf("region_label %q contains spaces or slashes; report names will be awkward", r.RegionLabel),
		})
	}
	switch {
	case r.Window.Start.IsZero() || r.Window.End.IsZero():
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "reports.window",
			Message:  "window requires both start and end",
		})
	case !r.Window.End.After(r.Window.Start.Time):
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "reports.window",
			Message:  fmt.Sprintf("window end %s must be after start %s", r.Window.End.Format(DateLayout), r.Window.Start.Format(DateLayout)),
		})
	}
	if r.TopProducts < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "reports.top_products",
			Message:  "top_products must not be negative",
		})
	}
	return issues
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must not be negative",
		})
	}
	if r.AggregateTimeout < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.aggregate_timeout",
			Message:  "aggregate_timeout must not be negative",
		})
	}
	switch r.EmptyGroups {
	case EmptyGroupsFail, EmptyGroupsOmit:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.empty_groups",
			Message:  fmt.Sprintf("empty_groups=%q; want %q or %q", r.EmptyGroups, EmptyGroupsFail, EmptyGroupsOmit),
		})
	}
	return issues
}

func validateOutputs(o Outputs) []Issue {
	var issues []Issue

	if o.Parquet != "" && o.Parquet == o.JSON {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "outputs.json",
			Message:  "json and parquet outputs point to the same file",
		})
	}

	s := o.Storage
	if strings.TrimSpace(s.Kind) == "" {
		return issues
	}
	known := map[string]struct{}{
		"postgres": {},
		"mssql":    {},
		"mysql":    {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "outputs.storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "outputs.storage.db.dsn",
			Message:  "outputs.storage.db.dsn must not be empty",
		})
	}
	if s.DB.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "outputs.storage.db.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; every table will be loaded in a single batch", s.DB.BatchSize),
		})
	}
	if !s.DB.AutoCreateTable {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "outputs.storage.db.auto_create_table",
			Message:  "auto_create_table is false; report tables must already exist",
		})
	}
	return issues
}

func validateMetrics(m MetricsConfig) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, pushgateway or datadog", m.Backend),
		})
	}
	return issues
}

func validateLog(l LogConfig) []Issue {
	switch l.Format {
	case "", "console", "json":
		return nil
	}
	return []Issue{{
		Severity: SeverityWarning,
		Path:     "log.format",
		Message:  fmt.Sprintf("unknown log format %q; falling back to console", l.Format),
	}}
}
