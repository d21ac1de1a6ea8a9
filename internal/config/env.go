package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "RETAIL"

// Env holds optional overrides read from RETAIL_* variables.
type Env struct {
	Job              string        `envconfig:"JOB"`
	Workers          int           `envconfig:"WORKERS"`
	AggregateTimeout time.Duration `envconfig:"AGGREGATE_TIMEOUT"`
	StrictJoins      bool          `envconfig:"STRICT_JOINS"`
	LogLevel         string        `envconfig:"LOG_LEVEL"`
	LogFormat        string        `envconfig:"LOG_FORMAT"`
	MetricsBackend   string        `envconfig:"METRICS_BACKEND"`
	PushgatewayURL   string        `envconfig:"PUSHGATEWAY_URL"`
	DatadogAddr      string        `envconfig:"DATADOG_ADDR"`
	StorageDSN       string        `envconfig:"STORAGE_DSN"`
}

// ReadEnv processes RETAIL_* variables.
func ReadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return Env{}, fmt.Errorf("failed to process env: %w", err)
	}
	return e, nil
}

// Apply fills zero-valued settings of p from e. Values set in the file win,
// except StrictJoins which can only be switched on.
func (e Env) Apply(p Pipeline) Pipeline {
	if p.Job == "" {
		p.Job = e.Job
	}
	if p.Runtime.Workers <= 0 {
		p.Runtime.Workers = e.Workers
	}
	if p.Runtime.AggregateTimeout == 0 {
		p.Runtime.AggregateTimeout = Duration(e.AggregateTimeout)
	}
	p.Runtime.StrictJoins = p.Runtime.StrictJoins || e.StrictJoins
	if p.Log.Level == "" {
		p.Log.Level = e.LogLevel
	}
	if p.Log.Format == "" {
		p.Log.Format = e.LogFormat
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = e.MetricsBackend
	}
	if p.Metrics.PushgatewayURL == "" {
		p.Metrics.PushgatewayURL = e.PushgatewayURL
	}
	if p.Metrics.DatadogAddr == "" {
		p.Metrics.DatadogAddr = e.DatadogAddr
	}
	if p.Outputs.Storage.DB.DSN == "" {
		p.Outputs.Storage.DB.DSN = e.StorageDSN
	}
	return p
}

// LoadDotEnv copies KEY=VALUE lines from path into the process environment
// so ReadEnv sees them. Variables already set are left alone. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
