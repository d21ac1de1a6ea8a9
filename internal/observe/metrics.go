package observe

import (
	"errors"
	"time"

	"retailetl/internal/etlerr"
	"retailetl/internal/metrics"
)

// Metrics forwards events to the process-wide metrics backend under Job.
type Metrics struct {
	Job string
}

func (o Metrics) Stage(name string, d time.Duration, err error) {
	metrics.RecordStep(o.Job, name, err, d)
}

func (o Metrics) Count(kind string, n int) {
	metrics.RecordRow(o.Job, kind, int64(n))
}

func (o Metrics) Warn(err error) {
	metrics.RecordWarning(o.Job, Kind(err))
}

func (o Metrics) Fail(err error) {
	metrics.RecordStep(o.Job, "run", err, 0)
}

// Kind classifies err into a short label for logs and metrics.
func Kind(err error) string {
	var (
		le *etlerr.LoadError
		se *etlerr.SchemaError
		re *etlerr.RowError
	)
	switch {
	case errors.Is(err, etlerr.ErrJoinAmbiguity):
		return "join_ambiguity"
	case errors.Is(err, etlerr.ErrEmptyGroup):
		return "empty_group"
	case errors.As(err, &se):
		return "schema"
	case errors.As(err, &le):
		return "load"
	case errors.As(err, &re):
		return "decode"
	default:
		return "other"
	}
}
