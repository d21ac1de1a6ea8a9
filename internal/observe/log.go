package observe

import (
	"time"

	"github.com/rs/zerolog"
)

// Log writes every event to a zerolog logger. Stage and Count events go out
// at debug, failed stages included, so Fail is the only error-level line of
// a run.
type Log struct {
	L zerolog.Logger
}

func (o Log) Stage(name string, d time.Duration, err error) {
	ev := o.L.Debug().Str("stage", name).Dur("elapsed", d)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("stage finished")
}

func (o Log) Count(kind string, n int) {
	o.L.Debug().Str("kind", kind).Int("rows", n).Msg("rows")
}

func (o Log) Warn(err error) {
	o.L.Warn().Str("kind", Kind(err)).Err(err).Msg("warning")
}

func (o Log) Fail(err error) {
	o.L.Error().Err(err).Msg("run failed")
}
