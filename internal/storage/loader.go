package storage

import (
	"context"
	"fmt"
	"time"

	"retailetl/internal/logger"
)

// CopyFn inserts one batch aligned to columns and returns the number of rows
// reported as inserted. It is called repeatedly and should honor ctx.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// TableCopyFn binds repo.CopyFrom to a single table.
func TableCopyFn(repo Repository, table string) CopyFn {
	return func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		return repo.CopyFrom(ctx, table, columns, rows)
	}
}

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn for each non-empty batch. It returns the total reported by
// copyFn and the first error encountered, or ctx.Err() when canceled.
//
// A debug progress line is logged on every successful flush through the
// logger carried by ctx.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	log := logger.FromContext(ctx)
	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		// A new slice per batch: copyFn may retain the one it was given.
		batch = make([][]any, 0, batchSize)
		if err != nil {
			log.Error().Err(err).Int64("inserted", n).Int64("total", total).Msg("loader: copy failed")
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		log.Debug().
			Int64("batch", batches).
			Float64("rps", rps).
			Int64("inserted", n).
			Int64("total_inserted", total).
			Dur("elapsed", now.Sub(start)).
			Msg("loader: batch flushed")
		lastFlushTS = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
