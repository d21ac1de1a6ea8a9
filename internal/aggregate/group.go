package aggregate

import (
	"context"

	"github.com/shopspring/decimal"
)

// checkEvery is how many rows are scanned between context checks.
const checkEvery = 4096

// group accumulates totals and counts per key, remembering the order in
// which keys first appeared.
type group[K comparable] struct {
	keys   []K
	index  map[K]int
	totals []decimal.Decimal
	counts []int
}

func newGroup[K comparable]() *group[K] {
	return &group[K]{index: make(map[K]int)}
}

func (g *group[K]) add(k K, amount decimal.Decimal) {
	i, ok := g.index[k]
	if !ok {
		i = len(g.keys)
		g.index[k] = i
		g.keys = append(g.keys, k)
		g.totals = append(g.totals, decimal.Zero)
		g.counts = append(g.counts, 0)
	}
	g.totals[i] = g.totals[i].Add(amount)
	g.counts[i]++
}

func (g *group[K]) len() int { return len(g.keys) }

// argMaxTotal returns the position of the largest total. Ties go to the key
// that appeared first. ok is false for an empty group.
func (g *group[K]) argMaxTotal() (int, bool) {
	if len(g.keys) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(g.keys); i++ {
		if g.totals[i].GreaterThan(g.totals[best]) {
			best = i
		}
	}
	return best, true
}

// argMaxCount is argMaxTotal over row counts.
func (g *group[K]) argMaxCount() (int, bool) {
	if len(g.keys) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(g.keys); i++ {
		if g.counts[i] > g.counts[best] {
			best = i
		}
	}
	return best, true
}

// scan calls fn for each index in [0, n), checking ctx every checkEvery rows.
func scan(ctx context.Context, n int, fn func(i int)) error {
	for i := 0; i < n; i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		fn(i)
	}
	return ctx.Err()
}
