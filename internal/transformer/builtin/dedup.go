// Package builtin contains the transformers the cleaner is assembled from.
//
// DeDup removes rows that are exact duplicates of another row in the batch.
// Two rows are duplicates when every field matches, nullness included;
// rows that share only a business key (same invoice and stock code, say) are
// kept. The winner among duplicates is selected by policy:
//
//   - "keep-first": keep the earliest occurrence (default)
//   - "keep-last" : keep the latest occurrence
//
// Survivors keep their relative input order. Rows are bucketed by an xxh3
// hash of a canonical encoding and then compared field by field, so hash
// collisions never merge distinct rows.
package builtin

import (
	"strconv"
	"strings"

	"retailetl/pkg/records"

	"github.com/zeebo/xxh3"
)

// Dedup policies.
const (
	KeepFirst = "keep-first"
	KeepLast  = "keep-last"
)

// DeDup implements full-row, in-memory de-duplication.
type DeDup struct {
	// Policy selects the winner among duplicates: "keep-first" (default) or
	// "keep-last".
	Policy string
}

// Apply returns a new batch with duplicates removed.
func (d DeDup) Apply(in records.Batch) records.Batch {
	if strings.ToLower(strings.TrimSpace(d.Policy)) == KeepLast {
		return reverse(keepFirst(reverse(in)))
	}
	return keepFirst(in)
}

func keepFirst(in records.Batch) records.Batch {
	out := make(records.Batch, 0, len(in))
	seen := make(map[uint64][]int, len(in)) // hash -> positions in out
	var buf []byte
	for _, t := range in {
		buf = AppendCanonical(buf[:0], t)
		h := xxh3.Hash(buf)

		dup := false
		for _, j := range seen[h] {
			if out[j].Equal(t) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], len(out))
		out = append(out, t)
	}
	return out
}

func reverse(in records.Batch) records.Batch {
	out := make(records.Batch, len(in))
	for i, t := range in {
		out[len(in)-1-i] = t
	}
	return out
}

// AppendCanonical appends a byte encoding of t to dst in which equal rows
// (per Transaction.Equal) encode identically. Decimals are normalized, so
// 2.50 and 2.5 encode the same.
func AppendCanonical(dst []byte, t records.Transaction) []byte {
	const sep = '\x1f'
	dst = append(dst, t.InvoiceNo...)
	dst = append(dst, sep)
	dst = append(dst, t.StockCode...)
	dst = append(dst, sep)
	dst = appendOptString(dst, t.Description)
	dst = append(dst, sep)
	dst = appendOptInt(dst, t.Quantity)
	dst = append(dst, sep)
	dst = append(dst, t.UnitPrice.String()...)
	dst = append(dst, sep)
	dst = strconv.AppendInt(dst, t.InvoiceDate.UnixNano(), 10)
	dst = append(dst, sep)
	dst = appendOptInt(dst, t.CustomerID)
	dst = append(dst, sep)
	dst = append(dst, t.Country...)
	return dst
}

func appendOptString(dst []byte, s *string) []byte {
	if s == nil {
		return append(dst, '\x00')
	}
	dst = append(dst, '\x01')
	return append(dst, *s...)
}

func appendOptInt(dst []byte, n *int64) []byte {
	if n == nil {
		return append(dst, '\x00')
	}
	dst = append(dst, '\x01')
	return strconv.AppendInt(dst, *n, 10)
}
