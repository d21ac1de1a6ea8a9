// Package join enriches transactions with supplier and continent attributes
// through left outer joins on normalized text keys.
//
// Every input row is kept. A key with no reference entry yields a nil
// attribute. A key with k > 1 reference entries expands the row into k rows,
// one per entry, and is reported by Index.Ambiguities.
package join

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"retailetl/internal/etlerr"
	"retailetl/pkg/records"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Reference names.
const (
	RefSuppliers  = "suppliers"
	RefContinents = "continents"
)

// Key normalizes a join key: non-breaking and other Unicode spaces become
// ASCII spaces, the text is composed to NFC, and surrounding space is trimmed.
func Key(s string) string {
	if isPlainASCII(s) {
		return strings.TrimSpace(s)
	}
	t := transform.Chain(runes.Map(func(r rune) rune {
		if r != ' ' && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Index is a reference table keyed by normalized key. Values for one key are
// kept in reference order.
type Index struct {
	Reference string
	values    map[string][]string
	keys      []string // first-appearance order
}

// NewIndex builds an index from parallel key/value pairs.
func NewIndex(reference string, n int, pair func(i int) (key, value string)) *Index {
	ix := &Index{Reference: reference, values: make(map[string][]string, n)}
	for i := 0; i < n; i++ {
		k, v := pair(i)
		k = Key(k)
		if _, ok := ix.values[k]; !ok {
			ix.keys = append(ix.keys, k)
		}
		ix.values[k] = append(ix.values[k], v)
	}
	return ix
}

// SupplierIndex indexes supplier rows by invoice number.
func SupplierIndex(rows []records.SupplierRow) *Index {
	return NewIndex(RefSuppliers, len(rows), func(i int) (string, string) {
		return rows[i].InvoiceNo, rows[i].Supplier
	})
}

// ContinentIndex indexes continent rows by country.
func ContinentIndex(rows []records.ContinentRow) *Index {
	return NewIndex(RefContinents, len(rows), func(i int) (string, string) {
		return rows[i].Country, rows[i].Continent
	})
}

// Lookup returns the values stored under key. key is normalized first.
func (ix *Index) Lookup(key string) []string {
	return ix.values[Key(key)]
}

// Len returns the number of distinct keys.
func (ix *Index) Len() int { return len(ix.keys) }

// Ambiguities lists every key with more than one entry, in first-appearance
// order.
func (ix *Index) Ambiguities() []*etlerr.JoinAmbiguity {
	var out []*etlerr.JoinAmbiguity
	for _, k := range ix.keys {
		if n := len(ix.values[k]); n > 1 {
			out = append(out, &etlerr.JoinAmbiguity{Reference: ix.Reference, Key: k, Count: n})
		}
	}
	return out
}

// Suppliers left-joins in against a supplier index on InvoiceNo.
func Suppliers(in []records.Enriched, ix *Index) []records.Enriched {
	return leftJoin(in, ix,
		func(e records.Enriched) string { return e.InvoiceNo },
		func(e *records.Enriched, v *string) { e.Supplier = v })
}

// Continents left-joins in against a continent index on Country.
func Continents(in []records.Enriched, ix *Index) []records.Enriched {
	return leftJoin(in, ix,
		func(e records.Enriched) string { return e.Country },
		func(e *records.Enriched, v *string) { e.Continent = v })
}

// Both enriches b with suppliers, then continents.
func Both(b records.Batch, suppliers, continents *Index) []records.Enriched {
	return Continents(Suppliers(records.Enrich(b), suppliers), continents)
}

func leftJoin(in []records.Enriched, ix *Index, key func(records.Enriched) string, set func(*records.Enriched, *string)) []records.Enriched {
	out := make([]records.Enriched, 0, len(in))
	for _, e := range in {
		vals := ix.Lookup(key(e))
		if len(vals) == 0 {
			set(&e, nil)
			out = append(out, e)
			continue
		}
		for _, v := range vals {
			row := e
			set(&row, records.StringPtr(v))
			out = append(out, row)
		}
	}
	return out
}
