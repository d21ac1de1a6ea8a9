// Package records defines the in-memory data model shared by every stage of
// the retail pipeline: loosely typed rows as they come out of a parser, and
// the typed transaction, reference, and enriched values the core operates on.
//
// All values are per-run. Stages never mutate a value they receive; they
// return new slices instead.
package records

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CanceledPrefix marks a canceled invoice identifier.
const CanceledPrefix = "C"

// UnknownDescription replaces a missing product description after cleaning.
const UnknownDescription = "Unknown"

// Record is a single parsed row keyed by canonical column name. Values are
// strings as read from the source, or nil for empty cells.
type Record map[string]any

// Table is a named, ordered set of parsed rows sharing one header.
type Table struct {
	// Name identifies the input, e.g. "transactions".
	Name string

	// Columns lists the canonical column names in source order.
	Columns []string

	Rows []Record

	// Skipped counts source rows the parser could not read.
	Skipped int
}

// HasColumn reports whether the table header contains name.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Transaction is one line of a retail invoice.
type Transaction struct {
	InvoiceNo   string
	StockCode   string
	Description *string
	Quantity    *int64
	UnitPrice   decimal.Decimal
	InvoiceDate time.Time
	CustomerID  *int64
	Country     string
}

// TotalAmount returns Quantity × UnitPrice. A missing quantity yields zero.
func (t Transaction) TotalAmount() decimal.Decimal {
	if t.Quantity == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(*t.Quantity).Mul(t.UnitPrice)
}

// Canceled reports whether the invoice identifier carries the cancellation
// marker.
func (t Transaction) Canceled() bool {
	return strings.HasPrefix(t.InvoiceNo, CanceledPrefix)
}

// Equal reports full-row equality: every field, including nullness, matches.
func (t Transaction) Equal(o Transaction) bool {
	return t.InvoiceNo == o.InvoiceNo &&
		t.StockCode == o.StockCode &&
		equalStr(t.Description, o.Description) &&
		equalInt(t.Quantity, o.Quantity) &&
		t.UnitPrice.Equal(o.UnitPrice) &&
		t.InvoiceDate.Equal(o.InvoiceDate) &&
		equalInt(t.CustomerID, o.CustomerID) &&
		t.Country == o.Country
}

// Batch is an ordered collection of transactions. Order is significant for
// deterministic tie-breaks.
type Batch []Transaction

// SupplierRow maps an invoice to the supplier that fulfilled it.
type SupplierRow struct {
	InvoiceNo string
	Supplier  string
}

// ContinentRow maps a country name to its continent.
type ContinentRow struct {
	Country   string
	Continent string
}

// Enriched is a transaction augmented with reference attributes. Supplier and
// Continent are nil when the join found no match.
type Enriched struct {
	Transaction
	Supplier  *string
	Continent *string
}

// Enrich lifts a batch into enriched rows with no reference attributes.
func Enrich(b Batch) []Enriched {
	out := make([]Enriched, len(b))
	for i, t := range b {
		out[i] = Enriched{Transaction: t}
	}
	return out
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string { return &s }

// Int64Ptr returns a pointer to a copy of n.
func Int64Ptr(n int64) *int64 { return &n }

func equalStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Slug lowercases s and replaces runs of spaces with underscores:
// "United Kingdom" becomes "united_kingdom".
func Slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}
