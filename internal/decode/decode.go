// Package decode turns loosely typed parsed tables into the typed values the
// core operates on. Columns are located through a schema.Resolved mapping, so
// callers check the contract first.
//
// Nullable integers (Quantity, CustomerID) that cannot be parsed decode to
// nil and are dropped later by the cleaner. A row whose InvoiceDate or
// UnitPrice cannot be parsed is rejected here.
package decode

import (
	"strings"

	"retailetl/internal/etlerr"
	"retailetl/internal/observe"
	"retailetl/internal/schema"
	"retailetl/pkg/records"
)

// MaxReported caps the per-row warnings sent to the observer for one table.
// Rejections beyond the cap are only counted.
const MaxReported = 20

// Stats summarizes one decode call.
type Stats struct {
	Rows     int
	Decoded  int
	Rejected int
}

// Transactions decodes t into a batch, preserving row order.
func Transactions(t records.Table, cols schema.Resolved, obs observe.Observer) (records.Batch, Stats) {
	obs = observe.OrNop(obs)
	st := Stats{Rows: len(t.Rows)}
	out := make(records.Batch, 0, len(t.Rows))

	for i, r := range t.Rows {
		tx, rerr := transaction(r, cols)
		if rerr != nil {
			st.Rejected++
			if st.Rejected <= MaxReported {
				rerr.Table, rerr.Row = t.Name, i+1
				obs.Warn(rerr)
			}
			continue
		}
		out = append(out, tx)
	}
	st.Decoded = len(out)
	obs.Count("decode_rejected", st.Rejected)
	return out, st
}

func transaction(r records.Record, cols schema.Resolved) (records.Transaction, *etlerr.RowError) {
	price, err := Decimal(cols.Get(r, schema.UnitPrice))
	if err != nil {
		return records.Transaction{}, &etlerr.RowError{Column: schema.UnitPrice, Err: err}
	}
	ts, err := Timestamp(cols.Get(r, schema.InvoiceDate))
	if err != nil {
		return records.Transaction{}, &etlerr.RowError{Column: schema.InvoiceDate, Err: err}
	}

	invoice, _ := Text(cols.Get(r, schema.InvoiceNo))
	stock, _ := Text(cols.Get(r, schema.StockCode))
	country, _ := Text(cols.Get(r, schema.Country))

	return records.Transaction{
		InvoiceNo:   invoice,
		StockCode:   stock,
		Description: RawText(cols.Get(r, schema.Description)),
		Quantity:    Int(cols.Get(r, schema.Quantity)),
		UnitPrice:   price,
		InvoiceDate: ts,
		CustomerID:  Int(cols.Get(r, schema.CustomerID)),
		Country:     country,
	}, nil
}

// Suppliers decodes the supplier lookup. Rows with an empty invoice or
// supplier are skipped and counted as rejected.
func Suppliers(t records.Table, cols schema.Resolved) ([]records.SupplierRow, Stats) {
	st := Stats{Rows: len(t.Rows)}
	out := make([]records.SupplierRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		inv := NullableText(cols.Get(r, schema.InvoiceNo))
		sup := NullableText(cols.Get(r, schema.Supplier))
		if inv == nil || sup == nil {
			st.Rejected++
			continue
		}
		out = append(out, records.SupplierRow{InvoiceNo: *inv, Supplier: strings.TrimSpace(*sup)})
	}
	st.Decoded = len(out)
	return out, st
}

// Continents decodes the country mapping. Rows with an empty country or
// continent are skipped and counted as rejected.
func Continents(t records.Table, cols schema.Resolved) ([]records.ContinentRow, Stats) {
	st := Stats{Rows: len(t.Rows)}
	out := make([]records.ContinentRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		c := NullableText(cols.Get(r, schema.Country))
		k := NullableText(cols.Get(r, schema.Continent))
		if c == nil || k == nil {
			st.Rejected++
			continue
		}
		out = append(out, records.ContinentRow{Country: *c, Continent: strings.TrimSpace(*k)})
	}
	st.Decoded = len(out)
	return out, st
}
