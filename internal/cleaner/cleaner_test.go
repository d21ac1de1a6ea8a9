package cleaner

import (
	"testing"
	"time"

	"retailetl/internal/observe"
	"retailetl/pkg/records"

	"github.com/shopspring/decimal"
)

func row(invoice, stock string, qty int64, price string, customer *int64) records.Transaction {
	return records.Transaction{
		InvoiceNo:   invoice,
		StockCode:   stock,
		Description: records.StringPtr("desc " + stock),
		Quantity:    records.Int64Ptr(qty),
		UnitPrice:   decimal.RequireFromString(price),
		InvoiceDate: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC),
		CustomerID:  customer,
		Country:     "United Kingdom",
	}
}

func cust(n int64) *int64 { return &n }

// fiveRows: rows 4 and 5 are exact duplicates; row 3 is canceled.
func fiveRows() records.Batch {
	return records.Batch{
		row("536365", "85123A", 6, "2.55", cust(17850)),
		row("536365", "71053", 6, "3.39", cust(17850)),
		row("C536379", "D", -1, "27.50", cust(14527)),
		row("536366", "22633", 6, "1.85", cust(17850)),
		row("536366", "22633", 6, "1.85", cust(17850)),
	}
}

func TestClean_FiveRowExample(t *testing.T) {
	var rec observe.Recorder
	res := Clean(fiveRows(), &rec)

	if len(res.Valid) != 3 || len(res.Canceled) != 1 {
		t.Fatalf("valid=%d canceled=%d, want 3 and 1", len(res.Valid), len(res.Canceled))
	}
	want := Stats{Input: 5, Duplicates: 1, MissingDropped: 0, Valid: 3, Canceled: 1}
	if res.Stats != want {
		t.Fatalf("stats = %+v, want %+v", res.Stats, want)
	}
	if rec.CountOf("duplicates_removed") != 1 || rec.CountOf("missing_dropped") != 0 {
		t.Fatalf("observer counts: dup=%d missing=%d", rec.CountOf("duplicates_removed"), rec.CountOf("missing_dropped"))
	}
	if res.Canceled[0].InvoiceNo != "C536379" {
		t.Fatalf("canceled = %q", res.Canceled[0].InvoiceNo)
	}
	if st := rec.Stages(); len(st) != 1 || st[0].Name != "clean" || st[0].Err != nil {
		t.Fatalf("stages = %+v", st)
	}
}

func TestClean_MissingValuesAfterDedup(t *testing.T) {
	// Two raw rows that differ only in a null description are not duplicates;
	// once the description is filled they look alike but both survive because
	// dedup ran on the raw values.
	a := row("1", "A", 1, "1", cust(1))
	a.Description = records.StringPtr(records.UnknownDescription)
	b := a
	b.Description = nil
	noCustomer := row("2", "B", 1, "1", nil)
	noQty := row("3", "C", 1, "1", cust(1))
	noQty.Quantity = nil

	res := Clean(records.Batch{a, b, noCustomer, noQty}, nil)

	if res.Stats.Duplicates != 0 || res.Stats.MissingDropped != 2 || res.Stats.Valid != 2 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if *res.Valid[1].Description != records.UnknownDescription {
		t.Fatalf("description = %q, want Unknown", *res.Valid[1].Description)
	}
}

func TestClean_Idempotent(t *testing.T) {
	in := fiveRows()
	extra := row("536367", "X", 2, "4.25", nil)
	in = append(in, extra)

	first := Clean(in, nil)
	again := Clean(append(append(records.Batch(nil), first.Valid...), first.Canceled...), nil)

	if again.Stats.Duplicates != 0 || again.Stats.MissingDropped != 0 {
		t.Fatalf("second pass removed rows: %+v", again.Stats)
	}
	if len(again.Valid) != len(first.Valid) || len(again.Canceled) != len(first.Canceled) {
		t.Fatalf("second pass changed partitions: %+v vs %+v", again.Stats, first.Stats)
	}
	for i := range first.Valid {
		if !first.Valid[i].Equal(again.Valid[i]) {
			t.Fatalf("valid[%d] changed on second pass", i)
		}
	}
}

func TestClean_PartitionCompleteness(t *testing.T) {
	in := fiveRows()
	in[1].CustomerID = nil
	res := Clean(in, nil)

	st := res.Stats
	if st.Valid+st.Canceled != st.Input-st.Duplicates-st.MissingDropped {
		t.Fatalf("partition not complete: %+v", st)
	}
	for _, v := range res.Valid {
		if v.Canceled() {
			t.Fatalf("canceled row %q in valid set", v.InvoiceNo)
		}
	}
	for _, c := range res.Canceled {
		if !c.Canceled() {
			t.Fatalf("valid row %q in canceled set", c.InvoiceNo)
		}
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	in := fiveRows()
	in[0].Description = nil
	Clean(in, nil)
	if in[0].Description != nil || len(in) != 5 {
		t.Fatal("Clean modified its input")
	}
}

func TestClean_Empty(t *testing.T) {
	res := Clean(nil, nil)
	if len(res.Valid) != 0 || len(res.Canceled) != 0 || res.Stats != (Stats{}) {
		t.Fatalf("result = %+v", res)
	}
}

func TestCleaner_TidyDescriptions(t *testing.T) {
	tagged := row("536367", "84879", 32, "1.69", cust(13047))
	tagged.Description = records.StringPtr("<b>ASSORTED  COLOUR</b> BIRD")
	in := records.Batch{tagged}

	plain := Clean(in, nil)
	if got := *plain.Valid[0].Description; got != "<b>ASSORTED  COLOUR</b> BIRD" {
		t.Fatalf("default cleaner changed description to %q", got)
	}
	tidy := Cleaner{TidyDescriptions: true}.Clean(in, nil)
	if got := *tidy.Valid[0].Description; got != "ASSORTED COLOUR BIRD" {
		t.Fatalf("tidied description = %q", got)
	}
}
