package sqlsink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"retailetl/internal/aggregate"
	"retailetl/internal/config"
	"retailetl/internal/pipeline"
	"retailetl/internal/storage"
	_ "retailetl/internal/storage/sqlite"
	"retailetl/pkg/records"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testBundle() *pipeline.Bundle {
	opts := pipeline.DefaultOptions()
	opts.Job = "sink-test"
	ts := time.Date(2011, 3, 1, 8, 28, 0, 0, time.UTC)
	row := records.Enriched{
		Transaction: records.Transaction{
			InvoiceNo:   "536366",
			StockCode:   "22633",
			Description: records.StringPtr("HAND WARMER"),
			Quantity:    records.Int64Ptr(6),
			UnitPrice:   dec("1.85"),
			InvoiceDate: ts,
			CustomerID:  records.Int64Ptr(17850),
			Country:     "United Kingdom",
		},
		Supplier:  records.StringPtr("Atelier Roux"),
		Continent: records.StringPtr("Europe"),
	}
	return &pipeline.Bundle{
		RunID:          uuid.MustParse("6f1c0c56-7c2e-4a59-9a51-6a3c5f2b9c01"),
		Job:            opts.Job,
		Options:        opts,
		CleanedData:    []records.Enriched{row, {Transaction: records.Transaction{InvoiceNo: "536370", StockCode: "22728", UnitPrice: dec("3.75"), InvoiceDate: ts, Country: "France"}}},
		CountrySales:   []aggregate.KeyTotal{{Key: "France", Total: dec("90.00")}, {Key: "United Kingdom", Total: dec("11.10")}},
		MonthlyStats:   []aggregate.MonthStat{{Period: aggregate.Month{Year: 2011, Month: time.March}, Total: dec("11.10"), Count: 1}},
		BestProduct:    &aggregate.KeyTotal{Key: "Unknown", Total: dec("90.00")},
		BusiestHour:    &aggregate.HourCount{Hour: 8, Count: 2},
		SupplierSales:  []aggregate.KeyTotal{{Key: "Maison Lebrun", Total: dec("90.00")}},
		ContinentSales: []aggregate.KeyTotal{{Key: "Europe", Total: dec("101.10")}},
		TopProducts:    []aggregate.ProductTotal{{StockCode: "22728", Description: "Unknown", Total: dec("90.00")}},
		// RegionalSupplierSales empty, MostCanceled omitted.
	}
}

func openSink(t *testing.T, batchSize int) (*Sink, storage.Repository) {
	t.Helper()
	sink, err := Open(context.Background(), config.Storage{
		Kind: "sqlite",
		DB:   config.DBConfig{DSN: ":memory:", TablePrefix: "retail_", AutoCreateTable: true, BatchSize: batchSize},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(sink.Close)
	return sink, sink.repo
}

func TestWrite_AllTables(t *testing.T) {
	t.Parallel()
	sink, _ := openSink(t, 1)
	b := testBundle()

	res, err := sink.Write(context.Background(), b)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := map[string]int64{
		"retail_cleaned_data":           2,
		"retail_country_sales":          2,
		"retail_monthly_stats":          1,
		"retail_supplier_sales":         1,
		"retail_uk_2011_supplier_sales": 0,
		"retail_continent_sales":        1,
		"retail_top_products":           1,
		"retail_report_values":          3,
	}
	if len(res) != len(want) {
		t.Fatalf("tables = %v, want %v", res, want)
	}
	for name, n := range want {
		if got, ok := res[name]; !ok || got != n {
			t.Fatalf("%s = %d (present=%v), want %d", name, got, ok, n)
		}
	}
}

func TestWrite_ReadBack(t *testing.T) {
	t.Parallel()
	sink, repo := openSink(t, 0)
	ctx := context.Background()
	if _, err := sink.Write(ctx, testBundle()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	db := sqliteDB(t, repo)

	var (
		total float64
		run   string
	)
	if err := db.QueryRowContext(ctx,
		`SELECT "Total", "RunID" FROM "retail_country_sales" WHERE "Country" = 'France'`,
	).Scan(&total, &run); err != nil {
		t.Fatalf("country_sales: %v", err)
	}
	if total != 90 || run != "6f1c0c56-7c2e-4a59-9a51-6a3c5f2b9c01" {
		t.Fatalf("France total=%v run=%q", total, run)
	}

	var (
		key   *string
		count *int64
	)
	if err := db.QueryRowContext(ctx,
		`SELECT "Key", "Count" FROM "retail_report_values" WHERE "Report" = ?`, aggregate.ReportMostCanceled,
	).Scan(&key, &count); err != nil {
		t.Fatalf("report_values: %v", err)
	}
	if key != nil || count != nil {
		t.Fatalf("omitted report stored key=%v count=%v, want NULLs", key, count)
	}

	var hour string
	if err := db.QueryRowContext(ctx,
		`SELECT "Key" FROM "retail_report_values" WHERE "Report" = ?`, aggregate.ReportBusiestHour,
	).Scan(&hour); err != nil || hour != "8" {
		t.Fatalf("busiest hour = %q, %v", hour, err)
	}

	var desc *string
	if err := db.QueryRowContext(ctx,
		`SELECT "Description" FROM "retail_cleaned_data" WHERE "InvoiceNo" = '536370'`,
	).Scan(&desc); err != nil || desc != nil {
		t.Fatalf("missing description = %v, %v; want NULL", desc, err)
	}
}

func TestWrite_SecondRunAppends(t *testing.T) {
	t.Parallel()
	sink, repo := openSink(t, 10)
	ctx := context.Background()
	b := testBundle()
	for range 2 {
		if _, err := sink.Write(ctx, b); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	var n int
	if err := sqliteDB(t, repo).QueryRowContext(ctx, `SELECT COUNT(*) FROM "retail_report_values"`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 6 {
		t.Fatalf("report_values rows = %d, want 6", n)
	}
}

func TestTables_TopProductsDisabled(t *testing.T) {
	t.Parallel()
	b := testBundle()
	b.Options.TopProducts = 0
	for _, tb := range tables(b) {
		if tb.name == aggregate.ReportTopProducts {
			t.Fatal("top_products rendered while disabled")
		}
	}
}

// failingRepo fails every CopyFrom.
type failingRepo struct{ err error }

func (f failingRepo) CopyFrom(context.Context, string, []string, [][]any) (int64, error) {
	return 0, f.err
}
func (failingRepo) Exec(context.Context, string) error { return nil }
func (failingRepo) Close()                             {}

func TestWrite_CopyErrorNamesTable(t *testing.T) {
	t.Parallel()
	boom := errors.New("disk full")
	sink := New(failingRepo{err: boom}, Options{Kind: "sqlite", TablePrefix: "r_", BatchSize: 1})

	_, err := sink.Write(context.Background(), testBundle())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if !strings.Contains(err.Error(), "r_cleaned_data") {
		t.Fatalf("err %q does not name the first table", err)
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()
	o := FromConfig(config.Storage{Kind: "postgres", DB: config.DBConfig{TablePrefix: "x_", AutoCreateTable: true, BatchSize: 7}})
	if o != (Options{Kind: "postgres", TablePrefix: "x_", AutoCreate: true, BatchSize: 7}) {
		t.Fatalf("FromConfig = %+v", o)
	}
}
