package sqlsink

import (
	"strconv"

	"retailetl/internal/aggregate"
	"retailetl/internal/ddl"
	"retailetl/internal/pipeline"
	"retailetl/pkg/records"
)

// ReportValues is the key/value table holding the single-row reports.
const ReportValues = "report_values"

// table is one report rendered for loading.
type table struct {
	name    string
	columns []ddl.ColumnDef
	rows    [][]any
}

var runIDColumn = ddl.ColumnDef{Name: "RunID", Type: ddl.Text}

func withRunID(cols ...ddl.ColumnDef) []ddl.ColumnDef {
	return append([]ddl.ColumnDef{runIDColumn}, cols...)
}

// tables renders every report of b. The row-valued reports come first in a
// fixed order; the scalar ones are collected into ReportValues.
func tables(b *pipeline.Bundle) []table {
	run := b.RunID.String()
	out := []table{
		enrichedTable(aggregate.ReportCleanedData, run, b.CleanedData),
		keyTotalTable(aggregate.ReportCountrySales, "Country", run, b.CountrySales),
		monthlyTable(run, b.MonthlyStats),
		keyTotalTable(aggregate.ReportSupplierSales, "Supplier", run, b.SupplierSales),
		keyTotalTable(b.RegionalSuppliersName(), "Supplier", run, b.RegionalSupplierSales),
		keyTotalTable(aggregate.ReportContinentSales, "Continent", run, b.ContinentSales),
	}
	if b.Options.TopProducts > 0 {
		out = append(out, topProductsTable(run, b.TopProducts))
	}
	return append(out, valuesTable(b))
}

func enrichedTable(name, run string, rows []records.Enriched) table {
	t := table{
		name: name,
		columns: withRunID(
			ddl.ColumnDef{Name: "InvoiceNo", Type: ddl.Text},
			ddl.ColumnDef{Name: "StockCode", Type: ddl.Text},
			ddl.ColumnDef{Name: "Description", Type: ddl.Text, Nullable: true},
			ddl.ColumnDef{Name: "Quantity", Type: ddl.Integer, Nullable: true},
			ddl.ColumnDef{Name: "InvoiceDate", Type: ddl.Timestamp},
			ddl.ColumnDef{Name: "UnitPrice", Type: ddl.Decimal},
			ddl.ColumnDef{Name: "CustomerID", Type: ddl.Integer, Nullable: true},
			ddl.ColumnDef{Name: "Country", Type: ddl.Text},
			ddl.ColumnDef{Name: "TotalAmount", Type: ddl.Decimal},
			ddl.ColumnDef{Name: "Supplier", Type: ddl.Text, Nullable: true},
			ddl.ColumnDef{Name: "Continent", Type: ddl.Text, Nullable: true},
		),
		rows: make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		t.rows = append(t.rows, []any{
			run,
			r.InvoiceNo,
			r.StockCode,
			ptr(r.Description),
			ptr(r.Quantity),
			r.InvoiceDate,
			r.UnitPrice,
			ptr(r.CustomerID),
			r.Country,
			r.TotalAmount(),
			ptr(r.Supplier),
			ptr(r.Continent),
		})
	}
	return t
}

func keyTotalTable(name, key, run string, in []aggregate.KeyTotal) table {
	t := table{
		name:    name,
		columns: withRunID(ddl.ColumnDef{Name: key, Type: ddl.Text}, ddl.ColumnDef{Name: "Total", Type: ddl.Decimal}),
		rows:    make([][]any, 0, len(in)),
	}
	for _, kt := range in {
		t.rows = append(t.rows, []any{run, kt.Key, kt.Total})
	}
	return t
}

func monthlyTable(run string, in []aggregate.MonthStat) table {
	t := table{
		name: aggregate.ReportMonthlyStats,
		columns: withRunID(
			ddl.ColumnDef{Name: "YearMonth", Type: ddl.Text},
			ddl.ColumnDef{Name: "Total", Type: ddl.Decimal},
			ddl.ColumnDef{Name: "Count", Type: ddl.Integer},
		),
		rows: make([][]any, 0, len(in)),
	}
	for _, m := range in {
		t.rows = append(t.rows, []any{run, m.Period.String(), m.Total, int64(m.Count)})
	}
	return t
}

func topProductsTable(run string, in []aggregate.ProductTotal) table {
	t := table{
		name: aggregate.ReportTopProducts,
		columns: withRunID(
			ddl.ColumnDef{Name: "StockCode", Type: ddl.Text},
			ddl.ColumnDef{Name: "Description", Type: ddl.Text},
			ddl.ColumnDef{Name: "Total", Type: ddl.Decimal},
		),
		rows: make([][]any, 0, len(in)),
	}
	for _, p := range in {
		t.rows = append(t.rows, []any{run, p.StockCode, p.Description, p.Total})
	}
	return t
}

// valuesTable stores one row per scalar report. An omitted report keeps its
// row with NULL Key, Total and Count.
func valuesTable(b *pipeline.Bundle) table {
	run := b.RunID.String()
	t := table{
		name: ReportValues,
		columns: withRunID(
			ddl.ColumnDef{Name: "Report", Type: ddl.Text},
			ddl.ColumnDef{Name: "Key", Type: ddl.Text, Nullable: true},
			ddl.ColumnDef{Name: "Total", Type: ddl.Decimal, Nullable: true},
			ddl.ColumnDef{Name: "Count", Type: ddl.Integer, Nullable: true},
		),
	}

	best := []any{run, b.BestProductName(), nil, nil, nil}
	if p := b.BestProduct; p != nil {
		best = []any{run, b.BestProductName(), p.Key, p.Total, nil}
	}
	hour := []any{run, aggregate.ReportBusiestHour, nil, nil, nil}
	if h := b.BusiestHour; h != nil {
		hour = []any{run, aggregate.ReportBusiestHour, strconv.Itoa(h.Hour), nil, int64(h.Count)}
	}
	canceled := []any{run, aggregate.ReportMostCanceled, nil, nil, nil}
	if c := b.MostCanceled; c != nil {
		canceled = []any{run, aggregate.ReportMostCanceled, c.Key, nil, int64(c.Count)}
	}
	t.rows = [][]any{best, hour, canceled}
	return t
}

// ptr dereferences p, mapping nil to an untyped nil for the driver.
func ptr[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
