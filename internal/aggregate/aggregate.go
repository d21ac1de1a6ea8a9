// Package aggregate computes the report tables of a run from enriched
// transactions.
//
// Every function is independent of the others and reads its input without
// modifying it. Sums are exact decimals. Groups are listed in the order their
// key first appears in the input unless a report defines its own ordering, and
// a group with no contributing row is never emitted. Rows whose grouping key
// is null (no supplier, no continent) belong to no group.
//
// Arg-max reports pick the first group, in input order, among those sharing
// the maximum, and return an *etlerr.EmptyGroupError when nothing qualifies.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"retailetl/internal/etlerr"
	"retailetl/pkg/records"

	"github.com/shopspring/decimal"
)

// Report names.
const (
	ReportCleanedData      = "cleaned_data"
	ReportCountrySales     = "country_sales"
	ReportMonthlyStats     = "monthly_stats"
	ReportBusiestHour      = "busiest_transaction_hour"
	ReportSupplierSales    = "supplier_sales"
	ReportContinentSales   = "continent_sales"
	ReportMostCanceled     = "continent_with_most_cancellations"
	ReportTopProducts      = "top_products"
	bestProductPrefix      = "best_product_in_"
	regionalSupplierSuffix = "_supplier_sales"
)

// ReportBestProduct returns the name of the best-product report for country,
// e.g. "best_product_in_france".
func ReportBestProduct(country string) string {
	return bestProductPrefix + records.Slug(country)
}

// ReportRegionalSuppliers returns the name of the regional supplier ranking,
// e.g. "uk_2011_supplier_sales". The year is the window's start year.
func ReportRegionalSuppliers(label string, w Window) string {
	return fmt.Sprintf("%s_%d%s", records.Slug(label), w.Start.Year(), regionalSupplierSuffix)
}

// KeyTotal is one group of a summed report.
type KeyTotal struct {
	Key   string
	Total decimal.Decimal
}

// KeyCount is one group of a counted report.
type KeyCount struct {
	Key   string
	Count int
}

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats m as "2010-12".
func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// MonthStat is one row of monthly_stats.
type MonthStat struct {
	Period Month
	Total  decimal.Decimal
	Count  int
}

// HourCount is the busiest hour of day and its transaction count.
type HourCount struct {
	Hour  int
	Count int
}

// ProductTotal is one row of top_products.
type ProductTotal struct {
	StockCode   string
	Description string
	Total       decimal.Decimal
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CountrySales sums TotalAmount per country.
func CountrySales(ctx context.Context, rows []records.Enriched) ([]KeyTotal, error) {
	g := newGroup[string]()
	if err := scan(ctx, len(rows), func(i int) {
		g.add(rows[i].Country, rows[i].TotalAmount())
	}); err != nil {
		return nil, err
	}
	return keyTotals(g), nil
}

// MonthlyStats sums TotalAmount and counts rows per calendar month, ascending.
func MonthlyStats(ctx context.Context, rows []records.Enriched) ([]MonthStat, error) {
	g := newGroup[Month]()
	if err := scan(ctx, len(rows), func(i int) {
		g.add(MonthOf(rows[i].InvoiceDate), rows[i].TotalAmount())
	}); err != nil {
		return nil, err
	}
	out := make([]MonthStat, g.len())
	for i, k := range g.keys {
		out[i] = MonthStat{Period: k, Total: g.totals[i], Count: g.counts[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out, nil
}

// BestProduct returns the description with the largest total among rows of
// country.
func BestProduct(ctx context.Context, rows []records.Enriched, country string) (KeyTotal, error) {
	want := strings.TrimSpace(country)
	g := newGroup[string]()
	if err := scan(ctx, len(rows), func(i int) {
		r := rows[i]
		if strings.TrimSpace(r.Country) != want {
			return
		}
		g.add(description(r.Transaction), r.TotalAmount())
	}); err != nil {
		return KeyTotal{}, err
	}
	best, ok := g.argMaxTotal()
	if !ok {
		return KeyTotal{}, &etlerr.EmptyGroupError{Report: ReportBestProduct(country)}
	}
	return KeyTotal{Key: g.keys[best], Total: g.totals[best]}, nil
}

// BusiestHour returns the hour of day with the most rows.
func BusiestHour(ctx context.Context, rows []records.Enriched) (HourCount, error) {
	g := newGroup[int]()
	if err := scan(ctx, len(rows), func(i int) {
		g.add(rows[i].InvoiceDate.Hour(), decimal.Zero)
	}); err != nil {
		return HourCount{}, err
	}
	best, ok := g.argMaxCount()
	if !ok {
		return HourCount{}, &etlerr.EmptyGroupError{Report: ReportBusiestHour}
	}
	return HourCount{Hour: g.keys[best], Count: g.counts[best]}, nil
}

// SupplierRanking sums TotalAmount per supplier, sorted by total descending.
// Suppliers with equal totals keep their first-appearance order.
func SupplierRanking(ctx context.Context, rows []records.Enriched) ([]KeyTotal, error) {
	return supplierRanking(ctx, rows, func(records.Enriched) bool { return true })
}

// RegionalSupplierRanking is SupplierRanking restricted to rows of country
// invoiced within w.
func RegionalSupplierRanking(ctx context.Context, rows []records.Enriched, country string, w Window) ([]KeyTotal, error) {
	want := strings.TrimSpace(country)
	return supplierRanking(ctx, rows, func(r records.Enriched) bool {
		return strings.TrimSpace(r.Country) == want && w.Contains(r.InvoiceDate)
	})
}

func supplierRanking(ctx context.Context, rows []records.Enriched, keep func(records.Enriched) bool) ([]KeyTotal, error) {
	g := newGroup[string]()
	if err := scan(ctx, len(rows), func(i int) {
		r := rows[i]
		if r.Supplier == nil || !keep(r) {
			return
		}
		g.add(*r.Supplier, r.TotalAmount())
	}); err != nil {
		return nil, err
	}
	return RankDesc(keyTotals(g)), nil
}

// RankDesc returns a copy of in sorted by Total descending. The sort is
// stable, so equal totals keep their relative order.
func RankDesc(in []KeyTotal) []KeyTotal {
	out := append([]KeyTotal(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	return out
}

// ContinentSales sums TotalAmount per continent.
func ContinentSales(ctx context.Context, rows []records.Enriched) ([]KeyTotal, error) {
	g := newGroup[string]()
	if err := scan(ctx, len(rows), func(i int) {
		if c := rows[i].Continent; c != nil {
			g.add(*c, rows[i].TotalAmount())
		}
	}); err != nil {
		return nil, err
	}
	return keyTotals(g), nil
}

// MostCanceledContinent returns the continent with the most canceled rows.
// Pass the canceled partition.
func MostCanceledContinent(ctx context.Context, canceled []records.Enriched) (KeyCount, error) {
	g := newGroup[string]()
	if err := scan(ctx, len(canceled), func(i int) {
		if c := canceled[i].Continent; c != nil {
			g.add(*c, decimal.Zero)
		}
	}); err != nil {
		return KeyCount{}, err
	}
	best, ok := g.argMaxCount()
	if !ok {
		return KeyCount{}, &etlerr.EmptyGroupError{Report: ReportMostCanceled}
	}
	return KeyCount{Key: g.keys[best], Count: g.counts[best]}, nil
}

// TopProducts returns the n products with the largest totals over rows with a
// positive quantity, grouped by stock code and description. n <= 0 returns
// nil.
func TopProducts(ctx context.Context, rows []records.Enriched, n int) ([]ProductTotal, error) {
	if n <= 0 {
		return nil, nil
	}
	type product struct{ stock, desc string }
	g := newGroup[product]()
	if err := scan(ctx, len(rows), func(i int) {
		r := rows[i]
		if r.Quantity == nil || *r.Quantity <= 0 {
			return
		}
		g.add(product{r.StockCode, description(r.Transaction)}, r.TotalAmount())
	}); err != nil {
		return nil, err
	}
	out := make([]ProductTotal, g.len())
	for i, k := range g.keys {
		out[i] = ProductTotal{StockCode: k.stock, Description: k.desc, Total: g.totals[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// SumTotal returns the sum of TotalAmount over rows.
func SumTotal(rows []records.Enriched) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.TotalAmount())
	}
	return sum
}

// SumKeyTotals returns the sum of the totals of in.
func SumKeyTotals(in []KeyTotal) decimal.Decimal {
	sum := decimal.Zero
	for _, kt := range in {
		sum = sum.Add(kt.Total)
	}
	return sum
}

func keyTotals(g *group[string]) []KeyTotal {
	out := make([]KeyTotal, g.len())
	for i, k := range g.keys {
		out[i] = KeyTotal{Key: k, Total: g.totals[i]}
	}
	return out
}

func description(t records.Transaction) string {
	if t.Description == nil {
		return records.UnknownDescription
	}
	return *t.Description
}
