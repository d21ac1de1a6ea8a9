package pipeline

import (
	"time"

	"retailetl/internal/aggregate"
	"retailetl/internal/cleaner"
	"retailetl/internal/decode"
	"retailetl/pkg/records"

	"github.com/google/uuid"
)

// Stats collects the row accounting of a run.
type Stats struct {
	Transactions decode.Stats
	Suppliers    decode.Stats
	Continents   decode.Stats
	Clean        cleaner.Stats
	// JoinWarnings is the number of duplicated reference keys seen.
	JoinWarnings int
	// Omitted lists reports left unavailable under the omit policy.
	Omitted []string
}

// Bundle is the complete output of a successful run. A failed run never
// produces one.
//
// Arg-max reports are pointers: nil means the report was omitted because its
// group was empty and the run used the omit policy. TopProducts is nil when
// the report is disabled.
type Bundle struct {
	RunID     uuid.UUID
	Job       string
	StartedAt time.Time
	Duration  time.Duration
	Options   Options
	Stats     Stats

	// CleanedData is the valid partition enriched with supplier and continent.
	CleanedData []records.Enriched
	// Canceled is the canceled partition, enriched the same way.
	Canceled []records.Enriched
	// SemiCleaned is the de-duplicated input before the missing-value policy,
	// joined with continent then supplier.
	SemiCleaned []records.Enriched

	CountrySales          []aggregate.KeyTotal
	MonthlyStats          []aggregate.MonthStat
	BestProduct           *aggregate.KeyTotal
	BusiestHour           *aggregate.HourCount
	SupplierSales         []aggregate.KeyTotal
	RegionalSupplierSales []aggregate.KeyTotal
	ContinentSales        []aggregate.KeyTotal
	MostCanceled          *aggregate.KeyCount
	TopProducts           []aggregate.ProductTotal
}

// BestProductName is the bundle name of the best-product report.
func (b *Bundle) BestProductName() string {
	return aggregate.ReportBestProduct(b.Options.TargetCountry)
}

// RegionalSuppliersName is the bundle name of the regional supplier ranking.
func (b *Bundle) RegionalSuppliersName() string {
	return aggregate.ReportRegionalSuppliers(b.Options.regionLabel(), b.Options.Window)
}

// Named returns every report keyed by its bundle name. Omitted arg-max
// reports are present with a nil value.
func (b *Bundle) Named() map[string]any {
	m := map[string]any{
		aggregate.ReportCleanedData:    b.CleanedData,
		aggregate.ReportCountrySales:   b.CountrySales,
		aggregate.ReportMonthlyStats:   b.MonthlyStats,
		b.BestProductName():            nilIfEmpty(b.BestProduct),
		aggregate.ReportBusiestHour:    nilIfEmpty(b.BusiestHour),
		aggregate.ReportSupplierSales:  b.SupplierSales,
		b.RegionalSuppliersName():      b.RegionalSupplierSales,
		aggregate.ReportContinentSales: b.ContinentSales,
		aggregate.ReportMostCanceled:   nilIfEmpty(b.MostCanceled),
	}
	if b.Options.TopProducts > 0 {
		m[aggregate.ReportTopProducts] = b.TopProducts
	}
	return m
}

// nilIfEmpty keeps an omitted report an untyped nil inside map[string]any.
func nilIfEmpty[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
