package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"retailetl/internal/aggregate"
	"retailetl/internal/pipeline"
	"retailetl/pkg/records"

	"github.com/olekukonko/tablewriter"
)

// writeSummary prints one line per report: its row count and, for the
// single-row reports, the winning key.
func writeSummary(w io.Writer, b *pipeline.Bundle) {
	named := b.Named()
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Report", "Rows", "Value"})
	table.SetAutoWrapText(false)
	for _, n := range names {
		rows, value := describe(named[n])
		table.Append([]string{n, rows, value})
	}
	table.Render()

	fmt.Fprintf(w, "run %s: %d input rows, %d valid, %d canceled, %d join warnings\n",
		b.RunID, b.Stats.Clean.Input, b.Stats.Clean.Valid, b.Stats.Clean.Canceled, b.Stats.JoinWarnings)
}

func describe(v any) (rows, value string) {
	switch r := v.(type) {
	case nil:
		return "-", "omitted"
	case aggregate.KeyTotal:
		return "1", fmt.Sprintf("%s (%s)", r.Key, r.Total.StringFixed(2))
	case aggregate.HourCount:
		return "1", fmt.Sprintf("%02d:00 (%d)", r.Hour, r.Count)
	case aggregate.KeyCount:
		return "1", fmt.Sprintf("%s (%d)", r.Key, r.Count)
	case []aggregate.KeyTotal:
		if len(r) == 0 {
			return "0", ""
		}
		return strconv.Itoa(len(r)), fmt.Sprintf("top: %s (%s)", r[0].Key, r[0].Total.StringFixed(2))
	case []aggregate.MonthStat:
		return strconv.Itoa(len(r)), ""
	case []aggregate.ProductTotal:
		return strconv.Itoa(len(r)), ""
	case []records.Enriched:
		return strconv.Itoa(len(r)), ""
	default:
		return "?", ""
	}
}
