// Package xlsx reads one worksheet of an Excel workbook into a records.Table.
//
// Cells are read raw: numbers keep their stored representation and dates
// come back as Excel serial numbers, which decode.Timestamp understands.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"retailetl/internal/config"
	"retailetl/internal/parser"
	"retailetl/pkg/records"

	"github.com/xuri/excelize/v2"
)

const checkEvery = 4096

// Options configures the worksheet reader.
type Options struct {
	// Sheet names the worksheet to read. Empty selects the first sheet.
	Sheet string

	// TrimSpace trims leading/trailing spaces from text cells.
	TrimSpace bool

	// HeaderMap renames header cells, e.g. {"Fournisseur": "Supplier"}.
	HeaderMap map[string]string
}

// FromConfigOptions builds Options from a source's options map. Recognized
// keys: sheet, trim_space (default true), header_map.
func FromConfigOptions(o config.Options) Options {
	return Options{
		Sheet:     o.String("sheet", ""),
		TrimSpace: o.Bool("trim_space", true),
		HeaderMap: o.StringMap("header_map"),
	}
}

// Parser reads workbooks.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the selected sheet of the workbook in r. The first non-empty
// row is the header. Rows shorter than the header are padded with nil; rows
// carrying values beyond the header are skipped.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (records.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return records.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := p.opt.Sheet
	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return records.Table{}, fmt.Errorf("open workbook: no worksheets")
		}
		sheet = list[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return records.Table{}, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var t records.Table
	for n := 0; rows.Next(); n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return records.Table{}, err
			}
		}
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return records.Table{}, fmt.Errorf("sheet %q row %d: %w", sheet, n+1, err)
		}
		if t.Columns == nil {
			if blank(cells) {
				continue
			}
			t.Columns = headers(cells, p.opt.HeaderMap)
			continue
		}
		if blank(cells) {
			continue
		}
		if len(cells) > len(t.Columns) && !blank(cells[len(t.Columns):]) {
			t.Skipped++
			continue
		}

		rec := make(records.Record, len(t.Columns))
		for i, col := range t.Columns {
			var v string
			if i < len(cells) {
				v = cells[i]
			}
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				rec[col] = nil
				continue
			}
			rec[col] = v
		}
		t.Rows = append(t.Rows, rec)
	}
	if err := rows.Error(); err != nil {
		return records.Table{}, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if t.Columns == nil {
		return records.Table{}, fmt.Errorf("sheet %q: no header row", sheet)
	}
	return t, nil
}

func headers(cells []string, m map[string]string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		out[i] = parser.MapHeader(c, m)
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
