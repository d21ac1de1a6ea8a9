// Package csv parses delimited text inputs into records.Table values.
// Malformed rows are soft-failed: skipped, counted in Table.Skipped and
// reported through Options.OnSkip.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"retailetl/internal/config"
	"retailetl/internal/encoding"
	"retailetl/internal/parser"
	"retailetl/pkg/records"
)

// checkEvery is how many rows are read between context checks.
const checkEvery = 4096

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Options configures the CSV parser. The zero value reads comma-separated,
// UTF-8 input with a header row.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// HeaderMap maps source header names to canonical names, e.g.
	// {"Fournisseur": "Supplier"}. Unmapped headers are kept as written.
	HeaderMap map[string]string

	// Encoding is a charset label or "auto". Empty means the input is
	// already UTF-8.
	Encoding string

	// OnSkip, when set, is called for every skipped row with its 1-based
	// data line number.
	OnSkip func(line int, err error)
}

// FromConfigOptions builds Options from a source's options map. Recognized
// keys: comma, trim_space, header_map, encoding.
func FromConfigOptions(o config.Options) Options {
	return Options{
		Comma:     o.Rune("comma", ','),
		TrimSpace: o.Bool("trim_space", true),
		HeaderMap: o.StringMap("header_map"),
		Encoding:  o.String("encoding", ""),
	}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the header and every data row of r. Empty cells become nil.
// A missing header is an error; an input with only a header yields a table
// with columns and no rows.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (records.Table, error) {
	if p.opt.Encoding != "" {
		dec, err := encoding.NewReader(r, p.opt.Encoding)
		if err != nil {
			return records.Table{}, err
		}
		r = dec
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	h, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return records.Table{}, fmt.Errorf("read csv header: empty input")
		}
		return records.Table{}, fmt.Errorf("read csv header: %w", err)
	}
	t := records.Table{Columns: normalizeHeaders(h, p.opt.HeaderMap)}

	for line := 1; ; line++ {
		if line%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return records.Table{}, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return records.Table{}, fmt.Errorf("read csv line %d: %w", line, err)
			}
			p.skip(&t, line, err)
			continue
		}
		if blank(row) {
			continue
		}
		if len(row) != len(t.Columns) {
			p.skip(&t, line, fmt.Errorf("incorrect number of fields (expected %d, got %d)", len(t.Columns), len(row)))
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[t.Columns[i]] = emptyToNil(val)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, ctx.Err()
}

func (p *Parser) skip(t *records.Table, line int, err error) {
	t.Skipped++
	if p.opt.OnSkip != nil {
		p.opt.OnSkip(line, err)
	}
}

// blank reports whether every field of row is empty, as for a trailing
// separator-only line.
func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders trims each header, strips a UTF-8 BOM from the first one
// and applies the header map. Empty headers become "col_N".
func normalizeHeaders(h []string, m map[string]string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		res[i] = parser.MapHeader(c, m)
	}
	return res
}
