// Package parser defines the contract shared by the input format parsers.
package parser

import (
	"context"
	"io"

	"retailetl/pkg/records"
)

// Parser reads one input into a table. Implementations fill Columns, Rows
// and Skipped; the caller names the table.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (records.Table, error)
}

// Func adapts a function to Parser.
type Func func(ctx context.Context, r io.Reader) (records.Table, error)

func (f Func) Parse(ctx context.Context, r io.Reader) (records.Table, error) { return f(ctx, r) }

// MapHeader returns the canonical name for a source header: the mapped name
// if m has one, otherwise h itself.
func MapHeader(h string, m map[string]string) string {
	if v, ok := m[h]; ok {
		return v
	}
	return h
}
