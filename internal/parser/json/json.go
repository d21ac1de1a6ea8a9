// Package json parses JSON inputs into records.Table values.
//
// Two layouts are accepted:
//
//   - a top-level array of objects, as written by record-oriented exporters:
//     [{"Country":"France","Continent":"Europe"}, ...]
//   - newline-delimited (or simply concatenated) objects:
//     {"Country":"France","Continent":"Europe"}
//     {"Country":"Japan","Continent":"Asia"}
//
// Columns are the union of object keys in order of first appearance. Numbers
// are kept as json.Number so callers decide how to interpret them.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"retailetl/internal/config"
	"retailetl/internal/parser"
	"retailetl/pkg/records"
)

// Options configures the JSON parser.
type Options struct {
	// AllowArrays accepts a top-level array of objects. Defaults to true.
	AllowArrays bool

	// HeaderMap renames keys, e.g. {"Fournisseur": "Supplier"}.
	HeaderMap map[string]string
}

// FromConfigOptions constructs Options from a source's options map.
// Recognized keys: allow_arrays (bool, default true), header_map (object).
func FromConfigOptions(o config.Options) Options {
	return Options{
		AllowArrays: o.Bool("allow_arrays", true),
		HeaderMap:   o.StringMap("header_map"),
	}
}

// Parser reads JSON tables.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads every object of r. Non-object elements are skipped and counted.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (records.Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	b := &builder{opt: p.opt, seen: map[string]struct{}{}}

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return records.Table{}, nil
	}
	if err != nil {
		return records.Table{}, fmt.Errorf("json parser: %w", err)
	}

	switch tok {
	case json.Delim('['):
		if !p.opt.AllowArrays {
			return records.Table{}, fmt.Errorf("json parser: top-level array encountered but allow_arrays=false")
		}
		for dec.More() {
			if err := ctx.Err(); err != nil {
				return records.Table{}, err
			}
			if err := b.element(dec); err != nil {
				return records.Table{}, err
			}
		}
		if _, err := dec.Token(); err != nil {
			return records.Table{}, fmt.Errorf("json parser: %w", err)
		}
	case json.Delim('{'):
		for {
			if err := b.object(dec); err != nil {
				return records.Table{}, err
			}
			if err := ctx.Err(); err != nil {
				return records.Table{}, err
			}
			tok, err = dec.Token()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return records.Table{}, fmt.Errorf("json parser: %w", err)
			}
			if tok != json.Delim('{') {
				return records.Table{}, fmt.Errorf("json parser: unexpected top-level value %v", tok)
			}
		}
	default:
		return records.Table{}, fmt.Errorf("json parser: unsupported top-level value %v", tok)
	}
	return b.t, nil
}

type builder struct {
	opt  Options
	t    records.Table
	seen map[string]struct{}
}

// element reads one array element. Objects become rows; anything else is
// skipped.
func (b *builder) element(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("json parser: element %d: %w", len(b.t.Rows)+b.t.Skipped, err)
	}
	switch tok {
	case json.Delim('{'):
		return b.object(dec)
	case json.Delim('['):
		b.t.Skipped++
		return skipRest(dec)
	default:
		b.t.Skipped++
		return nil
	}
}

// object reads the members of an object whose opening brace was consumed.
func (b *builder) object(dec *json.Decoder) error {
	rec := records.Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json parser: key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("json parser: unexpected key %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("json parser: value of %q: %w", key, err)
		}
		key = parser.MapHeader(key, b.opt.HeaderMap)
		if _, ok := b.seen[key]; !ok {
			b.seen[key] = struct{}{}
			b.t.Columns = append(b.t.Columns, key)
		}
		if s, ok := v.(string); ok && s == "" {
			v = nil
		}
		rec[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("json parser: %w", err)
	}
	b.t.Rows = append(b.t.Rows, rec)
	return nil
}

// skipRest consumes the remainder of an array whose opening bracket was read.
func skipRest(dec *json.Decoder) error {
	for depth := 1; depth > 0; {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json parser: %w", err)
		}
		switch tok {
		case json.Delim('['), json.Delim('{'):
			depth++
		case json.Delim(']'), json.Delim('}'):
			depth--
		}
	}
	return nil
}
