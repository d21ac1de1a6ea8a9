// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// CREATE TABLE statements from it through a per-backend Dialect.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect carries the backend-specific parts of a CREATE TABLE statement.
type Dialect struct {
	// Name prefixes error messages, e.g. "sqlite".
	Name string

	// QuoteIdent quotes a single identifier.
	QuoteIdent func(string) string

	// MapType maps a logical type to the backend's SQL type.
	MapType func(Type) string

	// Wrap turns the bare statement into an idempotent one. It receives the
	// quoted FQN and the rendered column list.
	Wrap func(fqn, body string) string
}

// QuoteFQN quotes every dotted part of name with d.QuoteIdent.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// BuildCreateTableSQL renders t in dialect d.
//
// A column is rendered as:
//
//	<quoted name> <type> [NOT NULL]
//
// Primary key columns are collected into a trailing PRIMARY KEY clause.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" && c.Type != "" {
			typ = d.MapType(c.Type)
		}
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s has no type", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	q := d.QuoteFQN(fqn)
	body := strings.Join(cols, ",\n  ")
	if d.Wrap != nil {
		return d.Wrap(q, body), nil
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", q, body), nil
}
