package sqlite

import (
	"fmt"
	"strings"

	"retailetl/internal/ddl"
)

// Dialect renders SQLite DDL. SQLite is dynamically typed, so the mapping
// picks column affinities.
var Dialect = ddl.Dialect{
	Name:       "sqlite",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
	Wrap: func(fqn, body string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, body)
	},
}

// MapType maps a logical type to a SQLite column affinity. Timestamps are
// stored as ISO-8601 text.
func MapType(t ddl.Type) string {
	switch t {
	case ddl.Integer:
		return "INTEGER"
	case ddl.Float:
		return "REAL"
	case ddl.Decimal:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

// quoteIdent quotes id with double quotes, doubling embedded quotes.
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
