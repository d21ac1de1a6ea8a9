package postgres

import (
	"fmt"
	"strings"

	"retailetl/internal/ddl"
)

// Dialect renders Postgres DDL with CREATE TABLE IF NOT EXISTS.
var Dialect = ddl.Dialect{
	Name:       "postgres",
	QuoteIdent: pgIdent,
	MapType:    MapType,
	Wrap: func(fqn, body string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, body)
	},
}

// MapType maps a logical type into a Postgres SQL type.
//
//	integer   -> BIGINT
//	decimal   -> NUMERIC(18,4)
//	float     -> DOUBLE PRECISION
//	timestamp -> TIMESTAMPTZ
//	text      -> TEXT
func MapType(t ddl.Type) string {
	switch t {
	case ddl.Integer:
		return "BIGINT"
	case ddl.Decimal:
		return "NUMERIC(18,4)"
	case ddl.Float:
		return "DOUBLE PRECISION"
	case ddl.Timestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// pgIdent quotes an identifier for Postgres, escaping embedded quotes.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
