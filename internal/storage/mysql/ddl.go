package mysql

import (
	"fmt"
	"strings"

	"retailetl/internal/ddl"
)

// Dialect renders MySQL DDL with backtick quoting.
var Dialect = ddl.Dialect{
	Name:       "mysql",
	QuoteIdent: quoteIdent,
	MapType:    MapType,
	Wrap: func(fqn, body string) string {
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", fqn, body)
	},
}

// MapType maps a logical type to a MySQL column type. Text is VARCHAR(255)
// so it can take part in a primary key.
func MapType(t ddl.Type) string {
	switch t {
	case ddl.Integer:
		return "BIGINT"
	case ddl.Decimal:
		return "DECIMAL(18,4)"
	case ddl.Float:
		return "DOUBLE"
	case ddl.Timestamp:
		return "DATETIME(6)"
	default:
		return "VARCHAR(255)"
	}
}

func quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
