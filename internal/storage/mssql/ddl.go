package mssql

import (
	"fmt"
	"strings"

	"retailetl/internal/ddl"
)

// Dialect renders SQL Server DDL guarded by OBJECT_ID.
var Dialect = ddl.Dialect{
	Name:       "mssql",
	QuoteIdent: msIdent,
	MapType:    MapType,
	Wrap: func(fqn, body string) string {
		return fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n  %s\n  );\nEND;",
			strings.ReplaceAll(fqn, "'", "''"), fqn, body,
		)
	},
}

// MapType maps a logical type into a SQL Server column type. Text keys are
// bounded so they can take part in a primary key.
func MapType(t ddl.Type) string {
	switch t {
	case ddl.Integer:
		return "BIGINT"
	case ddl.Decimal:
		return "DECIMAL(18, 4)"
	case ddl.Float:
		return "FLOAT"
	case ddl.Timestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(450)"
	}
}
