package ddl

// Type is a logical column type. Dialects map it to a concrete SQL type.
type Type string

const (
	Text      Type = "text"
	Integer   Type = "integer"
	Decimal   Type = "decimal"
	Float     Type = "float"
	Timestamp Type = "timestamp"
)

// ColumnDef describes a single column.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Type: logical type, mapped by the dialect when SQLType is empty
//   - SQLType: explicit SQL type overriding Type
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Type       Type
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name and an ordered list of columns. The FQN may
// be dotted ("schema.table"); each part is quoted separately.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}
