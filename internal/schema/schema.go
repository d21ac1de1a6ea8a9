// Package schema declares the column contracts of the three pipeline inputs
// and checks parsed tables against them before any row is decoded.
package schema

import (
	"strings"

	"retailetl/internal/etlerr"
	"retailetl/pkg/records"
)

// Canonical column names.
const (
	InvoiceNo   = "InvoiceNo"
	StockCode   = "StockCode"
	Description = "Description"
	Quantity    = "Quantity"
	InvoiceDate = "InvoiceDate"
	UnitPrice   = "UnitPrice"
	CustomerID  = "CustomerID"
	Country     = "Country"
	Supplier    = "Supplier"
	Continent   = "Continent"
)

// Column is one required column. A source header matches when it equals Name
// or one of Aliases, ignoring case and surrounding space.
type Column struct {
	Name    string
	Aliases []string
}

// Contract is the set of columns an input must carry. Nullable values are
// allowed; absent columns are not.
type Contract struct {
	Table   string
	Columns []Column
}

// Transactions is the contract of the raw transaction extract.
var Transactions = Contract{
	Table: "transactions",
	Columns: []Column{
		{Name: InvoiceNo},
		{Name: StockCode},
		{Name: Description},
		{Name: Quantity},
		{Name: InvoiceDate},
		{Name: UnitPrice},
		{Name: CustomerID},
		{Name: Country},
	},
}

// Suppliers is the contract of the supplier lookup. The supplier column is
// named "Fournisseur" in the reference extract.
var Suppliers = Contract{
	Table: "suppliers",
	Columns: []Column{
		{Name: InvoiceNo},
		{Name: Supplier, Aliases: []string{"Fournisseur"}},
	},
}

// Continents is the contract of the country to continent mapping.
var Continents = Contract{
	Table: "continents",
	Columns: []Column{
		{Name: Country},
		{Name: Continent},
	},
}

// Resolved maps each canonical column name to the header used by the table.
type Resolved map[string]string

// Get returns the value of canonical column name in r.
func (m Resolved) Get(r records.Record, name string) any {
	return r[m[name]]
}

// Check resolves every contract column against t.Columns. It returns a
// *etlerr.SchemaError naming each canonical column with no matching header.
func Check(t records.Table, c Contract) (Resolved, error) {
	byFold := make(map[string]string, len(t.Columns))
	for _, h := range t.Columns {
		k := strings.ToLower(strings.TrimSpace(h))
		if _, dup := byFold[k]; !dup {
			byFold[k] = h
		}
	}

	res := make(Resolved, len(c.Columns))
	var missing []string
	for _, col := range c.Columns {
		found := ""
		for _, name := range append([]string{col.Name}, col.Aliases...) {
			if h, ok := byFold[strings.ToLower(name)]; ok {
				found = h
				break
			}
		}
		if found == "" {
			missing = append(missing, col.Name)
			continue
		}
		res[col.Name] = found
	}
	if len(missing) > 0 {
		return nil, &etlerr.SchemaError{Table: c.Table, Missing: missing}
	}
	return res, nil
}
