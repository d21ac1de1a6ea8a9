package builtin

import (
	"retailetl/pkg/records"
)

// Nullable transaction fields Require understands.
const (
	FieldCustomerID  = "CustomerID"
	FieldQuantity    = "Quantity"
	FieldDescription = "Description"
)

// Require removes any transaction missing a value for one of Fields.
// Unknown field names are ignored.
type Require struct {
	Fields []string
}

// Apply returns a new batch containing only transactions with every required
// field present.
func (r Require) Apply(in records.Batch) records.Batch {
	out := make(records.Batch, 0, len(in))
	for _, t := range in {
		ok := true
		for _, f := range r.Fields {
			if !present(t, f) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, t)
		}
	}
	return out
}

func present(t records.Transaction, field string) bool {
	switch field {
	case FieldCustomerID:
		return t.CustomerID != nil
	case FieldQuantity:
		return t.Quantity != nil
	case FieldDescription:
		return t.Description != nil
	}
	return true
}

// FillDescription replaces a missing description with Value.
type FillDescription struct {
	Value string
}

func (f FillDescription) Apply(in records.Batch) records.Batch {
	out := make(records.Batch, len(in))
	for i, t := range in {
		if t.Description == nil {
			t.Description = records.StringPtr(f.Value)
		}
		out[i] = t
	}
	return out
}

// Partition splits in into the rows matching pred and the rest. Every input
// row lands in exactly one output; relative order is kept in both.
func Partition(in records.Batch, pred func(records.Transaction) bool) (match, rest records.Batch) {
	match = make(records.Batch, 0)
	rest = make(records.Batch, 0, len(in))
	for _, t := range in {
		if pred(t) {
			match = append(match, t)
		} else {
			rest = append(rest, t)
		}
	}
	return match, rest
}
