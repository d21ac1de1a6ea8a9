// Package transformer composes batch transformations. A Transformer must not
// modify the batch it receives; it returns a new one.
package transformer

import "retailetl/pkg/records"

// Transformer maps one batch to another.
type Transformer interface {
	Apply(records.Batch) records.Batch
}

// Func adapts a plain function to Transformer.
type Func func(records.Batch) records.Batch

// Apply calls f(in).
func (f Func) Apply(in records.Batch) records.Batch { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs each transformer on the output of the previous one. An empty
// chain returns in unchanged.
func (c Chain) Apply(in records.Batch) records.Batch {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
