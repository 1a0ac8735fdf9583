// Package transformer implements the in-memory stages of the PIM pipeline:
// column restructuring, derived keys, the part-data lookup, frequency counts
// and the optional finalize pass.
//
// Every stage mutates a *sheet.Table in place and takes its column positions
// from config.Layout. Stages that work on "qualifying rows" receive the row
// numbers from a Qualifier so that the filter is evaluated once per run.
package transformer

import "pimformat/internal/sheet"

// Transformer edits a table in place.
type Transformer interface{ Apply(*sheet.Table) }

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(t *sheet.Table) {
	for _, tr := range c {
		tr.Apply(t)
	}
}

// Func adapts a plain function to Transformer.
type Func func(*sheet.Table)

func (f Func) Apply(t *sheet.Table) { f(t) }
