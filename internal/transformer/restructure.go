package transformer

import (
	"slices"

	"pimformat/internal/config"
	"pimformat/internal/sheet"
)

// Restructure applies the structural edits of r to the PIM table in order:
// move, copy, placeholder, spacer, headers.
func Restructure(t *sheet.Table, r config.Restructure) {
	RestructureChain(r).Apply(t)
}

// RestructureChain returns the edits of r as a Chain so callers can report
// progress between them. The header step is always last.
func RestructureChain(r config.Restructure) Chain {
	return Chain{
		MoveColumns(r.Move),
		CopyColumns(r.Copy),
		Placeholder(r.Placeholder),
		Spacer(r.Spacer),
		Headers(r.Headers),
	}
}

func capture(t *sheet.Table, cols []int) [][]sheet.Cell {
	out := make([][]sheet.Cell, len(cols))
	for i, c := range cols {
		out[i] = t.Column(c)
	}
	return out
}

func paste(t *sheet.Table, at int, captured [][]sheet.Cell) {
	for i, cells := range captured {
		t.SetColumn(at+i, cells)
	}
}

// MoveColumns lifts the From columns out of the table (value, style and
// formula), deletes them and pastes them side by side at To. To is a
// position in the table as it stands after the deletion.
func MoveColumns(m config.ColumnMove) Transformer {
	return Func(func(t *sheet.Table) {
		if len(m.From) == 0 {
			return
		}
		captured := capture(t, m.From)
		desc := slices.Clone(m.From)
		slices.Sort(desc)
		slices.Reverse(desc)
		for _, c := range slices.Compact(desc) {
			t.DeleteCol(c)
		}
		t.InsertCols(m.To, len(m.From))
		paste(t, m.To, captured)
	})
}

// CopyColumns duplicates the From columns into freshly inserted columns at
// To, leaving the originals in place.
func CopyColumns(m config.ColumnMove) Transformer {
	return Func(func(t *sheet.Table) {
		if len(m.From) == 0 {
			return
		}
		captured := capture(t, m.From)
		t.InsertCols(m.To, len(m.From))
		paste(t, m.To, captured)
	})
}

// Placeholder swaps a column for an empty one headed by p.Label.
func Placeholder(p config.Placeholder) Transformer {
	return Func(func(t *sheet.Table) {
		if p.Column < 1 {
			return
		}
		t.DeleteCol(p.Column)
		t.InsertCols(p.Column, 1)
		t.SetCell(1, p.Column, sheet.Cell{Value: sheet.Text(p.Label)})
	})
}

// Spacer inserts s.Count empty columns at s.At.
func Spacer(s config.Spacer) Transformer {
	return Func(func(t *sheet.Table) {
		t.InsertCols(s.At, s.Count)
	})
}

// Headers relabels and highlights header cells. Unknown highlight names are
// ignored here; config validation rejects them before a run.
func Headers(rules []config.HeaderRule) Transformer {
	return Func(func(t *sheet.Table) {
		for _, h := range rules {
			if h.Column < 1 {
				continue
			}
			if h.Label != "" {
				t.Set(1, h.Column, sheet.Text(h.Label))
			}
			if hl, err := sheet.ParseHighlight(h.Highlight); err == nil && hl != sheet.HighlightNone {
				t.SetHighlight(1, h.Column, hl)
			}
		}
	})
}
