package transformer

import (
	"slices"
	"unicode/utf8"

	"pimformat/internal/config"
	"pimformat/internal/sheet"
)

// headerPadding is added to the header length when fitting column widths.
const headerPadding = 5

// Finalize drops the configured columns. Positions refer to the table before
// any of them is removed.
func Finalize(t *sheet.Table, f config.Finalize) {
	cols := slices.Clone(f.DropColumns)
	slices.Sort(cols)
	cols = slices.Compact(cols)
	for i := len(cols) - 1; i >= 0; i-- {
		t.DeleteCol(cols[i])
	}
}

// HeaderWidths returns a column width for every non-blank header cell: the
// label length plus a fixed padding.
func HeaderWidths(t *sheet.Table) map[int]float64 {
	widths := make(map[int]float64)
	for c, v := range t.Values(1) {
		if v.IsBlank() {
			continue
		}
		widths[c+1] = float64(utf8.RuneCountInString(v.String()) + headerPadding)
	}
	return widths
}
