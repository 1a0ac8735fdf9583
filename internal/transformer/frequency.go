package transformer

import (
	"pimformat/internal/config"
	"pimformat/internal/sheet"
)

// Frequency writes, for each count rule and each qualifying row, how many
// qualifying rows (the row itself included) hold exactly the same non-blank
// value in the source column. Rows with a blank source value get 0.
//
// Rules run in order, so a rule may count a column an earlier rule wrote.
func Frequency(t *sheet.Table, rows []int, counts []config.Count) {
	for _, c := range counts {
		tally := make(map[sheet.Value]int, len(rows))
		for _, r := range rows {
			if v := t.Value(r, c.Source); !v.IsBlank() {
				tally[v]++
			}
		}
		for _, r := range rows {
			n := 0
			if v := t.Value(r, c.Source); !v.IsBlank() {
				n = tally[v]
			}
			t.Set(r, c.Target, sheet.Number(float64(n)))
		}
	}
}
