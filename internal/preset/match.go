package preset

import "pimformat/internal/sheet"

// KeySet collects the non-blank text of col over rows.
func KeySet(t *sheet.Table, rows []int, col int) map[string]struct{} {
	keys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if s := t.Value(r, col).String(); s != "" {
			keys[s] = struct{}{}
		}
	}
	return keys
}

// Match returns the header row of preset followed by every data row whose
// keyCol text is in keys, plus the number of matched data rows. Cell values
// only are carried over.
func Match(preset *sheet.Table, keys map[string]struct{}, keyCol int) (*sheet.Table, int) {
	out := sheet.NewTable(preset.Values(1))
	n := 0
	for r := 2; r <= preset.MaxRow(); r++ {
		if _, ok := keys[preset.Value(r, keyCol).String()]; !ok {
			continue
		}
		vals := preset.Values(r)
		cells := make([]sheet.Cell, len(vals))
		for i, v := range vals {
			cells[i] = sheet.Cell{Value: v}
		}
		out.AppendRow(cells)
		n++
	}
	return out, n
}
