package transformer

import "pimformat/internal/sheet"

// row builds a row of width cells with the given 1-based columns set.
func row(width int, set map[int]sheet.Value) []sheet.Value {
	out := make([]sheet.Value, width)
	for c, v := range set {
		if c > len(out) {
			out = append(out, make([]sheet.Value, c-len(out))...)
		}
		out[c-1] = v
	}
	return out
}

func text(s string) sheet.Value { return sheet.Text(s) }

func headerTexts(t *sheet.Table) []string {
	vals := t.Values(1)
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}
