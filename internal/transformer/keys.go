package transformer

import (
	"pimformat/internal/config"
	"pimformat/internal/sheet"
)

// DeriveKeys writes the primary and secondary concatenated keys for each of
// rows. Other rows are left alone.
func DeriveKeys(t *sheet.Table, rows []int, k config.Keys) {
	for _, r := range rows {
		deriveKey(t, r, k.Primary)
		deriveKey(t, r, k.Secondary)
	}
}

func deriveKey(t *sheet.Table, row int, k config.KeyRule) {
	t.Set(row, k.Target, sheet.Concat(t.Value(row, k.Left), t.Value(row, k.Right)))
}
