package preset

import (
	"encoding/json"
	"fmt"

	"pimformat/internal/sheet"
)

// EncodeRow renders one row of values as a JSON array (null, number or
// string per cell). Stores persist rows in this form.
func EncodeRow(vals []sheet.Value) ([]byte, error) {
	b, err := json.Marshal(vals)
	if err != nil {
		return nil, fmt.Errorf("preset: encode row: %w", err)
	}
	return b, nil
}

// DecodeRow is the inverse of EncodeRow.
func DecodeRow(raw []byte) ([]sheet.Cell, error) {
	var vals []sheet.Value
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, fmt.Errorf("preset: decode row: %w", err)
	}
	cells := make([]sheet.Cell, len(vals))
	for i, v := range vals {
		cells[i] = sheet.Cell{Value: v}
	}
	return cells, nil
}
