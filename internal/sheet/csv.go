package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\uFEFF"

// ReadCSV loads a delimited export into a Table, header included as row 1.
// Fields are kept as text (CSV carries no types); empty fields are Empty.
// Rows may have differing widths.
func ReadCSV(r io.Reader, comma rune) (*Table, error) {
	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	t := &Table{}
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("sheet: csv line %d: %w", line, err)
		}
		if line == 1 {
			rec = stripHeaderBOM(rec)
		}
		cells := make([]Cell, len(rec))
		for i, s := range rec {
			if s != "" {
				cells[i] = Cell{Value: Text(s)}
			}
		}
		t.rows = append(t.rows, trimCells(cells))
	}
}

// stripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func stripHeaderBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}
