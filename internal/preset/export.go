package preset

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pimformat/internal/sheet"
)

// Export layout of the matched preset rows. Columns D, E and F are the
// ones reviewers read; E is also set in dark red.
const (
	exportSheet = "Sheet1"
	alertColumn = 5
	textColor   = "000000"
	alertColor  = "9C0006"
)

var (
	exportHeaderFills = map[int]string{4: "00B050", 5: "FFC7CE", 6: "00B0F0"}
	exportWidths      = map[int]float64{4: 37, 5: 80, 6: 95}
)

// WriteExport writes the matched table (header plus rows) to path as a new
// workbook with the export styling applied.
func WriteExport(path string, t *sheet.Table) error {
	wb := sheet.NewWorkbook()
	defer wb.Close()
	f := wb.File()

	styles := map[[2]int]int{} // (column, header?) -> style id
	style := func(col, row int) (int, error) {
		header := 0
		if row == 1 && !t.Value(1, col).IsEmpty() {
			if _, ok := exportHeaderFills[col]; ok {
				header = 1
			}
		}
		key := [2]int{col, header}
		if id, ok := styles[key]; ok {
			return id, nil
		}
		st := &excelize.Style{Font: &excelize.Font{Color: textColor}}
		if col == alertColumn {
			st.Font.Color = alertColor
		}
		if header == 1 {
			st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{exportHeaderFills[col]}}
		}
		id, err := f.NewStyle(st)
		if err != nil {
			return 0, err
		}
		styles[key] = id
		return id, nil
	}

	out := sheet.NewTable()
	for r := 1; r <= t.MaxRow(); r++ {
		for c, v := range t.Values(r) {
			col := c + 1
			id, err := style(col, r)
			if err != nil {
				return fmt.Errorf("preset: export style: %w", err)
			}
			out.SetCell(r, col, sheet.Cell{Value: v, Style: id})
		}
	}
	if err := wb.WriteTable(exportSheet, out); err != nil {
		return fmt.Errorf("preset: export: %w", err)
	}
	for col, w := range exportWidths {
		if err := wb.SetColWidth(exportSheet, col, w); err != nil {
			return fmt.Errorf("preset: export width: %w", err)
		}
	}
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("preset: export: %w", err)
	}
	return nil
}
