package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook wraps an excelize file. It is not safe for concurrent use.
type Workbook struct {
	f          *excelize.File
	highlights map[Highlight]int
}

// Open opens a workbook from disk.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("sheet: open %s: %w", path, err)
	}
	return &Workbook{f: f}, nil
}

// OpenReader reads a workbook from r.
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("sheet: read workbook: %w", err)
	}
	return &Workbook{f: f}, nil
}

// NewWorkbook returns an empty workbook with a single sheet.
func NewWorkbook() *Workbook {
	return &Workbook{f: excelize.NewFile()}
}

// File exposes the underlying excelize file for formatting that has no
// Table equivalent.
func (w *Workbook) File() *excelize.File { return w.f }

// FirstSheet returns the name of the first worksheet.
func (w *Workbook) FirstSheet() (string, error) {
	list := w.f.GetSheetList()
	if len(list) == 0 {
		return "", fmt.Errorf("sheet: workbook has no worksheets")
	}
	return list[0], nil
}

// ReadTable loads every cell of sheet with its value, style and formula.
func (w *Workbook) ReadTable(sheet string) (*Table, error) {
	rows, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet: read %s: %w", sheet, err)
	}
	maxRow, maxCol := len(rows), 0
	for _, r := range rows {
		if len(r) > maxCol {
			maxCol = len(r)
		}
	}
	if dr, dc, ok := w.dimension(sheet); ok {
		maxRow, maxCol = max(maxRow, dr), max(maxCol, dc)
	}

	t := &Table{rows: make([][]Cell, maxRow)}
	for r := 1; r <= maxRow; r++ {
		var raw []string
		if r <= len(rows) {
			raw = rows[r-1]
		}
		cells := make([]Cell, maxCol)
		for c := 1; c <= maxCol; c++ {
			axis, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return nil, err
			}
			var s string
			if c <= len(raw) {
				s = raw[c-1]
			}
			cell, err := w.readCell(sheet, axis, s)
			if err != nil {
				return nil, fmt.Errorf("sheet: read %s!%s: %w", sheet, axis, err)
			}
			cells[c-1] = cell
		}
		t.rows[r-1] = trimCells(cells)
	}
	return t, nil
}

func (w *Workbook) readCell(sheet, axis, raw string) (Cell, error) {
	typ, err := w.f.GetCellType(sheet, axis)
	if err != nil {
		return Cell{}, err
	}
	formula, err := w.f.GetCellFormula(sheet, axis)
	if err != nil {
		return Cell{}, err
	}
	style, err := w.f.GetCellStyle(sheet, axis)
	if err != nil {
		return Cell{}, err
	}
	return Cell{Value: classify(typ, raw), Style: style, Formula: formula}, nil
}

// classify turns a raw cell string into a Value using the stored cell type.
// Numeric cells usually carry no type attribute, so untyped cells are
// numbers when they parse as one.
func classify(typ excelize.CellType, raw string) Value {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		if raw == "" {
			return Empty
		}
		return Text(raw)
	case excelize.CellTypeBool:
		switch raw {
		case "1":
			return Text("TRUE")
		case "0":
			return Text("FALSE")
		}
		return Text(raw)
	case excelize.CellTypeDate, excelize.CellTypeError:
		return Text(raw)
	}
	if raw == "" {
		return Empty
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Number(f)
	}
	return Text(raw)
}

func trimCells(cells []Cell) []Cell {
	n := len(cells)
	for n > 0 && cells[n-1] == (Cell{}) {
		n--
	}
	return cells[:n]
}

// dimension parses the sheet's dimension ref. Workbooks saved by Excel keep
// it current, so it catches styled cells GetRows skips; it only ever widens
// the GetRows extent.
func (w *Workbook) dimension(sheet string) (rows, cols int, ok bool) {
	ref, err := w.f.GetSheetDimension(sheet)
	if err != nil || ref == "" {
		return 0, 0, false
	}
	end := ref
	if i := strings.LastIndexByte(ref, ':'); i >= 0 {
		end = ref[i+1:]
	}
	c, r, err := excelize.CellNameToCoordinates(end)
	if err != nil {
		return 0, 0, false
	}
	return r, c, true
}

// extent is the stored size of sheet: the row count and the widest row as
// returned by GetRows. The dimension ref is not used because excelize leaves
// it at "A1" for sheets it wrote itself.
func (w *Workbook) extent(sheet string) (rows, cols int, err error) {
	all, err := w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, 0, err
	}
	for _, r := range all {
		cols = max(cols, len(r))
	}
	return len(all), cols, nil
}

// WriteTable overwrites sheet with t. Cells that existed in the sheet but lie
// outside t are cleared so a table that shrank leaves no stale columns.
func (w *Workbook) WriteTable(sheet string, t *Table) error {
	if idx, err := w.f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if _, err := w.f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet: create %s: %w", sheet, err)
		}
	}
	dr, dc, err := w.extent(sheet)
	if err != nil {
		return fmt.Errorf("sheet: read %s: %w", sheet, err)
	}
	maxRow, maxCol := max(t.MaxRow(), dr), max(t.MaxCol(), dc)
	for r := 1; r <= maxRow; r++ {
		for c := 1; c <= maxCol; c++ {
			axis, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return err
			}
			if err := w.writeCell(sheet, axis, t.Cell(r, c)); err != nil {
				return fmt.Errorf("sheet: write %s!%s: %w", sheet, axis, err)
			}
		}
	}
	return nil
}

func (w *Workbook) writeCell(sheet, axis string, c Cell) error {
	if err := w.f.SetCellValue(sheet, axis, c.Value.Any()); err != nil {
		return err
	}
	if c.IsFormula() {
		if err := w.f.SetCellFormula(sheet, axis, c.Formula); err != nil {
			return err
		}
	}
	style := c.Style
	if c.Highlight != HighlightNone {
		id, err := w.highlightStyle(c.Highlight)
		if err != nil {
			return err
		}
		style = id
	}
	return w.f.SetCellStyle(sheet, axis, axis, style)
}

func (w *Workbook) highlightStyle(h Highlight) (int, error) {
	if id, ok := w.highlights[h]; ok {
		return id, nil
	}
	st, ok := highlightStyles[h]
	if !ok {
		return 0, fmt.Errorf("sheet: unknown highlight %d", h)
	}
	id, err := w.f.NewStyle(st)
	if err != nil {
		return 0, err
	}
	if w.highlights == nil {
		w.highlights = map[Highlight]int{}
	}
	w.highlights[h] = id
	return id, nil
}

var centered = &excelize.Alignment{Horizontal: "center", Vertical: "center"}

var highlightStyles = map[Highlight]*excelize.Style{
	HighlightKey: {
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00B0F0"}},
		Font:      &excelize.Font{Bold: true, Color: "000000"},
		Alignment: centered,
	},
	HighlightResult: {
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"00B050"}},
		Font:      &excelize.Font{Bold: true, Color: "000000"},
		Alignment: centered,
	},
	HighlightAlert: {
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
		Font:      &excelize.Font{Bold: true, Color: "9C0006"},
		Alignment: centered,
	},
}

// SetAutoFilter puts a filter on the header row across cols columns.
func (w *Workbook) SetAutoFilter(sheet string, cols int) error {
	if cols < 1 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	return w.f.AutoFilter(sheet, "A1:"+last, nil)
}

// thinBorder outlines a cell on all four sides.
var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// SetBorders draws a thin border around every cell of t whose text is not
// blank after trimming spaces. The cell's existing style (fill, font, number
// format) is kept. Call it after WriteTable.
func (w *Workbook) SetBorders(sheet string, t *Table) error {
	bordered := map[int]int{} // style id -> same style with borders
	for r := 1; r <= t.MaxRow(); r++ {
		for c, v := range t.Values(r) {
			if strings.TrimSpace(v.String()) == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r)
			if err != nil {
				return err
			}
			cur, err := w.f.GetCellStyle(sheet, axis)
			if err != nil {
				return fmt.Errorf("sheet: style %s!%s: %w", sheet, axis, err)
			}
			id, ok := bordered[cur]
			if !ok {
				st, err := w.f.GetStyle(cur)
				if err != nil {
					return fmt.Errorf("sheet: style %d: %w", cur, err)
				}
				st.Border = thinBorder
				if id, err = w.f.NewStyle(st); err != nil {
					return fmt.Errorf("sheet: border style: %w", err)
				}
				bordered[cur] = id
			}
			if err := w.f.SetCellStyle(sheet, axis, axis, id); err != nil {
				return fmt.Errorf("sheet: style %s!%s: %w", sheet, axis, err)
			}
		}
	}
	return nil
}

// SetColWidth sets the width of a single 1-based column.
func (w *Workbook) SetColWidth(sheet string, col int, width float64) error {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, name, name, width)
}

// SaveAs writes the workbook to path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("sheet: save %s: %w", path, err)
	}
	return nil
}

// Write streams the workbook to wr.
func (w *Workbook) Write(wr io.Writer) error {
	return w.f.Write(wr)
}

func (w *Workbook) Close() error { return w.f.Close() }
