package sheet

import "fmt"

// Highlight is a named header style. The workbook writer resolves it to a
// concrete excelize style.
type Highlight uint8

const (
	HighlightNone Highlight = iota
	// HighlightKey is the blue count-column header.
	HighlightKey
	// HighlightResult is the green lookup-result header.
	HighlightResult
	// HighlightAlert is the pink header with dark red text.
	HighlightAlert
)

// ParseHighlight maps a config name ("key", "result", "alert" or "") to a
// Highlight.
func ParseHighlight(name string) (Highlight, error) {
	switch name {
	case "":
		return HighlightNone, nil
	case "key":
		return HighlightKey, nil
	case "result":
		return HighlightResult, nil
	case "alert":
		return HighlightAlert, nil
	}
	return HighlightNone, fmt.Errorf("sheet: unknown highlight %q", name)
}

// Cell is one stored cell: its value plus what has to travel with it when
// the cell is moved (style id, which carries the number format, and the
// formula text).
type Cell struct {
	Value     Value
	Style     int
	Formula   string
	Highlight Highlight
}

// IsFormula reports whether the cell holds a formula.
func (c Cell) IsFormula() bool { return c.Formula != "" }

// Table is a sheet held in memory. Addressing is 1-based (row, col) like the
// spreadsheet itself; row 1 is the header. Cells outside the stored extent
// read as empty.
type Table struct {
	rows [][]Cell
}

// NewTable builds a table from plain values, one slice per row.
func NewTable(rows ...[]Value) *Table {
	t := &Table{rows: make([][]Cell, len(rows))}
	for i, r := range rows {
		cells := make([]Cell, len(r))
		for j, v := range r {
			cells[j] = Cell{Value: v}
		}
		t.rows[i] = cells
	}
	return t
}

// TextRow is a helper for building rows from strings; "" becomes Empty.
func TextRow(ss ...string) []Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		if s != "" {
			out[i] = Text(s)
		}
	}
	return out
}

// MaxRow is the last stored row.
func (t *Table) MaxRow() int { return len(t.rows) }

// MaxCol is the widest stored row.
func (t *Table) MaxCol() int {
	n := 0
	for _, r := range t.rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// Cell returns the cell at (row, col).
func (t *Table) Cell(row, col int) Cell {
	if row < 1 || row > len(t.rows) {
		return Cell{}
	}
	r := t.rows[row-1]
	if col < 1 || col > len(r) {
		return Cell{}
	}
	return r[col-1]
}

// Value returns the value at (row, col).
func (t *Table) Value(row, col int) Value { return t.Cell(row, col).Value }

// Row returns a copy of the stored cells of row.
func (t *Table) Row(row int) []Cell {
	if row < 1 || row > len(t.rows) {
		return nil
	}
	return append([]Cell(nil), t.rows[row-1]...)
}

// Values returns the values of row.
func (t *Table) Values(row int) []Value {
	cells := t.Row(row)
	out := make([]Value, len(cells))
	for i, c := range cells {
		out[i] = c.Value
	}
	return out
}

// AppendRow adds a row of cells after the last one.
func (t *Table) AppendRow(cells []Cell) {
	t.rows = append(t.rows, append([]Cell(nil), cells...))
}

// Set writes v at (row, col), keeping the cell's style and dropping any
// formula. The table grows as needed.
func (t *Table) Set(row, col int, v Value) {
	c := t.ref(row, col)
	c.Value = v
	c.Formula = ""
}

// SetCell replaces the whole cell at (row, col).
func (t *Table) SetCell(row, col int, c Cell) {
	*t.ref(row, col) = c
}

// SetHighlight marks (row, col) with a header style.
func (t *Table) SetHighlight(row, col int, h Highlight) {
	t.ref(row, col).Highlight = h
}

func (t *Table) ref(row, col int) *Cell {
	if row < 1 || col < 1 {
		panic("sheet: cell coordinates are 1-based")
	}
	for len(t.rows) < row {
		t.rows = append(t.rows, nil)
	}
	r := t.rows[row-1]
	if len(r) < col {
		grown := make([]Cell, col)
		copy(grown, r)
		r = grown
		t.rows[row-1] = r
	}
	return &r[col-1]
}

// Column returns the cells of col for rows 1..MaxRow.
func (t *Table) Column(col int) []Cell {
	out := make([]Cell, len(t.rows))
	for i := range t.rows {
		out[i] = t.Cell(i+1, col)
	}
	return out
}

// SetColumn writes cells into col starting at row 1.
func (t *Table) SetColumn(col int, cells []Cell) {
	for i, c := range cells {
		t.SetCell(i+1, col, c)
	}
}

// InsertCols inserts n empty columns before col, shifting col and everything
// to its right. Rows that end before col are unaffected.
func (t *Table) InsertCols(col, n int) {
	if col < 1 || n < 1 {
		return
	}
	for i, r := range t.rows {
		if len(r) < col {
			continue
		}
		grown := make([]Cell, len(r)+n)
		copy(grown, r[:col-1])
		copy(grown[col-1+n:], r[col-1:])
		t.rows[i] = grown
	}
}

// DeleteCol removes col, shifting everything to its right one place left.
func (t *Table) DeleteCol(col int) {
	if col < 1 {
		return
	}
	for i, r := range t.rows {
		if len(r) < col {
			continue
		}
		t.rows[i] = append(r[:col-1:col-1], r[col:]...)
	}
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := &Table{rows: make([][]Cell, len(t.rows))}
	for i, r := range t.rows {
		c.rows[i] = append([]Cell(nil), r...)
	}
	return c
}
