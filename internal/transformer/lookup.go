package transformer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pimformat/internal/config"
	"pimformat/internal/sheet"
)

// KeyPartTable inserts the part key column and fills it with the
// concatenation of the two source columns for every data row. The inserted
// header cell stays empty.
func KeyPartTable(t *sheet.Table, p config.PartLayout) {
	t.InsertCols(p.Key.Target, 1)
	for r := 2; r <= t.MaxRow(); r++ {
		deriveKey(t, r, p.Key)
	}
}

// PartPair is the pair of part-data values stored under one key.
type PartPair struct {
	First, Second sheet.Value
}

// PartIndex maps the text of the part key column to the row's value pair.
// When a key repeats, the last row wins. Blank keys are not indexed.
type PartIndex struct {
	pairs    map[string]PartPair
	selector string
	lower    cases.Caser
}

// NewPartIndex indexes the data rows of a keyed part table.
func NewPartIndex(t *sheet.Table, p config.PartLayout) *PartIndex {
	ix := &PartIndex{
		pairs: make(map[string]PartPair, t.MaxRow()),
		lower: cases.Lower(language.Und),
	}
	ix.selector = ix.lower.String(p.Selector)
	for r := 2; r <= t.MaxRow(); r++ {
		key := t.Value(r, p.Key.Target).String()
		if key == "" {
			continue
		}
		ix.pairs[key] = PartPair{First: t.Value(r, p.First), Second: t.Value(r, p.Second)}
	}
	return ix
}

// Len is the number of distinct keys.
func (ix *PartIndex) Len() int { return len(ix.pairs) }

// Get returns the pair stored under key.
func (ix *PartIndex) Get(key string) (PartPair, bool) {
	p, ok := ix.pairs[key]
	return p, ok
}

// Resolve looks key up and picks one value of its pair: Second when First is
// non-blank and contains the selector (case-insensitive), First otherwise.
func (ix *PartIndex) Resolve(key string) (sheet.Value, bool) {
	p, ok := ix.pairs[key]
	if !ok {
		return sheet.Empty, false
	}
	if !p.First.IsBlank() && strings.Contains(ix.lower.String(p.First.String()), ix.selector) {
		return p.Second, true
	}
	return p.First, true
}

// LookupStats counts the outcome of Lookup.
type LookupStats struct {
	Hits   int
	Misses int
}

// Lookup resolves the key column of each qualifying row against ix and
// writes the chosen value into the result column. Misses and blank choices
// (Empty or "") leave the result cell untouched.
func Lookup(t *sheet.Table, rows []int, ix *PartIndex, l config.Lookup) LookupStats {
	var st LookupStats
	for _, r := range rows {
		v, ok := ix.Resolve(t.Value(r, l.Key).String())
		if !ok {
			st.Misses++
			continue
		}
		st.Hits++
		if !v.IsBlank() {
			t.Set(r, l.Result, v)
		}
	}
	return st
}
