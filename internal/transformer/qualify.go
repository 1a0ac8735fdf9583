package transformer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pimformat/internal/config"
	"pimformat/internal/sheet"
)

// Qualifier decides which data rows take part in key derivation, lookup and
// counting. A row qualifies when the lowercased text of the filter column
// contains any keyword. Empty cells never qualify.
//
// A Qualifier is not safe for concurrent use.
type Qualifier struct {
	col      int
	keywords []string
	lower    cases.Caser
}

// NewQualifier builds a Qualifier from the filter settings. Keywords are
// lowercased once here.
func NewQualifier(f config.Filter) *Qualifier {
	q := &Qualifier{col: f.Column, lower: cases.Lower(language.Und)}
	for _, kw := range f.Keywords {
		if kw = q.lower.String(kw); kw != "" {
			q.keywords = append(q.keywords, kw)
		}
	}
	return q
}

// Match reports whether v qualifies.
func (q *Qualifier) Match(v sheet.Value) bool {
	if v.IsBlank() {
		return false
	}
	s := q.lower.String(v.String())
	for _, kw := range q.keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Rows returns the qualifying data rows of t (row 2 onward), ascending.
func (q *Qualifier) Rows(t *sheet.Table) []int {
	var rows []int
	for r := 2; r <= t.MaxRow(); r++ {
		if q.Match(t.Value(r, q.col)) {
			rows = append(rows, r)
		}
	}
	return rows
}
