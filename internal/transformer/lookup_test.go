package transformer

import (
	"testing"

	"pimformat/internal/config"
	"pimformat/internal/sheet"
)

// partTable builds an unkeyed part-data table: C and D hold the key halves,
// columns 16 and 18 become Q and S once the key column is inserted.
func partTable(rows ...[4]string) *sheet.Table {
	tb := sheet.NewTable(row(18, map[int]sheet.Value{3: text("C"), 4: text("D"), 16: text("Q"), 18: text("S")}))
	for _, r := range rows {
		vals := map[int]sheet.Value{}
		for i, col := range []int{3, 4, 16, 18} {
			if r[i] != "" {
				vals[col] = text(r[i])
			}
		}
		tb.AppendRow(cellsOf(row(18, vals)))
	}
	return tb
}

func cellsOf(vals []sheet.Value) []sheet.Cell {
	out := make([]sheet.Cell, len(vals))
	for i, v := range vals {
		out[i] = sheet.Cell{Value: v}
	}
	return out
}

// pimTable builds a post-restructure PIM table with the given (filter, N, O)
// triples as data rows.
func pimTable(rows ...[3]string) *sheet.Table {
	tb := sheet.NewTable(row(22, map[int]sheet.Value{8: text("Status"), 22: text("Datasheet")}))
	for _, r := range rows {
		vals := map[int]sheet.Value{}
		for i, col := range []int{8, 14, 15} {
			if r[i] != "" {
				vals[col] = text(r[i])
			}
		}
		tb.AppendRow(cellsOf(row(22, vals)))
	}
	return tb
}

func TestEndToEndLookupPicksSelectedBranch(t *testing.T) {
	t.Parallel()

	layout := config.DefaultLayout()
	pim := pimTable([3]string{"Needs New part", "AB", "12"})
	part := partTable([4]string{"AB", "12", "NOD-compatible", "SHEETX"})

	rows := NewQualifier(layout.Filter).Rows(pim)
	DeriveKeys(pim, rows, layout.Keys)
	if got := pim.Value(2, 16); !got.Equal(text("AB12")) {
		t.Fatalf("P2 = %#v, want AB12", got)
	}

	KeyPartTable(part, layout.Part)
	if got := part.Value(2, 5); !got.Equal(text("AB12")) {
		t.Fatalf("part E2 = %#v, want AB12", got)
	}
	if !part.Value(1, 5).IsEmpty() {
		t.Fatalf("inserted part header should be empty")
	}

	ix := NewPartIndex(part, layout.Part)
	st := Lookup(pim, rows, ix, layout.Lookup)
	if st.Hits != 1 || st.Misses != 0 {
		t.Fatalf("stats = %+v", st)
	}
	if got := pim.Value(2, 22); !got.Equal(text("SHEETX")) {
		t.Fatalf("V2 = %#v, want SHEETX", got)
	}
}

func TestPartIndexResolve(t *testing.T) {
	t.Parallel()

	layout := config.DefaultLayout()
	part := partTable(
		[4]string{"A", "1", "plain", "other"},
		[4]string{"B", "2", "", "fallback"},
		[4]string{"C", "3", "first", "x"},
		[4]string{"C", "3", "Nodal", "last"},
		[4]string{"", "", "orphan", "orphan"},
	)
	KeyPartTable(part, layout.Part)
	ix := NewPartIndex(part, layout.Part)

	if ix.Len() != 3 {
		t.Fatalf("Len = %d, want 3 (blank keys skipped, repeats collapsed)", ix.Len())
	}
	tests := []struct {
		key  string
		want sheet.Value
		ok   bool
	}{
		{"A1", text("plain"), true},
		{"B2", sheet.Empty, true},
		{"C3", text("last"), true},
		{"Z9", sheet.Empty, false},
		{"", sheet.Empty, false},
	}
	for _, tt := range tests {
		got, ok := ix.Resolve(tt.key)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Errorf("Resolve(%q) = %#v, %v; want %#v, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLookupLeavesMissesAndEmptyChoicesUntouched(t *testing.T) {
	t.Parallel()

	layout := config.DefaultLayout()
	pim := pimTable(
		[3]string{"new", "ZZ", "99"},
		[3]string{"new", "B", "2"},
		[3]string{"closed", "A", "1"},
	)
	pim.Set(3, 22, text("keep"))
	part := partTable(
		[4]string{"A", "1", "plain", ""},
		[4]string{"B", "2", "", ""},
	)
	KeyPartTable(part, layout.Part)

	rows := NewQualifier(layout.Filter).Rows(pim)
	DeriveKeys(pim, rows, layout.Keys)
	st := Lookup(pim, rows, NewPartIndex(part, layout.Part), layout.Lookup)

	if st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v, want 1 hit 1 miss", st)
	}
	if !pim.Value(2, 22).IsEmpty() {
		t.Fatalf("miss must leave V2 unset, got %#v", pim.Value(2, 22))
	}
	if got := pim.Value(3, 22); !got.Equal(text("keep")) {
		t.Fatalf("empty choice must leave V3 untouched, got %#v", got)
	}
	if !pim.Value(4, 22).IsEmpty() || !pim.Value(4, 16).IsEmpty() {
		t.Fatalf("non-qualifying row was modified")
	}
}

func TestLookupSkipsEmptyStringChoice(t *testing.T) {
	t.Parallel()

	layout := config.DefaultLayout()
	pim := pimTable([3]string{"new", "AB", "12"})
	pim.Set(2, 22, text("keep"))
	part := partTable([4]string{"AB", "12", "", ""})
	KeyPartTable(part, layout.Part)
	// A cell holding "" rather than nothing.
	part.Set(2, layout.Part.First, text(""))

	rows := NewQualifier(layout.Filter).Rows(pim)
	DeriveKeys(pim, rows, layout.Keys)
	st := Lookup(pim, rows, NewPartIndex(part, layout.Part), layout.Lookup)

	if st.Hits != 1 {
		t.Fatalf("stats = %+v, want 1 hit", st)
	}
	if got := pim.Value(2, 22); !got.Equal(text("keep")) {
		t.Fatalf(`"" choice must leave V2 untouched, got %#v`, got)
	}
}

func TestDeriveKeysEmptyHalves(t *testing.T) {
	t.Parallel()

	layout := config.DefaultLayout()
	pim := pimTable([3]string{"new", "", ""})
	pim.Set(2, 12, sheet.Number(12))
	DeriveKeys(pim, []int{2}, layout.Keys)

	if got := pim.Value(2, 16); !got.Equal(text("")) {
		t.Fatalf("P2 = %#v, want empty text", got)
	}
	if got := pim.Value(2, 21); !got.Equal(text("12")) {
		t.Fatalf("U2 = %#v, want 12", got)
	}
}
