package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"pimformat/internal/config"
	"pimformat/internal/preset"
	"pimformat/internal/preset/sqlite"
	"pimformat/internal/sheet"
)

var runDate = time.Date(2025, 7, 17, 9, 30, 0, 0, time.UTC)

// writeSheet saves rows as the first sheet of a new workbook; "" cells stay
// empty.
func writeSheet(t *testing.T, path string, rows ...[]string) string {
	t.Helper()
	vals := make([][]sheet.Value, len(rows))
	for i, r := range rows {
		vals[i] = sheet.TextRow(r...)
	}
	wb := sheet.NewWorkbook()
	defer wb.Close()
	if err := wb.WriteTable("Sheet1", sheet.NewTable(vals...)); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

// wide returns a width-long row with the given 1-based columns set.
func wide(width int, set map[int]string) []string {
	out := make([]string, width)
	for c, s := range set {
		out[c-1] = s
	}
	return out
}

func readFirst(t *testing.T, path string) *sheet.Table {
	t.Helper()
	wb, err := sheet.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer wb.Close()
	name, err := wb.FirstSheet()
	if err != nil {
		t.Fatalf("FirstSheet: %v", err)
	}
	tb, err := wb.ReadTable(name)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	return tb
}

type fixture struct {
	dir   string
	in    Inputs
	cache *preset.Cache
}

// newFixture lays out a raw A..X PIM report with two qualifying rows for the
// key AB12 and one row that does not qualify, a part-data sheet resolving
// AB12 to SHEETX and a CSV preset source containing presetKey.
func newFixture(t *testing.T, presetKey string) fixture {
	t.Helper()
	dir := t.TempDir()

	header := make([]string, 24)
	for i := range header {
		header[i] = string(rune('A' + i))
	}
	pim := writeSheet(t, filepath.Join(dir, "pim.xlsx"),
		header,
		wide(24, map[int]string{3: "AB", 4: "12", 8: "New"}),
		wide(24, map[int]string{3: "ZZ", 4: "99", 8: "done"}),
		wide(24, map[int]string{3: "AB", 4: "12", 8: "Check Value"}),
	)
	part := writeSheet(t, filepath.Join(dir, "part.xlsx"),
		wide(18, map[int]string{3: "C", 4: "D", 16: "Q", 18: "S"}),
		wide(18, map[int]string{3: "AB", 4: "12", 16: "NOD-1", 18: "SHEETX"}),
	)
	src := filepath.Join(dir, "preset.csv")
	body := "a,b,c,Name,Key,Desc\n1,,,first," + presetKey + ",d1\n2,,,second,CD34,d2\n"
	if err := os.WriteFile(src, []byte(body), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}

	store, err := sqlite.New(context.Background(), filepath.Join(dir, "preset.sqlite"))
	if err != nil {
		t.Fatalf("sqlite.New: %v", err)
	}
	cache := preset.NewCache(store)
	t.Cleanup(func() { _ = cache.Close() })

	return fixture{
		dir:   dir,
		in:    Inputs{PIM: pim, PartData: part, Preset: src},
		cache: cache,
	}
}

func (f fixture) options() Options {
	return Options{
		Config:  config.Default(),
		Presets: f.cache,
		RunID:   "test-run",
		Now:     func() time.Time { return runDate },
	}
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "AB12")
	var progress []int
	opts := f.options()
	opts.Progress = func(p int) { progress = append(progress, p) }

	res, err := Run(context.Background(), f.in, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := Result{
		RunID:        "test-run",
		Qualifying:   2,
		PartKeys:     1,
		LookupHits:   2,
		LookupMisses: 0,
		Exported:     1,
		OutputPath:   f.in.PIM,
		ExportPath:   filepath.Join(f.dir, "DK Preset_17_07_2025.xlsx"),
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("Result (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{10, 30, 40, 50, 70, 85, 100}, progress); diff != "" {
		t.Fatalf("progress (-want +got):\n%s", diff)
	}

	out := readFirst(t, f.in.PIM)
	if got := out.Value(1, 22).String(); got != "Datasheet" {
		t.Fatalf("V1 = %q, want Datasheet", got)
	}
	for _, r := range []int{2, 4} {
		if got := out.Value(r, 16).String(); got != "AB12" {
			t.Errorf("P%d = %q, want AB12", r, got)
		}
		if got := out.Value(r, 22).String(); got != "SHEETX" {
			t.Errorf("V%d = %q, want SHEETX", r, got)
		}
		for _, col := range []int{18, 19, 20} {
			if got := out.Value(r, col); !got.Equal(sheet.Number(2)) {
				t.Errorf("row %d col %d = %#v, want 2", r, col, got)
			}
		}
	}
	if got := out.Value(3, 16); !got.IsBlank() {
		t.Errorf("non-qualifying P3 = %#v, want blank", got)
	}

	part := readFirst(t, f.in.PartData)
	if got := part.Value(2, 5).String(); got != "AB12" {
		t.Fatalf("part E2 = %q, want the derived key written back", got)
	}

	exp := readFirst(t, res.ExportPath)
	if exp.MaxRow() != 2 || exp.Value(2, 5).String() != "AB12" {
		t.Fatalf("export rows = %d, key = %q", exp.MaxRow(), exp.Value(2, 5).String())
	}
}

func TestRunNoMatchWritesNoExport(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "EF56")
	opts := f.options()
	opts.OutDir = t.TempDir()

	res, err := Run(context.Background(), f.in, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Exported != 0 || res.ExportPath != "" {
		t.Fatalf("Exported = %d, ExportPath = %q; want nothing", res.Exported, res.ExportPath)
	}
	entries, err := os.ReadDir(opts.OutDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("export dir holds %d files, want 0", len(entries))
	}
}

func TestRunOutputDirectoryAndSkipWriteBack(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "AB12")
	opts := f.options()
	opts.OutPath = t.TempDir()
	opts.Config.Part.SkipWriteBack = true
	opts.Config.Finalize = config.Finalize{AutoFilter: true, FitHeaders: true, Borders: true}

	res, err := Run(context.Background(), f.in, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := filepath.Join(opts.OutPath, "PIM_Processed_17_07_2025.xlsx"); res.OutputPath != want {
		t.Fatalf("OutputPath = %q, want %q", res.OutputPath, want)
	}
	if got := readFirst(t, f.in.PIM).Value(1, 16).String(); got != "P" {
		t.Fatalf("input PIM was modified: P1 = %q", got)
	}
	if got := readFirst(t, f.in.PartData).Value(2, 5); !got.IsBlank() {
		t.Fatalf("part E2 = %#v, want untouched", got)
	}
	if got := readFirst(t, res.OutputPath).Value(2, 22).String(); got != "SHEETX" {
		t.Fatalf("V2 = %q, want SHEETX", got)
	}

	xf, err := excelize.OpenFile(res.OutputPath)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer xf.Close()
	for axis, want := range map[string]int{"V2": 4, "V3": 0} {
		id, err := xf.GetCellStyle("Sheet1", axis)
		if err != nil {
			t.Fatalf("GetCellStyle(%s): %v", axis, err)
		}
		st, err := xf.GetStyle(id)
		if err != nil {
			t.Fatalf("GetStyle(%s): %v", axis, err)
		}
		if len(st.Border) != want {
			t.Errorf("%s has %d border sides, want %d", axis, len(st.Border), want)
		}
	}
}

func TestRunStageErrors(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		mutate func(*fixture)
		stage  Stage
		is     error
	}{
		{
			name:   "missing pim",
			ctx:    context.Background(),
			mutate: func(f *fixture) { f.in.PIM = filepath.Join(f.dir, "nope.xlsx") },
			stage:  StageLoad,
			is:     os.ErrNotExist,
		},
		{
			name:   "missing part data",
			ctx:    context.Background(),
			mutate: func(f *fixture) { f.in.PartData = filepath.Join(f.dir, "nope.xlsx") },
			stage:  StagePartData,
			is:     os.ErrNotExist,
		},
		{
			name:   "no preset stored",
			ctx:    context.Background(),
			mutate: func(f *fixture) { f.in.Preset = "" },
			stage:  StageExport,
			is:     preset.ErrNotFound,
		},
		{
			name:   "canceled",
			ctx:    canceled,
			mutate: func(*fixture) {},
			stage:  StageLoad,
			is:     context.Canceled,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, "AB12")
			tt.mutate(&f)
			_, err := Run(tt.ctx, f.in, f.options())

			var se *StageError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StageError", err)
			}
			if se.Stage != tt.stage {
				t.Fatalf("stage = %s, want %s", se.Stage, tt.stage)
			}
			if !errors.Is(err, tt.is) {
				t.Fatalf("err = %v, want wrapping %v", err, tt.is)
			}
		})
	}
}

func TestRunRequiresPresets(t *testing.T) {
	t.Parallel()

	if _, err := Run(context.Background(), Inputs{}, Options{Config: config.Default()}); err == nil {
		t.Fatal("Run without a preset cache should fail")
	}
}
