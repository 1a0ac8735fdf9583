// Package pipeline runs the PIM issue-report transformation end to end:
//
//	load PIM → restructure → derive keys → key part data → lookup →
//	frequency counts → (finalize) → save → preset export
//
// Each stage runs exactly once per Run, in that order. A failing stage stops
// the run and is reported as a *StageError; files written by earlier stages
// (the keyed part-data workbook) stay on disk.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"pimformat/internal/config"
	"pimformat/internal/datasource/file"
	"pimformat/internal/metrics"
	"pimformat/internal/preset"
	"pimformat/internal/sheet"
	"pimformat/internal/transformer"
)

// Stage names a pipeline step in errors, logs and metrics.
type Stage string

const (
	StageLoad        Stage = "load"
	StageRestructure Stage = "restructure"
	StageDeriveKeys  Stage = "derive_keys"
	StagePartData    Stage = "part_data"
	StageLookup      Stage = "lookup"
	StageCount       Stage = "count"
	StageFinalize    Stage = "finalize"
	StageSave        Stage = "save"
	StageExport      Stage = "export"
)

// Progress checkpoints reported to Options.Progress.
const (
	ProgressLoaded      = 10
	ProgressRestructure = 30
	ProgressHeaders     = 40
	ProgressPartData    = 50
	ProgressLookup      = 70
	ProgressCounts      = 85
	ProgressDone        = 100
)

// StageError attributes a run failure to the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("pipeline: %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// Inputs are the files a run reads.
type Inputs struct {
	PIM      string
	PartData string
	// Preset is an optional preset source file. When empty the table already
	// held by Options.Presets is used.
	Preset string
}

// Options configure a run. Config and Presets are required.
type Options struct {
	Config  config.Config
	Presets *preset.Cache

	// OutPath is where the processed PIM workbook is written. Empty means
	// in place; an existing directory gets Export.ProcessedFile inside it.
	OutPath string
	// OutDir receives the preset export. Empty means the PIM file's
	// directory.
	OutDir string

	RunID    string
	Logger   *zap.Logger
	Progress func(percent int)
	Now      func() time.Time
}

// Result summarizes a run. It is filled as far as the run got, also on error.
type Result struct {
	RunID        string
	Qualifying   int
	PartKeys     int
	LookupHits   int
	LookupMisses int
	// Exported counts matched preset rows; 0 means no export file.
	Exported   int
	OutputPath string
	ExportPath string
}

type runner struct {
	in   Inputs
	opts Options
	cfg  config.Config
	log  *zap.Logger
	now  time.Time
	res  Result
}

// Run executes the pipeline once.
func Run(ctx context.Context, in Inputs, opts Options) (Result, error) {
	if opts.Presets == nil {
		return Result{}, errors.New("pipeline: Options.Presets is required")
	}
	r := &runner{in: in, opts: opts, cfg: opts.Config, log: opts.Logger}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	r.log = r.log.With(zap.String("run_id", opts.RunID), zap.String("job", r.cfg.Job))
	r.now = time.Now()
	if opts.Now != nil {
		r.now = opts.Now()
	}
	r.res.RunID = opts.RunID

	err := r.run(ctx)
	if err != nil {
		r.log.Error("run failed", zap.Error(err))
		return r.res, err
	}
	r.log.Info("run complete",
		zap.Int("qualifying", r.res.Qualifying),
		zap.Int("lookup_hits", r.res.LookupHits),
		zap.Int("lookup_misses", r.res.LookupMisses),
		zap.Int("exported", r.res.Exported),
		zap.String("output", r.res.OutputPath),
		zap.String("export", r.res.ExportPath),
	)
	return r.res, nil
}

func (r *runner) run(ctx context.Context) error {
	layout := r.cfg.Layout

	var (
		wb    *sheet.Workbook
		name  string
		pim   *sheet.Table
		rows  []int
		index *transformer.PartIndex
	)
	defer func() {
		if wb != nil {
			_ = wb.Close()
		}
	}()

	if err := r.step(ctx, StageLoad, func() error {
		var err error
		wb, name, pim, err = loadFirstSheet(ctx, r.in.PIM)
		return err
	}); err != nil {
		return err
	}
	r.progress(ProgressLoaded)

	if err := r.step(ctx, StageRestructure, func() error {
		chain := transformer.RestructureChain(layout.Restructure)
		chain[:len(chain)-1].Apply(pim)
		r.progress(ProgressRestructure)
		chain[len(chain)-1].Apply(pim)
		return nil
	}); err != nil {
		return err
	}
	r.progress(ProgressHeaders)

	if err := r.step(ctx, StageDeriveKeys, func() error {
		rows = transformer.NewQualifier(layout.Filter).Rows(pim)
		transformer.DeriveKeys(pim, rows, layout.Keys)
		r.res.Qualifying = len(rows)
		metrics.RecordRow(r.cfg.Job, metrics.KindQualifying, len(rows))
		return nil
	}); err != nil {
		return err
	}

	if err := r.step(ctx, StagePartData, func() error {
		var err error
		index, err = r.keyPartData(ctx)
		return err
	}); err != nil {
		return err
	}
	r.progress(ProgressPartData)

	if err := r.step(ctx, StageLookup, func() error {
		st := transformer.Lookup(pim, rows, index, layout.Lookup)
		r.res.LookupHits, r.res.LookupMisses = st.Hits, st.Misses
		metrics.RecordRow(r.cfg.Job, metrics.KindLookupHit, st.Hits)
		metrics.RecordRow(r.cfg.Job, metrics.KindLookupMiss, st.Misses)
		return nil
	}); err != nil {
		return err
	}
	r.progress(ProgressLookup)

	if err := r.step(ctx, StageCount, func() error {
		transformer.Frequency(pim, rows, layout.Counts)
		return nil
	}); err != nil {
		return err
	}
	r.progress(ProgressCounts)

	// The export reads the derived keys, so collect them before finalize
	// can drop columns.
	keys := preset.KeySet(pim, rows, layout.Keys.Primary.Target)

	if err := r.step(ctx, StageFinalize, func() error {
		transformer.Finalize(pim, r.cfg.Finalize)
		return nil
	}); err != nil {
		return err
	}

	if err := r.step(ctx, StageSave, func() error {
		return r.save(wb, name, pim)
	}); err != nil {
		return err
	}

	if err := r.step(ctx, StageExport, func() error {
		return r.export(ctx, keys)
	}); err != nil {
		return err
	}
	r.progress(ProgressDone)
	return nil
}

// step runs fn as stage: it checks ctx first, times fn for metrics and wraps
// a failure in a *StageError.
func (r *runner) step(ctx context.Context, stage Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	start := time.Now()
	err := fn()
	d := time.Since(start)
	metrics.RecordStep(r.cfg.Job, string(stage), err, d)
	if err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	r.log.Debug("stage done", zap.String("stage", string(stage)), zap.Duration("took", d))
	return nil
}

func (r *runner) progress(pct int) {
	if r.opts.Progress != nil {
		r.opts.Progress(pct)
	}
}

func loadFirstSheet(ctx context.Context, path string) (*sheet.Workbook, string, *sheet.Table, error) {
	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	defer rc.Close()

	wb, err := sheet.OpenReader(rc)
	if err != nil {
		return nil, "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	name, err := wb.FirstSheet()
	if err != nil {
		wb.Close()
		return nil, "", nil, fmt.Errorf("%s: %w", path, err)
	}
	t, err := wb.ReadTable(name)
	if err != nil {
		wb.Close()
		return nil, "", nil, fmt.Errorf("%s: %w", path, err)
	}
	return wb, name, t, nil
}

// keyPartData adds the key column to the part-data sheet, saves the workbook
// back unless disabled, and indexes it.
func (r *runner) keyPartData(ctx context.Context) (*transformer.PartIndex, error) {
	wb, name, part, err := loadFirstSheet(ctx, r.in.PartData)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	transformer.KeyPartTable(part, r.cfg.Layout.Part)
	if !r.cfg.Part.SkipWriteBack {
		if err := wb.WriteTable(name, part); err != nil {
			return nil, err
		}
		if err := wb.SaveAs(r.in.PartData); err != nil {
			return nil, err
		}
		r.log.Debug("part data keyed and saved", zap.String("path", r.in.PartData))
	}
	index := transformer.NewPartIndex(part, r.cfg.Layout.Part)
	r.res.PartKeys = index.Len()
	return index, nil
}

func (r *runner) save(wb *sheet.Workbook, name string, pim *sheet.Table) error {
	out, err := r.outputPath()
	if err != nil {
		return err
	}
	if err := wb.WriteTable(name, pim); err != nil {
		return err
	}
	if r.cfg.Finalize.FitHeaders {
		for col, w := range transformer.HeaderWidths(pim) {
			if err := wb.SetColWidth(name, col, w); err != nil {
				return err
			}
		}
	}
	if r.cfg.Finalize.Borders {
		if err := wb.SetBorders(name, pim); err != nil {
			return err
		}
	}
	if r.cfg.Finalize.AutoFilter {
		if err := wb.SetAutoFilter(name, pim.MaxCol()); err != nil {
			return err
		}
	}
	if err := wb.SaveAs(out); err != nil {
		return err
	}
	r.res.OutputPath = out
	return nil
}

func (r *runner) outputPath() (string, error) {
	out := r.opts.OutPath
	if out == "" {
		return r.in.PIM, nil
	}
	fi, err := os.Stat(out)
	switch {
	case err == nil && fi.IsDir():
		exp := r.cfg.Export
		return filepath.Join(out, exp.Name(exp.ProcessedFile, r.now)), nil
	case err == nil, errors.Is(err, os.ErrNotExist):
		return out, nil
	default:
		return "", err
	}
}

func (r *runner) export(ctx context.Context, keys map[string]struct{}) error {
	table, meta, err := r.opts.Presets.Ensure(ctx, r.in.Preset)
	if err != nil {
		return err
	}
	matched, n := preset.Match(table, keys, r.cfg.Layout.PresetKey)
	r.res.Exported = n
	metrics.RecordRow(r.cfg.Job, metrics.KindExported, n)
	if n == 0 {
		r.log.Info("no preset rows match the derived keys; nothing exported",
			zap.Int("keys", len(keys)), zap.String("preset_source", meta.Source))
		return nil
	}

	dir := r.opts.OutDir
	if dir == "" {
		dir = filepath.Dir(r.in.PIM)
	}
	exp := r.cfg.Export
	path := filepath.Join(dir, exp.Name(exp.PresetFile, r.now))
	if err := preset.WriteExport(path, matched); err != nil {
		return err
	}
	r.res.ExportPath = path
	r.log.Info("preset export written", zap.String("path", path), zap.Int("rows", n))
	return nil
}
