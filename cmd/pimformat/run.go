package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pimformat/internal/pipeline"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		in     pipeline.Inputs
		out    string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a PIM report against part data and export matching presets",
		Long: `Restructures the PIM report, derives lookup keys, resolves the Datasheet
column from the part-data file, counts repeated values and writes the
preset rows whose key occurs in the report to "DK Preset_<date>.xlsx".

The PIM file is rewritten in place unless --out is given. The part-data
file is saved back with its key column unless part.skip_write_back is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.checkConfig(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()

			defer a.setupMetrics()()

			cache, err := a.openCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			runID := uuid.NewString()
			log := a.logger.With(zap.String("run_id", runID))
			res, err := pipeline.Run(ctx, in, pipeline.Options{
				Config:  a.cfg,
				Presets: cache,
				OutPath: out,
				OutDir:  outDir,
				RunID:   runID,
				Logger:  a.logger,
				Progress: func(p int) {
					log.Debug("progress", zap.Int("percent", p))
				},
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "qualifying rows: %d\n", res.Qualifying)
			fmt.Fprintf(w, "lookup: %d hits, %d misses\n", res.LookupHits, res.LookupMisses)
			fmt.Fprintf(w, "processed: %s\n", res.OutputPath)
			if res.Exported == 0 {
				fmt.Fprintln(w, "preset export: no matching rows")
			} else {
				fmt.Fprintf(w, "preset export: %s (%d rows)\n", res.ExportPath, res.Exported)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.PIM, "pim", "", "PIM issue report workbook (.xlsx)")
	f.StringVar(&in.PartData, "part-data", "", "part-data workbook (.xlsx)")
	f.StringVar(&in.Preset, "preset", "", "preset source (.xlsx or .csv); empty uses the stored table")
	f.StringVar(&out, "out", "", "processed PIM file or directory; default rewrites --pim in place")
	f.StringVar(&outDir, "out-dir", "", "directory for the preset export; default is the PIM file's directory")
	_ = cmd.MarkFlagRequired("pim")
	_ = cmd.MarkFlagRequired("part-data")
	return cmd
}
