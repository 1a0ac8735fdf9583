// Command pimformat turns the weekly PIM issue report into a formatted sheet
// and a preset export.
//
//	pimformat run --pim PIM.xlsx --part-data parts.xlsx [--preset preset.xlsx]
//	pimformat validate --print
//	pimformat preset import preset.csv
//	pimformat preset status
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pimformat/internal/config"
	"pimformat/internal/logging"
	"pimformat/internal/preset"

	// register every preset store; the config picks one.
	_ "pimformat/internal/preset/all"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	cfgPath        string
	verbose        bool
	metricsBackend string

	cfg    config.Config
	logger *zap.Logger
	out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "pimformat",
		Short:         "Format PIM issue reports and export matching preset rows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return a.loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "config file (YAML or JSON); env PIMFORMAT_CONFIG")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logs")
	pf.StringVar(&a.metricsBackend, "metrics-backend", "", "none, prometheus or datadog; env METRICS_BACKEND")

	root.AddCommand(newRunCmd(a), newValidateCmd(a), newPresetCmd(a))
	return root
}

// loadConfig resolves the config path (flag → env → built-in defaults) and
// applies the metrics overrides (flag → env → file).
func (a *app) loadConfig() error {
	path := a.cfgPath
	if path == "" {
		path = os.Getenv("PIMFORMAT_CONFIG")
	}
	a.cfg = config.Default()
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	if b := a.metricsBackend; b != "" {
		a.cfg.Metrics.Backend = b
	} else if b := os.Getenv("METRICS_BACKEND"); b != "" {
		a.cfg.Metrics.Backend = b
	}
	if u := os.Getenv("PUSHGATEWAY_URL"); u != "" {
		a.cfg.Metrics.PushgatewayURL = u
	}
	a.logger.Debug("config loaded", zap.String("path", path), zap.String("job", a.cfg.Job))
	return nil
}

// checkConfig reports every issue on stderr and fails on errors.
func (a *app) checkConfig(cmd *cobra.Command) error {
	issues := config.ValidateConfig(a.cfg)
	for _, iss := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}

// openCache opens the configured preset store behind a Cache.
func (a *app) openCache(ctx context.Context) (*preset.Cache, error) {
	store, err := preset.Open(ctx, preset.Config{Kind: a.cfg.Preset.Kind, DSN: a.cfg.Preset.DSN})
	if err != nil {
		return nil, err
	}
	comma := ','
	if r := []rune(a.cfg.Preset.Comma); len(r) == 1 {
		comma = r[0]
	}
	return preset.NewCache(store,
		preset.WithComma(comma),
		preset.WithLogger(a.logger.With(zap.String("store", a.cfg.Preset.Kind))),
	), nil
}
