package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"finsight/internal/config"
	"finsight/internal/infrastructure"
	"finsight/internal/loader"
	"finsight/internal/services"
	"finsight/pkg/contracts"
)

// rootOptions are the global flags shared by every subcommand
type rootOptions struct {
	configPath  string
	dataRoot    string
	aliasFile   string
	logLevel    string
	dumpMetrics bool
}

// app is the wired service stack built before a subcommand runs
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
	telemetry *infrastructure.Telemetry
	service   *services.AnalysisService

	// failed is set when a printed Result carried an error
	failed bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	root := &cobra.Command{
		Use:   "finsight",
		Short: "Query and analyze tabular financial datasets",
		Long: `finsight loads CSV and Excel datasets by logical name, caches them,
and runs queries and statistical analyses over them. Every command prints
a JSON result with a "success" or "error" status.`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context(), opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.teardown(cmd, opts); err != nil {
				return err
			}
			if a.failed {
				return errRequestFailed
			}
			return nil
		},
	}

	root.SetVersionTemplate(contracts.GetVersionString() + "\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.dataRoot, "data", "", "data root directory (overrides config)")
	flags.StringVar(&opts.aliasFile, "aliases", "", "alias table YAML file (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&opts.dumpMetrics, "metrics", false, "print collected metrics to stderr on exit")

	root.AddCommand(
		newDatasetsCmd(a),
		newSummaryCmd(a),
		newInfoCmd(a),
		newQueryCmd(a),
		newTimeSeriesCmd(a),
		newAggregateCmd(a),
		newRatiosCmd(a),
		newTrendCmd(a),
		newSeasonalityCmd(a),
		newCompareCmd(a),
		newDistributionCmd(a),
		newCorrelationCmd(a),
		newOutliersCmd(a),
		newBatchCmd(a),
	)
	return root
}

// setup loads configuration and wires logger, telemetry, loader and service
func (a *app) setup(ctx context.Context, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.dataRoot != "" {
		cfg.Data.Root = opts.dataRoot
	}
	if opts.aliasFile != "" {
		cfg.Data.AliasFile = opts.aliasFile
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	// stdout carries results
	if cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	if opts.dumpMetrics {
		cfg.Telemetry.EnableMetrics = true
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	telemetry, err := infrastructure.NewTelemetry(ctx, cfg.Telemetry, logger)
	if err != nil {
		closer.Close()
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	aliases, err := config.LoadAliasTable(cfg.Data.AliasFile, logger)
	if err != nil {
		closer.Close()
		return err
	}

	l := loader.New(loader.Config{
		Root:          cfg.Data.Root,
		Aliases:       aliases,
		Encodings:     cfg.Data.Encodings,
		CacheCapacity: cfg.Data.CacheCapacity,
	}, logger)

	service, err := services.NewAnalysisService(l, services.Options{
		PreviewRows:      cfg.Data.PreviewRows,
		BatchConcurrency: cfg.Data.BatchConcurrency,
		Telemetry:        telemetry,
	}, logger)
	if err != nil {
		closer.Close()
		return err
	}

	logger.DebugContext(ctx, "finsight initialized",
		slog.String("data_root", cfg.Data.Root),
		slog.Int("aliases", len(aliases)),
		slog.Int("cache_capacity", cfg.Data.CacheCapacity))

	a.cfg = cfg
	a.logger = logger
	a.logCloser = closer
	a.telemetry = telemetry
	a.service = service
	return nil
}

// teardown dumps metrics when asked and releases telemetry and log resources
func (a *app) teardown(cmd *cobra.Command, opts *rootOptions) error {
	if a.telemetry == nil {
		return nil
	}
	defer a.logCloser.Close()

	if opts.dumpMetrics && a.telemetry.Registry != nil {
		families, err := a.telemetry.Registry.Gather()
		if err != nil {
			return fmt.Errorf("failed to gather metrics: %w", err)
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
				return fmt.Errorf("failed to write metrics: %w", err)
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
	}
	return nil
}
