package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/config"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/database"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/repository"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/telemetry"
	"github.com/davidleathers/fraud-feature-engine/internal/metrics"
	"github.com/davidleathers/fraud-feature-engine/internal/service"
)

const (
	sourceCSV      = "csv"
	sourcePostgres = "postgres"
)

func main() {
	var (
		input         = flag.String("input", "", "Input CSV path (required for -source csv)")
		source        = flag.String("source", sourceCSV, "Input source: csv or postgres")
		output        = flag.String("output", "features.csv", "Output file path")
		format        = flag.String("format", "csv", "Output format: csv or json")
		configPath    = flag.String("config", "", "Path to configuration file")
		metricsListen = flag.String("metrics-listen", "", "Prometheus listen address (empty disables the listener)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	slog.SetDefault(logger)

	opts := runOptions{
		input:         *input,
		source:        *source,
		output:        *output,
		format:        *format,
		metricsListen: *metricsListen,
	}
	if err := run(cfg, logger, opts); err != nil {
		logger.Error("featurize failed", "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	input         string
	source        string
	output        string
	format        string
	metricsListen string
}

func run(cfg *config.Config, logger *slog.Logger, opts runOptions) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outFormat, err := dataset.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.source != sourceCSV && opts.source != sourcePostgres {
		return fmt.Errorf("unknown source %q (want csv or postgres)", opts.source)
	}
	if opts.source == sourceCSV && opts.input == "" {
		return fmt.Errorf("-input is required with -source csv")
	}

	telCfg := telemetry.DefaultConfig()
	telCfg.ServiceVersion = cfg.Version
	telCfg.Environment = cfg.Environment
	telCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	telCfg.Enabled = cfg.Telemetry.Enabled
	telCfg.SamplingRate = cfg.Telemetry.SamplingRate

	provider, err := telemetry.InitializeOpenTelemetry(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	if opts.metricsListen != "" {
		srv := StartMetricsServer(opts.metricsListen, logger)
		defer ShutdownMetricsServer(srv, logger)
	}

	registry, err := metrics.NewRegistry("github.com/davidleathers/fraud-feature-engine")
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	tracer := telemetry.NewOpenTelemetryTracer("github.com/davidleathers/fraud-feature-engine")

	factories := service.NewServiceFactories(cfg)
	engine, err := factories.CreateTracedFeatureService(tracer, registry)
	if err != nil {
		return fmt.Errorf("building feature engine: %w", err)
	}

	table, err := loadInput(ctx, cfg, logger, registry, opts)
	if err != nil {
		return err
	}

	started := time.Now()
	result, err := engine.ComputeFeatures(ctx, table)
	RecordRun(opts.source, err == nil, time.Since(started))
	if err != nil {
		return fmt.Errorf("computing features: %w", err)
	}

	dropped := make(map[string]int64, len(result.Summary.DropReasons))
	for reason, count := range result.Summary.DropReasons {
		dropped[reason] = int64(count)
	}
	RecordRowAccounting(int64(result.Summary.RowsIn), int64(result.Summary.RowsOut), dropped)

	for _, warning := range result.Warnings {
		logger.Warn("input warning", "code", warning.Code, "message", warning.Message)
	}

	exportStarted := time.Now()
	if err := dataset.WriteFile(opts.output, outFormat, result); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	RecordExport(string(outFormat), int64(result.Len()))
	registry.RecordExport(ctx, time.Since(exportStarted), string(outFormat), int64(result.Len()))

	logger.Info("run complete",
		"run_id", result.RunID.String(),
		"rows_in", result.Summary.RowsIn,
		"rows_dropped", result.Summary.RowsDropped,
		"rows_out", result.Summary.RowsOut,
		"entities", result.Summary.Entities,
		"duration", result.Summary.Duration,
		"warnings", len(result.Warnings),
		"output", opts.output,
	)
	return nil
}

// loadInput reads the raw record table from the configured source.
func loadInput(ctx context.Context, cfg *config.Config, logger *slog.Logger, registry *metrics.Registry, opts runOptions) (*dataset.Table, error) {
	started := time.Now()

	switch opts.source {
	case sourceCSV:
		table, err := dataset.ReadCSVFile(opts.input)
		if err != nil {
			return nil, fmt.Errorf("reading input CSV: %w", err)
		}
		elapsed := time.Since(started)
		RecordDatasetLoad(opts.source, elapsed)
		registry.RecordDatasetLoad(ctx, elapsed, opts.source, int64(table.Len()))
		logger.Info("input loaded", "source", opts.source, "path", opts.input, "rows", table.Len())
		return table, nil

	case sourcePostgres:
		zapLogger, err := zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("building database logger: %w", err)
		}
		defer zapLogger.Sync()

		pool, err := database.NewConnectionPool(&cfg.Database, zapLogger)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		stats := pool.Stat()
		UpdateDBPoolMetrics(int64(stats.AcquiredConns()), int64(stats.IdleConns()), int64(stats.TotalConns()))
		registry.SetDBPoolSize(int64(stats.TotalConns()))

		repo := repository.NewTransactionRepository(pool.Pool(), zapLogger)
		table, err := repo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading transactions: %w", err)
		}
		elapsed := time.Since(started)
		RecordDatasetLoad(opts.source, elapsed)
		registry.RecordDatasetLoad(ctx, elapsed, opts.source, int64(table.Len()))
		logger.Info("input loaded", "source", opts.source, "rows", table.Len())
		return table, nil
	}

	return nil, fmt.Errorf("unknown source %q", opts.source)
}
