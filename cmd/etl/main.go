package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"fundetl/internal/config"
	"fundetl/internal/etl"
	"fundetl/internal/metrics"
	"fundetl/internal/metrics/datadog"
	"fundetl/internal/metrics/prompush"
	"fundetl/internal/storage/duckdb"
)

// main is the entry point for the ingestion binary. It loads the run config,
// optionally initializes a metrics backend, and executes the three phases:
// bootstrap, transform, load.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "run config JSON path (empty uses the conventional defaults)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			fatalf("load config: %v", err)
		}
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		fatalf("configuration is invalid: %v", cfgPath)
	}
	if validate {
		fmt.Fprintf(os.Stderr, "configuration is valid: %v\n", cfgPath)
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(cfg.Job, gwURL)
		if err != nil {
			log.Warn().Err(err).Msg("metrics: pushgateway backend init failed; using nop")
		} else {
			log.Debug().Str("url", gwURL).Str("job", cfg.Job).Msg("metrics: pushgateway backend")
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Warn().Err(err).Msg("metrics: flush error")
				}
			}()
		}

	case "datadog":
		addr := dogstatsdAddrFlg
		if addr == "" {
			addr = os.Getenv("DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: addr, Namespace: "fundetl."})
		if err != nil {
			log.Warn().Err(err).Msg("metrics: datadog backend init failed; using nop")
		} else {
			log.Debug().Str("addr", addr).Msg("metrics: datadog backend")
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Warn().Err(err).Msg("metrics: flush error")
				}
			}()
		}

	case "", "none":
		log.Debug().Str("backend", backendName).Msg("metrics: disabled")

	default:
		log.Warn().Str("backend", backendName).Msg("metrics: unknown backend; metrics disabled")
	}

	ctx := context.Background()
	start := time.Now()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("run aborted")
		os.Exit(1)
	}

	log.Info().Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).Msg("run complete")
}

// run opens the store and executes bootstrap → transform → load. Per-file
// failures are recorded in the phase reports and do not halt the following
// phases; only a dead store handle or an unreadable directory aborts the run.
func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if err := os.MkdirAll(cfg.OutputDirectory, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	db, closeDB, err := duckdb.Open(ctx, cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeDB()

	// Phase 1: bootstrap the master reference schema. A missing or broken
	// script is logged and the run continues; fund ingestion does not depend
	// on the reference tables.
	bootStart := time.Now()
	bootErr := duckdb.ExecScript(ctx, db, cfg.ReferenceSQL)
	metrics.RecordStep(cfg.Job, "bootstrap", bootErr, time.Since(bootStart))
	if bootErr != nil {
		log.Warn().Err(bootErr).Str("script", cfg.ReferenceSQL).Msg("reference bootstrap failed; continuing")
	}

	runner, err := etl.NewRunner(cfg, log)
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}

	// Phase 2: transform.
	tfStart := time.Now()
	tfReport, tfErr := runner.Transform(ctx)
	metrics.RecordStep(cfg.Job, "transform", tfErr, time.Since(tfStart))
	recordReport(cfg.Job, tfReport)
	if tfErr != nil {
		return fmt.Errorf("transform: %w", tfErr)
	}

	// Phase 3: load.
	ldStart := time.Now()
	ldReport, ldErr := runner.Load(ctx, duckdb.NewIngestor(db))
	metrics.RecordStep(cfg.Job, "load", ldErr, time.Since(ldStart))
	recordReport(cfg.Job, ldReport)
	if ldErr != nil {
		return fmt.Errorf("load: %w", ldErr)
	}

	if tfReport.Failed() || ldReport.Failed() {
		log.Warn().
			Str("transform", tfReport.Summary()).
			Str("load", ldReport.Summary()).
			Msg("run finished with per-file failures")
	}
	return nil
}

// recordReport pushes the per-outcome file counts and the row total for one
// phase report.
func recordReport(job string, r etl.Report) {
	for _, kind := range []etl.OutcomeKind{
		etl.OutcomeTransformed, etl.OutcomeIngested, etl.OutcomeSkipped, etl.OutcomeFailed,
	} {
		metrics.RecordFiles(job, string(kind), int64(r.Count(kind)))
	}
	var rows int64
	for _, o := range r.Outcomes {
		rows += int64(o.Rows)
	}
	metrics.RecordRows(job, rows)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
