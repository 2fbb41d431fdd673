package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/Dokarii/TercerMomento/internal/config"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/internal/infrastructure"
	"github.com/Dokarii/TercerMomento/internal/operations"
	"github.com/Dokarii/TercerMomento/pkg/contracts"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("Report generation failed",
			slog.String("error_type", string(apperrors.TypeOf(err))),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run loads the configuration, applies command line overrides and executes
// one report run. The report path is printed to stdout on success.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(config.DefaultServiceName, flag.ContinueOnError)
	input := fs.String("in", "", "readings file, .xlsx or .csv (default "+config.DefaultInputFile+")")
	template := fs.String("template", "", "HTML report template (default "+config.DefaultTemplateFile+")")
	outDir := fs.String("out", "", "output directory for the report and charts")
	exportCSV := fs.Bool("export", false, "also write the daily and monthly means as CSV")
	manifest := fs.Bool("manifest", false, "also write a JSON manifest of the produced files")
	threshold := fs.Float64("threshold", config.DefaultAlertThreshold, "PM2.5 alert threshold")
	version := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return apperrors.NewConfigError("failed to load configuration", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Input.File = *input
		case "template":
			cfg.Output.TemplateFile = *template
		case "out":
			cfg.Output.Dir = *outDir
		case "export":
			cfg.Output.ExportCSV = *exportCSV
		case "manifest":
			cfg.Output.Manifest = *manifest
		case "threshold":
			cfg.Analysis.AlertThreshold = *threshold
		}
	})
	if err := cfg.Validate(); err != nil {
		return apperrors.NewConfigError("invalid command line options", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("Starting air quality report",
		slog.String("version", contracts.Version),
		slog.String("input", cfg.Input.File),
		slog.String("template", cfg.Output.TemplateFile),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("alert_threshold", strconv.FormatFloat(cfg.Analysis.AlertThreshold, 'f', -1, 64)))

	tel, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return apperrors.NewConfigError("failed to initialize telemetry", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	manager, err := operations.NewManager(cfg, logger, tel)
	if err != nil {
		return err
	}

	state, runErr := manager.Run(ctx)
	if err := tel.WriteMetricsFile(); err != nil {
		logger.Warn("Failed to write metrics file", slog.String("error", err.Error()))
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(stdout, "Reporte generado: %s\n", state.ReportPath())
	return nil
}
