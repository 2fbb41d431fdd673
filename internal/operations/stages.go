package operations

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Dokarii/TercerMomento/internal/charts"
	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/internal/exporter"
	"github.com/Dokarii/TercerMomento/internal/files"
	"github.com/Dokarii/TercerMomento/internal/infrastructure"
	"github.com/Dokarii/TercerMomento/internal/report"
	"github.com/Dokarii/TercerMomento/internal/validation"
	"github.com/Dokarii/TercerMomento/pkg/contracts"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// DefaultSteps builds the full report pipeline for cfg.
func DefaultSteps(cfg *config.Config, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.ReportMetrics) []Step {
	sep := ';'
	if cfg.Input.CSVSeparator != "" {
		sep = rune(cfg.Input.CSVSeparator[0])
	}

	var classes []string
	if cfg.Output.TableClasses != "" {
		classes = []string{cfg.Output.TableClasses}
	}

	return []Step{
		NewValidateStep(paths, logger),
		NewLoadStep(dataprocessing.NewLoader(logger, dataprocessing.LoaderOptions{
			Sheet:        cfg.Input.Sheet,
			CSVSeparator: sep,
		}), metrics),
		NewDeriveStep(),
		NewAggregateStep(dataprocessing.NewAggregator(cfg.Analysis.AlertThreshold), logger, metrics),
		NewRenderStep(charts.NewRenderer(paths.OutputDir, logger)),
		NewComposeStep(paths, report.NewComposer(logger), report.ValueOptions{
			HeadRows: cfg.Analysis.HeadRows,
			Classes:  classes,
		}),
		NewExportStep(cfg.Output.ExportCSV, exporter.NewAggregateExporter(paths, logger)),
		NewManifestStep(cfg.Output.Manifest, paths.ManifestFile, logger),
	}
}

// ValidateStep resolves the readings file and checks the input, template
// and output locations before any work is done.
type ValidateStep struct {
	BaseStage
	paths     *config.Paths
	discovery *files.Discovery
	validator *validation.FileValidator
}

// NewValidateStep creates the validation step
func NewValidateStep(paths *config.Paths, logger *slog.Logger) *ValidateStep {
	return &ValidateStep{
		BaseStage: NewBaseStage(StepIDValidate, StepNameValidate, nil),
		paths:     paths,
		discovery: files.NewDiscovery(config.DefaultInputFile, logger),
		validator: validation.NewFileValidator(logger),
	}
}

// Execute implements Step
func (s *ValidateStep) Execute(_ context.Context, state *OperationState) error {
	input, err := s.discovery.ResolveInput(s.paths.InputFile)
	if err != nil {
		return err
	}
	if err := s.validator.ValidateInputFile(input); err != nil {
		return err
	}
	state.InputFile = input
	if err := s.validator.ValidateTemplateFile(s.paths.TemplateFile); err != nil {
		return err
	}
	return s.validator.ValidateOutputDirectory(s.paths.OutputDir)
}

// LoadStep reads the readings file resolved by ValidateStep.
type LoadStep struct {
	BaseStage
	loader  *dataprocessing.Loader
	metrics *infrastructure.ReportMetrics
}

// NewLoadStep creates the load step
func NewLoadStep(loader *dataprocessing.Loader, metrics *infrastructure.ReportMetrics) *LoadStep {
	return &LoadStep{
		BaseStage: NewBaseStage(StepIDLoad, StepNameLoad, []string{StepIDValidate}),
		loader:    loader,
		metrics:   metrics,
	}
}

// Validate implements Step
func (s *LoadStep) Validate(state *OperationState) error {
	if state.InputFile == "" {
		return NewValidationError(s.ID(), "no readings file resolved")
	}
	return nil
}

// Execute implements Step
func (s *LoadStep) Execute(ctx context.Context, state *OperationState) error {
	table, err := s.loader.Load(state.InputFile)
	if err != nil {
		return err
	}

	state.Table = table
	state.Manifest.Source = state.InputFile
	state.Manifest.Rows = table.Len()
	state.GetStage(s.ID()).SetMetadata("rows", table.Len())
	s.metrics.RecordRows(ctx, state.InputFile, table.Len())
	return nil
}

// DeriveStep adds the date and month columns.
type DeriveStep struct {
	BaseStage
}

// NewDeriveStep creates the feature derivation step
func NewDeriveStep() *DeriveStep {
	return &DeriveStep{BaseStage: NewBaseStage(StepIDDerive, StepNameDerive, []string{StepIDLoad})}
}

// Validate implements Step
func (s *DeriveStep) Validate(state *OperationState) error {
	if state.Table == nil {
		return NewValidationError(s.ID(), "no readings loaded")
	}
	return nil
}

// Execute implements Step
func (s *DeriveStep) Execute(_ context.Context, state *OperationState) error {
	state.Derived = dataprocessing.DeriveFeatures(state.Table)
	return nil
}

// AggregateStep computes every aggregate view and logs the views the report
// does not show.
type AggregateStep struct {
	BaseStage
	aggregator *dataprocessing.Aggregator
	logger     *slog.Logger
	metrics    *infrastructure.ReportMetrics
}

// NewAggregateStep creates the aggregation step
func NewAggregateStep(aggregator *dataprocessing.Aggregator, logger *slog.Logger, metrics *infrastructure.ReportMetrics) *AggregateStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateStep{
		BaseStage:  NewBaseStage(StepIDAggregate, StepNameAggregate, []string{StepIDDerive}),
		aggregator: aggregator,
		logger:     infrastructure.WithComponent(logger, "aggregator"),
		metrics:    metrics,
	}
}

// Validate implements Step
func (s *AggregateStep) Validate(state *OperationState) error {
	if state.Derived == nil {
		return NewValidationError(s.ID(), "readings have no derived columns")
	}
	return nil
}

// Execute implements Step
func (s *AggregateStep) Execute(ctx context.Context, state *OperationState) error {
	agg, err := s.aggregator.Aggregate(state.Derived)
	if err != nil {
		return err
	}
	state.Aggregates = agg

	for _, c := range agg.AlertCounts {
		s.metrics.RecordAlerts(ctx, c.Station, c.Count)
	}
	s.logSummary(ctx, agg)
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"aggregate.rows":             agg.Rows,
		"aggregate.stations":         len(agg.Stations),
		"aggregate.critical_station": agg.CriticalStation,
		"aggregate.alert_rows":       agg.RowAlerts.Len(),
	})

	st := state.GetStage(s.ID())
	st.SetMetadata("critical_station", agg.CriticalStation)
	st.SetMetadata("alert_rows", agg.RowAlerts.Len())
	return nil
}

func (s *AggregateStep) logSummary(ctx context.Context, agg *dataprocessing.Aggregates) {
	for _, m := range agg.MonthlyByNO2 {
		s.logger.DebugContext(ctx, "Monthly NO2 and O3 mean",
			slog.String("month", m.Month.String()),
			slog.String("station", m.Station),
			slog.Float64("no2", m.NO2),
			slog.Float64("o3", m.O3))
	}

	days := make([]string, len(agg.DailyAlerts))
	for i, d := range agg.DailyAlerts {
		days[i] = d.Date.Format(config.DateLayout)
	}

	s.logger.InfoContext(ctx, "Aggregation summary",
		slog.Int("rows", agg.Rows),
		slog.Any("stations", agg.Stations),
		slog.String("critical_station", agg.CriticalStation),
		slog.Int("monthly_groups", len(agg.MonthlyByNO2)),
		slog.Int("alert_rows", agg.RowAlerts.Len()),
		slog.Int("alert_days", len(days)),
		slog.Any("alert_dates", days))
}

// RenderStep draws the four charts.
type RenderStep struct {
	BaseStage
	renderer *charts.Renderer
}

// NewRenderStep creates the chart rendering step
func NewRenderStep(renderer *charts.Renderer) *RenderStep {
	return &RenderStep{
		BaseStage: NewBaseStage(StepIDRender, StepNameRender, []string{StepIDAggregate}),
		renderer:  renderer,
	}
}

// Validate implements Step
func (s *RenderStep) Validate(state *OperationState) error {
	if state.Aggregates == nil {
		return NewValidationError(s.ID(), "no aggregates to plot")
	}
	return nil
}

// Execute implements Step. Charts written before a failure stay recorded.
func (s *RenderStep) Execute(_ context.Context, state *OperationState) error {
	paths, renderErr := s.renderer.RenderAll(state.Aggregates)
	for _, p := range paths {
		if err := state.AddArtifact(domain.ArtifactChart, filepath.Base(p), p); err != nil {
			return err
		}
	}
	return renderErr
}

// ComposeStep fills the template and writes the HTML report.
type ComposeStep struct {
	BaseStage
	paths    *config.Paths
	composer *report.Composer
	opts     report.ValueOptions
}

// NewComposeStep creates the report composition step
func NewComposeStep(paths *config.Paths, composer *report.Composer, opts report.ValueOptions) *ComposeStep {
	return &ComposeStep{
		BaseStage: NewBaseStage(StepIDCompose, StepNameCompose, []string{StepIDRender}),
		paths:     paths,
		composer:  composer,
		opts:      opts,
	}
}

// Validate implements Step
func (s *ComposeStep) Validate(state *OperationState) error {
	if state.Derived == nil || state.Aggregates == nil {
		return NewValidationError(s.ID(), "no data for the report")
	}
	return nil
}

// Execute implements Step
func (s *ComposeStep) Execute(_ context.Context, state *OperationState) error {
	values, err := report.BuildValues(state.Derived, state.Aggregates, s.opts)
	if err != nil {
		return err
	}
	state.Values = values

	if err := s.composer.Compose(s.paths.TemplateFile, s.paths.ReportFile, values); err != nil {
		return err
	}
	return state.AddArtifact(domain.ArtifactReport, config.ReportFileName, s.paths.ReportFile)
}

// ExportStep writes the daily and monthly aggregates as CSV when enabled.
type ExportStep struct {
	BaseStage
	enabled  bool
	exporter *exporter.AggregateExporter
}

// NewExportStep creates the CSV export step
func NewExportStep(enabled bool, exp *exporter.AggregateExporter) *ExportStep {
	return &ExportStep{
		BaseStage: NewBaseStage(StepIDExport, StepNameExport, []string{StepIDAggregate}),
		enabled:   enabled,
		exporter:  exp,
	}
}

// Validate implements Step
func (s *ExportStep) Validate(state *OperationState) error {
	if s.enabled && state.Aggregates == nil {
		return NewValidationError(s.ID(), "no aggregates to export")
	}
	return nil
}

// Execute implements Step
func (s *ExportStep) Execute(_ context.Context, state *OperationState) error {
	if !s.enabled {
		return SkipStep("CSV export disabled")
	}

	paths, exportErr := s.exporter.ExportAll(state.Aggregates)
	for _, p := range paths {
		if err := state.AddArtifact(domain.ArtifactExport, filepath.Base(p), p); err != nil {
			return err
		}
	}
	return exportErr
}

// ManifestStep writes a JSON listing of the files the run produced.
type ManifestStep struct {
	BaseStage
	enabled bool
	path    string
	logger  *slog.Logger
}

// NewManifestStep creates the manifest step
func NewManifestStep(enabled bool, path string, logger *slog.Logger) *ManifestStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManifestStep{
		BaseStage: NewBaseStage(StepIDManifest, StepNameManifest, []string{StepIDCompose, StepIDExport}),
		enabled:   enabled,
		path:      path,
		logger:    logger,
	}
}

// Execute implements Step. The manifest lists every artifact written before
// it, not itself.
func (s *ManifestStep) Execute(_ context.Context, state *OperationState) error {
	if !s.enabled {
		return SkipStep("manifest disabled")
	}

	manifest := *state.Manifest
	manifest.Artifacts = state.Artifacts()
	manifest.Format = contracts.ManifestFormatVersion
	manifest.Generator = contracts.GetVersionString()
	manifest.GeneratedAt = time.Now().UTC()

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("failed to encode manifest", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0644); err != nil {
		return apperrors.NewStorageError("failed to write manifest", err).
			WithContext("path", s.path)
	}

	s.logger.Info("Manifest written",
		slog.String("path", s.path),
		slog.Int("artifacts", len(manifest.Artifacts)))
	return state.AddArtifact(domain.ArtifactManifest, config.ManifestFileName, s.path)
}
