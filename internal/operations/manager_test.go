package operations

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Dokarii/TercerMomento/internal/config"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/internal/infrastructure"
	"github.com/Dokarii/TercerMomento/internal/shared/testutil"
	"github.com/Dokarii/TercerMomento/pkg/contracts"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

var leftoverPlaceholder = regexp.MustCompile(`\{[a-z0-9_]+\}`)

// testConfig points a default configuration at the sample workbook and
// template, writing into a fresh output directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	in := t.TempDir()
	cfg := config.Default()
	cfg.Input.File = testutil.WriteSampleWorkbook(t, in)
	cfg.Output.TemplateFile = testutil.WriteReportTemplate(t, in)
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	return cfg
}

func newTestManager(t *testing.T, cfg *config.Config) (*Manager, *testutil.BufferedSlogHandler) {
	t.Helper()

	logger, handler := testutil.NewTestLogger(t)
	m, err := NewManager(cfg, logger, nil)
	require.NoError(t, err)
	return m, handler
}

func kinds(artifacts []domain.Artifact) []domain.ArtifactKind {
	out := make([]domain.ArtifactKind, len(artifacts))
	for i, a := range artifacts {
		out[i] = a.Kind
	}
	return out
}

func statuses(state *OperationState) map[string]StepStatus {
	out := make(map[string]StepStatus)
	for _, s := range state.StepsInOrder() {
		out[s.ID] = s.GetStatus()
	}
	return out
}

func TestManager_Run(t *testing.T) {
	cfg := testConfig(t)
	m, handler := newTestManager(t, cfg)

	state, err := m.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, OperationStatusCompleted, state.Status)
	assert.Len(t, state.GetCompletedStages(), len(StepIDs())-2)
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, 20, state.Manifest.Rows)
	assert.Equal(t, cfg.Input.File, state.Manifest.Source)

	assert.Equal(t, map[string]StepStatus{
		StepIDValidate:  StepStatusCompleted,
		StepIDLoad:      StepStatusCompleted,
		StepIDDerive:    StepStatusCompleted,
		StepIDAggregate: StepStatusCompleted,
		StepIDRender:    StepStatusCompleted,
		StepIDCompose:   StepStatusCompleted,
		StepIDExport:    StepStatusSkipped,
		StepIDManifest:  StepStatusSkipped,
	}, statuses(state))

	artifacts := state.Artifacts()
	require.Len(t, artifacts, 5)
	assert.Equal(t, []domain.ArtifactKind{
		domain.ArtifactChart, domain.ArtifactChart, domain.ArtifactChart, domain.ArtifactChart,
		domain.ArtifactReport,
	}, kinds(artifacts))
	for i, name := range config.ChartFileNames() {
		assert.Equal(t, name, artifacts[i].Name)
		assert.Equal(t, filepath.Join(cfg.Output.Dir, name), artifacts[i].Path)
		assert.Positive(t, artifacts[i].Size)
	}

	reportPath := filepath.Join(cfg.Output.Dir, config.ReportFileName)
	assert.Equal(t, reportPath, state.ReportPath())

	html, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	body := string(html)
	assert.Empty(t, leftoverPlaceholder.FindAllString(body, -1))
	assert.Contains(t, body, "body { font-family: sans-serif; }")
	assert.Contains(t, body, "<p>Norte, Centro</p>")
	assert.Contains(t, body, "<p>Fecha: 2024-01-05 14:30:00</p>")
	assert.Contains(t, body, "<p>Estación: Centro</p>")
	assert.Contains(t, body, "<p>Valor: 224.00</p>")
	assert.Contains(t, body, `<table border="1" class="dataframe table table-striped">`)

	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, config.DailyMeansCSVName))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, config.ManifestFileName))

	testutil.AssertNoErrors(t, handler)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Report run completed")
	testutil.AssertLogAttr(t, handler, "critical_station", "Centro")

	started, ok := handler.FindRecord("Report run started")
	require.True(t, ok)
	assert.Equal(t, state.ID, started.Attrs["run_id"])
	assert.Equal(t, "pipeline", started.Attrs["component"])
	assert.Equal(t, StepIDs(), started.Attrs["step_ids"])
	assert.Equal(t, "", started.Attrs["otel_trace_id"])
}

func TestManager_Run_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	m, _ := newTestManager(t, cfg)

	_, err := m.Run(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(cfg.Output.Dir, config.ReportFileName))
	require.NoError(t, err)

	state, err := m.Run(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(state.ReportPath())
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Len(t, state.Artifacts(), 5)
}

func TestManager_Run_CSVInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Input.File = testutil.WriteSampleCSV(t, t.TempDir())
	m, _ := newTestManager(t, cfg)

	state, err := m.Run(context.Background())
	require.NoError(t, err)

	html, err := os.ReadFile(state.ReportPath())
	require.NoError(t, err)
	assert.Contains(t, string(html), "<p>Valor: 224.00</p>")
}

func TestManager_Run_ExportAndManifest(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.ExportCSV = true
	cfg.Output.Manifest = true
	m, _ := newTestManager(t, cfg)

	state, err := m.Run(context.Background())
	require.NoError(t, err)

	artifacts := state.Artifacts()
	require.Len(t, artifacts, 8)
	assert.Equal(t, domain.ArtifactExport, artifacts[5].Kind)
	assert.Equal(t, config.DailyMeansCSVName, artifacts[5].Name)
	assert.Equal(t, config.MonthlyMeansCSVName, artifacts[6].Name)
	assert.Equal(t, domain.ArtifactManifest, artifacts[7].Kind)

	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, config.ManifestFileName))
	require.NoError(t, err)

	var manifest domain.ReportManifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, state.ID, manifest.RunID)
	assert.Equal(t, contracts.ManifestFormatVersion, manifest.Format)
	assert.Equal(t, contracts.GetVersionString(), manifest.Generator)
	assert.Equal(t, 20, manifest.Rows)
	require.Len(t, manifest.Artifacts, 7)
	assert.Equal(t, state.ReportPath(), manifest.ByKind(domain.ArtifactReport)[0].Path)
	assert.Len(t, manifest.ByKind(domain.ArtifactChart), 4)
	assert.False(t, manifest.GeneratedAt.IsZero())
}

func TestManager_Run_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Input.File = filepath.Join(t.TempDir(), "missing.xlsx")
	m, handler := newTestManager(t, cfg)

	state, err := m.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, OperationStatusFailed, state.Status)
	assert.Equal(t, StepIDValidate, FailedStep(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInput))
	assert.Empty(t, state.Artifacts())
	assert.Empty(t, state.ReportPath())

	st := statuses(state)
	assert.Equal(t, StepStatusFailed, st[StepIDValidate])
	for _, id := range StepIDs()[1:] {
		assert.Equal(t, StepStatusSkipped, st[id], id)
	}

	testutil.AssertLogContains(t, handler, slog.LevelError, "Report run failed")
	testutil.AssertLogAttr(t, handler, "failed_step", StepIDValidate)
}

func TestManager_Run_UnmappedPlaceholder(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Output.TemplateFile,
		[]byte("<p>{max_valor}</p><p>{humedad}</p>\n"), 0644))
	m, _ := newTestManager(t, cfg)

	state, err := m.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, StepIDCompose, FailedStep(err))
	assert.True(t, errors.Is(err, apperrors.ErrUnmappedPlaceholder))
	assert.Contains(t, err.Error(), "humedad")

	// Charts written before the failure stay on disk and in the manifest.
	assert.Len(t, state.Manifest.ByKind(domain.ArtifactChart), 4)
	for _, p := range state.Manifest.Paths() {
		assert.FileExists(t, p)
	}
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, config.ReportFileName))
	assert.Equal(t, StepStatusSkipped, statuses(state)[StepIDManifest])
}

func TestManager_Run_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	m, _ := newTestManager(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := m.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, OperationStatusCancelled, state.Status)
	for _, s := range state.StepsInOrder() {
		assert.Equal(t, StepStatusSkipped, s.GetStatus(), s.ID)
	}
}

func TestManager_Run_Telemetry(t *testing.T) {
	cfg := testConfig(t)
	exporter := tracetest.NewInMemoryExporter()
	tel, err := infrastructure.NewTelemetry(cfg.Telemetry, nil, exporter)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	logger, handler := testutil.NewTestLogger(t)
	m, err := NewManager(cfg, logger, tel)
	require.NoError(t, err)

	_, err = m.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, tel.TracerProvider.ForceFlush(context.Background()))

	names := make(map[string]bool)
	var runTraceID string
	aggregateAttrs := make(map[attribute.Key]attribute.Value)
	for _, s := range exporter.GetSpans() {
		names[s.Name] = true
		switch s.Name {
		case "report.run":
			runTraceID = s.SpanContext.TraceID().String()
		case "report.step.aggregate":
			for _, kv := range s.Attributes {
				aggregateAttrs[kv.Key] = kv.Value
			}
		}
	}
	assert.Equal(t, "Centro", aggregateAttrs["aggregate.critical_station"].AsString())
	assert.Equal(t, int64(20), aggregateAttrs["aggregate.rows"].AsInt64())
	assert.Equal(t, int64(9), aggregateAttrs["aggregate.alert_rows"].AsInt64())

	started, ok := handler.FindRecord("Report run started")
	require.True(t, ok)
	assert.NotEmpty(t, runTraceID)
	assert.Equal(t, runTraceID, started.Attrs["otel_trace_id"])
	assert.True(t, names["report.run"])
	assert.True(t, names["report.step.load"])
	assert.True(t, names["report.step.compose"])
	assert.True(t, names["report.step.manifest"])

	families, err := tel.Registry.Gather()
	require.NoError(t, err)
	var found []string
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "report_") {
			found = append(found, f.GetName())
		}
	}
	assert.NotEmpty(t, found)
	assert.True(t, hasPrefix(found, "report_artifacts_written"), found)
	assert.True(t, hasPrefix(found, "report_rows_loaded"), found)
	assert.True(t, hasPrefix(found, "report_step_duration_seconds"), found)
}

func hasPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func TestManager_CustomSteps(t *testing.T) {
	cfg := config.Default()
	boom := errors.New("boom")
	var ran []string
	record := func(id string, err error) func(context.Context, *OperationState) error {
		return func(context.Context, *OperationState) error {
			ran = append(ran, id)
			return err
		}
	}

	t.Run("skip keeps dependents running", func(t *testing.T) {
		ran = nil
		m, err := NewManagerWithSteps(cfg, nil, nil,
			newFuncStep("a", nil, record("a", SkipStep("off"))),
			newFuncStep("b", []string{"a"}, record("b", nil)),
		)
		require.NoError(t, err)

		state, err := m.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ran)
		assert.Equal(t, StepStatusSkipped, state.GetStage("a").GetStatus())
		assert.Equal(t, "off", state.GetStage("a").Message)
		assert.Equal(t, StepStatusCompleted, state.GetStage("b").GetStatus())
	})

	t.Run("failure stops the run", func(t *testing.T) {
		ran = nil
		m, err := NewManagerWithSteps(cfg, nil, nil,
			newFuncStep("a", nil, record("a", nil)),
			newFuncStep("b", []string{"a"}, record("b", boom)),
			newFuncStep("c", nil, record("c", nil)),
		)
		require.NoError(t, err)

		state, err := m.Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, boom))
		assert.Equal(t, "b", FailedStep(err))
		assert.Equal(t, []string{"a", "b"}, ran)
		assert.Equal(t, StepStatusSkipped, state.GetStage("c").GetStatus())
		assert.Equal(t, "step b failed", state.GetStage("c").Message)
		assert.Equal(t, StepStatusFailed, state.GetStage("b").GetStatus())
		assert.Len(t, state.GetCompletedStages(), 1)
	})

	t.Run("invalid dependencies", func(t *testing.T) {
		_, err := NewManagerWithSteps(cfg, nil, nil,
			newFuncStep("a", []string{"b"}, nil),
			newFuncStep("b", []string{"a"}, nil),
		)
		require.Error(t, err)
		assert.Equal(t, ErrorTypeFatal, GetErrorType(err))
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewManager(nil, nil, nil)
		assert.Error(t, err)
	})
}

func TestManager_Run_InputDirectory(t *testing.T) {
	cfg := testConfig(t)
	workbook := cfg.Input.File
	cfg.Input.File = filepath.Dir(workbook)
	m, handler := newTestManager(t, cfg)

	state, err := m.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, workbook, state.InputFile)
	assert.Equal(t, workbook, state.Manifest.Source)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Readings file discovered")
}
