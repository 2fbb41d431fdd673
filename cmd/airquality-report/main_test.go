package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dokarii/TercerMomento/internal/config"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/internal/operations"
	"github.com/Dokarii/TercerMomento/internal/shared/testutil"
	"github.com/Dokarii/TercerMomento/pkg/contracts"
)

func TestRun(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "reporte")
	metrics := filepath.Join(out, "metrics.prom")
	t.Setenv("AQR_TELEMETRY_METRICS_FILE", metrics)

	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-in", testutil.WriteSampleWorkbook(t, in),
		"-template", testutil.WriteReportTemplate(t, in),
		"-out", out,
		"-export",
	}, &stdout)
	require.NoError(t, err)

	report := filepath.Join(out, config.ReportFileName)
	assert.Equal(t, "Reporte generado: "+report+"\n", stdout.String())
	assert.FileExists(t, report)
	for _, name := range config.ChartFileNames() {
		assert.FileExists(t, filepath.Join(out, name))
	}
	assert.FileExists(t, filepath.Join(out, config.DailyMeansCSVName))
	assert.NoFileExists(t, filepath.Join(out, config.ManifestFileName))

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "report_rows_loaded"))
}

func TestRun_Version(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout))
	assert.True(t, strings.HasPrefix(stdout.String(), contracts.GetVersionString()))
}

func TestRun_Errors(t *testing.T) {
	in := t.TempDir()
	template := testutil.WriteReportTemplate(t, in)

	t.Run("missing input", func(t *testing.T) {
		var stdout bytes.Buffer
		err := run(context.Background(), []string{
			"-in", filepath.Join(in, "nada.xlsx"),
			"-template", template,
			"-out", t.TempDir(),
		}, &stdout)
		require.Error(t, err)
		assert.Equal(t, operations.StepIDValidate, operations.FailedStep(err))
		assert.Empty(t, stdout.String())
	})

	t.Run("invalid threshold", func(t *testing.T) {
		err := run(context.Background(), []string{"-threshold", "-1"}, &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
	})

	t.Run("unknown flag", func(t *testing.T) {
		err := run(context.Background(), []string{"-bogus"}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}
