package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dokarii/TercerMomento/internal/config"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/internal/shared/testutil"
)

func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = dir
	logger, _ := testutil.NewTestLogger(t)
	return NewCSVWriter(config.NewPaths(cfg), logger), dir
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, dir := setupTestEnv(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, content string)
	}{
		{
			name:     "basic write with headers",
			filePath: "test_basic.csv",
			options: WriteOptions{
				Headers: []string{"Estacion", "Conteo"},
				Records: [][]string{{"Centro", "10"}, {"Norte", "10"}},
			},
			validate: func(t *testing.T, content string) {
				lines := strings.Split(strings.TrimSpace(content), "\n")
				assert.Equal(t, []string{"Estacion,Conteo", "Centro,10", "Norte,10"}, lines)
			},
		},
		{
			name:     "write with BOM prefix",
			filePath: "test_bom.csv",
			options: WriteOptions{
				Headers:   []string{"Mes"},
				Records:   [][]string{{"2024-01"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, content string) {
				assert.True(t, strings.HasPrefix(content, "\ufeffMes\n"))
			},
		},
		{
			name:     "semicolon separator keeps decimal commas unquoted",
			filePath: "test_semicolon.csv",
			options: WriteOptions{
				Headers:   []string{"PM2.5", "PM10"},
				Records:   [][]string{{"17,4", "32,5"}},
				Separator: ';',
			},
			validate: func(t *testing.T, content string) {
				assert.Equal(t, "PM2.5;PM10\n17,4;32,5\n", content)
			},
		},
		{
			name:     "fields with separator are quoted",
			filePath: "test_quote.csv",
			options: WriteOptions{
				Records: [][]string{{"Sur, Este", "1"}},
			},
			validate: func(t *testing.T, content string) {
				assert.Equal(t, "\"Sur, Este\",1\n", content)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := writer.WriteCSV(tt.filePath, tt.options)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.filePath), path)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			tt.validate(t, string(content))
		})
	}
}

func TestCSVWriter_OverwritesExistingFile(t *testing.T) {
	writer, _ := setupTestEnv(t)

	_, err := writer.WriteCSV("again.csv", WriteOptions{Headers: []string{"A", "B"}, Records: [][]string{{"1", "2"}, {"3", "4"}}})
	require.NoError(t, err)
	path, err := writer.WriteCSV("again.csv", WriteOptions{Headers: []string{"A", "B"}, Records: [][]string{{"5", "6"}}})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A,B\n5,6\n", string(content))
}

func TestCSVWriter_AbsolutePath(t *testing.T) {
	writer, _ := setupTestEnv(t)
	abs := filepath.Join(t.TempDir(), "nested", "abs.csv")

	path, err := writer.WriteCSV(abs, WriteOptions{Headers: []string{"A"}})
	require.NoError(t, err)
	assert.Equal(t, abs, path)
	assert.FileExists(t, abs)
}

func TestCSVWriter_Errors(t *testing.T) {
	writer, dir := setupTestEnv(t)

	// A regular file where the directory should be.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := writer.WriteCSV(filepath.Join(blocker, "out.csv"), WriteOptions{Headers: []string{"A"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}
