package config

import (
	"log/slog"
	"path/filepath"
)

// Paths contains all the file paths of one report run.
// This is the single source of truth for artifact locations.
type Paths struct {
	InputFile    string
	TemplateFile string
	OutputDir    string
	LogsDir      string

	ReportFile   string
	BarChart     string
	LineChart    string
	PieChart     string
	Heatmap      string
	ManifestFile string
}

// NewPaths resolves the configured locations. Relative paths stay relative
// to the working directory.
func NewPaths(cfg *Config) *Paths {
	out := cfg.Output.Dir
	logsDir := ""
	if cfg.Logging.FilePath != "" {
		logsDir = filepath.Dir(cfg.Logging.FilePath)
	}

	return &Paths{
		InputFile:    cfg.Input.File,
		TemplateFile: cfg.Output.TemplateFile,
		OutputDir:    out,
		LogsDir:      logsDir,

		ReportFile:   filepath.Join(out, ReportFileName),
		BarChart:     filepath.Join(out, BarChartFileName),
		LineChart:    filepath.Join(out, LineChartFileName),
		PieChart:     filepath.Join(out, PieChartFileName),
		Heatmap:      filepath.Join(out, HeatmapFileName),
		ManifestFile: filepath.Join(out, ManifestFileName),
	}
}

// GetExportPath returns the path for an exported CSV file
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// ChartPaths lists the chart artifacts in render order.
func (p *Paths) ChartPaths() []string {
	names := ChartFileNames()
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = filepath.Join(p.OutputDir, name)
	}
	return out
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("Path resolution summary",
		slog.Group("inputs",
			slog.String("readings", p.InputFile),
			slog.String("template", p.TemplateFile),
		),
		slog.Group("outputs",
			slog.String("dir", p.OutputDir),
			slog.String("report", p.ReportFile),
			slog.String("manifest", p.ManifestFile),
		),
		slog.Any("charts", p.ChartPaths()))
}
