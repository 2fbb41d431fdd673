package config

import "github.com/Dokarii/TercerMomento/pkg/contracts"

// Application constants
const (
	// Application Info
	AppName    = "Air Quality Report"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable (AQR_OUTPUT_DIR, ...).
	EnvPrefix = "AQR"

	// ConfigFileEnv points at an explicit YAML config file.
	ConfigFileEnv = "AQR_CONFIG_FILE"

	// Input defaults
	DefaultInputFile    = "CALIDAD.xlsx"
	DefaultCSVSeparator = ";"

	// Output defaults
	DefaultOutputDir    = "."
	DefaultTemplateFile = "template.html"
	DefaultTableClasses = "table table-striped"

	// Fixed artifact names
	ReportFileName      = "reporte_calidad_aire.html"
	BarChartFileName    = "bar_promedio_pm25_mensual.png"
	LineChartFileName   = "line_pm10_estacion_critica.png"
	PieChartFileName    = "pie_alertas_estacion.png"
	HeatmapFileName     = "heatmap_correlacion.png"
	DailyMeansCSVName   = "media_diaria_pm.csv"
	MonthlyMeansCSVName = "mensual_no2_o3.csv"
	ManifestFileName    = "manifest.json"

	// Analysis defaults
	DefaultAlertThreshold = 35.0
	DefaultHeadRows       = 10

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "console"
	DefaultLogFile   = "logs/airquality-report.log"

	// Telemetry
	DefaultServiceName   = "airquality-report"
	DefaultTraceExporter = "none"

	// Formatting layouts
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

// ChartFileNames lists the chart artifacts in render order.
func ChartFileNames() []string {
	return []string{
		BarChartFileName,
		LineChartFileName,
		PieChartFileName,
		HeatmapFileName,
	}
}
