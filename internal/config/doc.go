// Package config provides centralized configuration management for the
// air-quality report generator. It handles loading configuration from
// multiple sources, validation, and the resolution of artifact paths.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// The defaults reproduce the classic run: read CALIDAD.xlsx and
// template.html from the working directory and write the charts and
// reporte_calidad_aire.html next to them.
//
// # Environment Variables
//
// All environment variables follow the pattern AQR_<SECTION>_<KEY>:
//
//	AQR_INPUT_FILE=data/CALIDAD.xlsx
//	AQR_OUTPUT_DIR=out
//	AQR_OUTPUT_TEMPLATE_FILE=templates/template.html
//	AQR_ANALYSIS_ALERT_THRESHOLD=35
//	AQR_LOGGING_LEVEL=debug
//	AQR_TELEMETRY_TRACE_EXPORTER=stdout
//
// AQR_CONFIG_FILE points at an explicit YAML file; otherwise config.yaml
// and configs/config.yaml are tried.
//
// # Path Management
//
// Paths resolves every artifact location from the loaded configuration:
//
//	paths := config.NewPaths(cfg)
//	charts := paths.ChartPaths()
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
