// Package charts renders the four report figures as PNG files with
// gonum.org/v1/plot: monthly PM2.5 bars per station, the daily PM10 series
// of the critical station, the share of alert rows per station and the
// pollutant correlation heat map.
//
// Every chart is drawn on its own image canvas at 100 dpi and written to a
// fixed file name inside the output directory. A chart with no data is an
// error; no placeholder image is produced.
package charts
