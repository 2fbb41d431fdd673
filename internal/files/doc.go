// Package files locates the readings file for a report run.
//
// The input may be configured as a file or as a directory. For a directory,
// Discovery picks the preferred name (CALIDAD.xlsx by default) when present,
// otherwise the most recently modified .xlsx, .xlsm or .csv file. Excel lock
// files are never chosen.
//
// Example usage:
//
//	discovery := files.NewDiscovery(config.DefaultInputFile, logger)
//	input, err := discovery.ResolveInput("datos")
package files
