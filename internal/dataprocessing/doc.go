// Package dataprocessing turns an air-quality readings spreadsheet into the
// aggregate views used by the report.
//
// # Architecture
//
// The package is organized into three components that run in order:
//
// 1. Loader: reads an xlsx workbook (or a semicolon separated CSV file) with
// the columns Fecha, Estacion, PM2.5, PM10, NO2 and O3. Fecha may be an
// Excel serial date or text; concentrations use a decimal comma.
// 2. DeriveFeatures: adds the calendar date (FechaSolo) and the year-month
// bucket (Mes) to every reading.
// 3. Aggregator: computes daily and monthly means, the critical station,
// PM2.5 alert subsets, the correlation matrix, global means and the row with
// the largest pollutant total.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger, dataprocessing.LoaderOptions{})
//	table, err := loader.Load("CALIDAD.xlsx")
//	if err != nil {
//	    return err
//	}
//	agg, err := dataprocessing.NewAggregator(35).Aggregate(dataprocessing.DeriveFeatures(table))
//
// # Missing values
//
// Empty concentration cells are loaded as NaN. Means skip them, the row total
// counts them as zero and correlations use only rows where both pollutants
// are present. A pollutant with no values at all fails aggregation.
//
// # Error Handling
//
// Load failures are INPUT errors and aggregation failures are AGGREGATION
// errors from internal/errors. Both wrap the sentinel causes
// ErrMissingColumn, ErrEmptyDataset and ErrNoData where they apply.
package dataprocessing
