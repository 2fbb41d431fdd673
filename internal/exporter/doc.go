// Package exporter turns report tables into output formats.
//
// The HTML side formats tables as fragments for the report template:
// HTMLTable renders headers and string rows without an index column, and
// Head, StationCountsTable and GlobalMeansTable build the three tables the
// report embeds. Numbers use the shortest decimal form and missing values
// print as NaN, so the same input always yields the same markup.
//
// The CSV side is built on CSVWriter. AggregateExporter uses it to write the
// daily PM means and the monthly NO2/O3 means next to the report, separated
// by ';' with decimal commas:
//
//	exp := exporter.NewAggregateExporter(paths, logger)
//	files, err := exp.ExportAll(aggregates)
package exporter
