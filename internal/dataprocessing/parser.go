package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// RequiredColumns are the source columns every readings file must carry.
var RequiredColumns = []string{
	domain.ColumnTimestamp,
	domain.ColumnStation,
	string(domain.PM25),
	string(domain.PM10),
	string(domain.NO2),
	string(domain.O3),
}

// timestampLayouts are tried in order for Fecha cells stored as text.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
}

// LoaderOptions configures how a readings file is read.
type LoaderOptions struct {
	// Sheet selects the workbook sheet; empty means the first sheet.
	Sheet string
	// CSVSeparator is the field separator for .csv input. Defaults to ';'.
	CSVSeparator rune
}

// Loader reads a readings spreadsheet into a domain.Table.
type Loader struct {
	logger    *slog.Logger
	sheet     string
	separator rune
	validate  *validator.Validate
}

// NewLoader creates a loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger, opts LoaderOptions) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CSVSeparator == 0 {
		opts.CSVSeparator = ';'
	}
	return &Loader{
		logger:    logger,
		sheet:     opts.Sheet,
		separator: opts.CSVSeparator,
		validate:  validator.New(),
	}
}

// rawSheet is the untyped content of one sheet or CSV file.
type rawSheet struct {
	header   []string
	rows     [][]string
	date1904 bool
}

// Load reads path (.xlsx/.xlsm or .csv) into a table. Any missing column,
// unparseable date or number aborts the whole load.
func (l *Loader) Load(path string) (*domain.Table, error) {
	var (
		raw *rawSheet
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		raw, err = l.readCSV(path)
	default:
		raw, err = l.readWorkbook(path)
	}
	if err != nil {
		return nil, err
	}

	table, err := l.buildTable(raw)
	if err != nil {
		return nil, err
	}

	if err := l.validate.Struct(table); err != nil {
		return nil, apperrors.NewInputError("readings failed validation", err)
	}

	l.logger.Info("Readings loaded",
		slog.String("file", path),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Columns)))

	return table, nil
}

func (l *Loader) readWorkbook(path string) (*rawSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewInputError(fmt.Sprintf("workbook %s has no sheets", path), nil)
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, apperrors.NewInputError(fmt.Sprintf("sheet %q not found in %s", sheet, path), err)
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, apperrors.NewInputError("failed to read workbook properties", err)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	defer rows.Close()

	raw := &rawSheet{date1904: props.Date1904 != nil && *props.Date1904}
	for rows.Next() {
		// Raw values keep dates as serial numbers and skip number formats.
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewInputError(fmt.Sprintf("failed to read row from sheet %q", sheet), err)
		}
		if raw.header == nil {
			if isBlank(cols) {
				continue
			}
			raw.header = cols
			continue
		}
		raw.rows = append(raw.rows, cols)
	}
	if err := rows.Error(); err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("failed to iterate sheet %q", sheet), err)
	}

	l.logger.Debug("Workbook sheet read",
		slog.String("sheet", sheet),
		slog.Int("data_rows", len(raw.rows)),
		slog.Bool("date1904", raw.date1904))

	return raw, nil
}

func (l *Loader) readCSV(path string) (*rawSheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInputError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = l.separator
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	raw := &rawSheet{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewInputError(fmt.Sprintf("failed to parse %s", path), err)
		}
		if raw.header == nil {
			if len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\ufeff")
			}
			raw.header = record
			continue
		}
		raw.rows = append(raw.rows, record)
	}

	return raw, nil
}

// buildTable maps the header, checks required columns and converts every
// non-blank row into a Reading.
func (l *Loader) buildTable(raw *rawSheet) (*domain.Table, error) {
	if raw.header == nil {
		return nil, apperrors.NewInputError("readings file has no header row", apperrors.ErrEmptyDataset)
	}

	columns := make([]string, 0, len(raw.header))
	index := make(map[string]int, len(raw.header))
	for i, h := range raw.header {
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		if _, dup := index[name]; dup {
			l.logger.Warn("Duplicate column ignored", slog.String("column", name), slog.Int("position", i+1))
			continue
		}
		index[name] = i
		columns = append(columns, name)
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewInputError(
			fmt.Sprintf("required columns absent: %s", strings.Join(missing, ", ")),
			apperrors.ErrMissingColumn,
		).WithContext("missing", missing)
	}

	var extras []string
	for _, c := range columns {
		if !isRequired(c) {
			extras = append(extras, c)
		}
	}

	table := &domain.Table{Columns: columns}
	for i, row := range raw.rows {
		if isBlank(row) {
			continue
		}
		line := i + 2 // 1-based, after the header
		reading, err := l.parseRow(row, line, index, extras, raw.date1904)
		if err != nil {
			return nil, err
		}
		table.Readings = append(table.Readings, reading)
	}

	if table.Len() == 0 {
		return nil, apperrors.NewInputError("readings file has no data rows", apperrors.ErrEmptyDataset)
	}

	return table, nil
}

func (l *Loader) parseRow(row []string, line int, index map[string]int, extras []string, date1904 bool) (domain.Reading, *apperrors.AppError) {
	cell := func(name string) string {
		i := index[name]
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var r domain.Reading

	ts, err := ParseTimestamp(cell(domain.ColumnTimestamp), date1904)
	if err != nil {
		return r, apperrors.NewInputError(fmt.Sprintf("row %d column %s", line, domain.ColumnTimestamp), err).
			WithContext("row", line)
	}
	r.Timestamp = ts
	r.Station = cell(domain.ColumnStation)

	targets := map[domain.Pollutant]*float64{
		domain.PM25: &r.PM25,
		domain.PM10: &r.PM10,
		domain.NO2:  &r.NO2,
		domain.O3:   &r.O3,
	}
	for _, p := range domain.Pollutants {
		v, err := ParseDecimal(cell(string(p)))
		if err != nil {
			return r, apperrors.NewInputError(fmt.Sprintf("row %d column %s", line, p), err).
				WithContext("row", line)
		}
		*targets[p] = v
	}

	if len(extras) > 0 {
		r.Extra = make(map[string]string, len(extras))
		for _, name := range extras {
			r.Extra[name] = cell(name)
		}
	}

	return r, nil
}

// ParseTimestamp converts a Fecha cell. Numeric text is an Excel serial
// date, rounded to the second; anything else must match a known layout.
func ParseTimestamp(s string, date1904 bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid serial date %q: %w", s, err)
		}
		return t.Round(time.Second), nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ParseDecimal converts a concentration cell written with a decimal comma.
// Empty cells are missing values (NaN). When a comma is present, dots are
// thousands separators.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func isRequired(column string) bool {
	for _, c := range RequiredColumns {
		if c == column {
			return true
		}
	}
	return false
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
