package domain

import (
	"math"
	"time"
)

// Pollutant names a measured concentration column.
type Pollutant string

const (
	PM25 Pollutant = "PM2.5"
	PM10 Pollutant = "PM10"
	NO2  Pollutant = "NO2"
	O3   Pollutant = "O3"
)

// Pollutants lists the measured columns in report order.
var Pollutants = []Pollutant{PM25, PM10, NO2, O3}

// Input and derived column names as they appear in the source workbook and
// in the rendered tables.
const (
	ColumnTimestamp = "Fecha"
	ColumnStation   = "Estacion"
	ColumnDate      = "FechaSolo"
	ColumnMonth     = "Mes"
	ColumnTotal     = "Total"
)

// Reading is one timestamped row of pollutant concentrations for a station.
// Missing concentrations are stored as NaN.
type Reading struct {
	Timestamp time.Time         `json:"fecha" validate:"required"`
	Station   string            `json:"estacion" validate:"required"`
	PM25      float64           `json:"pm25"`
	PM10      float64           `json:"pm10"`
	NO2       float64           `json:"no2"`
	O3        float64           `json:"o3"`
	Extra     map[string]string `json:"extra,omitempty"`

	// Derived by the feature step.
	Date  time.Time `json:"fecha_solo"`
	Month Month     `json:"mes"`
}

// Value returns the concentration for p, NaN when missing or unknown.
func (r Reading) Value(p Pollutant) float64 {
	switch p {
	case PM25:
		return r.PM25
	case PM10:
		return r.PM10
	case NO2:
		return r.NO2
	case O3:
		return r.O3
	}
	return math.NaN()
}

// Total is the sum of the four pollutants. Missing values contribute zero.
func (r Reading) Total() float64 {
	var sum float64
	for _, p := range Pollutants {
		if v := r.Value(p); !math.IsNaN(v) {
			sum += v
		}
	}
	return sum
}

// Table is the loaded dataset: the source header order plus one Reading per
// data row, in file order.
type Table struct {
	Columns  []string  `json:"columns"`
	Readings []Reading `json:"readings" validate:"dive"`
	Derived  bool      `json:"derived"`
}

// Len returns the number of readings.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Readings)
}

// Filter returns a new table holding copies of the readings for which keep
// returns true. The receiver is not modified.
func (t *Table) Filter(keep func(Reading) bool) *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Derived: t.Derived,
	}
	for _, r := range t.Readings {
		if keep(r) {
			out.Readings = append(out.Readings, r)
		}
	}
	return out
}

// Month is a calendar year-month bucket.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the bucket containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String formats the bucket as YYYY-MM.
func (m Month) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// IsZero reports whether the bucket was never set.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}
