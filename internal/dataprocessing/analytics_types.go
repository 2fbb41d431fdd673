package dataprocessing

import (
	"math"
	"time"

	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

// StationCount is the number of rows recorded for a station.
type StationCount struct {
	Station string `json:"estacion"`
	Count   int    `json:"conteo"`
}

// DailyMean holds the PM2.5 and PM10 means of one calendar day.
type DailyMean struct {
	Date time.Time `json:"fecha"`
	PM25 float64   `json:"pm25"`
	PM10 float64   `json:"pm10"`
}

// MonthlyMean holds the NO2 and O3 means of one station in one month.
type MonthlyMean struct {
	Month   domain.Month `json:"mes"`
	Station string       `json:"estacion"`
	NO2     float64      `json:"no2"`
	O3      float64      `json:"o3"`
}

// MonthlyStationMean is the mean PM2.5 of one station in one month.
type MonthlyStationMean struct {
	Month   domain.Month `json:"mes"`
	Station string       `json:"estacion"`
	PM25    float64      `json:"pm25"`
}

// DailyValue is one point of a daily series.
type DailyValue struct {
	Date  time.Time `json:"fecha"`
	Value float64   `json:"valor"`
}

// PollutantMean is the dataset-wide mean of a pollutant.
type PollutantMean struct {
	Pollutant domain.Pollutant `json:"contaminante"`
	Mean      float64          `json:"promedio"`
}

// Correlation is a square Pearson matrix over Labels. Values[i][j] is the
// coefficient between Labels[i] and Labels[j]; undefined pairs are NaN.
type Correlation struct {
	Labels []domain.Pollutant `json:"labels"`
	Values [][]float64        `json:"values"`
}

// At returns the coefficient between a and b, NaN for unknown labels.
func (c Correlation) At(a, b domain.Pollutant) float64 {
	i, j := c.index(a), c.index(b)
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return c.Values[i][j]
}

func (c Correlation) index(p domain.Pollutant) int {
	for i, l := range c.Labels {
		if l == p {
			return i
		}
	}
	return -1
}

// MaxTotal identifies the reading with the largest pollutant total.
type MaxTotal struct {
	Index   int            `json:"index"`
	Reading domain.Reading `json:"reading"`
	Total   float64        `json:"total"`
}

// Aggregates bundles every view the charts and the report consume. All
// fields are computed from one table and never modified afterwards.
type Aggregates struct {
	Threshold float64 `json:"threshold"`
	Rows      int     `json:"rows"`

	Stations      []string       `json:"stations"`
	StationCounts []StationCount `json:"station_counts"`

	DailyMeans  []DailyMean `json:"daily_means"`
	DailyAlerts []DailyMean `json:"daily_alerts"`

	MonthlyMeans []MonthlyMean        `json:"monthly_means"`
	MonthlyByNO2 []MonthlyMean        `json:"monthly_by_no2"`
	MonthlyPM25  []MonthlyStationMean `json:"monthly_pm25"`

	CriticalStation  string        `json:"critical_station"`
	CriticalReadings *domain.Table `json:"-"`
	CriticalPM10     []DailyValue  `json:"critical_pm10"`

	RowAlerts   *domain.Table  `json:"-"`
	AlertCounts []StationCount `json:"alert_counts"`

	Correlation Correlation     `json:"correlation"`
	GlobalMeans []PollutantMean `json:"global_means"`
	MaxTotal    MaxTotal        `json:"max_total"`
}
