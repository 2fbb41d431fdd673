package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReading_Total(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
		want    float64
	}{
		{
			name:    "all values present",
			reading: Reading{PM25: 1, PM10: 2, NO2: 3, O3: 4},
			want:    10,
		},
		{
			name:    "missing values count as zero",
			reading: Reading{PM25: 1, PM10: math.NaN(), NO2: 3, O3: math.NaN()},
			want:    4,
		},
		{
			name:    "all missing",
			reading: Reading{PM25: math.NaN(), PM10: math.NaN(), NO2: math.NaN(), O3: math.NaN()},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.reading.Total())
		})
	}
}

func TestReading_Value(t *testing.T) {
	r := Reading{PM25: 12.5, PM10: 40, NO2: 21.3, O3: 8}

	assert.Equal(t, 12.5, r.Value(PM25))
	assert.Equal(t, 40.0, r.Value(PM10))
	assert.Equal(t, 21.3, r.Value(NO2))
	assert.Equal(t, 8.0, r.Value(O3))
	assert.True(t, math.IsNaN(r.Value(Pollutant("CO"))))
}

func TestTable_FilterReturnsCopy(t *testing.T) {
	table := &Table{
		Columns: []string{ColumnTimestamp, ColumnStation},
		Readings: []Reading{
			{Station: "Centro", PM25: 40},
			{Station: "Norte", PM25: 10},
			{Station: "Centro", PM25: 20},
		},
	}

	centro := table.Filter(func(r Reading) bool { return r.Station == "Centro" })
	require.Equal(t, 2, centro.Len())

	centro.Readings[0].PM25 = 99
	centro.Columns[0] = "changed"

	assert.Equal(t, 40.0, table.Readings[0].PM25)
	assert.Equal(t, ColumnTimestamp, table.Columns[0])
	assert.Equal(t, 3, table.Len())
}

func TestMonth(t *testing.T) {
	jan := MonthOf(time.Date(2024, time.January, 31, 23, 59, 0, 0, time.UTC))
	feb := MonthOf(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC))
	dec := MonthOf(time.Date(2023, time.December, 15, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "2024-01", jan.String())
	assert.Equal(t, "2023-12", dec.String())
	assert.True(t, jan.Before(feb))
	assert.True(t, dec.Before(jan))
	assert.False(t, feb.Before(jan))
	assert.False(t, jan.IsZero())
	assert.True(t, Month{}.IsZero())
}

func TestReportManifest(t *testing.T) {
	var m ReportManifest
	m.Add(Artifact{Kind: ArtifactChart, Name: "bar", Path: "out/bar.png"})
	m.Add(Artifact{Kind: ArtifactReport, Name: "report", Path: "out/report.html"})
	m.Add(Artifact{Kind: ArtifactChart, Name: "pie", Path: "out/pie.png"})

	assert.Equal(t, []string{"out/bar.png", "out/report.html", "out/pie.png"}, m.Paths())
	assert.Len(t, m.ByKind(ArtifactChart), 2)
	assert.Len(t, m.ByKind(ArtifactExport), 0)
}
