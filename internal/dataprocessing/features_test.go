package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dokarii/TercerMomento/internal/shared/testutil"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

func sampleTable() *domain.Table {
	return testutil.SampleTable()
}

func TestDeriveFeatures(t *testing.T) {
	src := sampleTable()

	derived := DeriveFeatures(src)

	require.True(t, derived.Derived)
	assert.Equal(t,
		[]string{"Fecha", "Estacion", "PM2.5", "PM10", "NO2", "O3", "FechaSolo", "Mes"},
		derived.Columns)
	require.Equal(t, src.Len(), derived.Len())

	centro := derived.Readings[1]
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), centro.Date)
	assert.Equal(t, domain.Month{Year: 2024, Month: time.January}, centro.Month)
	assert.Equal(t, "2024-01", centro.Month.String())

	last := derived.Readings[derived.Len()-1]
	assert.Equal(t, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), last.Date)
	assert.Equal(t, "2024-02", last.Month.String())

	// The source table is left untouched.
	assert.False(t, src.Derived)
	assert.Len(t, src.Columns, 6)
	assert.True(t, src.Readings[1].Date.IsZero())
	assert.True(t, src.Readings[1].Month.IsZero())
}

func TestDeriveFeatures_Idempotent(t *testing.T) {
	once := DeriveFeatures(sampleTable())
	twice := DeriveFeatures(once)

	assert.Equal(t, once.Columns, twice.Columns)
	assert.Equal(t, once.Readings, twice.Readings)
}

func TestDateOf(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "utc afternoon",
			in:   time.Date(2024, 3, 9, 23, 59, 59, 0, time.UTC),
			want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "midnight is kept",
			in:   time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "local zone",
			in:   time.Date(2024, 3, 9, 21, 0, 0, 0, bogota),
			want: time.Date(2024, 3, 9, 0, 0, 0, 0, bogota),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(DateOf(tt.in)))
		})
	}
}
