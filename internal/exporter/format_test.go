package exporter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{
			name:     "zero value",
			input:    0.0,
			expected: "0",
		},
		{
			name:     "whole number",
			input:    100.0,
			expected: "100",
		},
		{
			name:     "negative integer",
			input:    -456.0,
			expected: "-456",
		},
		{
			name:     "trailing zeros removed",
			input:    13.40,
			expected: "13.4",
		},
		{
			name:     "mean with many decimals",
			input:    44.3375,
			expected: "44.3375",
		},
		{
			name:     "small value stays decimal",
			input:    1.23e-5,
			expected: "0.0000123",
		},
		{
			name:     "missing value",
			input:    math.NaN(),
			expected: "NaN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatFloat(tt.input)
			assert.Equal(t, tt.expected, result, "formatFloat(%f) = %s, want %s", tt.input, result, tt.expected)
		})
	}
}

func TestFormatDecimalComma(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "whole number", input: 36, expected: "36"},
		{name: "decimal", input: 17.4, expected: "17,4"},
		{name: "negative", input: -0.25, expected: "-0,25"},
		{name: "missing value", input: math.NaN(), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDecimalComma(tt.input))
		})
	}
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", formatInt(0))
	assert.Equal(t, "42", formatInt(42))
	assert.Equal(t, "-7", formatInt(-7))
}

func TestCellValue(t *testing.T) {
	ts := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)
	r := domain.Reading{
		Timestamp: ts,
		Station:   "Centro",
		PM25:      52,
		PM10:      60.5,
		NO2:       math.NaN(),
		O3:        40,
		Extra:     map[string]string{"Operador": "Ana"},
		Date:      time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Month:     domain.Month{Year: 2024, Month: time.January},
	}

	tests := []struct {
		column   string
		expected string
	}{
		{domain.ColumnTimestamp, "2024-01-05 14:30:00"},
		{domain.ColumnStation, "Centro"},
		{"PM2.5", "52"},
		{"PM10", "60.5"},
		{"NO2", "NaN"},
		{"O3", "40"},
		{domain.ColumnDate, "2024-01-05"},
		{domain.ColumnMonth, "2024-01"},
		{domain.ColumnTotal, "152.5"},
		{"Operador", "Ana"},
		{"Desconocida", ""},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			assert.Equal(t, tt.expected, cellValue(r, tt.column))
		})
	}
}

// BenchmarkFormatFloat tests the performance of formatFloat function
func BenchmarkFormatFloat(b *testing.B) {
	testValues := []float64{
		0.0,
		123.456789,
		-987.654321,
		1234567.890123,
		0.000001,
		math.NaN(),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, val := range testValues {
			_ = formatFloat(val)
		}
	}
}
