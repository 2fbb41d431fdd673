package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dokarii/TercerMomento/internal/config"
	"github.com/Dokarii/TercerMomento/internal/dataprocessing"
	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
	"github.com/Dokarii/TercerMomento/internal/shared/testutil"
	"github.com/Dokarii/TercerMomento/pkg/contracts/domain"
)

func sampleInputs(t *testing.T) (*domain.Table, *dataprocessing.Aggregates) {
	t.Helper()
	table := dataprocessing.DeriveFeatures(testutil.SampleTable())
	agg, err := dataprocessing.NewAggregator(config.DefaultAlertThreshold).Aggregate(table)
	require.NoError(t, err)
	return table, agg
}

func TestBuildValues(t *testing.T) {
	table, agg := sampleInputs(t)

	values, err := BuildValues(table, agg, ValueOptions{})
	require.NoError(t, err)

	assert.ElementsMatch(t, Placeholders(), keys(values))
	assert.Equal(t, "Norte, Centro", values[PlaceholderStations])
	assert.Equal(t, "2024-01-05 14:30:00", values[PlaceholderMaxDate])
	assert.Equal(t, "Centro", values[PlaceholderMaxStation])
	assert.Equal(t, "224.00", values[PlaceholderMaxValue])

	assert.Equal(t, 10, strings.Count(values[PlaceholderHead], "<tr>"))
	assert.Contains(t, values[PlaceholderCounts], "<td>Norte</td>\n      <td>10</td>")
	assert.Contains(t, values[PlaceholderCounts], "<td>Centro</td>\n      <td>10</td>")
	assert.Contains(t, values[PlaceholderMeans], "<td>PM2.5</td>\n      <td>32.25</td>")
	assert.Contains(t, values[PlaceholderMeans], `class="dataframe table table-striped"`)
}

func TestBuildValues_Options(t *testing.T) {
	table, agg := sampleInputs(t)

	values, err := BuildValues(table, agg, ValueOptions{HeadRows: 3, Classes: []string{"compact"}})
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(values[PlaceholderHead], "<tr>"))
	for _, name := range []string{PlaceholderHead, PlaceholderCounts, PlaceholderMeans} {
		assert.Contains(t, values[name], `class="dataframe compact"`, name)
	}
}

func TestBuildValues_NoData(t *testing.T) {
	_, err := BuildValues(nil, nil, ValueOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNoData))
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
