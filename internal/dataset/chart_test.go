package dataset

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChart_NotEnoughNumeric(t *testing.T) {
	ds := mustRecords(t, [][]string{
		{"a", "b", "c", "label"},
		{"1", "2", "3", "x"},
	})

	chart, err := ds.Chart(0)
	assert.Nil(t, chart)
	assert.ErrorIs(t, err, ErrNotEnoughNumeric)
}

func TestChart_FirstFourNumeric(t *testing.T) {
	ds := mustRecords(t, [][]string{
		{"label", "a", "b", "c", "d", "e"},
		{"x", "1", "-2", "3.5", "", "9"},
		{"y", "4", "5", "6", "7", "10"},
	})

	chart, err := ds.Chart(0)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, chart.Columns)
	assert.Equal(t, 2, chart.Rows)
	assert.False(t, chart.Truncated())
	require.Len(t, chart.Values, ChartColumns)

	assert.Equal(t, NullFloat(1), chart.Values[0][0])
	assert.Equal(t, NullFloat(3.5), chart.Values[2][0])
	assert.True(t, math.IsNaN(float64(chart.Values[3][0])))
	assert.False(t, chart.Values[3][0].Valid())
	assert.Equal(t, -2.0, chart.Min)
	assert.Equal(t, 7.0, chart.Max)
}

func TestChart_MaxRows(t *testing.T) {
	records := [][]string{{"a", "b", "c", "d"}}
	for i := 0; i < 10; i++ {
		records = append(records, []string{"1", "2", "3", "4"})
	}
	ds := mustRecords(t, records)

	chart, err := ds.Chart(4)
	require.NoError(t, err)
	assert.Equal(t, 4, chart.Rows)
	assert.Equal(t, 10, chart.TotalRows)
	assert.True(t, chart.Truncated())
	assert.Len(t, chart.Values[0], 4)
	assert.Zero(t, chart.Min, "baseline is always included")
}

func TestNullFloat_MarshalJSON(t *testing.T) {
	b, err := json.Marshal([]NullFloat{1.5, NullFloat(math.NaN()), -3})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, -3]`, string(b))
}
