package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// ChartColumns is the number of numeric columns a chart plots.
const ChartColumns = 4

// ChartData is a grouped bar chart over the first ChartColumns numeric
// columns, one group per row. Min and Max span every plotted value and
// always include zero, the bar baseline.
type ChartData struct {
	Columns []string `json:"columns"`
	// Values holds one slice per column; missing cells are NaN and
	// serialize as null.
	Values    [][]NullFloat `json:"values"`
	Rows      int           `json:"rows"`
	TotalRows int           `json:"totalRows"`
	Min       float64       `json:"min"`
	Max       float64       `json:"max"`
}

// Truncated reports whether rows were left out of the chart.
func (c *ChartData) Truncated() bool {
	return c.Rows < c.TotalRows
}

// NullFloat is a float that marshals NaN as JSON null.
type NullFloat float64

func (f NullFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// Valid reports whether the value is plottable.
func (f NullFloat) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Chart collects plot data for the first ChartColumns numeric columns,
// limited to the first maxRows rows (maxRows <= 0 means all). With fewer
// numeric columns it returns ErrNotEnoughNumeric.
func (d *Dataset) Chart(maxRows int) (*ChartData, error) {
	numeric := d.NumericColumns()
	if len(numeric) < ChartColumns {
		return nil, fmt.Errorf("%w: found %d, need %d", ErrNotEnoughNumeric, len(numeric), ChartColumns)
	}

	total := d.df.Nrow()
	rows := total
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}

	chart := &ChartData{
		Columns:   numeric[:ChartColumns],
		Values:    make([][]NullFloat, ChartColumns),
		Rows:      rows,
		TotalRows: total,
	}
	for i, name := range chart.Columns {
		col := d.df.Col(name)
		vals := make([]NullFloat, rows)
		for r := 0; r < rows; r++ {
			e := col.Elem(r)
			if e.IsNA() {
				vals[r] = NullFloat(math.NaN())
				continue
			}
			v := e.Float()
			vals[r] = NullFloat(v)
			if math.IsInf(v, 0) {
				continue
			}
			chart.Min = math.Min(chart.Min, v)
			chart.Max = math.Max(chart.Max, v)
		}
		chart.Values[i] = vals
	}
	return chart, nil
}
