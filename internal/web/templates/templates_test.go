package templates

import (
	"bytes"
	"context"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/dataset"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func testView(name string) core.FileView {
	return core.FileView{
		FileInfo: core.FileInfo{
			ID:       "f1",
			Name:     name,
			SizeKB:   1.5,
			Rows:     2,
			Cols:     2,
			Cleaning: true,
			Ops:      []core.Operation{{Name: "Duplicates Removed", Summary: "1 rows"}},
		},
		Profile: dataset.Profile{
			Columns: []dataset.Column{{Name: "a", Kind: dataset.KindNumeric}, {Name: "b", Kind: dataset.KindText}},
		},
		Preview: dataset.Preview{
			Columns: []string{"a", "b"},
			Rows:    [][]string{{"1", "x"}, {"NaN", "<y>"}},
		},
	}
}

func TestIndex_EscapesUserText(t *testing.T) {
	out := render(t, Index(IndexData{
		Files:   []core.FileView{testView("<script>alert(1)</script>.csv")},
		Notices: []core.Notice{{Level: core.LevelWarning, Text: "bad & worse", Action: "Retry", Code: "E1"}},
	}))

	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;.csv")
	assert.Contains(t, out, "&lt;y&gt;")
	assert.Contains(t, out, `<div class="notice warning" role="status">bad &amp; worse. Retry <span class="muted">(E1)</span></div>`)
}

func TestIndex_FileSection(t *testing.T) {
	out := render(t, Index(IndexData{Files: []core.FileView{testView("sales.csv")}}))

	assert.Contains(t, out, "<title>Data Sweeper</title>")
	assert.Contains(t, out, "<strong>File Size:</strong> 1.50 KB")
	assert.Contains(t, out, "2 rows × 2 columns")
	assert.Contains(t, out, `<td class="missing">NaN</td>`)
	assert.Contains(t, out, `<input type="checkbox" name="on" value="true" checked> Clean Data for sales.csv`)
	assert.Contains(t, out, `action="/files/f1/dedupe"`)
	assert.Contains(t, out, "<li>Duplicates Removed: 1 rows</li>")
	assert.Contains(t, out, `<option value="b" selected>b (text)</option>`)
	assert.Contains(t, out, `<input type="radio" name="format" value="csv" checked> CSV`)
	assert.Contains(t, out, `<input type="radio" name="format" value="xlsx"> Excel`)
	assert.NotContains(t, out, "Download sales.csv")
	assert.Contains(t, out, Success)
}

func TestIndex_EmptyWorkspace(t *testing.T) {
	out := render(t, Index(IndexData{}))

	assert.Contains(t, out, "<h1>Data Sweeper 🧹</h1>")
	assert.NotContains(t, out, Success)
	assert.NotContains(t, out, `<section class="file"`)
}

func TestIndex_DownloadOnlyForItsFile(t *testing.T) {
	other := testView("other.csv")
	other.ID = "f2"
	out := render(t, Index(IndexData{
		Files:    []core.FileView{testView("sales.csv"), other},
		Download: &Download{FileID: "f1", FileName: "sales.csv", Format: dataset.FormatXLSX},
	}))

	assert.Contains(t, out, `<a class="button download" href="/files/f1/export?format=xlsx" download>⬇️ Download sales.csv as Excel</a>`)
	assert.Equal(t, 1, strings.Count(out, `class="button download"`))
	assert.Equal(t, 1, strings.Count(out, `value="xlsx" checked`))
}

func TestChartPage(t *testing.T) {
	v := testView("sales.csv")
	v.Chart = &dataset.ChartData{
		Columns:   []string{"a", "b"},
		Values:    [][]dataset.NullFloat{{1, 2}, {dataset.NullFloat(math.NaN()), 4}},
		Rows:      2,
		TotalRows: 5,
		Min:       0,
		Max:       4,
	}
	out := render(t, ChartPage(v))

	assert.Contains(t, out, "<title>Data Sweeper: sales.csv</title>")
	assert.Contains(t, out, `<svg class="chart" viewBox="0 0 960 400"`)
	assert.Equal(t, 3, strings.Count(out, "<title>")-1, "missing values leave a gap")
	assert.Contains(t, out, "<title>b, row 1: 4</title>")
	assert.Contains(t, out, "Showing the first 2 of 5 rows.")
}

func TestChartPage_Note(t *testing.T) {
	v := testView("sales.csv")
	v.ChartNote = "Not enough numeric columns"
	out := render(t, ChartPage(v))

	assert.NotContains(t, out, "<svg")
	assert.Contains(t, out, `<div class="notice warning" role="alert">Not enough numeric columns</div>`)
}

func TestLayoutChart(t *testing.T) {
	v := layoutChart(&dataset.ChartData{
		Columns: []string{"a"},
		Values:  [][]dataset.NullFloat{{-2, 2}},
		Rows:    2,
		Min:     -2,
		Max:     2,
	})

	require.Len(t, v.Bars, 2)
	assert.Len(t, v.Grid, yTicks+1)
	assert.Equal(t, "200.00", v.Axis)
	// Negative bars hang below the axis.
	assert.Equal(t, v.Axis, v.Bars[0].Y)
	assert.Equal(t, v.Axis, num(mustFloat(t, v.Bars[1].Y)+mustFloat(t, v.Bars[1].H)))
}

func TestLayoutChart_FlatValues(t *testing.T) {
	v := layoutChart(&dataset.ChartData{
		Columns: []string{"a"},
		Values:  [][]dataset.NullFloat{{3}},
		Rows:    1,
		Min:     3,
		Max:     3,
	})
	require.Len(t, v.Bars, 1)
	assert.NotContains(t, v.Bars[0].H, "NaN")
}

func TestErrorPage(t *testing.T) {
	out := render(t, ErrorPage(core.UserMessage{Message: "Upload failed", Action: "Try again", Code: "UPLOAD_001"}))

	assert.Contains(t, out, `<strong>Upload failed</strong> <br>Try again <span class="muted">(Code: UPLOAD_001)</span>`)
	assert.Contains(t, out, `href="/">Back</a>`)
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	f, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return f
}
