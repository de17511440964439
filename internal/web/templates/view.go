// Package templates renders the HTML pages. The components are written in
// .templ files; run `templ generate` after editing them.
package templates

import (
	"math"
	"strconv"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/dataset"
)

// Title is the application name shown in the page heading.
const Title = "Data Sweeper 🧹"

// Success is shown once the workspace holds at least one file.
const Success = "Congratulations! You have successfully cleaned and optimized your data 🎉"

// IndexData is everything the main page shows.
type IndexData struct {
	Files   []core.FileView
	Notices []core.Notice
	// Download, when set, offers the converted file picked on the
	// previous request.
	Download *Download
}

// Download is a ready conversion link.
type Download struct {
	FileID   string
	FileName string
	Format   dataset.Format
}

// Href is the export URL for the download.
func (d Download) Href() string {
	return ExportURL(d.FileID, d.Format)
}

// Label is the download button text.
func (d Download) Label() string {
	return "⬇️ Download " + d.FileName + " as " + FormatLabel(d.Format)
}

// FormatLabel names a format the way the conversion options do.
func FormatLabel(f dataset.Format) string {
	if f == dataset.FormatXLSX {
		return "Excel"
	}
	return "CSV"
}

// FileURL is the base path of a file's actions.
func FileURL(id string) string {
	return "/files/" + id
}

// ExportURL downloads a file in the given format.
func ExportURL(id string, f dataset.Format) string {
	return FileURL(id) + "/export?format=" + string(f)
}

var exportFormats = []dataset.Format{dataset.FormatCSV, dataset.FormatXLSX}

// downloadFor is the pending download of file id, if any.
func downloadFor(id string, d *Download) *Download {
	if d == nil || d.FileID != id {
		return nil
	}
	return d
}

// formatChecked reports whether a conversion option starts selected: the
// format of the pending download, or CSV.
func formatChecked(id string, d *Download, f dataset.Format) bool {
	if d := downloadFor(id, d); d != nil {
		return d.Format == f
	}
	return f == dataset.FormatCSV
}

func noticeLevel(n core.Notice) string {
	if n.Level == "" {
		return string(core.LevelInfo)
	}
	return string(n.Level)
}

func sizeKB(kb float64) string {
	return strconv.FormatFloat(kb, 'f', 2, 64)
}

func dimensions(f core.FileView) string {
	return strconv.Itoa(f.Rows) + " rows × " + strconv.Itoa(f.Cols) + " columns"
}

// Chart geometry in SVG user units.
const (
	chartWidth  = 960
	chartHeight = 400
	marginLeft  = 64
	marginRight = 16
	marginTop   = 36
	marginBot   = 36
	yTicks      = 5
	maxXLabels  = 40
)

var barColors = [dataset.ChartColumns]string{"#6a0dad", "#8a2be2", "#29b5e8", "#ff8c42"}

// chartView is a bar chart laid out in SVG coordinates.
type chartView struct {
	ViewBox string
	Legend  []legendItem
	Grid    []gridLine
	// Axis is the y of the zero line.
	Axis    string
	Bars    []bar
	XLabels []xLabel
}

type legendItem struct {
	X, TextX string
	Color    string
	Name     string
}

type gridLine struct {
	Y, LabelY string
	Label     string
}

type bar struct {
	X, Y, W, H string
	Fill       string
	Title      string
}

type xLabel struct {
	X, Y string
	Text string
}

// layoutChart places a grouped bar chart: one group per row, one bar per
// column. Missing values leave a gap.
func layoutChart(c *dataset.ChartData) chartView {
	lo, hi := c.Min, c.Max
	if hi-lo == 0 {
		hi = lo + 1
	}
	plotW := float64(chartWidth - marginLeft - marginRight)
	plotH := float64(chartHeight - marginTop - marginBot)
	y := func(v float64) float64 {
		return marginTop + (hi-v)/(hi-lo)*plotH
	}

	v := chartView{
		ViewBox: "0 0 " + strconv.Itoa(chartWidth) + " " + strconv.Itoa(chartHeight),
		Axis:    num(y(0)),
	}

	for i, name := range c.Columns {
		x := marginLeft + i*180
		v.Legend = append(v.Legend, legendItem{
			X:     strconv.Itoa(x),
			TextX: strconv.Itoa(x + 16),
			Color: barColors[i%len(barColors)],
			Name:  name,
		})
	}

	for i := 0; i <= yTicks; i++ {
		t := lo + (hi-lo)*float64(i)/yTicks
		v.Grid = append(v.Grid, gridLine{
			Y:      num(y(t)),
			LabelY: num(y(t) + 4),
			Label:  strconv.FormatFloat(t, 'g', 4, 64),
		})
	}

	if c.Rows == 0 {
		return v
	}
	band := plotW / float64(c.Rows)
	barW := band * 0.8 / float64(len(c.Columns))
	labelEvery := int(math.Ceil(float64(c.Rows) / maxXLabels))

	for r := 0; r < c.Rows; r++ {
		x0 := marginLeft + band*float64(r) + band*0.1
		for col := range c.Columns {
			val := c.Values[col][r]
			if !val.Valid() {
				continue
			}
			top, bottom := y(float64(val)), y(0)
			if top > bottom {
				top, bottom = bottom, top
			}
			v.Bars = append(v.Bars, bar{
				X:     num(x0 + barW*float64(col)),
				Y:     num(top),
				W:     num(barW),
				H:     num(bottom - top),
				Fill:  barColors[col%len(barColors)],
				Title: c.Columns[col] + ", row " + strconv.Itoa(r) + ": " + strconv.FormatFloat(float64(val), 'g', -1, 64),
			})
		}
		if r%labelEvery == 0 {
			v.XLabels = append(v.XLabels, xLabel{
				X:    num(marginLeft + band*(float64(r)+0.5)),
				Y:    strconv.Itoa(chartHeight - marginBot + 16),
				Text: strconv.Itoa(r),
			})
		}
	}
	return v
}

func truncationNote(c *dataset.ChartData) string {
	return "Showing the first " + strconv.Itoa(c.Rows) + " of " + strconv.Itoa(c.TotalRows) + " rows."
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func noticeText(n core.Notice) string {
	if n.Action == "" {
		return n.Text
	}
	return n.Text + ". " + n.Action
}
