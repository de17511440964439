package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind classifies a column for display and for the numeric operations.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
	KindBool    Kind = "bool"
	KindDate    Kind = "date"
)

// DefaultPreviewRows is the number of rows Head shows when asked for none.
const DefaultPreviewRows = 5

// MissingTokens are the cell values loaded as missing.
var MissingTokens = []string{"", "NA", "NaN", "<nil>", "null", "N/A"}

// Dataset is an ordered set of equally long, typed columns.
type Dataset struct {
	df dataframe.DataFrame
}

// Column describes one column of a dataset.
type Column struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Missing int    `json:"missing"`
}

// Profile summarizes a dataset.
type Profile struct {
	Rows       int      `json:"rows"`
	Columns    []Column `json:"columns"`
	Duplicates int      `json:"duplicates"`
	Numeric    []string `json:"numeric"`
}

// Preview holds leading rows rendered as display strings.
// Missing cells are shown as "NaN".
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// FromRecords builds a dataset from a header row followed by data rows.
// Column types are inferred; rows of differing width are padded with
// missing cells and extra cells get generated column names. The records
// slice may be modified.
func FromRecords(records [][]string) (*Dataset, error) {
	records = normalizeRecords(records)
	if len(records) < 2 {
		return nil, ErrEmptyFile
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(MissingTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("build dataframe: %w", df.Err)
	}
	return &Dataset{df: df}, nil
}

// normalizeRecords drops empty rows, pads every row to the widest row, trims
// header names and lower-cases columns made only of booleans so the type
// detector sees "true"/"false".
func normalizeRecords(records [][]string) [][]string {
	out := make([][]string, 0, len(records))
	width := 0
	for _, row := range records {
		if len(row) == 0 {
			continue
		}
		if len(row) > width {
			width = len(row)
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil
	}

	for i, row := range out {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			out[i] = padded
		}
	}
	for i, name := range out[0] {
		out[0][i] = strings.TrimSpace(name)
	}

	for c := 0; c < width; c++ {
		if !boolColumn(out[1:], c) {
			continue
		}
		for _, row := range out[1:] {
			row[c] = strings.ToLower(row[c])
		}
	}
	return out
}

// boolColumn reports whether every present value in column c spells a
// boolean in any letter case.
func boolColumn(rows [][]string, c int) bool {
	seen := false
	for _, row := range rows {
		v := row[c]
		if isMissing(v) {
			continue
		}
		if !strings.EqualFold(v, "true") && !strings.EqualFold(v, "false") {
			return false
		}
		seen = true
	}
	return seen
}

func isMissing(v string) bool {
	for _, tok := range MissingTokens {
		if v == tok {
			return true
		}
	}
	return false
}

// Rows returns the number of data rows.
func (d *Dataset) Rows() int {
	return d.df.Nrow()
}

// Cols returns the number of columns.
func (d *Dataset) Cols() int {
	return d.df.Ncol()
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	return d.df.Names()
}

// Columns describes every column.
func (d *Dataset) Columns() []Column {
	names := d.df.Names()
	types := d.df.Types()
	cols := make([]Column, len(names))
	for i, name := range names {
		s := d.df.Col(name)
		cols[i] = Column{
			Name:    name,
			Kind:    kindOf(s, types[i]),
			Missing: countMissing(s),
		}
	}
	return cols
}

// NumericColumns returns the names of integer and float columns in order.
func (d *Dataset) NumericColumns() []string {
	var out []string
	types := d.df.Types()
	for i, name := range d.df.Names() {
		if types[i] == series.Int || types[i] == series.Float {
			out = append(out, name)
		}
	}
	return out
}

// Head returns the first n rows for display. n <= 0 means DefaultPreviewRows.
func (d *Dataset) Head(n int) Preview {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	if rows := d.df.Nrow(); n > rows {
		n = rows
	}

	p := Preview{
		Columns: d.df.Names(),
		Rows:    make([][]string, n),
	}
	ncol := d.df.Ncol()
	for r := 0; r < n; r++ {
		row := make([]string, ncol)
		for c := 0; c < ncol; c++ {
			e := d.df.Elem(r, c)
			if e.IsNA() {
				row[c] = "NaN"
				continue
			}
			row[c] = formatElem(e)
		}
		p.Rows[r] = row
	}
	return p
}

// Profile summarizes the dataset.
func (d *Dataset) Profile() Profile {
	return Profile{
		Rows:       d.df.Nrow(),
		Columns:    d.Columns(),
		Duplicates: d.df.Nrow() - len(d.uniqueRows()),
		Numeric:    d.NumericColumns(),
	}
}

// kindOf maps a gota series type to a column kind. Text columns whose every
// present value is a date are reported as dates.
func kindOf(s series.Series, t series.Type) Kind {
	switch t {
	case series.Int, series.Float:
		return KindNumeric
	case series.Bool:
		return KindBool
	}

	present := 0
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() {
			continue
		}
		if !isDate(e.String()) {
			return KindText
		}
		present++
	}
	if present == 0 {
		return KindText
	}
	return KindDate
}

func countMissing(s series.Series) int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.Elem(i).IsNA() {
			n++
		}
	}
	return n
}

// formatElem renders a present element the way it is exported: floats in
// shortest round-trip form, everything else via the element's own String.
func formatElem(e series.Element) string {
	if e.Type() == series.Float {
		return strconv.FormatFloat(e.Float(), 'f', -1, 64)
	}
	return e.String()
}
