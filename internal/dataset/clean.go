package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"
)

// naKey marks a missing cell in a row key. Present cells are quoted, so a
// quoted cell never starts like naKey and the concatenation stays
// unambiguous.
const naKey = "NA;"

// uniqueRows returns the indexes of the first occurrence of every distinct
// row, in order.
func (d *Dataset) uniqueRows() []int {
	n := d.df.Nrow()
	ncol := d.df.Ncol()
	seen := make(map[string]struct{}, n)
	keep := make([]int, 0, n)

	var b strings.Builder
	for r := 0; r < n; r++ {
		b.Reset()
		for c := 0; c < ncol; c++ {
			e := d.df.Elem(r, c)
			if e.IsNA() {
				b.WriteString(naKey)
				continue
			}
			b.WriteString(strconv.Quote(formatElem(e)))
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, r)
	}
	return keep
}

// DropDuplicates removes rows that repeat an earlier row across all columns.
// Missing cells equal each other. The first occurrence is kept and row order
// is preserved. It returns the number of rows removed.
func (d *Dataset) DropDuplicates() (int, error) {
	n := d.df.Nrow()
	keep := d.uniqueRows()
	removed := n - len(keep)
	if removed == 0 {
		return 0, nil
	}

	df := d.df.Subset(keep)
	if df.Err != nil {
		return 0, fmt.Errorf("drop duplicates: %w", df.Err)
	}
	d.df = df
	return removed, nil
}

// FillMissingMean replaces missing cells of every numeric column with the
// mean of that column's present values. Columns without missing cells, and
// columns with no present value at all, are left alone. Integer columns that
// receive a fill become float columns. It returns the number of cells filled
// per column.
func (d *Dataset) FillMissingMean() (map[string]int, error) {
	filled := make(map[string]int)
	df := d.df

	for _, name := range d.NumericColumns() {
		col := df.Col(name)
		values := make([]float64, col.Len())
		missing := make([]int, 0)
		var sum float64

		for i := 0; i < col.Len(); i++ {
			e := col.Elem(i)
			if e.IsNA() {
				missing = append(missing, i)
				continue
			}
			values[i] = e.Float()
			sum += values[i]
		}

		present := col.Len() - len(missing)
		if len(missing) == 0 || present == 0 {
			continue
		}

		mean := sum / float64(present)
		for _, i := range missing {
			values[i] = mean
		}

		df = df.Mutate(series.New(values, series.Float, name))
		if df.Err != nil {
			return nil, fmt.Errorf("fill %q: %w", name, df.Err)
		}
		filled[name] = len(missing)
	}

	d.df = df
	return filled, nil
}

// SelectColumns restricts the dataset to the named columns in the given
// order. Repeated names are kept once.
func (d *Dataset) SelectColumns(names []string) error {
	if len(names) == 0 {
		return ErrNoColumns
	}

	existing := make(map[string]bool, d.df.Ncol())
	for _, n := range d.df.Names() {
		existing[n] = true
	}

	picked := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		if !existing[n] {
			return fmt.Errorf("%w: %q", ErrColumnNotFound, n)
		}
		seen[n] = true
		picked = append(picked, n)
	}

	df := d.df.Select(picked)
	if df.Err != nil {
		return fmt.Errorf("select columns: %w", df.Err)
	}
	d.df = df
	return nil
}
