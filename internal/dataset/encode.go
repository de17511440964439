package dataset

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by XLSX exports.
const SheetName = "Sheet1"

// Encode writes the dataset in the given format. Missing cells become empty
// CSV fields or blank spreadsheet cells.
func (d *Dataset) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		return d.encodeCSV(w)
	case FormatXLSX:
		return d.encodeXLSX(w)
	default:
		return &FormatError{Ext: "." + string(format)}
	}
}

func (d *Dataset) encodeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.df.Names()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	nrow, ncol := d.df.Nrow(), d.df.Ncol()
	record := make([]string, ncol)
	for r := 0; r < nrow; r++ {
		for c := 0; c < ncol; c++ {
			e := d.df.Elem(r, c)
			if e.IsNA() {
				record[c] = ""
				continue
			}
			record[c] = formatElem(e)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", r+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func (d *Dataset) encodeXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	names := d.df.Names()
	header := make([]interface{}, len(names))
	for i, n := range names {
		header[i] = n
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	nrow, ncol := d.df.Nrow(), d.df.Ncol()
	for r := 0; r < nrow; r++ {
		row := make([]interface{}, ncol)
		for c := 0; c < ncol; c++ {
			row[c] = cellValue(d.df.Elem(r, c))
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("xlsx row %d: %w", r+1, err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write xlsx row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush xlsx: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// cellValue converts an element to the typed value excelize stores. Missing
// cells are nil, which the stream writer leaves blank.
func cellValue(e series.Element) interface{} {
	if e.IsNA() {
		return nil
	}
	switch e.Type() {
	case series.Int:
		if v, err := e.Int(); err == nil {
			return v
		}
	case series.Float:
		return e.Float()
	case series.Bool:
		if v, err := e.Bool(); err == nil {
			return v
		}
	}
	return e.String()
}
