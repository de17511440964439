package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Parse reads an uploaded file, choosing the parser from the file name's
// extension.
func Parse(name string, r io.Reader) (*Dataset, Format, error) {
	format, err := FormatFromName(name)
	if err != nil {
		return nil, "", err
	}

	var ds *Dataset
	switch format {
	case FormatCSV:
		ds, err = ParseCSV(r)
	case FormatXLSX:
		ds, err = ParseXLSX(r)
	}
	if err != nil {
		return nil, format, err
	}
	return ds, format, nil
}

// ParseCSV reads comma-separated text with a header row. A row with more
// fields than the header is an error; shorter rows are padded with missing
// cells.
func ParseCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(cleanText(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	width := len(records[0])
	for i, row := range records[1:] {
		if len(row) > width {
			return nil, fmt.Errorf("%w: expected %d fields in line %d, saw %d",
				ErrInvalidCSV, width, i+2, len(row))
		}
	}

	return FromRecords(records)
}

// ParseXLSX reads the first worksheet of a workbook. The first row is the
// header.
func ParseXLSX(r io.Reader) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	shown, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidSpreadsheet, sheets[0], err)
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidSpreadsheet, sheets[0], err)
	}

	ds, err := FromRecords(mergeCells(shown, raw))
	if errors.Is(err, ErrEmptyFile) {
		return nil, fmt.Errorf("%w: sheet %q has no data rows", ErrEmptyFile, sheets[0])
	}
	return ds, err
}

// mergeCells picks one value per cell from the formatted and raw readings
// of a sheet. Formatted numbers are rounded to the cell's number format (or
// to 15 digits under General), so a cell whose formatted text is itself a
// number takes the raw value instead. Everything else (dates, percentages,
// booleans, text) keeps its formatted text.
func mergeCells(shown, raw [][]string) [][]string {
	for r, row := range shown {
		if r >= len(raw) {
			break
		}
		for c, v := range row {
			if c >= len(raw[r]) || raw[r][c] == v {
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				continue
			}
			if _, err := strconv.ParseFloat(raw[r][c], 64); err == nil {
				row[c] = raw[r][c]
			}
		}
	}
	return shown
}
