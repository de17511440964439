package dataset

import (
	"path"
	"strings"
)

// Format is a tabular file format accepted for upload and export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// MIME types sent with downloads.
const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FormatFromName derives the format from a file name's extension,
// case-insensitively. Anything but .csv or .xlsx yields a *FormatError.
func FormatFromName(name string) (Format, error) {
	ext := strings.ToLower(path.Ext(BaseName(name)))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", &FormatError{Ext: ext}
	}
}

// ParseFormat validates an export format name such as "csv" or "xlsx".
// "excel" is accepted as an alias for xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", &FormatError{Ext: "." + s}
	}
}

// Ext returns the format's file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the MIME type for downloads in this format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

// BaseName strips any directory part from an uploaded file name. Both
// slash and backslash separate directories, since some browsers send the
// full Windows path.
func BaseName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		return "data"
	}
	return base
}

// ExportName replaces the extension of the uploaded file name with the
// export format's extension: "sales.xlsx" becomes "sales.csv".
func ExportName(original string, f Format) string {
	base := BaseName(original)
	return strings.TrimSuffix(base, path.Ext(base)) + f.Ext()
}
