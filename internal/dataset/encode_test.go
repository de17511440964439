package dataset

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `region,units,price,active,note
north,10,2.5,true,first
south,,3.75,false,
east,7,NaN,true,"comma, inside"
`

func TestEncodeCSV(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ds.Encode(&buf, FormatCSV))

	want := "region,units,price,active,note\n" +
		"north,10,2.5,true,first\n" +
		"south,,3.75,false,\n" +
		"east,7,,true,\"comma, inside\"\n"
	assert.Equal(t, want, buf.String())
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			ds, err := ParseCSV(strings.NewReader(sampleCSV))
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, ds.Encode(&buf, format))

			back, _, err := Parse(ExportName("sample.csv", format), &buf)
			require.NoError(t, err)

			assert.Equal(t, ds.Names(), back.Names())
			assert.Equal(t, ds.Rows(), back.Rows())
			assert.Equal(t, ds.Head(10), back.Head(10))
			assert.Equal(t, ds.Columns(), back.Columns())
		})
	}
}

func TestSelectExportReparse(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			ds, err := ParseCSV(strings.NewReader(sampleCSV))
			require.NoError(t, err)
			original := ds.Head(10)

			require.NoError(t, ds.SelectColumns([]string{"price", "region"}))

			var buf bytes.Buffer
			require.NoError(t, ds.Encode(&buf, format))

			back, _, err := Parse("out"+format.Ext(), &buf)
			require.NoError(t, err)
			assert.Equal(t, []string{"price", "region"}, back.Names())

			got := back.Head(10)
			for r, row := range got.Rows {
				assert.Equal(t, original.Rows[r][2], row[0], "price row %d", r)
				assert.Equal(t, original.Rows[r][0], row[1], "region row %d", r)
			}
		})
	}
}

func TestSelectExportReparse_FilledMean(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			ds := mustRecords(t, [][]string{
				{"p", "q"}, {"0.1", "a"}, {"", "b"}, {"0.2", "c"}, {"0.3", "d"},
			})
			_, err := ds.FillMissingMean()
			require.NoError(t, err)
			require.NoError(t, ds.SelectColumns([]string{"p"}))
			want := ds.Head(10).Rows
			require.Equal(t, "0.20000000000000004", want[1][0])

			var buf bytes.Buffer
			require.NoError(t, ds.Encode(&buf, format))

			back, _, err := Parse("out"+format.Ext(), &buf)
			require.NoError(t, err)
			assert.Equal(t, []string{"p"}, back.Names())
			assert.Equal(t, want, back.Head(10).Rows)
		})
	}
}

func TestEncode_AfterFill(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader("a,b\n1,x\n,y\n2,z\n"))
	require.NoError(t, err)
	_, err = ds.FillMissingMean()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ds.Encode(&buf, FormatCSV))
	assert.Equal(t, "a,b\n1,x\n1.5,y\n2,z\n", buf.String())
}

func TestEncode_UnknownFormat(t *testing.T) {
	ds, err := ParseCSV(strings.NewReader("a\n1\n"))
	require.NoError(t, err)

	err = ds.Encode(&bytes.Buffer{}, Format("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportName(t *testing.T) {
	tests := []struct {
		original string
		format   Format
		want     string
	}{
		{"sales.xlsx", FormatCSV, "sales.csv"},
		{"sales.csv", FormatXLSX, "sales.xlsx"},
		{"sales.csv", FormatCSV, "sales.csv"},
		{"Q1.report.CSV", FormatXLSX, "Q1.report.xlsx"},
		{"noext", FormatCSV, "noext.csv"},
		{"dir/nested.csv", FormatXLSX, "nested.xlsx"},
		{`C:\Users\ana\Desktop\sales.csv`, FormatXLSX, "sales.xlsx"},
		{`\\server\share\q1.xlsx`, FormatCSV, "q1.csv"},
		{"", FormatCSV, "data.csv"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExportName(tt.original, tt.format), tt.original)
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "sales.csv", BaseName(`C:\fakepath\sales.csv`))
	assert.Equal(t, "sales.csv", BaseName("sales.csv"))
	assert.Equal(t, "data", BaseName(""))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX.ContentType())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("Excel")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
