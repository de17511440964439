package dataset

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// cleanText wraps r so that a leading byte order mark is consumed and
// invalid UTF-8 sequences come out as U+FFFD. A UTF-16 BOM switches the
// decoder to UTF-16, which covers spreadsheets exported as "Unicode text".
func cleanText(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}
