package dataset

import (
	"strings"
	"time"
)

// dateLayouts are the layouts a text column must match, value by value, to
// be reported as a date column. Four-digit years only; "1/2/06" stays text.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006.01.02",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"1.2.2006",
	"01.02.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

// isDate reports whether s parses with one of dateLayouts.
func isDate(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return false
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
