package record

import "strconv"

// FormatStarCount renders a star count for display.
//
// Counts below 1000 render as "{n}+". Counts of 1000 and above render as
// thousands with one decimal and a "k+" suffix. Rounding is half-up on the
// integer count, so 1250 becomes "1.3k+" and 1999 becomes "2.0k+".
// Negative counts are clamped to 0.
func FormatStarCount(count int) string {
	if count < 0 {
		count = 0
	}
	if count < 1000 {
		return strconv.Itoa(count) + "+"
	}

	tenths := (count + 50) / 100
	return strconv.Itoa(tenths/10) + "." + strconv.Itoa(tenths%10) + "k+"
}
