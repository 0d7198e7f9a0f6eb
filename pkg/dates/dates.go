// Package dates works with timezone-naive calendar dates encoded as
// "YYYY-MM-DD". A date is represented as a time.Time at UTC midnight so that
// day arithmetic never sees DST shifts or time-of-day remainders.
package dates

import (
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

const day = 24 * time.Hour

// Parse reads s as a calendar date. Surrounding whitespace is ignored.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}

	return t, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether s is a well-formed calendar date.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func Format(d time.Time) string {
	return d.Format(Layout)
}

// Normalize drops the time of day and location of t, keeping the calendar
// date as seen in t's own location.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func AddDays(d time.Time, n int) time.Time {
	return Normalize(d).AddDate(0, 0, n)
}

// DaysBetween returns the number of whole days from -> to, rounded up.
// Both arguments are normalized first, so the result is exact.
func DaysBetween(from, to time.Time) int {
	diff := Normalize(to).Sub(Normalize(from))
	days := diff / day
	if diff%day > 0 {
		days++
	}
	return int(days)
}

// Label renders d as "M/D", e.g. "5/18".
func Label(d time.Time) string {
	return fmt.Sprintf("%d/%d", int(d.Month()), d.Day())
}

// Compare orders two date strings. Malformed strings are reported via ok=false.
func Compare(a, b string) (cmp int, ok bool) {
	ta, err := Parse(a)
	if err != nil {
		return 0, false
	}
	tb, err := Parse(b)
	if err != nil {
		return 0, false
	}
	return ta.Compare(tb), true
}
