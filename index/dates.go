package index

import "time"

// Quarter returns the fiscal quarter (1-4) the date falls in.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

func quarterStartMonth(quarter int) time.Month {
	return time.Month(3*(quarter-1) + 1)
}

func addQuarter(year, quarter int) (int, int) {
	quarter++
	if quarter > 4 {
		return year + 1, 1
	}
	return year, quarter
}

// quarterStart returns the first day of the quarter the date falls in.
func quarterStart(t time.Time) time.Time {
	return time.Date(t.Year(), quarterStartMonth(Quarter(t)), 1, 0, 0, 0, 0, time.UTC)
}

// nextQuarterStart returns the first day of the quarter after the one
// the date falls in.
func nextQuarterStart(t time.Time) time.Time {
	year, quarter := addQuarter(t.Year(), Quarter(t))
	return time.Date(year, quarterStartMonth(quarter), 1, 0, 0, 0, 0, time.UTC)
}

// midnight truncates a time to its UTC calendar date so day arithmetic
// stays exact.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(midnight(to).Sub(midnight(from)).Hours() / 24)
}

// lastShortDate is the last day EDGAR used the 6-digit YYMMDD form in
// daily index filenames.
var lastShortDate = time.Date(1998, time.March, 31, 0, 0, 0, 0, time.UTC)

// FormattedIdxDate formats a date the way EDGAR embeds it in daily
// index filenames. The format changed twice: MMDDYY before 1995,
// YYMMDD through 1998-03-31, and YYYYMMDD afterwards.
func FormattedIdxDate(t time.Time) string {
	switch {
	case t.Year() < 1995:
		return t.Format("010206")
	case !midnight(t).After(lastShortDate):
		return t.Format("060102")
	default:
		return t.Format("20060102")
	}
}
