// Package index retrieves SEC filings through EDGAR's daily and
// quarterly index files. A single day or quarter is resolved by
// DailyIndex or QuarterlyIndex; ComboFilings covers an arbitrary date
// range by partitioning it into whole-quarter and day-by-day lookups.
package index

import (
	"errors"
	"slices"
	"time"
)

// ErrNoFilings is returned when the expected index file is absent for
// the requested period. EDGAR publishes no index for days without
// filings, so this is an expected outcome, not a transport failure.
var ErrNoFilings = errors.New("no filings found for period")

// FilingEntry is one row of an EDGAR index file.
type FilingEntry struct {
	CIK         string
	CompanyName string
	FormType    string
	DateFiled   time.Time
	FileName    string
	Path        string
}

// FilingIndex maps a CIK to its filing entries in index-file order.
// CIKs in index files are not zero-padded and are not globally unique
// across years.
type FilingIndex map[string][]FilingEntry

// EntryFilter decides whether a parsed entry is kept. A nil filter
// accepts everything.
type EntryFilter func(FilingEntry) bool

// FormTypeFilter keeps only entries whose form type is one of the given
// forms, e.g. "10-K" or "4".
func FormTypeFilter(forms ...string) EntryFilter {
	return func(e FilingEntry) bool {
		return slices.Contains(forms, e.FormType)
	}
}

// combineFilters ANDs two filters, treating nil as accept-all.
func combineFilters(a, b EntryFilter) EntryFilter {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return func(e FilingEntry) bool {
			return a(e) && b(e)
		}
	}
}
