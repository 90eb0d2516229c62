package index

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"secindex/client"
)

// DailyIndex resolves the filings submitted on a single day through
// EDGAR's daily index. Instances are built for exactly one date and
// never re-keyed.
type DailyIndex struct {
	source
	date time.Time
}

// NewDailyIndex creates an index source for the given date.
func NewDailyIndex(c *client.Client, date time.Time, filter EntryFilter) (*DailyIndex, error) {
	if c == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	if date.IsZero() {
		return nil, fmt.Errorf("date must not be zero")
	}
	date = midnight(date)

	d := &DailyIndex{date: date}
	d.source = source{
		c:      c,
		filter: filter,
		listingPath: fmt.Sprintf("Archives/edgar/daily-index/%d/QTR%d/",
			date.Year(), Quarter(date)),
		idxFilename: fmt.Sprintf("master.%s.idx", FormattedIdxDate(date)),
		feedPath: fmt.Sprintf("Archives/edgar/Feed/%d/QTR%d/",
			date.Year(), Quarter(date)),
		dirPatternDefault: filepath.Join("{date}", "{cik}"),
		date:              date,
		hasDate:           true,
	}
	d.source.archives = d.archiveNames
	return d, nil
}

// Date returns the day this source covers.
func (d *DailyIndex) Date() time.Time { return d.date }

// Year returns the year of the covered day.
func (d *DailyIndex) Year() int { return d.date.Year() }

// Quarter returns the quarter of the covered day.
func (d *DailyIndex) Quarter() int { return Quarter(d.date) }

// IdxFilename returns the master index filename for the covered day.
func (d *DailyIndex) IdxFilename() string { return d.idxFilename }

// archiveNames returns the bulk archive covering the day. EDGAR only
// publishes daily archives from 1995 Q3 onwards.
func (d *DailyIndex) archiveNames(context.Context) ([]string, error) {
	if d.Year() < 1995 || (d.Year() == 1995 && d.Quarter() < 3) {
		return nil, fmt.Errorf("bulk downloading is only available starting 1995 Q3")
	}
	return []string{d.date.Format("20060102") + ".nc.tar.gz"}, nil
}
