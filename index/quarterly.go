package index

import (
	"context"
	"fmt"
	"strings"

	"secindex/client"
)

// QuarterlyIndex resolves all filings submitted in one quarter through
// EDGAR's full index. Instances are built for exactly one (year,
// quarter) pair and never re-keyed.
type QuarterlyIndex struct {
	source
	year    int
	quarter int
}

// NewQuarterlyIndex creates an index source for the given year and
// quarter. EDGAR's electronic records begin in 1993.
func NewQuarterlyIndex(c *client.Client, year, quarter int, filter EntryFilter) (*QuarterlyIndex, error) {
	if c == nil {
		return nil, fmt.Errorf("client must not be nil")
	}
	if year < 1993 {
		return nil, fmt.Errorf("year must be 1993 or later, got %d", year)
	}
	if quarter < 1 || quarter > 4 {
		return nil, fmt.Errorf("quarter must be between 1 and 4, got %d", quarter)
	}

	q := &QuarterlyIndex{year: year, quarter: quarter}
	q.source = source{
		c:                 c,
		filter:            filter,
		listingPath:       fmt.Sprintf("Archives/edgar/full-index/%d/QTR%d/", year, quarter),
		idxFilename:       "master.idx",
		feedPath:          fmt.Sprintf("Archives/edgar/Feed/%d/QTR%d/", year, quarter),
		dirPatternDefault: "{cik}",
	}
	q.source.archives = q.archiveNames
	return q, nil
}

// Year returns the year this source covers.
func (q *QuarterlyIndex) Year() int { return q.year }

// Quarter returns the quarter this source covers.
func (q *QuarterlyIndex) Quarter() int { return q.quarter }

// archiveNames lists every daily bulk archive published for the quarter
// by scraping the Feed directory listing.
func (q *QuarterlyIndex) archiveNames(ctx context.Context) ([]string, error) {
	doc, err := q.c.GetDocument(ctx, q.feedPath, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, name := range listedNames(doc) {
		if !strings.HasSuffix(name, ".nc.tar.gz") || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no archives listed for %d QTR%d", q.year, q.quarter)
	}
	return names, nil
}
