package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"secindex/client"
)

// source holds the per-period resolution shared by DailyIndex and
// QuarterlyIndex: checking the listing directory for the index file,
// fetching and parsing it, and mapping entries to absolute URLs.
// Results are memoized; instances cover exactly one period and are
// never re-keyed, so the memos never need invalidation. Instances are
// not safe for concurrent use.
type source struct {
	c      *client.Client
	filter EntryFilter

	listingPath string
	idxFilename string
	feedPath    string
	archives    func(ctx context.Context) ([]string, error)

	dirPatternDefault string
	date              time.Time
	hasDate           bool

	listing     []string
	haveListing bool
	filings     FilingIndex
	haveFilings bool
	found       bool
	urls        map[string][]string
}

// loadListing fetches the names present in the period's index listing
// directory.
func (s *source) loadListing(ctx context.Context) ([]string, error) {
	if s.haveListing {
		return s.listing, nil
	}
	doc, err := s.c.GetDocument(ctx, s.listingPath, nil)
	if err != nil {
		return nil, err
	}
	s.listing = listedNames(doc)
	s.haveListing = true
	return s.listing, nil
}

// listedNames collects file names from an EDGAR directory listing page.
// Both the link target and the link text are kept since the two have
// differed across EDGAR page generations.
func listedNames(doc *goquery.Document) []string {
	var names []string
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			names = append(names, strings.TrimSpace(href))
		}
		if text := strings.TrimSpace(sel.Text()); text != "" {
			names = append(names, text)
		}
	})
	return names
}

// Locate reports whether the period's index file is present in the
// listing directory. A missing file means there are legitimately no
// filings for the period.
func (s *source) Locate(ctx context.Context) (bool, error) {
	names, err := s.loadListing(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if strings.Contains(name, s.idxFilename) {
			return true, nil
		}
	}
	return false, nil
}

// Filings resolves the period into parsed filing entries keyed by CIK.
// The boolean reports whether an index file existed for the period.
func (s *source) Filings(ctx context.Context) (FilingIndex, bool, error) {
	if s.haveFilings {
		return s.filings, s.found, nil
	}

	found, err := s.Locate(ctx)
	if err != nil {
		return nil, false, err
	}
	if !found {
		s.haveFilings = true
		s.found = false
		return nil, false, nil
	}

	resp, err := s.c.GetResponse(ctx, s.listingPath+s.idxFilename, nil)
	if err != nil {
		return nil, false, err
	}

	s.filings = ParseIndexFile(resp.Body, s.filter)
	s.haveFilings = true
	s.found = true
	return s.filings, true, nil
}

// urlsIfFound maps the period's filings to absolute URLs keyed by CIK.
func (s *source) urlsIfFound(ctx context.Context) (map[string][]string, bool, error) {
	if s.urls != nil {
		return s.urls, true, nil
	}

	filings, found, err := s.Filings(ctx)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	urls := make(map[string][]string, len(filings))
	for cik, entries := range filings {
		links := make([]string, 0, len(entries))
		for _, entry := range entries {
			links = append(links, s.c.URL(entry.Path))
		}
		urls[cik] = links
	}
	s.urls = urls
	return urls, true, nil
}

// GetURLs returns the period's filing URLs keyed by CIK, or ErrNoFilings
// when no index file exists for the period.
func (s *source) GetURLs(ctx context.Context) (map[string][]string, error) {
	urls, found, err := s.urlsIfFound(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", s.idxFilename, ErrNoFilings)
	}
	return urls, nil
}
