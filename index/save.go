package index

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"secindex/client"
)

// SaveOptions controls where and how filings are written to disk.
type SaveOptions struct {
	// Directory is the parent directory for all saved filings.
	Directory string
	// DirPattern is the subdirectory template. Recognized tokens are
	// {cik} and, for daily sources, {date}. Defaults to "{cik}" for
	// quarterly sources and "{date}/{cik}" for daily sources.
	DirPattern string
	// FilePattern is the filename template. The only recognized token
	// is {accession_number}, which is also the default.
	FilePattern string
	// DateFormat is the Go reference layout used for the {date} token.
	// Defaults to "20060102".
	DateFormat string
	// DownloadAll switches from per-file downloads to fetching the
	// period's bulk archives and unpacking them locally.
	DownloadAll bool
	// ExtractWorkers bounds the archive-unpacking pool. Defaults to 4.
	ExtractWorkers int
	// MoveWorkers bounds the file-move pool used after unpacking.
	// Defaults to 64.
	MoveWorkers int
}

var patternToken = regexp.MustCompile(`\{[^{}]*\}`)

// validateTokens rejects template tokens outside the allowed set.
// Unknown tokens fail here, before any network request is made.
func validateTokens(pattern string, allowed ...string) error {
	for _, token := range patternToken.FindAllString(pattern, -1) {
		if !slices.Contains(allowed, token) {
			return fmt.Errorf("unknown token %s in pattern %q", token, pattern)
		}
	}
	return nil
}

func expandTokens(pattern string, replacements map[string]string) string {
	for token, value := range replacements {
		pattern = strings.ReplaceAll(pattern, token, value)
	}
	return pattern
}

// AccessionNumber derives the accession number from a filing URL's
// final path segment.
func AccessionNumber(url string) string {
	base := url[strings.LastIndex(url, "/")+1:]
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func (o SaveOptions) normalized(dirPatternDefault string, hasDate bool) (SaveOptions, error) {
	if o.Directory == "" {
		return o, fmt.Errorf("directory must not be empty")
	}
	if o.DirPattern == "" {
		o.DirPattern = dirPatternDefault
	}
	if o.FilePattern == "" {
		o.FilePattern = "{accession_number}"
	}
	if o.DateFormat == "" {
		o.DateFormat = "20060102"
	}
	if o.ExtractWorkers <= 0 {
		o.ExtractWorkers = 4
	}
	if o.MoveWorkers <= 0 {
		o.MoveWorkers = 64
	}

	dirTokens := []string{"{cik}"}
	if hasDate {
		dirTokens = append(dirTokens, "{date}")
	}
	if err := validateTokens(o.DirPattern, dirTokens...); err != nil {
		return o, err
	}
	if err := validateTokens(o.FilePattern, "{accession_number}"); err != nil {
		return o, err
	}
	return o, nil
}

// dirFor expands the directory pattern for one CIK.
func (s *source) dirFor(opts SaveOptions, cik string) string {
	replacements := map[string]string{"{cik}": cik}
	if s.hasDate {
		replacements["{date}"] = s.date.Format(opts.DateFormat)
	}
	return expandTokens(opts.DirPattern, replacements)
}

// Save downloads the period's filings into the layout described by
// opts. It returns ErrNoFilings (wrapped) when no index file exists for
// the period.
func (s *source) Save(ctx context.Context, opts SaveOptions) error {
	opts, err := opts.normalized(s.dirPatternDefault, s.hasDate)
	if err != nil {
		return err
	}

	urls, err := s.GetURLs(ctx)
	if err != nil {
		return err
	}

	if opts.DownloadAll {
		return s.saveBulk(ctx, opts, urls)
	}

	var downloads []client.Download
	for cik, links := range urls {
		dir := s.dirFor(opts, cik)
		for _, link := range links {
			file := expandTokens(opts.FilePattern, map[string]string{
				"{accession_number}": AccessionNumber(link),
			})
			downloads = append(downloads, client.Download{
				URL:  link,
				Path: filepath.Join(opts.Directory, dir, file),
			})
		}
	}
	return s.c.DownloadAll(ctx, downloads)
}
