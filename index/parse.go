package index

import (
	"bufio"
	"regexp"
	"strings"
	"time"
)

// Data rows look like CIK|Company Name|Form Type|Date Filed|File Name.
// Header and separator lines fail the pattern and are skipped.
var idxLinePattern = regexp.MustCompile(`^([0-9]+)\|(.+)\|(.+)\|([0-9\-]+)\|(.+)$`)

// ParseIndexFile parses the text of a master index file into a
// FilingIndex, keeping entries that pass the filter. Malformed lines
// are dropped silently; empty input yields an empty index.
func ParseIndexFile(raw string, filter EntryFilter) FilingIndex {
	filings := make(FilingIndex)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		fields := idxLinePattern.FindStringSubmatch(line)
		if fields == nil {
			continue
		}

		dateFiled, err := time.Parse("2006-01-02", fields[4])
		if err != nil {
			continue
		}

		entry := FilingEntry{
			CIK:         fields[1],
			CompanyName: fields[2],
			FormType:    fields[3],
			DateFiled:   dateFiled,
			FileName:    fields[5],
			Path:        "Archives/" + fields[5],
		}
		if filter != nil && !filter(entry) {
			continue
		}
		filings[entry.CIK] = append(filings[entry.CIK], entry)
	}
	return filings
}
