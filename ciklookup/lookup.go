// Package ciklookup resolves ticker symbols and company titles to
// 10-digit CIK numbers using the SEC's published company ticker map.
package ciklookup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"secindex/client"
)

const tickersPath = "files/company_tickers.json"

// Key selects which field of the ticker map becomes the lookup key.
type Key string

const (
	// KeyTicker keys the map by ticker symbol (upper case).
	KeyTicker Key = "ticker"
	// KeyTitle keys the map by company title as published.
	KeyTitle Key = "title"
)

// Map fetches the SEC company ticker map and returns it keyed by
// ticker symbol or company title, with CIKs normalized to 10 digits.
func Map(ctx context.Context, c *client.Client, key Key) (map[string]string, error) {
	if key != KeyTicker && key != KeyTitle {
		return nil, fmt.Errorf("key must be %q or %q, got %q", KeyTicker, KeyTitle, key)
	}

	resp, err := c.GetResponse(ctx, tickersPath, nil)
	if err != nil {
		return nil, err
	}

	var records map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &records); err != nil {
		return nil, fmt.Errorf("decoding ticker map: %w", err)
	}

	result := make(map[string]string, len(records))
	for _, record := range records {
		cik := fmt.Sprintf("%010d", record.CIK)
		switch key {
		case KeyTicker:
			result[record.Ticker] = cik
		case KeyTitle:
			result[record.Title] = cik
		}
	}
	return result, nil
}

// Resolve maps each lookup term (ticker symbol or company title) to its
// CIK. Tickers are tried first, then exact company titles; terms that
// resolve neither way are logged and omitted from the result.
func Resolve(ctx context.Context, c *client.Client, lookups []string) (map[string]string, error) {
	if len(lookups) == 0 {
		return nil, fmt.Errorf("at least one lookup term is required")
	}
	for _, lookup := range lookups {
		if lookup == "" {
			return nil, fmt.Errorf("lookup terms must not be empty")
		}
	}

	ciks := make(map[string]string, len(lookups))
	remaining := make([]string, 0, len(lookups))

	// Tickers in the map are upper case, so look up with upper case.
	tickerMap, err := Map(ctx, c, KeyTicker)
	if err != nil {
		return nil, err
	}
	for _, lookup := range lookups {
		if cik, ok := tickerMap[strings.ToUpper(lookup)]; ok {
			ciks[lookup] = cik
		} else {
			remaining = append(remaining, lookup)
		}
	}

	// Title case varies by company, so look titles up verbatim.
	if len(remaining) > 0 {
		titleMap, err := Map(ctx, c, KeyTitle)
		if err != nil {
			return nil, err
		}
		for _, lookup := range remaining {
			if cik, ok := titleMap[lookup]; ok {
				ciks[lookup] = cik
			} else {
				logrus.WithField("lookup", lookup).Warn("no CIK found, skipping")
			}
		}
	}
	return ciks, nil
}

// ValidateCIK checks that a CIK is a 10-digit string.
func ValidateCIK(cik string) error {
	if len(cik) != 10 {
		return fmt.Errorf("CIK must be 10 digits, got %q", cik)
	}
	for _, r := range cik {
		if r < '0' || r > '9' {
			return fmt.Errorf("CIK must be numeric, got %q", cik)
		}
	}
	return nil
}

// NormalizeCIK pads a bare CIK out to the canonical 10-digit form.
func NormalizeCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))
}
