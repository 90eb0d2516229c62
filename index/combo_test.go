package index

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secindex/client"
)

func testClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()
	options := []client.Option{
		client.WithUserAgent("secindex tests test@example.com"),
		client.WithPause(0),
	}
	if baseURL != "" {
		options = append(options, client.WithBaseURL(baseURL))
	}
	c, err := client.New(options...)
	require.NoError(t, err)
	return c
}

// coverage counts how many plan mechanisms claim a given date: a day
// entry, or a quarter whose predicate accepts an entry filed that day.
func coverage(cf *ComboFilings, day time.Time) int {
	count := 0
	for _, period := range cf.Quarters() {
		qs := date(period.Year, quarterStartMonth(period.Quarter), 1)
		qe := nextQuarterStart(qs)
		if day.Before(qs) || !day.Before(qe) {
			continue
		}
		if period.Predicate == nil || period.Predicate(FilingEntry{DateFiled: day}) {
			count++
		}
	}
	for _, d := range cf.Days() {
		if d.Equal(day) {
			count++
		}
	}
	return count
}

func TestComboFilingsPlan(t *testing.T) {
	c := testClient(t, "")

	t.Run("short range stays daily", func(t *testing.T) {
		cf, err := NewComboFilings(c, date(2020, time.January, 6), date(2020, time.January, 10))
		require.NoError(t, err)

		assert.Empty(t, cf.Quarters())
		require.Len(t, cf.Days(), 5)
		assert.Equal(t, date(2020, time.January, 6), cf.Days()[0])
		assert.Equal(t, date(2020, time.January, 10), cf.Days()[4])
	})

	t.Run("exact quarter is one unfiltered lookup", func(t *testing.T) {
		cf, err := NewComboFilings(c, date(2020, time.January, 1), date(2020, time.March, 31))
		require.NoError(t, err)

		assert.Empty(t, cf.Days())
		require.Len(t, cf.Quarters(), 1)
		period := cf.Quarters()[0]
		assert.Equal(t, 2020, period.Year)
		assert.Equal(t, 1, period.Quarter)
		assert.Nil(t, period.Predicate)
	})

	t.Run("boundary quarters carry predicates", func(t *testing.T) {
		cf, err := NewComboFilings(c, date(2020, time.February, 1), date(2020, time.June, 30))
		require.NoError(t, err)

		assert.Empty(t, cf.Days())
		require.Len(t, cf.Quarters(), 2)

		first := cf.Quarters()[0]
		assert.Equal(t, 1, first.Quarter)
		require.NotNil(t, first.Predicate)
		assert.False(t, first.Predicate(FilingEntry{DateFiled: date(2020, time.January, 15)}))
		assert.True(t, first.Predicate(FilingEntry{DateFiled: date(2020, time.February, 1)}))
		assert.True(t, first.Predicate(FilingEntry{DateFiled: date(2020, time.March, 15)}))

		// Q2 ends exactly at the range end, so it needs no predicate.
		second := cf.Quarters()[1]
		assert.Equal(t, 2, second.Quarter)
		assert.Nil(t, second.Predicate)
	})

	t.Run("trailing partial quarter is filtered", func(t *testing.T) {
		cf, err := NewComboFilings(c, date(2020, time.January, 1), date(2020, time.May, 15))
		require.NoError(t, err)

		require.Len(t, cf.Quarters(), 2)
		last := cf.Quarters()[1]
		require.NotNil(t, last.Predicate)
		assert.True(t, last.Predicate(FilingEntry{DateFiled: date(2020, time.May, 15)}))
		assert.False(t, last.Predicate(FilingEntry{DateFiled: date(2020, time.May, 16)}))
		assert.Empty(t, cf.Days())
	})

	t.Run("short leftovers on both sides become days", func(t *testing.T) {
		cf, err := NewComboFilings(c, date(2020, time.March, 20), date(2020, time.April, 5))
		require.NoError(t, err)

		assert.Empty(t, cf.Quarters())
		assert.Len(t, cf.Days(), 17)
	})

	t.Run("balancing point flips days to quarter", func(t *testing.T) {
		cf, err := NewComboFilings(c, date(2020, time.March, 20), date(2020, time.April, 5),
			WithBalancingPoint(10))
		require.NoError(t, err)

		require.Len(t, cf.Quarters(), 1)
		assert.NotNil(t, cf.Quarters()[0].Predicate)
		assert.Len(t, cf.Days(), 5)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewComboFilings(c, date(2020, time.May, 1), date(2020, time.April, 1))
		assert.Error(t, err)

		_, err = NewComboFilings(nil, date(2020, time.April, 1), date(2020, time.May, 1))
		assert.Error(t, err)

		_, err = NewComboFilings(c, date(2020, time.April, 1), date(2020, time.May, 1),
			WithBalancingPoint(0))
		assert.Error(t, err)
	})
}

func TestComboFilingsPlanTilesRange(t *testing.T) {
	c := testClient(t, "")

	ranges := []struct {
		start, end time.Time
		balancing  int
	}{
		{date(2020, time.January, 6), date(2020, time.January, 10), 30},
		{date(2020, time.January, 1), date(2020, time.March, 31), 30},
		{date(2020, time.February, 1), date(2020, time.June, 30), 30},
		{date(2019, time.November, 15), date(2020, time.July, 20), 30},
		{date(2020, time.March, 20), date(2020, time.April, 5), 10},
		{date(2020, time.January, 1), date(2020, time.May, 15), 30},
		{date(1997, time.December, 1), date(1998, time.April, 15), 30},
	}

	for _, r := range ranges {
		name := fmt.Sprintf("%s..%s bp=%d", r.start.Format("2006-01-02"), r.end.Format("2006-01-02"), r.balancing)
		t.Run(name, func(t *testing.T) {
			cf, err := NewComboFilings(c, r.start, r.end, WithBalancingPoint(r.balancing))
			require.NoError(t, err)

			for day := r.start; !day.After(r.end); day = day.AddDate(0, 0, 1) {
				assert.Equal(t, 1, coverage(cf, day), "date %s", day.Format("2006-01-02"))
			}
			// Dates just outside the range must not be claimed.
			assert.Zero(t, coverage(cf, r.start.AddDate(0, 0, -1)))
			assert.Zero(t, coverage(cf, r.end.AddDate(0, 0, 1)))
		})
	}
}

func TestComboFilingsBalancingMonotonicity(t *testing.T) {
	c := testClient(t, "")

	start, end := date(2020, time.March, 20), date(2020, time.May, 25)
	previous := -1
	for balancing := 1; balancing <= 70; balancing++ {
		cf, err := NewComboFilings(c, start, end, WithBalancingPoint(balancing))
		require.NoError(t, err)

		days := len(cf.Days())
		assert.GreaterOrEqual(t, days, previous, "balancing point %d", balancing)
		previous = days
	}
}

func TestComboFilingsGetURLs(t *testing.T) {
	idx := "CIK|Company Name|Form Type|Date Filed|File Name\n" +
		"-----------------------------------------------\n" +
		"123|ACME CORP|10-K|2020-01-06|edgar/data/123/0000123-20-000001.txt\n" +
		"456|GLOBEX INC|8-K|2020-01-06|edgar/data/456/0000456-20-000002.txt\n"

	mux := http.NewServeMux()
	mux.HandleFunc("/Archives/edgar/daily-index/2020/QTR1/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="master.20200106.idx">master.20200106.idx</a></body></html>`)
	})
	mux.HandleFunc("/Archives/edgar/daily-index/2020/QTR1/master.20200106.idx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, idx)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv.URL)
	ctx := context.Background()

	// 2020-01-07 is listed in no index file and must be skipped quietly.
	cf, err := NewComboFilings(c, date(2020, time.January, 6), date(2020, time.January, 7))
	require.NoError(t, err)

	urls, err := cf.GetURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"123": {srv.URL + "/Archives/edgar/data/123/0000123-20-000001.txt"},
		"456": {srv.URL + "/Archives/edgar/data/456/0000456-20-000002.txt"},
	}, urls)

	again, err := cf.GetURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, urls, again)

	// The caller's filter applies to every period.
	filtered, err := NewComboFilings(c, date(2020, time.January, 6), date(2020, time.January, 7),
		WithEntryFilter(FormTypeFilter("10-K")))
	require.NoError(t, err)

	urls, err = filtered.GetURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"123": {srv.URL + "/Archives/edgar/data/123/0000123-20-000001.txt"},
	}, urls)
}
