package index

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dailyIdx = "CIK|Company Name|Form Type|Date Filed|File Name\n" +
	"-----------------------------------------------\n" +
	"123|ACME CORP|10-K|2020-01-06|edgar/data/123/0000123-20-000001.txt\n" +
	"456|GLOBEX INC|8-K|2020-01-06|edgar/data/456/0000456-20-000002.txt\n" +
	"123|ACME CORP|4|2020-01-06|edgar/data/123/0000123-20-000003.txt\n"

func dailyTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Archives/edgar/daily-index/2020/QTR1/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>`+
			`<a href="master.20200106.idx">master.20200106.idx</a>`+
			`</body></html>`)
	})
	mux.HandleFunc("/Archives/edgar/daily-index/2020/QTR1/master.20200106.idx", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dailyIdx)
	})
	mux.HandleFunc("/Archives/edgar/data/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "contents of %s", r.URL.Path)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewDailyIndex(t *testing.T) {
	c := testClient(t, "")

	daily, err := NewDailyIndex(c, date(2020, time.January, 6), nil)
	require.NoError(t, err)
	assert.Equal(t, 2020, daily.Year())
	assert.Equal(t, 1, daily.Quarter())
	assert.Equal(t, "master.20200106.idx", daily.IdxFilename())

	_, err = NewDailyIndex(c, time.Time{}, nil)
	assert.Error(t, err)

	_, err = NewDailyIndex(nil, date(2020, time.January, 6), nil)
	assert.Error(t, err)
}

func TestDailyIndexGetURLs(t *testing.T) {
	srv := dailyTestServer(t)
	c := testClient(t, srv.URL)
	ctx := context.Background()

	daily, err := NewDailyIndex(c, date(2020, time.January, 6), nil)
	require.NoError(t, err)

	urls, err := daily.GetURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"123": {
			srv.URL + "/Archives/edgar/data/123/0000123-20-000001.txt",
			srv.URL + "/Archives/edgar/data/123/0000123-20-000003.txt",
		},
		"456": {srv.URL + "/Archives/edgar/data/456/0000456-20-000002.txt"},
	}, urls)

	again, err := daily.GetURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, urls, again)
}

func TestDailyIndexNoFilings(t *testing.T) {
	srv := dailyTestServer(t)
	c := testClient(t, srv.URL)
	ctx := context.Background()

	daily, err := NewDailyIndex(c, date(2020, time.January, 7), nil)
	require.NoError(t, err)

	_, found, err := daily.Filings(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = daily.GetURLs(ctx)
	assert.ErrorIs(t, err, ErrNoFilings)

	err = daily.Save(ctx, SaveOptions{Directory: t.TempDir()})
	assert.ErrorIs(t, err, ErrNoFilings)
}

func TestDailyIndexSave(t *testing.T) {
	srv := dailyTestServer(t)
	c := testClient(t, srv.URL)
	ctx := context.Background()

	daily, err := NewDailyIndex(c, date(2020, time.January, 6), nil)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, daily.Save(ctx, SaveOptions{Directory: dir}))

	// Default daily layout is {date}/{cik}/{accession_number}.
	saved := filepath.Join(dir, "20200106", "123", "0000123-20-000001")
	contents, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "contents of /Archives/edgar/data/123/0000123-20-000001.txt", string(contents))

	assert.FileExists(t, filepath.Join(dir, "20200106", "123", "0000123-20-000003"))
	assert.FileExists(t, filepath.Join(dir, "20200106", "456", "0000456-20-000002"))
}

func TestDailyIndexSaveCustomPatterns(t *testing.T) {
	srv := dailyTestServer(t)
	c := testClient(t, srv.URL)
	ctx := context.Background()

	daily, err := NewDailyIndex(c, date(2020, time.January, 6), FormTypeFilter("10-K"))
	require.NoError(t, err)

	dir := t.TempDir()
	err = daily.Save(ctx, SaveOptions{
		Directory:   dir,
		DirPattern:  "{cik}",
		FilePattern: "{accession_number}.txt",
		DateFormat:  "2006-01-02",
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "123", "0000123-20-000001.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "456", "0000456-20-000002.txt"))
}

func TestSaveRejectsUnknownTokens(t *testing.T) {
	srv := dailyTestServer(t)
	c := testClient(t, srv.URL)
	ctx := context.Background()

	daily, err := NewDailyIndex(c, date(2020, time.January, 6), nil)
	require.NoError(t, err)

	err = daily.Save(ctx, SaveOptions{Directory: t.TempDir(), DirPattern: "{company}"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{company}")

	err = daily.Save(ctx, SaveOptions{Directory: t.TempDir(), FilePattern: "{date}"})
	assert.Error(t, err)

	err = daily.Save(ctx, SaveOptions{})
	assert.Error(t, err)
}
