package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Download pairs a URL with the local path its contents should be
// written to.
type Download struct {
	URL  string
	Path string
}

// DownloadAll fetches every download concurrently in windows sized to
// the client's rate limit. All requests in a window are issued at once;
// if a window finishes in under a second the remainder is slept off so
// throughput stays at roughly rateLimit requests per second. The first
// failed fetch aborts the whole batch.
func (c *Client) DownloadAll(ctx context.Context, downloads []Download) error {
	for start := 0; start < len(downloads); start += c.rateLimit {
		window := downloads[start:min(start+c.rateLimit, len(downloads))]
		began := time.Now()

		g, gctx := errgroup.WithContext(ctx)
		for _, d := range window {
			d := d
			g.Go(func() error {
				return c.fetchAndSave(gctx, d)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		c.log.WithFields(logrus.Fields{
			"done":  min(start+c.rateLimit, len(downloads)),
			"total": len(downloads),
		}).Debug("download window complete")

		if start+c.rateLimit < len(downloads) {
			if elapsed := time.Since(began); elapsed < time.Second {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second - elapsed):
				}
			}
		}
	}
	return nil
}

func (c *Client) fetchAndSave(ctx context.Context, d Download) error {
	contents, err := c.Fetch(ctx, d.URL)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", d.URL, err)
	}
	if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", d.Path, err)
	}
	if err := os.WriteFile(d.Path, contents, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", d.Path, err)
	}
	return nil
}
