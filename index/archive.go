package index

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"secindex/client"
)

// Bulk archives store a filing as <accession>.nc, with corrected
// revisions published as corr04 down to corr01. The first ending that
// exists wins.
var archiveEndings = []string{"nc", "corr04", "corr03", "corr02", "corr01"}

// saveBulk downloads the period's .nc.tar.gz archives into a temporary
// extraction directory, unpacks them, then moves each filing named by
// urls into its final location. The extraction directory is removed on
// both success and failure.
func (s *source) saveBulk(ctx context.Context, opts SaveOptions, urls map[string][]string) error {
	names, err := s.archives(ctx)
	if err != nil {
		return err
	}

	extractDir, err := makeExtractDir(opts.Directory)
	if err != nil {
		return err
	}
	defer os.RemoveAll(extractDir)

	downloads := make([]client.Download, 0, len(names))
	for _, name := range names {
		downloads = append(downloads, client.Download{
			URL:  s.c.URL(s.feedPath + name),
			Path: filepath.Join(extractDir, name),
		})
	}
	if err := s.c.DownloadAll(ctx, downloads); err != nil {
		return err
	}

	if err := unpackAll(extractDir, names, opts.ExtractWorkers); err != nil {
		return err
	}
	return s.moveToDest(opts, urls, extractDir)
}

// makeExtractDir creates a temporary extraction directory under parent,
// appending an incrementing suffix until an unused name is found.
func makeExtractDir(parent string) (string, error) {
	dir := filepath.Join(parent, "temp")
	for i := 0; ; i++ {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			break
		}
		dir = filepath.Join(parent, fmt.Sprintf("temp%d", i))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating extraction directory: %w", err)
	}
	return dir, nil
}

// unpackAll extracts every downloaded archive in place with a bounded
// worker pool, removing each archive once unpacked.
func unpackAll(extractDir string, names []string, workers int) error {
	var g errgroup.Group
	g.SetLimit(workers)
	for _, name := range names {
		name := name
		archivePath := filepath.Join(extractDir, name)
		g.Go(func() error {
			if err := extractTarGz(archivePath, extractDir); err != nil {
				return fmt.Errorf("unpacking %s: %w", name, err)
			}
			return os.Remove(archivePath)
		})
	}
	return g.Wait()
}

func extractTarGz(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.Clean(header.Name)
		if name == "." || strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			continue
		}
		target := filepath.Join(dest, name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

// resolveExtracted finds the extracted file for an accession number,
// trying each known ending in priority order.
func resolveExtracted(extracted map[string]bool, accession string) (string, bool) {
	for _, ending := range archiveEndings {
		name := accession + "." + ending
		if extracted[name] {
			return name, true
		}
	}
	return "", false
}

// moveToDest copies extracted filings into their final directory layout
// with a bounded worker pool. Accession numbers with no matching
// extracted file are skipped, not treated as errors.
func (s *source) moveToDest(opts SaveOptions, urls map[string][]string, extractDir string) error {
	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return fmt.Errorf("reading extraction directory: %w", err)
	}
	extracted := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			extracted[entry.Name()] = true
		}
	}

	var g errgroup.Group
	g.SetLimit(opts.MoveWorkers)
	for cik, links := range urls {
		dir := filepath.Join(opts.Directory, s.dirFor(opts, cik))
		for _, link := range links {
			accession := AccessionNumber(link)
			name, ok := resolveExtracted(extracted, accession)
			if !ok {
				continue
			}
			file := expandTokens(opts.FilePattern, map[string]string{
				"{accession_number}": accession,
			})
			src := filepath.Join(extractDir, name)
			dst := filepath.Join(dir, file)
			g.Go(func() error {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
				return copyFile(src, dst)
			})
		}
	}
	return g.Wait()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
