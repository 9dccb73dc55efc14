package presentation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/dataset"
	"github.com/gsuchecki40/formula-one-scorer/internal/datasource"
)

// LogoDownloader fetches team logo assets listed in a CSV of
// TeamName,URL pairs.
type LogoDownloader struct {
	assetsDir string
	client    *datasource.RateLimitedHTTPClient
	logger    *logrus.Logger
	DryRun    bool
}

// NewLogoDownloader creates a logo downloader. Requests are rate limited so
// asset hosts are fetched politely.
func NewLogoDownloader(assetsDir string, requestsPerSecond float64, logger *logrus.Logger) *LogoDownloader {
	cfg := datasource.DefaultHTTPClientConfig()
	if requestsPerSecond > 0 {
		cfg.RateLimit = requestsPerSecond
	}
	return &LogoDownloader{
		assetsDir: assetsDir,
		client:    datasource.NewRateLimitedHTTPClient(cfg, logger),
		logger:    logger,
	}
}

// DownloadAll fetches every logo in the CSV, skipping files that already
// exist. It returns the number of logos written.
func (d *LogoDownloader) DownloadAll(ctx context.Context, csvPath string) (int, error) {
	t, err := dataset.ReadCSV(csvPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read logo list: %w", err)
	}
	for _, col := range []string{"TeamName", "URL"} {
		if !t.HasColumn(col) {
			return 0, fmt.Errorf("logo list missing column %s", col)
		}
	}

	if !d.DryRun {
		if err := os.MkdirAll(d.assetsDir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create assets dir: %w", err)
		}
	}

	downloaded := 0
	for i := 0; i < t.NumRows(); i++ {
		team := t.Value(i, "TeamName")
		url := t.Value(i, "URL")
		if team == "" || url == "" {
			d.logger.WithField("row", i).Warn("Skipping incomplete logo entry")
			continue
		}

		name := LogoFileName(team)
		if name == "" {
			d.logger.WithField("team", team).Warn("Team name yields no usable file name")
			continue
		}
		path := filepath.Join(d.assetsDir, name)

		if _, err := os.Stat(path); err == nil {
			d.logger.WithField("file", name).Debug("Logo already present")
			continue
		}

		if d.DryRun {
			d.logger.WithFields(logrus.Fields{
				"team": team,
				"url":  url,
				"file": name,
			}).Info("Dry run, would download logo")
			downloaded++
			continue
		}

		if err := d.fetch(ctx, url, path); err != nil {
			return downloaded, fmt.Errorf("failed to download logo for %s: %w", team, err)
		}
		downloaded++
	}

	d.logger.WithField("count", downloaded).Info("Logo download finished")
	return downloaded, nil
}

func (d *LogoDownloader) fetch(ctx context.Context, url, path string) error {
	resp, err := d.client.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d from %s", datasource.ErrUnexpectedStatus, resp.StatusCode, url)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Close releases the HTTP client
func (d *LogoDownloader) Close() error {
	return d.client.Close()
}
