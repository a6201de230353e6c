package cli

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/guiyumin/teradl/internal/core/downloader"
	"github.com/guiyumin/teradl/internal/core/extractor"
	"github.com/guiyumin/teradl/internal/core/i18n"
	"github.com/samber/lo"
)

// videoExts are stripped from titles so "clip.mp4" does not become "clip.mp4.mp4"
var videoExts = []string{".mp4", ".m4v", ".mkv", ".mov", ".webm", ".flv", ".avi", ".ts"}

// outputPath names the file after the title, falling back to "video"
func outputPath(dir, title string) string {
	name := downloader.SanitizeFilename(title)
	if ext := filepath.Ext(name); lo.Contains(videoExts, strings.ToLower(ext)) {
		name = downloader.SanitizeFilename(strings.TrimSuffix(name, ext))
	}
	if name == "" {
		name = "video"
	}
	return filepath.Join(dir, name+".mp4")
}

// newDownloader sends the same User-Agent as the page fetch and, when
// enabled, the share page's origin as Referer
func newDownloader(cfg *config.Config, rawURL string) *downloader.Downloader {
	opts := downloader.Options{UserAgent: cfg.Fetch.UserAgent}
	if cfg.Fetch.SendReferer {
		if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
			opts.Referer = u.Scheme + "://" + u.Host + "/"
		}
	}
	return downloader.New(opts)
}

// saveResult downloads the resolved link into outputDir
func saveResult(ctx context.Context, cfg *config.Config, rawURL string, result *extractor.Result, t *i18n.Translations) (string, error) {
	d := newDownloader(cfg, rawURL)
	output := outputPath(outputDir, result.Title)

	if !jsonOutput && isTerminal() {
		return d.RunDownloadTUI(ctx, result.DirectLink, output, result.Title, cfg.Language)
	}

	path, err := d.Download(ctx, result.DirectLink, output, nil)
	if err != nil {
		return "", err
	}
	if !jsonOutput {
		fmt.Printf("    %s: %s\n\n", labelColor.Sprint(t.Download.FileSaved), path)
	}
	return path, nil
}
