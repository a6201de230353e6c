package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options are the request headers sent with the download. The CDN behind
// a direct link often checks that Referer points at the share site.
type Options struct {
	UserAgent string
	Referer   string
}

// ProgressFunc receives the bytes written so far and the expected total
// (-1 when the server sent no Content-Length)
type ProgressFunc func(current, total int64)

// ErrNotVideo is returned when the server answered with something other
// than a video, typically an HTML error page
var ErrNotVideo = errors.New("response is not a video file")

// Downloader saves direct links to disk
type Downloader struct {
	client *http.Client
	opts   Options
}

// New creates a new Downloader
func New(opts Options) *Downloader {
	return &Downloader{
		client: &http.Client{
			// No overall timeout: the context bounds the transfer
			Timeout: 0,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				TLSHandshakeTimeout:   15 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		opts: opts,
	}
}

// Download fetches link into output and returns the final path, which may
// differ from output when the content sniffs as another container format
// or when a file of that name already exists. Data goes to output+".part"
// first so a failed transfer leaves no partial file under the final name.
func (d *Downloader) Download(ctx context.Context, link, output string, progress ProgressFunc) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}
	if d.opts.Referer != "" {
		req.Header.Set("Referer", d.opts.Referer)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	partial := output + ".part"
	if err := writeBody(resp.Body, partial, resp.ContentLength, progress); err != nil {
		os.Remove(partial)
		return "", err
	}

	detected, err := DetectFileType(partial)
	if err != nil {
		os.Remove(partial)
		return "", err
	}
	if detected == "html" {
		os.Remove(partial)
		return "", ErrNotVideo
	}

	final := availablePath(withExtension(output, detected))
	if err := os.Rename(partial, final); err != nil {
		os.Remove(partial)
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}
	return final, nil
}

func writeBody(body io.Reader, path string, total int64, progress ProgressFunc) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if progress != nil {
		progress(0, total)
	}

	buf := make([]byte, 32*1024)
	var current int64
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("failed to write file: %w", writeErr)
			}
			current += int64(n)
			if progress != nil {
				progress(current, total)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
	}
	if total > 0 && current != total {
		return fmt.Errorf("download truncated: got %d of %d bytes", current, total)
	}
	return file.Close()
}

// availablePath returns path if nothing exists there yet, otherwise the
// first free "name (N).ext"
func availablePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// withExtension swaps the extension of path for ext when they differ
// (case-insensitive). An empty ext or extensionless path is left alone.
func withExtension(path, ext string) string {
	current := filepath.Ext(path)
	if ext == "" || current == "" || strings.EqualFold(strings.TrimPrefix(current, "."), ext) {
		return path
	}
	return path[:len(path)-len(current)] + "." + ext
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "??:??"
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	if m > 60 {
		h := m / 60
		m = m % 60
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
