package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/sirupsen/logrus"
)

// BrowserOptions configures BrowserFetcher
type BrowserOptions struct {
	UserAgent      string
	AcceptLanguage string
	SendReferer    bool

	// NavigationTimeout bounds navigation until the network settles
	NavigationTimeout time.Duration

	// ElementWait bounds the wait for a <video> element. Zero skips the wait.
	ElementWait time.Duration

	// RescanWait bounds how long the last-resort rescan waits for the DOM
	// to stop changing before re-reading it. Zero skips the wait.
	RescanWait time.Duration

	// BrowserPath overrides the Chromium binary; ROD_BROWSER wins over it
	BrowserPath string

	// Visible shows the browser window (for debugging)
	Visible bool
}

// BrowserFetcher renders share pages in a headless Chromium so that
// script-built markup and the player's <video> element are visible.
// Every Fetch launches its own browser process.
type BrowserFetcher struct {
	opts BrowserOptions
}

// NewBrowserFetcher creates a browser fetcher
func NewBrowserFetcher(opts BrowserOptions) *BrowserFetcher {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}
	return &BrowserFetcher{opts: opts}
}

func (f *BrowserFetcher) Name() string {
	return "browser"
}

// snapshotJS collects script texts and the first <video> src in one round trip
const snapshotJS = `() => {
	const scripts = Array.from(document.querySelectorAll('script')).map(s => s.textContent || '');
	let videoSrc = '';
	for (const v of document.querySelectorAll('video')) {
		const src = v.getAttribute('src');
		if (src) { videoSrc = src; break; }
	}
	return { scripts, videoSrc };
}`

func (f *BrowserFetcher) Fetch(ctx context.Context, u *url.URL) (Document, error) {
	rawURL := u.String()

	session, err := f.launch()
	if err != nil {
		return nil, fetchError(rawURL, err)
	}
	doc := &browserDocument{session: session, settle: f.opts.RescanWait}

	if err := f.navigate(ctx, session.page, u); err != nil {
		doc.Close()
		return nil, fetchError(rawURL, err)
	}

	f.waitForVideo(ctx, session.page)

	content, err := snapshot(ctx, session.page)
	if err != nil {
		doc.Close()
		return nil, fetchError(rawURL, err)
	}
	doc.content = content
	return doc, nil
}

// browserSession is one isolated browser process and its page
type browserSession struct {
	launcher *launcher.Launcher
	launched bool
	browser  *rod.Browser
	page     *rod.Page
}

func (f *BrowserFetcher) launch() (*browserSession, error) {
	l := f.createLauncher(!f.opts.Visible)
	s := &browserSession{launcher: l}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	s.launched = true

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.browser = nil
		s.release()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		s.release()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.page = page

	if f.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      f.opts.UserAgent,
			AcceptLanguage: f.opts.AcceptLanguage,
		}); err != nil {
			s.release()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	return s, nil
}

// release tears the session down in reverse order of acquisition. A
// browser that did not close cleanly is killed so Cleanup cannot block on it.
func (s *browserSession) release() error {
	var errs []error
	if s.page != nil {
		errs = append(errs, s.page.Close())
	}
	browserClosed := false
	if s.browser != nil {
		err := s.browser.Close()
		errs = append(errs, err)
		browserClosed = err == nil
	}
	if s.launched {
		if !browserClosed {
			s.launcher.Kill()
		}
		// Waits for the process to exit, then removes the profile dir
		s.launcher.Cleanup()
	}
	err := errors.Join(errs...)
	if err != nil {
		logrus.WithError(err).Debug("browser teardown reported errors")
	}
	return err
}

// navigate loads u and waits for the network to go (almost) idle
func (f *BrowserFetcher) navigate(ctx context.Context, page *rod.Page, u *url.URL) error {
	if f.opts.SendReferer {
		referer := requestHeaders(u, f.opts.UserAgent, f.opts.AcceptLanguage, true)["Referer"]
		if _, err := page.SetExtraHeaders([]string{"Referer", referer}); err != nil {
			return fmt.Errorf("failed to set headers: %w", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, f.opts.NavigationTimeout)
	defer cancel()

	p := page.Context(navCtx)
	wait := p.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := p.Navigate(u.String()); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	wait()

	if err := navCtx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("page did not settle within %s: %w", f.opts.NavigationTimeout, err)
		}
		return err
	}
	return nil
}

// waitForVideo gives the player a moment to mount its <video> element.
// Not finding one is expected on some pages and is not an error.
func (f *BrowserFetcher) waitForVideo(ctx context.Context, page *rod.Page) {
	if f.opts.ElementWait <= 0 {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, f.opts.ElementWait)
	defer cancel()

	if _, err := page.Context(waitCtx).Element("video"); err != nil {
		logrus.WithError(err).Debug("no video element before wait expired")
	}
}

func snapshot(ctx context.Context, page *rod.Page) (*PageContent, error) {
	p := page.Context(ctx)

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered html: %w", err)
	}

	res, err := p.Eval(snapshotJS)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts: %w", err)
	}

	content := &PageContent{
		HTML:     html,
		VideoSrc: res.Value.Get("videoSrc").String(),
	}
	for _, s := range res.Value.Get("scripts").Arr() {
		content.Scripts = append(content.Scripts, s.String())
	}
	return content, nil
}

func (f *BrowserFetcher) createLauncher(headless bool) *launcher.Launcher {
	// Check for ROD_BROWSER env var (set in Docker)
	browserPath := os.Getenv("ROD_BROWSER")
	if browserPath == "" {
		browserPath = f.opts.BrowserPath
	}

	// No UserDataDir: each launch gets a throwaway profile that Cleanup removes
	l := launcher.New().
		Headless(headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-software-rasterizer").
		Set("disable-extensions").
		Set("disable-background-networking").
		Set("disable-sync").
		Set("disable-translate").
		Set("no-first-run").
		Set("mute-audio").
		Set("window-size", "1920,1080")

	if f.opts.UserAgent != "" {
		l = l.Set("user-agent", f.opts.UserAgent)
	}

	// Explicitly set browser path if provided (required for Docker)
	if browserPath != "" {
		l = l.Bin(browserPath)
	}

	return l
}

// domStableWindow is how long the DOM must go unchanged to count as settled
const domStableWindow = 500 * time.Millisecond

// browserDocument keeps the session alive for Rescan until Close
type browserDocument struct {
	session *browserSession
	content *PageContent
	settle  time.Duration

	once     sync.Once
	closeErr error
}

func (d *browserDocument) Content() *PageContent { return d.content }

// Rescan lets late script output land, then re-reads the live document.
// Running out of settle time is not an error.
func (d *browserDocument) Rescan(ctx context.Context) (string, bool) {
	page := d.session.page
	if d.settle > 0 {
		settleCtx, cancel := context.WithTimeout(ctx, d.settle)
		if err := page.Context(settleCtx).WaitDOMStable(domStableWindow, 0); err != nil {
			logrus.WithError(err).Debug("document still changing at rescan")
		}
		cancel()
	}

	html, err := page.Context(ctx).HTML()
	if err != nil {
		logrus.WithError(err).Debug("rescan of rendered document failed")
		return "", false
	}
	return html, true
}

func (d *browserDocument) Close() error {
	d.once.Do(func() {
		d.closeErr = d.session.release()
	})
	return d.closeErr
}
