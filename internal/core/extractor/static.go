package extractor

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxPageSize caps how much of a share page is read
const maxPageSize = 10 * 1024 * 1024

// StaticOptions configures StaticFetcher
type StaticOptions struct {
	UserAgent      string
	AcceptLanguage string
	SendReferer    bool
	Timeout        time.Duration

	// ImpersonateTLS sends requests with a Chrome TLS fingerprint
	ImpersonateTLS bool
}

// pageGetter performs a single GET and returns status and body
type pageGetter interface {
	Get(ctx context.Context, rawURL string, headers map[string]string) (int, []byte, error)
}

// StaticFetcher retrieves share pages with one plain HTTP GET. It is fast
// but sees only server-rendered markup.
type StaticFetcher struct {
	opts   StaticOptions
	getter pageGetter
}

// NewStaticFetcher creates a static fetcher
func NewStaticFetcher(opts StaticOptions) (*StaticFetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	var getter pageGetter = &httpGetter{client: newHTTPClient(opts.Timeout)}
	if opts.ImpersonateTLS {
		g, err := newTLSGetter(opts.Timeout)
		if err != nil {
			return nil, err
		}
		getter = g
	}
	return &StaticFetcher{opts: opts, getter: getter}, nil
}

func (f *StaticFetcher) Name() string {
	return "static"
}

func (f *StaticFetcher) Fetch(ctx context.Context, u *url.URL) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	headers := requestHeaders(u, f.opts.UserAgent, f.opts.AcceptLanguage, f.opts.SendReferer)
	status, body, err := f.getter.Get(ctx, u.String(), headers)
	if err != nil {
		return nil, fetchError(u.String(), err)
	}
	if status < 200 || status > 299 {
		return nil, fetchError(u.String(), fmt.Errorf("unexpected status %d", status))
	}

	content, err := ParseHTML(string(body))
	if err != nil {
		return nil, fetchError(u.String(), err)
	}
	return &staticDocument{content: content}, nil
}

// newHTTPClient creates a client with secure defaults. Redirects follow the
// standard library policy.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        10,
			IdleConnTimeout:     30 * time.Second,
			MaxIdleConnsPerHost: 5,
		},
	}
}

type httpGetter struct {
	client *http.Client
}

func (g *httpGetter) Get(ctx context.Context, rawURL string, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}
