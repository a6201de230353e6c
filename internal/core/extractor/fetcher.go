package extractor

import (
	"context"
	"net/url"
)

// Fetcher retrieves a share page. Implementations report failures as
// *Error with ReasonFetchError.
type Fetcher interface {
	// Name returns the strategy name ("static", "browser")
	Name() string

	// Fetch retrieves the page at u. On success the caller owns the
	// returned Document and must Close it.
	Fetch(ctx context.Context, u *url.URL) (Document, error)
}

// Document is a fetched page, possibly backed by a live rendering session
type Document interface {
	Content() *PageContent

	// Rescan re-reads the fully settled document. ok is false when the
	// document has no live session to re-read.
	Rescan(ctx context.Context) (html string, ok bool)

	// Close releases the session behind the document. It is safe to call
	// more than once; only the first call does anything.
	Close() error
}

// staticDocument wraps content that has no session behind it
type staticDocument struct {
	content *PageContent
}

func (d *staticDocument) Content() *PageContent { return d.content }

func (d *staticDocument) Rescan(context.Context) (string, bool) { return "", false }

func (d *staticDocument) Close() error { return nil }

// requestHeaders returns the browser-like headers sent to the share host
func requestHeaders(u *url.URL, userAgent, acceptLanguage string, sendReferer bool) map[string]string {
	headers := map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": acceptLanguage,
	}
	if sendReferer {
		headers["Referer"] = u.Scheme + "://" + u.Host + "/"
	}
	return headers
}
