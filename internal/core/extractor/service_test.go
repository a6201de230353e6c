package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeDocument struct {
	content  *PageContent
	rescan   string
	rescanOK bool

	rescans atomic.Int32
	closes  atomic.Int32
}

func (d *fakeDocument) Content() *PageContent { return d.content }

func (d *fakeDocument) Rescan(context.Context) (string, bool) {
	d.rescans.Add(1)
	return d.rescan, d.rescanOK
}

func (d *fakeDocument) Close() error {
	d.closes.Add(1)
	return nil
}

type fakeFetcher struct {
	newDoc func() *fakeDocument
	err    error
	panic  any

	mu    sync.Mutex
	calls int
	docs  []*fakeDocument
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(ctx context.Context, u *url.URL) (Document, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.panic != nil {
		panic(f.panic)
	}
	if f.err != nil {
		return nil, f.err
	}
	doc := f.newDoc()
	f.mu.Lock()
	f.docs = append(f.docs, doc)
	f.mu.Unlock()
	return doc, nil
}

func docWith(content PageContent) func() *fakeDocument {
	return func() *fakeDocument {
		c := content
		return &fakeDocument{content: &c}
	}
}

func newTestService(f Fetcher) *Service {
	return NewService(
		NewValidator([]string{"terabox.com"}),
		f,
		TitlePolicy{BrandToken: "terabox", Fallback: "Video"},
	)
}

const shareURL = "https://www.terabox.com/s/1abcDEF"

func TestServiceRejectsInvalidInputWithoutFetching(t *testing.T) {
	inputs := []string{
		"",
		"not a url",
		"http://www.terabox.com/s/1abc",
		"https://example.com/s/1abc",
		"https://terabox.com.evil.net/s/1abc",
	}

	for _, input := range inputs {
		f := &fakeFetcher{newDoc: docWith(PageContent{})}
		_, err := newTestService(f).Extract(context.Background(), input)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Extract(%q) error = %v; want ErrInvalidInput", input, err)
		}
		if f.calls != 0 {
			t.Errorf("Extract(%q) fetched %d times; want 0", input, f.calls)
		}
	}
}

func TestServiceExtractSuccess(t *testing.T) {
	tests := []struct {
		name          string
		content       PageContent
		wantLink      string
		wantTitle     string
		wantHeuristic string
	}{
		{
			name: "dlink",
			content: PageContent{
				HTML:    "<title>Beach Day.mp4</title>",
				Scripts: []string{`{"dlink":"https:\/\/cdn.example.com\/a.mp4"}`},
			},
			wantLink:      "https://cdn.example.com/a.mp4",
			wantTitle:     "Beach Day.mp4",
			wantHeuristic: HeuristicDlink,
		},
		{
			name: "dom video",
			content: PageContent{
				HTML:     "<title>  TeraBox - Free Cloud Storage  </title>",
				VideoSrc: "https://cdn.example.com/b.mp4",
			},
			wantLink:      "https://cdn.example.com/b.mp4",
			wantTitle:     "Video",
			wantHeuristic: HeuristicDOMVideo,
		},
		{
			name: "html mp4",
			content: PageContent{
				HTML: `<body>https://cdn.example.com/c.mp4</body>`,
			},
			wantLink:      "https://cdn.example.com/c.mp4",
			wantTitle:     "Video",
			wantHeuristic: HeuristicHTMLMP4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{newDoc: docWith(tt.content)}
			res, err := newTestService(f).Extract(context.Background(), shareURL)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if res.DirectLink != tt.wantLink {
				t.Errorf("DirectLink = %q; want %q", res.DirectLink, tt.wantLink)
			}
			if res.Title != tt.wantTitle {
				t.Errorf("Title = %q; want %q", res.Title, tt.wantTitle)
			}
			if res.Heuristic != tt.wantHeuristic {
				t.Errorf("Heuristic = %q; want %q", res.Heuristic, tt.wantHeuristic)
			}

			doc := f.docs[0]
			if n := doc.closes.Load(); n != 1 {
				t.Errorf("Close called %d times; want 1", n)
			}
			if n := doc.rescans.Load(); n != 0 {
				t.Errorf("Rescan called %d times after a chain match; want 0", n)
			}
		})
	}
}

func TestServiceRescanFallback(t *testing.T) {
	f := &fakeFetcher{newDoc: func() *fakeDocument {
		return &fakeDocument{
			content:  &PageContent{HTML: "<title>clip</title><div id=player></div>"},
			rescan:   `<video src="https://late.example.com/v.mp4"></video>`,
			rescanOK: true,
		}
	}}

	res, err := newTestService(f).Extract(context.Background(), shareURL)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.DirectLink != "https://late.example.com/v.mp4" {
		t.Errorf("DirectLink = %q", res.DirectLink)
	}
	if res.Heuristic != HeuristicRescanMP4 {
		t.Errorf("Heuristic = %q; want %q", res.Heuristic, HeuristicRescanMP4)
	}
	if res.Title != "clip" {
		t.Errorf("Title = %q; want clip", res.Title)
	}
	if n := f.docs[0].rescans.Load(); n != 1 {
		t.Errorf("Rescan called %d times; want 1", n)
	}
}

func TestServiceNotFound(t *testing.T) {
	f := &fakeFetcher{newDoc: func() *fakeDocument {
		return &fakeDocument{
			content:  &PageContent{HTML: "<title>TeraBox</title>", Scripts: []string{"var dlink;"}},
			rescan:   "<html>still nothing</html>",
			rescanOK: true,
		}
	}}

	res, err := newTestService(f).Extract(context.Background(), shareURL)
	if res != nil {
		t.Errorf("Extract() result = %+v; want nil", res)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Extract() error = %v; want ErrNotFound", err)
	}
	if ReasonOf(err) != ReasonNotFound {
		t.Errorf("ReasonOf() = %v", ReasonOf(err))
	}
	if n := f.docs[0].closes.Load(); n != 1 {
		t.Errorf("Close called %d times; want 1", n)
	}
}

// sessionFetcher acquires a counted session, then waits for a page that
// never settles, the way a navigation timeout plays out.
type sessionFetcher struct {
	navTimeout time.Duration
	acquired   atomic.Int32
	released   atomic.Int32
}

func (f *sessionFetcher) Name() string { return "session" }

func (f *sessionFetcher) Fetch(ctx context.Context, u *url.URL) (Document, error) {
	f.acquired.Add(1)
	var once sync.Once
	release := func() { once.Do(func() { f.released.Add(1) }) }

	navCtx, cancel := context.WithTimeout(ctx, f.navTimeout)
	defer cancel()
	<-navCtx.Done()

	release()
	return nil, fetchError(u.String(), fmt.Errorf("page did not settle: %w", navCtx.Err()))
}

func TestServiceNavigationTimeout(t *testing.T) {
	f := &sessionFetcher{navTimeout: 20 * time.Millisecond}
	res, err := newTestService(f).Extract(context.Background(), shareURL)
	if res != nil {
		t.Errorf("Extract() result = %+v; want nil", res)
	}
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Extract() error = %v; want ErrFetch", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Extract() error = %v; want it to wrap the deadline", err)
	}
	if a, r := f.acquired.Load(), f.released.Load(); a != 1 || r != 1 {
		t.Errorf("acquired %d, released %d; want 1 and 1", a, r)
	}
}

func TestServiceNormalizesForeignErrors(t *testing.T) {
	f := &fakeFetcher{err: errors.New("connection reset by peer")}
	_, err := newTestService(f).Extract(context.Background(), shareURL)
	if !errors.Is(err, ErrFetch) {
		t.Errorf("Extract() error = %v; want ErrFetch", err)
	}
}

func TestServiceRecoversPanics(t *testing.T) {
	f := &fakeFetcher{panic: "renderer crashed"}
	res, err := newTestService(f).Extract(context.Background(), shareURL)
	if res != nil || !errors.Is(err, ErrFetch) {
		t.Fatalf("Extract() = %+v, %v; want nil, ErrFetch", res, err)
	}
}

func TestServiceClosesDocumentOnPanic(t *testing.T) {
	// A nil Content makes the chain panic after the session was handed over
	f := &fakeFetcher{newDoc: func() *fakeDocument { return &fakeDocument{} }}
	_, err := newTestService(f).Extract(context.Background(), shareURL)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("Extract() error = %v; want ErrFetch", err)
	}
	if n := f.docs[0].closes.Load(); n != 1 {
		t.Errorf("Close called %d times; want 1", n)
	}
}

func TestServiceConcurrentRequestsAreIndependent(t *testing.T) {
	f := &fakeFetcher{newDoc: docWith(PageContent{
		Scripts: []string{`{"dlink":"https:\/\/cdn.example.com\/a.mp4"}`},
	})}
	svc := newTestService(f)

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Extract(context.Background(), shareURL)
			if err != nil {
				errs <- err
				return
			}
			if res.DirectLink != "https://cdn.example.com/a.mp4" {
				errs <- fmt.Errorf("DirectLink = %q", res.DirectLink)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	if len(f.docs) != n {
		t.Fatalf("fetched %d documents; want %d", len(f.docs), n)
	}
	for i, doc := range f.docs {
		if c := doc.closes.Load(); c != 1 {
			t.Errorf("document %d closed %d times; want 1", i, c)
		}
	}
}
