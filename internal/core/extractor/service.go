package extractor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/sirupsen/logrus"
)

// Service turns a share URL into a direct link and title. It holds only
// configuration, so one instance can serve concurrent requests.
type Service struct {
	validator *Validator
	fetcher   Fetcher
	title     TitlePolicy
}

// NewService wires a validator, a fetch strategy and a title policy
func NewService(validator *Validator, fetcher Fetcher, title TitlePolicy) *Service {
	return &Service{validator: validator, fetcher: fetcher, title: title}
}

// NewFromConfig builds a Service using the fetch strategy named in cfg
func NewFromConfig(cfg *config.Config) (*Service, error) {
	fetcher, err := NewFetcher(cfg.Fetch)
	if err != nil {
		return nil, err
	}
	title := TitlePolicy{
		BrandToken: cfg.Extract.BrandToken,
		Fallback:   cfg.Extract.TitleFallback,
	}
	return NewService(NewValidator(cfg.Hosts), fetcher, title), nil
}

// NewFetcher creates the Fetcher for the configured strategy
func NewFetcher(fc config.FetchConfig) (Fetcher, error) {
	switch fc.Strategy {
	case config.StrategyStatic, "":
		return NewStaticFetcher(StaticOptions{
			UserAgent:      fc.UserAgent,
			AcceptLanguage: fc.AcceptLanguage,
			SendReferer:    fc.SendReferer,
			Timeout:        fc.Timeout,
			ImpersonateTLS: fc.ImpersonateTLS,
		})
	case config.StrategyBrowser:
		return NewBrowserFetcher(BrowserOptions{
			UserAgent:         fc.UserAgent,
			AcceptLanguage:    fc.AcceptLanguage,
			SendReferer:       fc.SendReferer,
			NavigationTimeout: fc.NavigationTimeout,
			ElementWait:       fc.ElementWait,
			RescanWait:        fc.RescanWait,
			BrowserPath:       fc.BrowserPath,
			Visible:           fc.Visible,
		}), nil
	}
	return nil, fmt.Errorf("unknown fetch strategy %q", fc.Strategy)
}

// Strategy returns the name of the fetch strategy in use
func (s *Service) Strategy() string {
	return s.fetcher.Name()
}

// Extract validates rawURL, fetches the page and runs the heuristic chain.
// Failures are *Error values carrying one of the three reasons; a panic in a
// fetcher is reported as a fetch error.
func (s *Service) Extract(ctx context.Context, rawURL string) (result *Result, err error) {
	u, err := s.validator.Validate(rawURL)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"url":      u.String(),
		"strategy": s.fetcher.Name(),
	})

	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).Errorf("extraction panicked: %v", r)
			result, err = nil, fetchError(u.String(), fmt.Errorf("internal fault: %v", r))
		}
	}()

	start := time.Now()
	doc, err := s.fetcher.Fetch(ctx, u)
	if err != nil {
		log.WithError(err).Warn("fetch failed")
		var e *Error
		if !errors.As(err, &e) {
			err = fetchError(u.String(), err)
		}
		return nil, err
	}
	defer doc.Close()

	content := doc.Content()
	link, heuristic := runChain(content)
	if link == "" {
		if html, ok := doc.Rescan(ctx); ok {
			if link = findMP4(html); link != "" {
				heuristic = HeuristicRescanMP4
			}
		}
	}
	if link == "" {
		log.WithField("elapsed", time.Since(start)).Info("no direct link found")
		return nil, &Error{Reason: ReasonNotFound, URL: u.String()}
	}

	result = &Result{
		DirectLink: link,
		Title:      s.title.Resolve(content.HTML),
		Heuristic:  heuristic,
	}
	log.WithFields(logrus.Fields{
		"heuristic": heuristic,
		"elapsed":   time.Since(start),
	}).Info("direct link found")
	return result, nil
}
