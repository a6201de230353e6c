package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML builds PageContent from a raw HTML document. There is no live
// DOM behind raw HTML, so VideoSrc stays empty.
func ParseHTML(html string) (*PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	content := &PageContent{HTML: html}
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		content.Scripts = append(content.Scripts, s.Text())
	})
	return content, nil
}

// documentTitle returns the trimmed text of the first <title> element
func documentTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// TitlePolicy turns a page title into the label returned with a link
type TitlePolicy struct {
	// BrandToken marks site-branded titles as non-informative
	BrandToken string
	Fallback   string
}

// Resolve picks the label for the document in html. A missing title, or one
// containing the brand token in any case, yields the fallback.
func (p TitlePolicy) Resolve(html string) string {
	title := documentTitle(html)
	if title == "" {
		return p.Fallback
	}
	if p.BrandToken != "" && strings.Contains(strings.ToLower(title), strings.ToLower(p.BrandToken)) {
		return p.Fallback
	}
	return title
}
