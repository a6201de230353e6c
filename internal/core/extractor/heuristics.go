package extractor

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Heuristic names, reported in logs and on Result
const (
	HeuristicDOMVideo  = "dom-video"
	HeuristicDlink     = "script-dlink"
	HeuristicPlayURL   = "script-play-url"
	HeuristicHTMLMP4   = "html-mp4"
	HeuristicRescanMP4 = "rescan-mp4"
)

// heuristic looks for a direct link in page content and returns "" on no match
type heuristic struct {
	name string
	find func(*PageContent) string
}

// chain is tried in order and stops at the first match
var chain = []heuristic{
	{HeuristicDOMVideo, findDOMVideo},
	{HeuristicDlink, scriptValueFinder("dlink")},
	{HeuristicPlayURL, scriptValueFinder("play_url")},
	{HeuristicHTMLMP4, func(c *PageContent) string { return findMP4(c.HTML) }},
}

// mp4Pattern matches an http(s) URL with a .mp4 extension, bounded by
// quotes, whitespace or angle brackets
var mp4Pattern = regexp.MustCompile(`(?i)https?://[^"'\s<>]+\.mp4[^"'\s<>]*`)

// runChain returns the first link found and the heuristic that found it
func runChain(content *PageContent) (link, name string) {
	for _, h := range chain {
		if found := h.find(content); found != "" {
			return found, h.name
		}
	}
	return "", ""
}

func findDOMVideo(c *PageContent) string {
	src := strings.TrimSpace(c.VideoSrc)
	// MSE players expose blob: object URLs that cannot be fetched elsewhere
	if strings.HasPrefix(src, "blob:") || strings.HasPrefix(src, "data:") {
		return ""
	}
	return src
}

// scriptValueFinder builds a heuristic that scans scripts containing key
// and extracts the quoted value of "key":"value". The first script that
// yields a value wins.
func scriptValueFinder(key string) func(*PageContent) string {
	pattern := regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	return func(c *PageContent) string {
		for _, script := range c.Scripts {
			if !strings.Contains(script, key) {
				continue
			}
			m := pattern.FindStringSubmatch(script)
			if m == nil {
				continue
			}
			if link := unescape(m[1]); link != "" {
				return link
			}
		}
		return ""
	}
}

func findMP4(html string) string {
	return mp4Pattern.FindString(html)
}

// unescape decodes a value captured from inside a JSON string literal.
// Values that are not valid JSON escapes lose every backslash instead.
func unescape(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err == nil {
		return strings.TrimSpace(out)
	}
	return strings.TrimSpace(strings.ReplaceAll(s, `\`, ""))
}
