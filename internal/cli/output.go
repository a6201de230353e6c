package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/guiyumin/teradl/internal/core/extractor"
	"github.com/guiyumin/teradl/internal/core/i18n"
)

var (
	doneColor  = color.New(color.FgGreen, color.Bold)
	errColor   = color.New(color.FgRed, color.Bold)
	labelColor = color.New(color.FgCyan)
	linkColor  = color.New(color.FgBlue, color.Underline)
)

// jsonResult mirrors the /api/get-info response, plus the input URL
type jsonResult struct {
	URL        string `json:"url"`
	Success    bool   `json:"success"`
	Title      string `json:"title,omitempty"`
	DirectLink string `json:"directLink,omitempty"`
	File       string `json:"file,omitempty"`
	Message    string `json:"message,omitempty"`
}

// newJSONResult encodes one outcome. A failed download still reports the
// resolved link alongside the error message.
func newJSONResult(rawURL string, result *extractor.Result, file string, err error, t *i18n.Translations) jsonResult {
	r := jsonResult{URL: rawURL, Success: err == nil, File: file}
	if result != nil {
		r.Title = result.Title
		r.DirectLink = result.DirectLink
	}
	if err != nil {
		r.Message = failureMessage(err, t)
	}
	return r
}

// failureMessage picks the localized message for the error's reason
func failureMessage(err error, t *i18n.Translations) string {
	var e *extractor.Error
	if !errors.As(err, &e) {
		// Not an extraction failure, so the download step failed
		return t.Download.Failed
	}
	switch e.Reason {
	case extractor.ReasonInvalidInput:
		return t.Errors.InvalidInput
	case extractor.ReasonNotFound:
		return t.Errors.NotFound
	default:
		return t.Errors.FetchFailed
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func printResult(result *extractor.Result, t *i18n.Translations) {
	fmt.Printf("  %s %s: %s\n", doneColor.Sprint("✓"), labelColor.Sprint(t.Extract.Title), result.Title)
	fmt.Printf("    %s: %s\n\n", labelColor.Sprint(t.Extract.Link), linkColor.Sprint(result.DirectLink))
}

func printFailure(rawURL string, err error, t *i18n.Translations) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", errColor.Sprint("✗"), failureMessage(err, t))
	if verbose {
		fmt.Fprintf(os.Stderr, "    %s: %v\n", rawURL, err)
	}
	fmt.Fprintln(os.Stderr)
}

func printSummary(succeeded, failed int, t *i18n.Translations) {
	c := doneColor
	if failed > 0 {
		c = errColor
	}
	c.Printf("  "+t.Extract.Summary+"\n", succeeded, failed)
}
