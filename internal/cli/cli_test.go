package cli

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/guiyumin/teradl/internal/core/extractor"
	"github.com/guiyumin/teradl/internal/core/i18n"
)

func TestReadURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# share links
https://www.terabox.com/s/1abc

   https://1024terabox.com/s/2def
  # indented comment
https://terabox.app/s/3ghi
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := readURLFile(path)
	if err != nil {
		t.Fatalf("readURLFile() error = %v", err)
	}
	want := []string{
		"https://www.terabox.com/s/1abc",
		"https://1024terabox.com/s/2def",
		"https://terabox.app/s/3ghi",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("readURLFile() = %v, want %v", got, want)
	}

	if _, err := readURLFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFailureMessage(t *testing.T) {
	tr := i18n.T("en")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid input", &extractor.Error{Reason: extractor.ReasonInvalidInput}, tr.Errors.InvalidInput},
		{"not found", &extractor.Error{Reason: extractor.ReasonNotFound}, tr.Errors.NotFound},
		{"fetch error", &extractor.Error{Reason: extractor.ReasonFetchError}, tr.Errors.FetchFailed},
		{"download error", errors.New("download failed with status 403"), tr.Download.Failed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := failureMessage(tt.err, tr); got != tt.want {
				t.Errorf("failureMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewJSONResult(t *testing.T) {
	tr := i18n.T("en")
	const shareURL = "https://www.terabox.com/s/1abc"

	resolved := &extractor.Result{DirectLink: "https://d.example/v.mp4", Title: "Clip"}

	ok := newJSONResult(shareURL, resolved, "", nil, tr)
	if !ok.Success || ok.DirectLink != "https://d.example/v.mp4" || ok.Title != "Clip" || ok.Message != "" || ok.File != "" {
		t.Errorf("unexpected success result: %+v", ok)
	}

	saved := newJSONResult(shareURL, resolved, "/tmp/Clip.mp4", nil, tr)
	if !saved.Success || saved.File != "/tmp/Clip.mp4" {
		t.Errorf("unexpected saved result: %+v", saved)
	}

	downloadFailed := newJSONResult(shareURL, resolved, "", errors.New("connection reset"), tr)
	if downloadFailed.Success || downloadFailed.DirectLink == "" || downloadFailed.Message != tr.Download.Failed {
		t.Errorf("failed download should keep the link: %+v", downloadFailed)
	}

	failed := newJSONResult(shareURL, nil, "", &extractor.Error{Reason: extractor.ReasonNotFound}, tr)
	if failed.Success || failed.DirectLink != "" || failed.Message != tr.Errors.NotFound {
		t.Errorf("unexpected failure result: %+v", failed)
	}
	if failed.URL != shareURL {
		t.Errorf("URL = %q, want %q", failed.URL, shareURL)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Holiday clip", filepath.Join("out", "Holiday clip.mp4")},
		{"a/b: c?", filepath.Join("out", "a-b- c.mp4")},
		{"???", filepath.Join("out", "video.mp4")},
		{"Beach Day.mp4", filepath.Join("out", "Beach Day.mp4")},
		{"Trip.MKV", filepath.Join("out", "Trip.mp4")},
		{"Clip .mov", filepath.Join("out", "Clip.mp4")},
		{"v1.2 final", filepath.Join("out", "v1.2 final.mp4")},
	}
	for _, tt := range tests {
		if got := outputPath("out", tt.title); got != tt.want {
			t.Errorf("outputPath(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSetConfigValue(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
		check   func(*config.Config) bool
	}{
		{"fetch.strategy", "browser", false, func(c *config.Config) bool { return c.Fetch.Strategy == config.StrategyBrowser }},
		{"fetch.strategy", "curl", true, nil},
		{"fetch.timeout", "45s", false, func(c *config.Config) bool { return c.Fetch.Timeout == 45*time.Second }},
		{"fetch.timeout", "soon", true, nil},
		{"fetch.timeout", "0s", true, nil},
		{"fetch.send_referer", "false", false, func(c *config.Config) bool { return !c.Fetch.SendReferer }},
		{"fetch.send_referer", "maybe", true, nil},
		{"server.port", "8080", false, func(c *config.Config) bool { return c.Server.Port == 8080 }},
		{"server.port", "99999", true, nil},
		{"server.api_key", "secret", false, func(c *config.Config) bool { return c.Server.APIKey == "secret" }},
		{"nope", "x", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := config.DefaultConfig()
			err := setConfigValue(cfg, tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("setConfigValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("config not updated for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestGetConfigValue(t *testing.T) {
	cfg := config.DefaultConfig()

	tests := map[string]string{
		"fetch.strategy":     config.StrategyStatic,
		"fetch.timeout":      "30s",
		"fetch.send_referer": "true",
		"server.port":        "3000",
		"language":           "en",
	}
	for key, want := range tests {
		got, err := getConfigValue(cfg, key)
		if err != nil {
			t.Errorf("getConfigValue(%q) error = %v", key, err)
			continue
		}
		if got != want {
			t.Errorf("getConfigValue(%q) = %q, want %q", key, got, want)
		}
	}

	if _, err := getConfigValue(cfg, "unknown"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestCompleteConfigKey(t *testing.T) {
	got, _ := completeConfigKey(nil, nil, "server.")
	want := []string{"server.api_key", "server.port"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("completeConfigKey() = %v, want %v", got, want)
	}

	if got, _ := completeConfigKey(nil, []string{"language"}, ""); got != nil {
		t.Errorf("expected no completion for the value argument, got %v", got)
	}
}
