package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "teradl"
)

// Fetch strategies
const (
	StrategyStatic  = "static"
	StrategyBrowser = "browser"
)

// DefaultUserAgent is sent by both fetch strategies unless overridden
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ConfigDir returns the standard config directory for teradl.
// Windows: %APPDATA%\teradl\
// macOS/Linux: ~/.config/teradl/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/teradl/config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

type Config struct {
	// Language for API and CLI messages (e.g., "en", "zh")
	Language string `yaml:"language,omitempty"`

	// Hosts is the allow-list of share page hosts. Subdomains of an entry
	// are accepted too, so "terabox.com" covers "www.terabox.com".
	Hosts []string `yaml:"hosts,omitempty"`

	// Server configuration for `teradl serve`
	Server ServerConfig `yaml:"server,omitempty"`

	// Fetch controls how share pages are retrieved
	Fetch FetchConfig `yaml:"fetch,omitempty"`

	// Extract controls result presentation
	Extract ExtractConfig `yaml:"extract,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`
}

// ServerConfig holds HTTP server settings for `teradl serve`
type ServerConfig struct {
	// Port is the HTTP listen port (default: 3000)
	Port int `yaml:"port,omitempty"`

	// APIKey for authentication (optional, if set /api/get-info requires the X-API-Key header)
	APIKey string `yaml:"api_key,omitempty"`

	// CORSOrigins lists allowed browser origins; "*" allows any
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// FetchConfig selects the fetch strategy and its knobs
type FetchConfig struct {
	// Strategy is "static" (plain HTTP GET) or "browser" (headless Chromium)
	Strategy string `yaml:"strategy,omitempty"`

	UserAgent      string `yaml:"user_agent,omitempty"`
	AcceptLanguage string `yaml:"accept_language,omitempty"`

	// SendReferer sets Referer to the share page's own origin
	SendReferer bool `yaml:"send_referer"`

	// Timeout bounds a static GET
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// NavigationTimeout bounds browser navigation until the network settles
	NavigationTimeout time.Duration `yaml:"navigation_timeout,omitempty"`

	// ElementWait bounds the wait for a <video> element; expiry is not an error
	ElementWait time.Duration `yaml:"element_wait,omitempty"`

	// RescanWait bounds the wait for the DOM to settle before the final
	// browser rescan; zero skips it
	RescanWait time.Duration `yaml:"rescan_wait,omitempty"`

	// ImpersonateTLS makes the static strategy present a Chrome TLS fingerprint
	ImpersonateTLS bool `yaml:"impersonate_tls,omitempty"`

	// BrowserPath points at a Chromium binary; ROD_BROWSER takes precedence
	BrowserPath string `yaml:"browser_path,omitempty"`

	// Visible shows the browser window (debugging)
	Visible bool `yaml:"visible,omitempty"`
}

// ExtractConfig holds title presentation settings
type ExtractConfig struct {
	// BrandToken marks a page title as non-informative (case-insensitive)
	BrandToken string `yaml:"brand_token,omitempty"`

	// TitleFallback replaces empty or non-informative titles
	TitleFallback string `yaml:"title_fallback,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty"`
	JSON  bool   `yaml:"json,omitempty"`
}

// DefaultHosts is the TeraBox share host family
var DefaultHosts = []string{
	"terabox.com",
	"1024terabox.com",
	"teraboxapp.com",
	"terabox.app",
	"freeterabox.com",
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Language: "en",
		Hosts:    append([]string(nil), DefaultHosts...),
		Server: ServerConfig{
			Port:        3000,
			CORSOrigins: []string{"*"},
		},
		Fetch: FetchConfig{
			Strategy:          StrategyStatic,
			UserAgent:         DefaultUserAgent,
			AcceptLanguage:    "en-US,en;q=0.9",
			SendReferer:       true,
			Timeout:           30 * time.Second,
			NavigationTimeout: 60 * time.Second,
			ElementWait:       7 * time.Second,
			RescanWait:        3 * time.Second,
		},
		Extract: ExtractConfig{
			BrandToken:    "terabox",
			TitleFallback: "Video",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Exists checks if config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config from ~/.config/teradl/config.yml
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads a config file, filling anything it leaves out with defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := DefaultConfig()
	// Hosts replace the defaults rather than merge with them
	cfg.Hosts = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(cfg.Hosts) == 0 {
		cfg.Hosts = append([]string(nil), DefaultHosts...)
	}

	cfg.Fetch.BrowserPath = expandPath(cfg.Fetch.BrowserPath)
	cfg.Hosts = NormalizeHosts(cfg.Hosts)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail at request time
func (c *Config) Validate() error {
	switch c.Fetch.Strategy {
	case StrategyStatic, StrategyBrowser:
	default:
		return fmt.Errorf("unknown fetch strategy %q (want %q or %q)", c.Fetch.Strategy, StrategyStatic, StrategyBrowser)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.NavigationTimeout <= 0 {
		return fmt.Errorf("fetch.navigation_timeout must be positive")
	}
	if c.Fetch.ElementWait < 0 {
		return fmt.Errorf("fetch.element_wait must not be negative")
	}
	if c.Fetch.RescanWait < 0 {
		return fmt.Errorf("fetch.rescan_wait must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return ValidateHosts(c.Hosts)
}

// expandPath expands the tilde (~) in the path to the user's home directory.
// It handles both forward and backward slashes to ensure cross-platform compatibility
// for configuration files.
func expandPath(path string) string {
	if path == "" {
		return ""
	}

	if strings.HasPrefix(path, "~") {
		// Only expand if it's explicitly "~", "~/", or "~\"
		if len(path) == 1 || path[1] == '/' || path[1] == '\\' {
			home, err := os.UserHomeDir()
			if err == nil {
				subPath := path[1:]
				if len(subPath) > 0 && (subPath[0] == '/' || subPath[0] == '\\') {
					subPath = subPath[1:]
				}
				return filepath.Join(home, subPath)
			}
		}
	}

	return path
}

// Save writes the config to ~/.config/teradl/config.yml
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# teradl configuration file\n# Run 'teradl init' to regenerate with defaults\n\n"
	content := header + string(data)

	return os.WriteFile(configPath, []byte(content), 0644)
}

// SavePath returns the path where config will be saved
func SavePath() string {
	if path, err := ConfigPath(); err == nil {
		return path
	}
	return ConfigFileName
}

// Init creates a new config.yml with default values
func Init() error {
	if Exists() {
		path, _ := ConfigPath()
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig())
}

// LoadOrDefault loads config if it exists, otherwise returns defaults.
// A file that exists but cannot be used is reported and ignored.
func LoadOrDefault() *Config {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig()
	}
	return loadOrDefault(path)
}

func loadOrDefault(path string) *Config {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig()
	}
	cfg, err := LoadFile(path)
	if err != nil {
		logrus.WithError(err).Warnf("Ignoring %s, using default settings", path)
		return DefaultConfig()
	}
	return cfg
}
