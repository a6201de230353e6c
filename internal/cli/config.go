package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage teradl configuration",
}

// teradl config show - show current config
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadOrDefault()

		fmt.Println("Current configuration:")
		fmt.Printf("  Language:  %s\n", cfg.Language)
		fmt.Printf("  Hosts:     %s\n", strings.Join(cfg.Hosts, ", "))
		fmt.Printf("  Strategy:  %s\n", cfg.Fetch.Strategy)
		fmt.Printf("  Timeout:   %s\n", cfg.Fetch.Timeout)
		fmt.Printf("  Port:      %d\n", cfg.Server.Port)
		if cfg.Server.APIKey != "" {
			fmt.Printf("  API key:   %s\n", strings.Repeat("*", len(cfg.Server.APIKey)))
		}
		fmt.Printf("  Config:    %s\n", config.SavePath())
	},
}

// teradl config path - show config file path
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.SavePath())
	},
}

// teradl config set KEY VALUE - set a config value
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in config.yml.

Supported keys:
  ` + strings.Join(configKeyNames(), "\n  ") + `

Examples:
  teradl config set fetch.strategy browser
  teradl config set fetch.timeout 45s
  teradl config set server.api_key YOUR_KEY`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]

		cfg := config.LoadOrDefault()
		if err := setConfigValue(cfg, key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Set %s = %s\n", key, value)
	},
}

// teradl config get KEY - get a config value
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value, err := getConfigValue(config.LoadOrDefault(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(value)
	},
}

type configKey struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}

func stringKey(field func(*config.Config) *string) configKey {
	return configKey{
		get: func(c *config.Config) string { return *field(c) },
		set: func(c *config.Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(field func(*config.Config) *bool) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean: %s", v)
			}
			*field(c) = b
			return nil
		},
	}
}

func durationKey(field func(*config.Config) *time.Duration) configKey {
	return configKey{
		get: func(c *config.Config) string { return field(c).String() },
		set: func(c *config.Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", v)
			}
			*field(c) = d
			return nil
		},
	}
}

var configKeys = map[string]configKey{
	"language":              stringKey(func(c *config.Config) *string { return &c.Language }),
	"fetch.strategy":        stringKey(func(c *config.Config) *string { return &c.Fetch.Strategy }),
	"fetch.user_agent":      stringKey(func(c *config.Config) *string { return &c.Fetch.UserAgent }),
	"fetch.browser_path":    stringKey(func(c *config.Config) *string { return &c.Fetch.BrowserPath }),
	"fetch.send_referer":    boolKey(func(c *config.Config) *bool { return &c.Fetch.SendReferer }),
	"fetch.impersonate_tls": boolKey(func(c *config.Config) *bool { return &c.Fetch.ImpersonateTLS }),
	"fetch.timeout":         durationKey(func(c *config.Config) *time.Duration { return &c.Fetch.Timeout }),
	"fetch.navigation_timeout": durationKey(func(c *config.Config) *time.Duration {
		return &c.Fetch.NavigationTimeout
	}),
	"fetch.element_wait":     durationKey(func(c *config.Config) *time.Duration { return &c.Fetch.ElementWait }),
	"fetch.rescan_wait":      durationKey(func(c *config.Config) *time.Duration { return &c.Fetch.RescanWait }),
	"server.api_key":         stringKey(func(c *config.Config) *string { return &c.Server.APIKey }),
	"extract.title_fallback": stringKey(func(c *config.Config) *string { return &c.Extract.TitleFallback }),
	"log.level":              stringKey(func(c *config.Config) *string { return &c.Log.Level }),
	"server.port": {
		get: func(c *config.Config) string { return strconv.Itoa(c.Server.Port) },
		set: func(c *config.Config, v string) error {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid port number: %s", v)
			}
			c.Server.Port = port
			return nil
		},
	},
}

func configKeyNames() []string {
	names := make([]string, 0, len(configKeys))
	for name := range configKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// setConfigValue sets a config value by key and rejects values that would
// leave the config invalid
func setConfigValue(cfg *config.Config, key, value string) error {
	k, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s\nRun 'teradl config set --help' to see supported keys", key)
	}
	if err := k.set(cfg, value); err != nil {
		return err
	}
	return cfg.Validate()
}

// getConfigValue gets a config value by key
func getConfigValue(cfg *config.Config, key string) (string, error) {
	k, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	return k.get(cfg), nil
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)

	rootCmd.AddCommand(configCmd)
}
