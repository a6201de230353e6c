package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/guiyumin/teradl/internal/core/extractor"
	"github.com/guiyumin/teradl/internal/core/i18n"
	"github.com/guiyumin/teradl/internal/core/logging"
	"github.com/guiyumin/teradl/internal/core/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	useBrowser bool
	visible    bool
	inputFile  string
	outputDir  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:     "teradl [url]",
	Short:   "Resolve TeraBox share links to direct video links",
	Version: version.Version,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Batch mode: read URLs from file
		if inputFile != "" {
			if err := runBatch(inputFile); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if len(args) == 0 {
			cmd.Help()
			return
		}
		if err := runExtract(args[0]); err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.Flags().BoolVar(&useBrowser, "browser", false, "render the page in a headless browser")
	rootCmd.Flags().BoolVar(&visible, "visible", false, "show browser window (for debugging)")
	rootCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read URLs from file (one per line)")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "download the video into this directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log extraction details to stderr")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the config file and applies command-line overrides
func loadConfig() *config.Config {
	cfg := config.LoadOrDefault()
	if useBrowser || visible {
		cfg.Fetch.Strategy = config.StrategyBrowser
	}
	if visible {
		cfg.Fetch.Visible = true
	}

	logging.Setup(cfg.Log, os.Stderr)
	if !verbose {
		// Service logs would interleave with the result output
		logrus.SetLevel(logrus.WarnLevel)
	}
	return cfg
}

// signalContext is cancelled on Ctrl-C so a running browser is torn down
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runExtract(rawURL string) error {
	cfg := loadConfig()
	t := i18n.T(cfg.Language)

	svc, err := extractor.NewFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	var result *extractor.Result
	if jsonOutput || !isTerminal() {
		result, err = svc.Extract(ctx, rawURL)
	} else {
		result, err = runExtractWithSpinner(ctx, svc, rawURL, cfg.Language)
	}

	if err == nil && !jsonOutput {
		printResult(result, t)
	}

	var saved string
	if err == nil && outputDir != "" {
		saved, err = saveResult(ctx, cfg, rawURL, result, t)
	}

	if jsonOutput {
		printJSON(newJSONResult(rawURL, result, saved, err, t))
		return err
	}
	if err != nil {
		printFailure(rawURL, err, t)
	}
	return err
}

// readURLFile reads URLs one per line, skipping blanks and # comments
func readURLFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

func runBatch(path string) error {
	urls, err := readURLFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", path)
	}

	cfg := loadConfig()
	t := i18n.T(cfg.Language)

	svc, err := extractor.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	var (
		succeeded, failed int
		results           []jsonResult
	)
	for i, rawURL := range urls {
		if ctx.Err() != nil {
			break
		}
		if !jsonOutput {
			fmt.Printf("  [%d/%d] %s\n", i+1, len(urls), rawURL)
		}

		result, err := svc.Extract(ctx, rawURL)
		if err == nil && !jsonOutput {
			printResult(result, t)
		}

		var saved string
		if err == nil && outputDir != "" {
			saved, err = saveResult(ctx, cfg, rawURL, result, t)
		}

		if err != nil {
			failed++
		} else {
			succeeded++
		}

		if jsonOutput {
			results = append(results, newJSONResult(rawURL, result, saved, err, t))
		} else if err != nil {
			printFailure(rawURL, err, t)
		}
	}

	if jsonOutput {
		printJSON(results)
	} else {
		printSummary(succeeded, failed, t)
	}

	if failed > 0 || succeeded+failed < len(urls) {
		return fmt.Errorf("%d of %d URLs failed", len(urls)-succeeded, len(urls))
	}
	return nil
}
