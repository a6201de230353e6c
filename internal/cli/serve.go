package cli

import (
	"fmt"
	"os"

	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/guiyumin/teradl/internal/core/extractor"
	"github.com/guiyumin/teradl/internal/core/logging"
	"github.com/guiyumin/teradl/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for link extraction",
	Long: `Start an HTTP server that resolves share links via API.

Examples:
  teradl serve              # Start server on port 3000
  teradl serve -p 9000      # Start server on port 9000
  teradl serve --browser    # Render pages in a headless browser

API Endpoints:
  GET  /api/health          # Health check
  POST /api/get-info        # {"teraboxUrl": "..."} -> {"success", "title", "directLink"}`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP listen port (default: 3000)")
	serveCmd.Flags().BoolVar(&useBrowser, "browser", false, "render pages in a headless browser")

	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg := config.LoadOrDefault()
	logging.Setup(cfg.Log, os.Stderr)

	// Resolve port (flag > config > default)
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if useBrowser {
		cfg.Fetch.Strategy = config.StrategyBrowser
	}

	svc, err := extractor.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	logrus.Infof("Fetch strategy: %s", svc.Strategy())

	ctx, stop := signalContext()
	defer stop()
	return server.NewServer(cfg, svc).Run(ctx)
}
