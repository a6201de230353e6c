package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/guiyumin/teradl/internal/core/extractor"
	"github.com/guiyumin/teradl/internal/core/logging"
	"github.com/guiyumin/teradl/internal/core/version"
	"github.com/guiyumin/teradl/internal/server"
	"github.com/sirupsen/logrus"
)

func main() {
	// Command-line flags
	port := flag.Int("port", 0, "HTTP listen port (default: 3000)")
	configPath := flag.String("config", "", "path to config.yml (default: ~/.config/teradl/config.yml)")
	strategy := flag.String("strategy", "", "fetch strategy: static or browser")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("teradl-server %s\n", version.Version)
		return
	}

	// Load configuration; an explicit -config must exist and be valid
	cfg := config.LoadOrDefault()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	logging.Setup(cfg.Log, os.Stderr)

	// Resolve port (flag > config > default)
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if *strategy != "" {
		cfg.Fetch.Strategy = *strategy
	}

	svc, err := extractor.NewFromConfig(cfg)
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	logrus.Infof("Fetch strategy: %s", svc.Strategy())

	// Shut down gracefully on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.NewServer(cfg, svc).Run(ctx); err != nil {
		stop()
		logrus.Fatalf("Server error: %v", err)
	}
}
