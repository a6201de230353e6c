// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/guiyumin/teradl/internal/core/config"
	"github.com/sirupsen/logrus"
)

// Setup applies level and format from cfg and sends output to w
// (stderr when w is nil). Unknown levels fall back to info.
func Setup(cfg config.LogConfig, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logrus.SetOutput(w)

	if cfg.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}
