package main

import (
	"io"

	log "github.com/sirupsen/logrus"

	"fpm.lopezb.com/internal/config"
)

// newLogger builds the run logger from the log_level and log_format settings.
// Library stages receive it as a log.FieldLogger and never touch logrus'
// standard logger.
func newLogger(cfg config.Config, w io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := log.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	}
	return logger, nil
}
