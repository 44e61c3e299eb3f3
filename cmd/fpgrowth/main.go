// main.go is the entry point for fpgrowth, the batch frequent itemset miner.
// It resolves the run configuration, sets up logging and metrics, and hands
// over to one of three modes.
//
// Modes
// =====
//
// mine runs exact FP-growth over the whole transaction directory.
//
// approx computes the d-bound of the data, mines a reservoir sample of the
// size the (epsilon, delta) contract requires, and lowers the support
// threshold by epsilon. Reported counts are counts within the sample.
//
// compare runs both and measures how far the approximate association rules
// drift from the exact ones (ArFreqEr, ArConfEr).
//
// Configuration
// =============
//
// Defaults are overlaid by an optional YAML file (--config) and then by the
// flags that were set explicitly on the command line. The input directory and
// the minimum support may also be given positionally:
//
//	fpgrowth mine data/retail 0.05
//	fpgrowth approx --config run.yaml --epsilon 0.05 --seed 42
//
// The whole configuration is validated before the input is touched.
//
// Output
// ======
//
// Reports go to the output directory as frequent_itemsets_<timestamp>.txt
// (ar_errors.txt for compare). They are rendered in memory and renamed into
// place, so a failed run leaves nothing behind. Every log entry of a run
// carries the same run_id. When metrics_file is set, run statistics are
// written there in the Prometheus text format for a node-exporter textfile
// collector.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"fpm.lopezb.com/internal/config"
)

type application struct {
	config  config.Config
	runID   string
	logger  *log.Logger
	logCtx  log.FieldLogger
	metrics *Metrics
	stdout  io.Writer
	now     func() time.Time
	// started is when the input began loading.
	started time.Time
}

func newApplication(cfg config.Config, stdout, stderr io.Writer) (*application, error) {
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	return &application{
		config:  cfg,
		runID:   runID,
		logger:  logger,
		logCtx:  logger.WithField("run_id", runID),
		metrics: NewMetrics(),
		stdout:  stdout,
		now:     time.Now,
	}, nil
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fpgrowth:", err)
		os.Exit(1)
	}
}
