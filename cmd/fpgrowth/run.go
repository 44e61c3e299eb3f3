package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"fpm.lopezb.com/internal/fpm/assoc"
	"fpm.lopezb.com/internal/fpm/mining"
	"fpm.lopezb.com/internal/fpm/report"
	"fpm.lopezb.com/internal/fpm/sampling"
	"fpm.lopezb.com/internal/fpm/txdb"
)

// execute runs one mode and settles its metrics. The metrics file is written
// for failed runs too.
func (app *application) execute(mode string, run func(*application) error) error {
	app.logCtx = app.logCtx.WithField("mode", mode)
	app.logCtx.WithFields(log.Fields{
		"input":       app.config.Input,
		"min_support": app.config.Support(),
	}).Info("Run started.")

	err := run(app)
	if err != nil {
		app.metrics.Fail(mode)
		app.logCtx.WithError(err).Error("Run failed.")
	}

	if path := app.config.MetricsFile; path != "" {
		if mErr := app.metrics.WriteFile(path); mErr != nil {
			app.logCtx.WithError(mErr).Warn("Could not write metrics file.")
		}
	}
	return err
}

// options tunes a mining call; start is when its timing began.
func (app *application) options(start time.Time) mining.Options {
	return mining.Options{Logger: app.logCtx, Verify: app.config.Verify, Start: start}
}

// load reads the input. The clock of a run starts here, so reported
// computation times include reading.
func (app *application) load() (*txdb.DB, error) {
	app.started = time.Now()
	db, err := txdb.LoadDir(app.config.Input)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(app.started)
	app.metrics.StageSeconds.WithLabelValues("read").Set(elapsed.Seconds())
	app.logCtx.WithFields(log.Fields{
		"transactions": db.Len(),
		"items":        db.DistinctItems(),
		"elapsed":      elapsed,
	}).Info("Transactions loaded.")
	return db, nil
}

func (app *application) runExact() error {
	db, err := app.load()
	if err != nil {
		return err
	}
	o, err := mining.Exact(db, app.config.Support(), app.options(app.started))
	if err != nil {
		return err
	}
	return app.save(modeExact, o)
}

func (app *application) approximate(db *txdb.DB, start time.Time) (*mining.Outcome, error) {
	rng, seed := sampling.NewRand(app.config.Seed)
	app.logCtx.WithField("seed", seed).Debug("Sampler seeded.")
	return mining.Approximate(db, app.config.Support(), app.config.Params(), rng, app.options(start))
}

func (app *application) runApprox() error {
	db, err := app.load()
	if err != nil {
		return err
	}
	o, err := app.approximate(db, app.started)
	if err != nil {
		return err
	}
	return app.save(modeApprox, o)
}

func (app *application) runCompare() error {
	db, err := app.load()
	if err != nil {
		return err
	}

	exact, err := mining.Exact(db, app.config.Support(), app.options(app.started))
	if err != nil {
		return err
	}
	approx, err := app.approximate(db, time.Time{})
	if err != nil {
		return err
	}
	app.metrics.Observe(modeCompare, approx)

	errs, err := assoc.Compare(exact.Itemsets, exact.Transactions, approx.Itemsets, approx.Sample.SampleSize)
	if err != nil {
		return err
	}
	if errs.Skipped > 0 {
		app.logCtx.WithFields(log.Fields{
			"skipped":   errs.Skipped,
			"max_items": assoc.MaxRuleItems,
		}).Warn("Itemsets too long for rule enumeration were left out of the errors.")
	}
	path, err := report.SaveErrors(app.config.Output, errs)
	if err != nil {
		return err
	}

	app.logCtx.WithFields(log.Fields{
		"ar_freq_error": errs.Freq,
		"ar_conf_error": errs.Conf,
		"rules":         errs.Rules,
		"path":          path,
	}).Info("Rule errors saved.")

	if err := errs.Write(app.stdout); err != nil {
		return err
	}
	_, err = fmt.Fprintf(app.stdout, "Saved to %s\n", path)
	return err
}

// save stores the report of o and prints the run summary.
func (app *application) save(mode string, o *mining.Outcome) error {
	path, err := report.Save(app.config.Output, o, app.now())
	if err != nil {
		return err
	}
	app.metrics.Observe(mode, o)
	app.logCtx.WithField("path", path).Info("Report saved.")

	_, err = fmt.Fprintf(app.stdout,
		"Computation Time: %d ms\nTransactions: %d\nFreq items count: %d\nFreq itemsets count: %d\nSaved to %s\n",
		o.Timings.Total.Milliseconds(), o.Transactions, o.FrequentItems, o.Itemsets.Len(), path)
	return err
}
