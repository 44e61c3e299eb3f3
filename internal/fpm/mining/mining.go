// Package mining runs the frequent itemset pipeline end to end.
//
// Exact mode:
//
//	transactions -> frequency filter -> FP-tree -> growth -> itemsets
//
// Approximate mode computes the d-bound of the database first, mines a
// reservoir sample of the size it implies, and lowers the support threshold
// by epsilon. Counts in an approximate result are counts within the sample.
//
// Every run owns its state: nothing is shared between calls, so runs can be
// repeated or executed side by side.
package mining

import (
	"math/rand/v2"
	"time"

	log "github.com/sirupsen/logrus"

	"fpm.lopezb.com/internal/fpm"
	"fpm.lopezb.com/internal/fpm/fptree"
	"fpm.lopezb.com/internal/fpm/growth"
	"fpm.lopezb.com/internal/fpm/itemset"
	"fpm.lopezb.com/internal/fpm/sampling"
	"fpm.lopezb.com/internal/fpm/txdb"
)

// Miner is the contract shared by frequent itemset algorithms: a transaction
// database and a minimum-support fraction in, itemsets with their support
// counts out. Alternative algorithms implement it to be cross-checked against
// FPGrowth.
type Miner interface {
	Mine(db *txdb.DB, minSupport float64) (*itemset.Result, error)
}

// Options tune a run.
type Options struct {
	Logger log.FieldLogger
	// Verify checks the tree's structural invariants once it is built.
	Verify bool
	// Start is when the run began, reading the input included. Timings.Total
	// counts from it; the zero value counts from the call.
	Start time.Time
}

func (o Options) start() time.Time {
	if o.Start.IsZero() {
		return time.Now()
	}
	return o.Start
}

// FPGrowth is the exact FP-growth Miner.
type FPGrowth struct {
	Options Options
}

// Mine implements Miner.
func (m FPGrowth) Mine(db *txdb.DB, minSupport float64) (*itemset.Result, error) {
	o, err := Exact(db, minSupport, m.Options)
	if err != nil {
		return nil, err
	}
	return o.Itemsets, nil
}

// Timings holds the wall time of each stage. Total spans the whole run from
// Options.Start.
type Timings struct {
	DBound time.Duration
	Build  time.Duration
	Mine   time.Duration
	Total  time.Duration
}

// Outcome is everything a run produced.
type Outcome struct {
	// MinSupport is the requested fraction and MinCount its count over the
	// whole database, ceil(MinSupport * Transactions).
	MinSupport   float64
	MinCount     int
	Transactions int

	// FrequentItems and TreeNodes describe the database that was mined: the
	// sample in approximate mode.
	FrequentItems int
	TreeNodes     int

	Itemsets *itemset.Result

	// Sample is nil for exact runs.
	Sample *sampling.Descriptor

	Timings Timings
}

// Exact mines the whole database.
func Exact(db *txdb.DB, minSupport float64, opts Options) (*Outcome, error) {
	start := opts.start()
	minCount, err := txdb.MinSupportCount(minSupport, db.Len())
	if err != nil {
		return nil, err
	}

	logCtx := fpm.LogOrDiscard(opts.Logger).WithField("mode", "exact")
	o := &Outcome{
		MinSupport:   minSupport,
		MinCount:     minCount,
		Transactions: db.Len(),
	}
	if err := run(o, db, minCount, opts.Verify, logCtx); err != nil {
		return nil, err
	}
	o.Timings.Total = time.Since(start)
	return o, nil
}

// Approximate mines a uniform sample sized by the d-bound of db so that, with
// probability 1-delta, every itemset frequency is estimated within epsilon.
// rng drives the reservoir.
func Approximate(db *txdb.DB, minSupport float64, p sampling.Params, rng *rand.Rand, opts Options) (*Outcome, error) {
	start := opts.start()
	minCount, err := txdb.MinSupportCount(minSupport, db.Len())
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	logCtx := fpm.LogOrDiscard(opts.Logger).WithField("mode", "approximate")
	o := &Outcome{
		MinSupport:   minSupport,
		MinCount:     minCount,
		Transactions: db.Len(),
	}

	t := time.Now()
	d := sampling.DBound(db.Transactions())
	o.Timings.DBound = time.Since(t)

	desc := sampling.NewDescriptor(d, db.Len(), minSupport, p)
	o.Sample = &desc
	logCtx.WithFields(log.Fields{
		"d_bound":     desc.DBound,
		"sample_size": desc.SampleSize,
		"min_count":   desc.MinCount,
		"exhaustive":  desc.Exhaustive(),
		"elapsed":     o.Timings.DBound,
	}).Info("Sample sized.")

	sample := txdb.FromTransactions(sampling.Sample(db.Transactions(), desc.SampleSize, rng))
	if err := run(o, sample, desc.MinCount, opts.Verify, logCtx); err != nil {
		return nil, err
	}
	o.Timings.Total = time.Since(start)
	return o, nil
}

// run builds the tree of db and mines it at minCount, filling o.
func run(o *Outcome, db *txdb.DB, minCount int, verify bool, logCtx log.FieldLogger) error {
	t := time.Now()
	order := db.Frequent(minCount)
	tree, err := fptree.Build(db.Transactions(), order)
	if err != nil {
		return err
	}
	if verify {
		if err := tree.Verify(); err != nil {
			return err
		}
	}
	o.Timings.Build = time.Since(t)
	o.FrequentItems = order.Len()
	o.TreeNodes = tree.NodeCount()

	logCtx.WithFields(log.Fields{
		"transactions":   db.Len(),
		"frequent_items": o.FrequentItems,
		"nodes":          o.TreeNodes,
		"elapsed":        o.Timings.Build,
	}).Info("Tree built.")

	t = time.Now()
	res, err := growth.Mine(tree, order, minCount, logCtx)
	if err != nil {
		return err
	}
	o.Timings.Mine = time.Since(t)
	o.Itemsets = res

	logCtx.WithFields(log.Fields{
		"itemsets": res.Len(),
		"elapsed":  o.Timings.Mine,
	}).Info("Itemsets mined.")
	return nil
}
