package mining

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpm.lopezb.com/internal/fpm"
	"fpm.lopezb.com/internal/fpm/itemset"
	"fpm.lopezb.com/internal/fpm/sampling"
	"fpm.lopezb.com/internal/fpm/txdb"
)

var _ Miner = FPGrowth{}

// levelwise is a breadth-first miner used to cross-check FPGrowth through
// the Miner contract: it grows candidates one item at a time and counts them
// by scanning the database.
type levelwise struct{}

func (levelwise) Mine(db *txdb.DB, minSupport float64) (*itemset.Result, error) {
	minCount, err := txdb.MinSupportCount(minSupport, db.Len())
	if err != nil {
		return nil, err
	}
	minCount = max(minCount, 1)

	sets := make([]map[string]struct{}, db.Len())
	for i, tx := range db.Transactions() {
		sets[i] = make(map[string]struct{}, len(tx))
		for _, it := range tx {
			sets[i][it] = struct{}{}
		}
	}
	count := func(cand []string) int {
		n := 0
		for _, s := range sets {
			ok := true
			for _, it := range cand {
				if _, in := s[it]; !in {
					ok = false
					break
				}
			}
			if ok {
				n++
			}
		}
		return n
	}

	order := db.Frequent(minCount)
	items := order.Items()
	slices.Sort(items)

	res := itemset.New()
	var level [][]string
	for _, it := range items {
		res.Add([]string{it}, db.Count(it))
		level = append(level, []string{it})
	}
	for len(level) > 0 {
		var next [][]string
		for _, cand := range level {
			last := cand[len(cand)-1]
			for _, it := range items {
				if it <= last {
					continue
				}
				ext := append(slices.Clone(cand), it)
				if c := count(ext); c >= minCount {
					res.Add(ext, c)
					next = append(next, ext)
				}
			}
		}
		level = next
	}
	return res, nil
}

func randomDB(seed uint64, n, alphabet, maxLen int) *txdb.DB {
	rng := rand.New(rand.NewPCG(seed, seed))
	txs := make([]txdb.Transaction, n)
	for i := range txs {
		k := 1 + rng.IntN(maxLen)
		for range k {
			txs[i] = append(txs[i], fmt.Sprintf("i%d", rng.IntN(alphabet)))
		}
	}
	return txdb.FromTransactions(txs)
}

func TestExactExample(t *testing.T) {
	db := txdb.FromTransactions([]txdb.Transaction{{"1", "2", "3"}, {"1", "2"}, {"1", "3"}, {"2", "3"}})

	o, err := Exact(db, 0.5, Options{Verify: true})
	require.NoError(t, err)

	assert.Equal(t, 2, o.MinCount)
	assert.Equal(t, 4, o.Transactions)
	assert.Equal(t, 3, o.FrequentItems)
	assert.Nil(t, o.Sample)
	assert.Equal(t, 6, o.Itemsets.Len())
	_, ok := o.Itemsets.Support("1", "2", "3")
	assert.False(t, ok)
	sup, _ := o.Itemsets.Support("3", "1")
	assert.Equal(t, 2, sup)
	assert.GreaterOrEqual(t, o.Timings.Total, o.Timings.Mine)
}

func TestTotalCountsFromStart(t *testing.T) {
	db := txdb.FromTransactions([]txdb.Transaction{{"1", "2"}, {"1"}, {"2"}})
	opts := Options{Start: time.Now().Add(-time.Hour)}

	o, err := Exact(db, 0.5, opts)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, o.Timings.Total, time.Hour)

	o, err = Approximate(db, 0.5, sampling.DefaultParams(), rand.New(rand.NewPCG(1, 1)), opts)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, o.Timings.Total, time.Hour)

	o, err = Exact(db, 0.5, Options{})
	require.NoError(t, err)
	assert.Less(t, o.Timings.Total, time.Hour)
}

func TestFPGrowthAgreesWithLevelwise(t *testing.T) {
	for _, s := range []float64{0.02, 0.05, 0.1, 0.3} {
		t.Run(fmt.Sprintf("support %v", s), func(t *testing.T) {
			db := randomDB(uint64(s*1000), 300, 15, 7)

			want, err := levelwise{}.Mine(db, s)
			require.NoError(t, err)
			got, err := FPGrowth{}.Mine(db, s)
			require.NoError(t, err)

			assert.True(t, want.Equal(got), "levelwise %d itemsets, fp-growth %d", want.Len(), got.Len())
		})
	}
}

func TestValidationBeforeWork(t *testing.T) {
	db := txdb.FromTransactions([]txdb.Transaction{{"a"}})
	var vErr *fpm.ValidationError

	_, err := Exact(db, 1, Options{})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "min_support", vErr.Field)

	_, err = Approximate(db, 0.5, sampling.Params{Epsilon: 0, Delta: 0.1, C: 1}, rand.New(rand.NewPCG(1, 1)), Options{})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "epsilon", vErr.Field)

	_, err = FPGrowth{}.Mine(db, -0.5)
	assert.True(t, errors.As(err, &vErr))
}

func TestApproximateSmallDatabaseIsExhaustive(t *testing.T) {
	db := txdb.FromTransactions([]txdb.Transaction{{"A", "B"}, {"A", "B"}, {"A"}, {"B"}})

	o, err := Approximate(db, 0.5, sampling.DefaultParams(), rand.New(rand.NewPCG(1, 1)), Options{})
	require.NoError(t, err)

	require.NotNil(t, o.Sample)
	assert.Equal(t, 1, o.Sample.DBound)
	assert.Equal(t, 4, o.Sample.SampleSize)
	assert.True(t, o.Sample.Exhaustive())
	// ceil(4 * 0.4)
	assert.Equal(t, 2, o.Sample.MinCount)
	assert.Equal(t, 2, o.MinCount)

	sup, ok := o.Itemsets.Support("A", "B")
	require.True(t, ok)
	assert.Equal(t, 2, sup)
	assert.Equal(t, 3, o.Itemsets.Len())
}

func TestApproximateKeepsFrequentItemsets(t *testing.T) {
	db := randomDB(99, 6000, 6, 5)
	const s = 0.3

	exact, err := Exact(db, s, Options{})
	require.NoError(t, err)
	require.Positive(t, exact.Itemsets.Len())

	logger, hook := test.NewNullLogger()
	approx, err := Approximate(db, s, sampling.DefaultParams(), rand.New(rand.NewPCG(5, 6)), Options{Logger: logger})
	require.NoError(t, err)

	desc := approx.Sample
	require.NotNil(t, desc)
	assert.Less(t, desc.SampleSize, db.Len())
	assert.Equal(t, sampling.SampleSize(desc.DBound, sampling.DefaultParams()), desc.SampleSize)
	assert.Equal(t, sampling.AdjustedMinCount(desc.SampleSize, s, 0.1), desc.MinCount)
	assert.Equal(t, db.Len(), approx.Transactions)

	for set := range exact.Itemsets.All() {
		sup, ok := approx.Itemsets.Support(set.Items...)
		if assert.True(t, ok, "%v missing from the sample result", set) {
			assert.LessOrEqual(t, sup, desc.SampleSize)
		}
	}

	var msgs []string
	for _, e := range hook.AllEntries() {
		msgs = append(msgs, e.Message)
		assert.Equal(t, "approximate", e.Data["mode"])
	}
	assert.Equal(t, []string{"Sample sized.", "Tree built.", "Itemsets mined."}, msgs)
}

func TestApproximateIsReproducible(t *testing.T) {
	db := randomDB(3, 5000, 8, 6)
	p := sampling.DefaultParams()

	a, err := Approximate(db, 0.2, p, rand.New(rand.NewPCG(11, 12)), Options{})
	require.NoError(t, err)
	b, err := Approximate(db, 0.2, p, rand.New(rand.NewPCG(11, 12)), Options{})
	require.NoError(t, err)

	assert.True(t, a.Itemsets.Equal(b.Itemsets))
	assert.Equal(t, a.Sample, b.Sample)
}
