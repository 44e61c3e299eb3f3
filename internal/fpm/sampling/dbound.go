// Package sampling decides how much of a transaction database has to be
// mined to meet an (epsilon, delta) accuracy contract, and draws the sample.
//
// The d-bound of a dataset is the largest q such that at least q distinct
// transactions have q or more items. It bounds the VC-dimension of the range
// space the transactions induce over itemsets, and a uniform sample of
//
//	ceil((4C / epsilon^2) * (d + ln(1/delta)))
//
// transactions estimates every itemset frequency within epsilon with
// probability at least 1-delta. Mining the sample with the threshold lowered
// by epsilon keeps truly frequent itemsets in the output.
package sampling

import (
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"fpm.lopezb.com/internal/fpm/txdb"
)

// distinctSets remembers transactions as sets. Sets are bucketed by an xxhash
// fingerprint of their sorted members and confirmed by exact comparison, so a
// fingerprint collision never merges two different sets.
type distinctSets struct {
	buckets map[uint64][][]string
	digest  *xxhash.Digest
}

func newDistinctSets() *distinctSets {
	return &distinctSets{
		buckets: make(map[uint64][][]string),
		digest:  xxhash.New(),
	}
}

// add reports whether the sorted set was not seen before, recording it.
func (d *distinctSets) add(sorted []string) bool {
	d.digest.Reset()
	for _, it := range sorted {
		d.digest.WriteString(strconv.Itoa(len(it)))
		d.digest.WriteString(":")
		d.digest.WriteString(it)
	}
	h := d.digest.Sum64()

	for _, s := range d.buckets[h] {
		if slices.Equal(s, sorted) {
			return false
		}
	}
	d.buckets[h] = append(d.buckets[h], sorted)
	return true
}

// DBound computes the d-bound greedily in one pass. The candidate q starts at
// 1; a transaction with at least q items that was not seen before joins the
// working set, and q then grows while the working set holds at least q
// transactions, dropping the ones shorter than the new q each time. The
// result is q-1.
//
// Transactions shorter than the current candidate are never recorded: q only
// grows, so they can no longer count.
func DBound(txs []txdb.Transaction) int {
	q := 1
	seen := newDistinctSets()
	var working []int // sizes of the distinct sets with at least q items

	for _, tx := range txs {
		set := slices.Clone(tx)
		slices.Sort(set)
		set = slices.Compact(set)
		if len(set) < q || !seen.add(set) {
			continue
		}
		working = append(working, len(set))

		for len(working) >= q {
			q++
			working = slices.DeleteFunc(working, func(size int) bool { return size < q })
		}
	}
	return q - 1
}
