// Package assoc measures how well an approximate result preserves the
// association rules of an exact one.
//
// Every exact itemset X with two or more items yields the rules A => X\A for
// each non-empty proper subset A. A rule's frequency is supp(X)/N and its
// confidence supp(X)/supp(A). The reported errors are the mean absolute
// differences of both quantities between the two results, over the rules whose
// antecedent is present in both. Itemsets too long to enumerate are left out
// and counted in Errors.Skipped.
package assoc

import (
	"fmt"
	"io"
	"math"

	"fpm.lopezb.com/internal/fpm"
	"fpm.lopezb.com/internal/fpm/itemset"
)

// Errors summarises a comparison.
type Errors struct {
	Freq  float64 // ArFreqEr
	Conf  float64 // ArConfEr
	Rules int
	// Skipped counts exact itemsets above MaxRuleItems whose rules were not
	// enumerated.
	Skipped int
}

// MaxRuleItems bounds the itemsets whose rules are enumerated; beyond it the
// 2^k subsets are not worth walking.
const MaxRuleItems = 30

// Compare computes the rule errors of approx against exact. exactN and
// approxN are the number of transactions each result was counted over, so an
// approximate result measured within a sample is compared by frequency.
// Rules are visited in a fixed order, so equal inputs give bit-identical sums.
func Compare(exact *itemset.Result, exactN int, approx *itemset.Result, approxN int) (Errors, error) {
	if exactN == 0 && approxN == 0 {
		return Errors{}, nil
	}
	if exactN <= 0 || approxN <= 0 {
		return Errors{}, &fpm.ValidationError{
			Field:  "transactions",
			Value:  fmt.Sprintf("%d/%d", exactN, approxN),
			Reason: "both results must be counted over a non-empty database, or both over an empty one",
		}
	}

	var (
		freqSum, confSum float64
		rules, skipped   int
		a                []string
	)
	for _, x := range exact.Sorted() {
		k := len(x.Items)
		if k < 2 {
			continue
		}
		if k > MaxRuleItems {
			skipped++
			continue
		}
		approxX, _ := approx.Support(x.Items...)

		for mask := 1; mask < 1<<k-1; mask++ {
			a = a[:0]
			for i, it := range x.Items {
				if mask&(1<<i) != 0 {
					a = append(a, it)
				}
			}

			exactA, ok := exact.Support(a...)
			if !ok || exactA == 0 {
				continue
			}
			approxA, ok := approx.Support(a...)
			if !ok || approxA == 0 {
				continue
			}

			exactFreq := float64(x.Support) / float64(exactN)
			approxFreq := float64(approxX) / float64(approxN)
			freqSum += math.Abs(exactFreq - approxFreq)
			confSum += math.Abs(float64(x.Support)/float64(exactA) - float64(approxX)/float64(approxA))
			rules++
		}
	}

	if rules == 0 {
		return Errors{Skipped: skipped}, nil
	}
	return Errors{
		Freq:    freqSum / float64(rules),
		Conf:    confSum / float64(rules),
		Rules:   rules,
		Skipped: skipped,
	}, nil
}

// Write prints the errors in the ar_errors.txt layout.
func (e Errors) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "ArFreqEr: %v\nArConfEr: %v\nRules compared: %d\n", e.Freq, e.Conf, e.Rules)
	return err
}
