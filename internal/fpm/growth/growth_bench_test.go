package growth

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"fpm.lopezb.com/internal/fpm/fptree"
	"fpm.lopezb.com/internal/fpm/txdb"
)

// =============================================================================
// Mining Benchmarks
// =============================================================================

// BenchmarkMine measures conditional-tree mining on a prebuilt tree. Lower
// thresholds blow up the number of conditional trees, so the sizes stay small.
func BenchmarkMine(b *testing.B) {
	sizes := []int{1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("txs_%d", size), func(b *testing.B) {
			rng := rand.New(rand.NewPCG(uint64(size), 1))
			db := txdb.FromTransactions(randomTransactions(rng, size, 40, 12))
			minCount := size / 50
			order := db.Frequent(minCount)
			tree, err := fptree.Build(db.Transactions(), order)
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			b.ReportAllocs()

			for b.Loop() {
				if _, err := Mine(tree, order, minCount, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkMineWideAlphabet mines thousands of items that never co-occur
// beyond their pair, so conditional trees stay tiny while the alphabet grows.
func BenchmarkMineWideAlphabet(b *testing.B) {
	for _, pairs := range []int{1000, 8000} {
		b.Run(fmt.Sprintf("items_%d", 2*pairs), func(b *testing.B) {
			db := txdb.FromTransactions(disjointPairs(pairs))
			order := db.Frequent(2)
			tree, err := fptree.Build(db.Transactions(), order)
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			b.ReportAllocs()

			for b.Loop() {
				if _, err := Mine(tree, order, 2, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkBuild measures the second pass: encoding and insertion.
func BenchmarkBuild(b *testing.B) {
	rng := rand.New(rand.NewPCG(5, 5))
	db := txdb.FromTransactions(randomTransactions(rng, 10000, 40, 12))
	order := db.Frequent(1)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := fptree.Build(db.Transactions(), order); err != nil {
			b.Fatal(err)
		}
	}
}
