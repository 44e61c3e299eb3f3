package sampling

import (
	"math/rand/v2"
	"slices"
)

// Reservoir keeps a uniform random sample of k elements out of a stream of
// unknown length, in O(k) memory. After n offers every element has been kept
// with probability k/n.
type Reservoir[T any] struct {
	k     int
	seen  int
	items []T
	rng   *rand.Rand
}

// NewReservoir returns an empty reservoir of capacity k drawing from rng.
func NewReservoir[T any](k int, rng *rand.Rand) *Reservoir[T] {
	return &Reservoir[T]{
		k:     max(k, 0),
		items: make([]T, 0, max(k, 0)),
		rng:   rng,
	}
}

// Offer presents the next stream element. The first k fill the reservoir;
// the element at 0-based index i >= k replaces slot j when a uniform j in
// [0, i] falls below k.
func (r *Reservoir[T]) Offer(x T) {
	i := r.seen
	r.seen++
	if i < r.k {
		r.items = append(r.items, x)
		return
	}
	if j := r.rng.IntN(i + 1); j < r.k {
		r.items[j] = x
	}
}

// Items returns the current sample. The slice is owned by the reservoir.
func (r *Reservoir[T]) Items() []T { return r.items }

// Seen returns the number of elements offered so far.
func (r *Reservoir[T]) Seen() int { return r.seen }

// Sample draws k elements of data uniformly without replacement. When k
// covers data, a copy of data is returned as is.
func Sample[T any](data []T, k int, rng *rand.Rand) []T {
	if k >= len(data) {
		return slices.Clone(data)
	}
	r := NewReservoir[T](k, rng)
	for _, x := range data {
		r.Offer(x)
	}
	return r.Items()
}

// NewRand returns a PCG generator for seed. A zero seed picks one at random;
// the seed actually used is returned so that a run can be replayed.
func NewRand(seed uint64) (*rand.Rand, uint64) {
	for seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed
}
