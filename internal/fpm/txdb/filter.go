package txdb

import (
	"cmp"
	"math"
	"slices"

	"fpm.lopezb.com/internal/fpm"
)

// ceilTolerance absorbs float artifacts such as 0.07*100 = 7.000000000000001
// before rounding up.
const ceilTolerance = 1e-9

// CeilCount rounds x up to the next integer, ignoring representation noise
// below ceilTolerance.
func CeilCount(x float64) int {
	return int(math.Ceil(x - ceilTolerance))
}

// MinSupportCount converts a minimum-support fraction into the absolute count
// ceil(s * n). The fraction must lie in [0,1).
func MinSupportCount(s float64, n int) (int, error) {
	if err := ValidateSupport(s); err != nil {
		return 0, err
	}
	return CeilCount(s * float64(n)), nil
}

// ValidateSupport checks that s is a usable minimum-support fraction.
func ValidateSupport(s float64) error {
	if math.IsNaN(s) || s < 0 || s >= 1 {
		return &fpm.ValidationError{Field: "min_support", Value: s, Reason: "must be in [0,1)"}
	}
	return nil
}

// Order is the canonical total order over the frequent items: support count
// descending, ties broken by item identifier ascending. Items are addressed by
// rank, 0 being the most frequent.
type Order struct {
	items   []string
	support []int
	rank    map[string]int32
}

// Frequent keeps the items counted at least minCount times and fixes their
// canonical order.
func (db *DB) Frequent(minCount int) *Order {
	items := make([]string, 0, len(db.counts))
	for item, c := range db.counts {
		if c >= minCount {
			items = append(items, item)
		}
	}

	slices.SortFunc(items, func(a, b string) int {
		if c := cmp.Compare(db.counts[b], db.counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	o := &Order{
		items:   items,
		support: make([]int, len(items)),
		rank:    make(map[string]int32, len(items)),
	}
	for i, item := range items {
		o.support[i] = db.counts[item]
		o.rank[item] = int32(i)
	}
	return o
}

// Len returns the number of frequent items.
func (o *Order) Len() int { return len(o.items) }

// Item returns the item at rank r.
func (o *Order) Item(r int32) string { return o.items[r] }

// Support returns the global support count of the item at rank r.
func (o *Order) Support(r int32) int { return o.support[r] }

// Rank returns the canonical rank of item, or false if it is not frequent.
func (o *Order) Rank(item string) (int32, bool) {
	r, ok := o.rank[item]
	return r, ok
}

// Items returns the frequent items in canonical order.
func (o *Order) Items() []string { return slices.Clone(o.items) }

// Encode filters tx down to its frequent items and returns their ranks in
// canonical order. The result is appended to buf[:0].
func (o *Order) Encode(tx Transaction, buf []int32) []int32 {
	buf = buf[:0]
	for _, item := range tx {
		if r, ok := o.rank[item]; ok {
			buf = append(buf, r)
		}
	}
	slices.Sort(buf)
	return buf
}

// Decode maps ranks back to item identifiers.
func (o *Order) Decode(ranks []int32) []string {
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = o.items[r]
	}
	return out
}
