// Package itemset holds the result of a mining run: a mapping from itemsets
// to their support counts.
//
// Itemsets are sets, so the mapping is keyed by the sorted member list and
// lookups do not depend on the order items are given in.
package itemset

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Itemset is a set of items with its support count.
type Itemset struct {
	Items   []string
	Support int
}

// String formats the itemset as "[a, b, c]".
func (s Itemset) String() string {
	return "[" + strings.Join(s.Items, ", ") + "]"
}

// Result maps itemsets to support counts.
type Result struct {
	sets map[string]Itemset
}

// New returns an empty result.
func New() *Result {
	return &Result{sets: make(map[string]Itemset)}
}

// key length-prefixes each sorted member so that no choice of item
// identifiers can make two different sets collide.
func key(items []string) (string, []string) {
	sorted := slices.Clone(items)
	slices.Sort(sorted)

	var b strings.Builder
	for _, it := range sorted {
		b.WriteString(strconv.Itoa(len(it)))
		b.WriteByte(':')
		b.WriteString(it)
	}
	return b.String(), sorted
}

// Add records items with the given support, replacing any previous count for
// the same set. Empty itemsets are ignored.
func (r *Result) Add(items []string, support int) {
	if len(items) == 0 {
		return
	}
	k, sorted := key(items)
	r.sets[k] = Itemset{Items: sorted, Support: support}
}

// Support returns the support of the set made of items.
func (r *Result) Support(items ...string) (int, bool) {
	k, _ := key(items)
	s, ok := r.sets[k]
	return s.Support, ok
}

// Len returns the number of itemsets.
func (r *Result) Len() int { return len(r.sets) }

// All yields every itemset in no particular order. Members are sorted.
func (r *Result) All() iter.Seq[Itemset] {
	return maps.Values(r.sets)
}

// Sorted returns the itemsets ordered by support descending, then size
// ascending, then members lexically.
func (r *Result) Sorted() []Itemset {
	out := slices.Collect(maps.Values(r.sets))
	slices.SortFunc(out, func(a, b Itemset) int {
		if c := cmp.Compare(b.Support, a.Support); c != 0 {
			return c
		}
		if c := cmp.Compare(len(a.Items), len(b.Items)); c != 0 {
			return c
		}
		return slices.Compare(a.Items, b.Items)
	})
	return out
}

// Equal reports whether both results hold the same itemsets with the same
// supports.
func (r *Result) Equal(other *Result) bool {
	if r.Len() != other.Len() {
		return false
	}
	for k, s := range r.sets {
		o, ok := other.sets[k]
		if !ok || o.Support != s.Support {
			return false
		}
	}
	return true
}

// CheckClosure verifies downward closure: for every itemset of size k > 1,
// each of its (k-1)-subsets is present with at least the same support.
// Checking the immediate subsets is enough since it applies transitively.
func (r *Result) CheckClosure() error {
	sub := make([]string, 0, 8)
	for _, s := range r.Sorted() {
		if len(s.Items) < 2 {
			continue
		}
		for skip := range s.Items {
			sub = sub[:0]
			for i, it := range s.Items {
				if i != skip {
					sub = append(sub, it)
				}
			}
			sup, ok := r.Support(sub...)
			if !ok {
				return fmt.Errorf("itemset: %v is frequent but its subset %v is missing", s, Itemset{Items: sub})
			}
			if sup < s.Support {
				return fmt.Errorf("itemset: subset %v has support %d below %v's %d", Itemset{Items: sub}, sup, s, s.Support)
			}
		}
	}
	return nil
}
