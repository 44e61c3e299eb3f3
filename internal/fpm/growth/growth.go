// Package growth mines frequent itemsets out of an FP-tree.
//
// For one item, the conditional pattern base is read off the tree by following
// the item's header chain and walking every chain node up to the root. The
// base is itself turned into a (conditional) FP-tree over the items that stay
// frequent inside it, and mining recurses into that tree with the item added
// to the suffix. A conditional tree numbers only the ranks that stay frequent
// in its base, densely and in the order of its parent tree, so its size follows
// the base and not the global item count. The miner keeps the mapping from
// local ranks back to the global order.
package growth

import (
	"encoding/binary"
	"slices"

	log "github.com/sirupsen/logrus"

	"fpm.lopezb.com/internal/fpm"
	"fpm.lopezb.com/internal/fpm/fptree"
	"fpm.lopezb.com/internal/fpm/itemset"
	"fpm.lopezb.com/internal/fpm/txdb"
)

// Pattern is one entry of a conditional pattern base: an ancestor path in
// root-to-node order and its aggregated weight.
type Pattern struct {
	Path  []int32
	Count int
}

// ConditionalBase collects the conditional pattern base of item. Identical
// paths contributed by different chain nodes are merged and their weights
// summed; patterns keep the order their first contributor appears on the chain.
// The empty path of a node hanging off the root is kept too, so the weights
// always add up to the item's support.
func ConditionalBase(t *fptree.Tree, item int32) ([]Pattern, error) {
	var (
		base  []Pattern
		index = make(map[string]int)
		path  []int32
		key   []byte
		err   error
	)

	for n := range t.Chain(item) {
		path, err = t.PrefixPath(n, path)
		if err != nil {
			return nil, err
		}

		key = key[:0]
		for _, r := range path {
			key = binary.LittleEndian.AppendUint32(key, uint32(r))
		}
		if i, ok := index[string(key)]; ok {
			base[i].Count += t.Count(n)
			continue
		}
		index[string(key)] = len(base)
		base = append(base, Pattern{Path: slices.Clone(path), Count: t.Count(n)})
	}
	return base, nil
}

// Conditional builds the FP-tree of a conditional pattern base, keeping only
// the ranks whose summed weight reaches minCount. The new tree is numbered
// densely over those ranks: local rank i stands for ranks[i] of t, and ranks
// is ascending, so paths stay canonical.
func Conditional(t *fptree.Tree, base []Pattern, minCount int) (*fptree.Tree, []int32, error) {
	support := make(map[int32]int)
	for _, p := range base {
		for _, r := range p.Path {
			support[r] += p.Count
		}
	}

	var ranks []int32
	for r, c := range support {
		if c >= minCount {
			ranks = append(ranks, r)
		}
	}
	slices.Sort(ranks)
	local := make(map[int32]int32, len(ranks))
	for i, r := range ranks {
		local[r] = int32(i)
	}

	cond := fptree.New(len(ranks), func(l int32) string { return t.Label(ranks[l]) })
	var filtered []int32
	for _, p := range base {
		filtered = filtered[:0]
		for _, r := range p.Path {
			if l, ok := local[r]; ok {
				filtered = append(filtered, l)
			}
		}
		if len(filtered) == 0 {
			continue
		}
		if err := cond.Insert(filtered, p.Count); err != nil {
			return nil, nil, err
		}
	}
	return cond, ranks, nil
}

type miner struct {
	order    *txdb.Order
	minCount int
	res      *itemset.Result
	logCtx   log.FieldLogger
}

// Mine returns every itemset whose support in t reaches minCount. t must have
// been built over order, and minCount must be at least one for the threshold
// to mean anything; singletons are taken from order as they are.
func Mine(t *fptree.Tree, order *txdb.Order, minCount int, logCtx log.FieldLogger) (*itemset.Result, error) {
	m := &miner{
		order:    order,
		minCount: max(minCount, 1),
		res:      itemset.New(),
		logCtx:   fpm.LogOrDiscard(logCtx),
	}

	for r := range int32(order.Len()) {
		if order.Support(r) >= m.minCount {
			m.res.Add([]string{order.Item(r)}, order.Support(r))
		}
	}

	items := t.Items()
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		m.logCtx.WithFields(log.Fields{
			"item":     order.Item(item),
			"progress": len(items) - i,
			"of":       len(items),
		}).Debug("Mining item.")

		if t.Support(item) < m.minCount {
			continue
		}
		if err := m.grow(t, nil, item, nil); err != nil {
			return nil, err
		}
	}
	return m.res, nil
}

// grow mines the itemsets ending in item+suffix, where item is frequent in t
// and suffix lists the global ranks t was conditioned on. global maps t's
// ranks to the global order; nil means t is the full tree.
func (m *miner) grow(t *fptree.Tree, global []int32, item int32, suffix []int32) error {
	base, err := ConditionalBase(t, item)
	if err != nil {
		return err
	}
	cond, ranks, err := Conditional(t, base, m.minCount)
	if err != nil {
		return err
	}
	condGlobal := ranks
	if global != nil {
		item = global[item]
		condGlobal = make([]int32, len(ranks))
		for i, r := range ranks {
			condGlobal[i] = global[r]
		}
	}

	next := make([]int32, 0, len(suffix)+1)
	next = append(next, item)
	next = append(next, suffix...)

	set := make([]int32, len(next)+1)
	items := cond.Items()
	for i := len(items) - 1; i >= 0; i-- {
		y := items[i]
		set[0] = condGlobal[y]
		copy(set[1:], next)
		m.res.Add(m.order.Decode(set), cond.Support(y))

		if err := m.grow(cond, condGlobal, y, next); err != nil {
			return err
		}
	}
	return nil
}
