// Package fptree implements the compressed prefix tree (FP-tree) frequent
// pattern mining runs on, together with its header table.
//
// Arena Layout
// ============
//
// Nodes live in one slice and refer to each other by index. The root sits at
// index 0 and stands for the empty itemset. Each node stores:
//
//	+------+-------+--------+-------+------+----------------------+
//	| Item | Count | Parent | Depth | Next | Children (item->idx) |
//	+------+-------+--------+-------+------+----------------------+
//
// Parent is a non-owning back reference used by the ancestor walk. Next
// threads the node into its item's header chain. Only the arena owns node
// storage; the header table and the child maps hold indices.
//
// Items are canonical ranks (0 = most frequent). Every root-to-node path lists
// ranks in strictly increasing order, which is what lets transactions with a
// common canonical prefix share nodes: the node count is bounded by the number
// of distinct prefixes, not the number of transactions.
//
// Header Table
// ============
//
// One entry per item rank holds the first and last node of the item's chain
// (the tail makes appends O(1)) and the item's aggregate support, the sum of
// the counts of every node on the chain. Chains list nodes in creation order
// and are never reordered.
package fptree

import (
	"errors"
	"fmt"
	"iter"

	"fpm.lopezb.com/internal/fpm"
)

const (
	// Root is the arena index of the root node.
	Root int32 = 0

	// None marks an absent node reference.
	None int32 = -1

	rootItem int32 = -1
)

var (
	// ErrNotCanonical is returned when an inserted sequence is not strictly
	// increasing or holds ranks outside the tree's item range.
	ErrNotCanonical = errors.New("fptree: sequence is not in canonical order")

	// ErrInvalidWeight is returned for insertions with a weight below one.
	ErrInvalidWeight = errors.New("fptree: weight must be positive")
)

type node struct {
	item     int32
	depth    int32
	parent   int32
	next     int32
	count    int
	children map[int32]int32
}

// HeaderEntry locates an item's chain and records its aggregate support.
type HeaderEntry struct {
	Head    int32
	Tail    int32
	Support int
}

// Tree is an FP-tree over item ranks [0, width).
type Tree struct {
	nodes  []node
	header []HeaderEntry
	label  func(int32) string
}

// New returns an empty tree for width item ranks. label names ranks in
// diagnostics; nil falls back to "#rank".
func New(width int, label func(int32) string) *Tree {
	if label == nil {
		label = func(r int32) string { return fmt.Sprintf("#%d", r) }
	}

	t := &Tree{
		nodes:  make([]node, 1, 1+width),
		header: make([]HeaderEntry, width),
		label:  label,
	}
	t.nodes[Root] = node{item: rootItem, parent: None, next: None}
	for i := range t.header {
		t.header[i] = HeaderEntry{Head: None, Tail: None}
	}
	return t
}

// Insert adds a canonical rank sequence with the given weight. Existing
// children along the path gain weight; missing ones are created with count
// weight and appended to their item's chain.
func (t *Tree) Insert(ranks []int32, weight int) error {
	if weight < 1 {
		return ErrInvalidWeight
	}
	prev := rootItem
	for _, r := range ranks {
		if r <= prev || int(r) >= len(t.header) {
			return ErrNotCanonical
		}
		prev = r
	}

	cur := Root
	for _, r := range ranks {
		child, ok := t.nodes[cur].children[r]
		if ok {
			t.nodes[child].count += weight
		} else {
			child = t.newChild(cur, r, weight)
		}
		t.header[r].Support += weight
		cur = child
	}
	return nil
}

func (t *Tree) newChild(parent, item int32, count int) int32 {
	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{
		item:   item,
		depth:  t.nodes[parent].depth + 1,
		parent: parent,
		next:   None,
		count:  count,
	})

	p := &t.nodes[parent]
	if p.children == nil {
		p.children = make(map[int32]int32, 2)
	}
	p.children[item] = idx

	h := &t.header[item]
	if h.Head == None {
		h.Head = idx
	} else {
		t.nodes[h.Tail].next = idx
	}
	h.Tail = idx
	return idx
}

// Width returns the size of the item rank range.
func (t *Tree) Width() int { return len(t.header) }

// NodeCount returns the number of item nodes, the root excluded.
func (t *Tree) NodeCount() int { return len(t.nodes) - 1 }

// Label names an item rank.
func (t *Tree) Label(item int32) string { return t.label(item) }

// Header returns the header entry of item.
func (t *Tree) Header(item int32) HeaderEntry { return t.header[item] }

// Support returns the aggregate support of item in this tree.
func (t *Tree) Support(item int32) int { return t.header[item].Support }

// Items returns the ranks present in the tree, ascending.
func (t *Tree) Items() []int32 {
	var items []int32
	for i, h := range t.header {
		if h.Head != None {
			items = append(items, int32(i))
		}
	}
	return items
}

// Item returns the item rank of node n (-1 for the root).
func (t *Tree) Item(n int32) int32 { return t.nodes[n].item }

// Count returns the count of node n.
func (t *Tree) Count(n int32) int { return t.nodes[n].count }

// Parent returns the parent of node n, None for the root.
func (t *Tree) Parent(n int32) int32 { return t.nodes[n].parent }

// Depth returns the number of item nodes on the path from the root to n.
func (t *Tree) Depth(n int32) int { return int(t.nodes[n].depth) }

// Child returns the child of n holding item.
func (t *Tree) Child(n, item int32) (int32, bool) {
	c, ok := t.nodes[n].children[item]
	return c, ok
}

// Chain yields the nodes of item's header chain in creation order. The
// sequence is finite and can be ranged over any number of times.
func (t *Tree) Chain(item int32) iter.Seq[int32] {
	return func(yield func(int32) bool) {
		if int(item) < 0 || int(item) >= len(t.header) {
			return
		}
		for n := t.header[item].Head; n != None; n = t.nodes[n].next {
			if !yield(n) {
				return
			}
		}
	}
}

// PrefixPath appends to buf[:0] the item ranks on the path from the root down
// to n's parent, root excluded. The walk must take exactly depth(n)-1 hops;
// anything else means the arena is corrupted and is reported as an
// *fpm.InvariantError carrying the items met on the way up.
func (t *Tree) PrefixPath(n int32, buf []int32) ([]int32, error) {
	buf = buf[:0]
	want := int(t.nodes[n].depth) - 1

	for p := t.nodes[n].parent; p != Root; p = t.nodes[p].parent {
		if p == None || int(p) >= len(t.nodes) || len(buf) >= want {
			return nil, t.invariant(n, fmt.Sprintf("ancestor walk from depth %d does not reach the root in %d hops", want+1, want))
		}
		buf = append(buf, t.nodes[p].item)
	}
	if len(buf) != want {
		return nil, t.invariant(n, fmt.Sprintf("ancestor walk reached the root after %d of %d hops", len(buf), want))
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf, nil
}

// invariant builds the diagnostic for node n: its item chain walked upwards
// as far as the links allow.
func (t *Tree) invariant(n int32, detail string) error {
	var chain []string
	for cur, steps := n, 0; cur > Root && int(cur) < len(t.nodes) && steps <= len(t.nodes); cur, steps = t.nodes[cur].parent, steps+1 {
		chain = append(chain, t.label(t.nodes[cur].item))
	}
	return &fpm.InvariantError{Detail: detail, Chain: chain}
}
