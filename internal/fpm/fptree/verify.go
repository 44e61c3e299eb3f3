package fptree

import (
	"fmt"

	"fpm.lopezb.com/internal/fpm"
)

// Verify checks the structural invariants of the tree:
//
//   - every path from the root lists strictly increasing ranks and each
//     node's depth is its parent's plus one;
//   - child maps agree with the parent links, so no two children of a node
//     share an item;
//   - each header chain visits exactly the nodes of its item, in creation
//     order, and their counts sum to the recorded aggregate support.
//
// It is meant for tests and debug runs; mining does not call it.
func (t *Tree) Verify() error {
	for i := 1; i < len(t.nodes); i++ {
		n := int32(i)
		nd := t.nodes[n]
		if nd.parent < 0 || int(nd.parent) >= len(t.nodes) {
			return t.invariant(n, fmt.Sprintf("node %d has no valid parent", n))
		}
		p := t.nodes[nd.parent]
		if nd.item <= p.item || int(nd.item) >= len(t.header) {
			return t.invariant(n, fmt.Sprintf("node %d breaks canonical order", n))
		}
		if nd.depth != p.depth+1 {
			return t.invariant(n, fmt.Sprintf("node %d has depth %d under a parent of depth %d", n, nd.depth, p.depth))
		}
		if c, ok := p.children[nd.item]; !ok || c != n {
			return t.invariant(n, fmt.Sprintf("node %d is not its parent's child for its item", n))
		}
		if nd.count < 1 {
			return t.invariant(n, fmt.Sprintf("node %d has count %d", n, nd.count))
		}
	}

	onChain := 0
	for item, h := range t.header {
		sum, prev := 0, None
		for n := range t.Chain(int32(item)) {
			if n <= prev {
				return t.invariant(n, fmt.Sprintf("chain of %s is out of creation order", t.label(int32(item))))
			}
			if t.nodes[n].item != int32(item) {
				return t.invariant(n, fmt.Sprintf("chain of %s holds a foreign node", t.label(int32(item))))
			}
			sum += t.nodes[n].count
			prev = n
			onChain++
		}
		if sum != h.Support {
			return &fpm.InvariantError{Detail: fmt.Sprintf("chain of %s sums to %d, header records %d", t.label(int32(item)), sum, h.Support)}
		}
		if prev != h.Tail {
			return &fpm.InvariantError{Detail: fmt.Sprintf("chain of %s does not end at its tail", t.label(int32(item)))}
		}
	}
	if onChain != t.NodeCount() {
		return &fpm.InvariantError{Detail: fmt.Sprintf("%d nodes on chains, %d in the tree", onChain, t.NodeCount())}
	}
	return nil
}
