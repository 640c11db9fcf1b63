package card

import (
	"math/bits"

	"github.com/ChrisJefferson/gocardinality/lit"
)

// rangeKey identifies a node by the leaf range it covers. Because the
// split rule (see splitSize) is a pure function of a range's leaf count,
// two builds that cover the same range always produce the same node
// object, which is how output-literal variables and previously emitted
// merge clauses survive across calls to Add, even as the tree grows.
type rangeKey struct {
	start, count int
}

// node is one entry of the totalizer's arena. Leaves correspond 1:1 to
// input literals; internal nodes own a sparse map from partial-sum
// position to output variable, materialized only for the currently
// clamped range [loS, hiS].
type node struct {
	id          int
	start       int
	count       int
	left, right *node
	isLeaf      bool
	leafLit     lit.Lit

	out         map[int]lit.Var
	loS, hiS    int
	initialized bool
}

// splitSize returns the size of the left child of a balanced node
// covering count leaves: the largest power of two strictly less than
// count (or count/2 when count is itself a power of two). This is a pure
// function of count alone, which is what makes the tree stable under
// appends: a node's left child keeps the same leaf range across
// successive add calls until enough leaves accumulate to cross the next
// power-of-two threshold, at which point only the nodes along that
// boundary are rebuilt. Every node built this way has height
// ceil(log2(count)), satisfying the balanced-within-1 invariant.
func splitSize(count int) int {
	if count < 2 {
		return 0
	}
	return 1 << (bits.Len(uint(count-1)) - 1)
}

// buildTree returns the node covering leaves [start, start+count), built
// or reused from the arena.
func (t *Totalizer) buildTree(start, count int) *node {
	key := rangeKey{start, count}
	if n, ok := t.cache[key]; ok {
		return n
	}
	var n *node
	if count == 1 {
		n = &node{start: start, count: 1, isLeaf: true, leafLit: t.inputs[start]}
	} else {
		leftSize := splitSize(count)
		l := t.buildTree(start, leftSize)
		r := t.buildTree(start+leftSize, count-leftSize)
		n = &node{start: start, count: count, left: l, right: r, out: make(map[int]lit.Var)}
	}
	n.id = len(t.arena)
	t.arena = append(t.arena, n)
	t.cache[key] = n
	return n
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
