package pb

import (
	"fmt"
	"sort"

	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/encoding"
	"github.com/ChrisJefferson/gocardinality/lit"
	"github.com/ChrisJefferson/gocardinality/varmgr"
)

type emissionKey struct {
	nodeID int
	i, j   int
	target int
}

// GeneralizedTotalizer is the upper-bound pseudo-boolean
// encoder. It only ever supports EncodeUB/EnforceUB; the
// lower-bound and equality directions are provided by
// InvertedGeneralizedTotalizer and DoubleGeneralizedTotalizer, which
// compose an instance of this type rather than duplicating its merge
// logic.
type GeneralizedTotalizer struct {
	weights map[lit.Var]int
	signs   map[lit.Var]bool
	order   []lit.Var
	invalid bool

	inputs []encoding.WeightedLit
	cache  map[rangeKey]*node
	arena  []*node
	root   *node
	ledger map[emissionKey]struct{}

	cap            int
	hasEncoded     bool
	encMin, encMax int
	stale          bool
}

// NewGeneralizedTotalizer returns an empty UB-only encoder.
func NewGeneralizedTotalizer() *GeneralizedTotalizer {
	return &GeneralizedTotalizer{
		weights: make(map[lit.Var]int),
		signs:   make(map[lit.Var]bool),
		cache:   make(map[rangeKey]*node),
		ledger:  make(map[emissionKey]struct{}),
	}
}

// Add merges new weighted literals into the input multiset. A literal
// that already appears has its weight summed; a literal whose negation
// already appears is resolved by the standard PB cancellation identity
// w1*l + w0*¬l = min(w0,w1) + |w1-w0|*(the literal with the larger
// weight). Only the residual literal is kept: the constant min(w0,w1) is
// dropped, and no offset is recorded, so every bound given to the
// Encode/Enforce calls applies to the sum of the remaining literals. A
// non-positive weight on a literal with no existing counterpart is
// recorded as malformed and surfaces as ErrInvalidInput from the next
// EncodeUB/EncodeLB call, since Add itself has no error return.
func (g *GeneralizedTotalizer) Add(lits []encoding.WeightedLit) {
	for _, wl := range lits {
		g.addOne(wl)
	}
	if len(lits) > 0 {
		g.stale = true
	}
}

func (g *GeneralizedTotalizer) addOne(wl encoding.WeightedLit) {
	v := wl.Lit.Var()
	if existing, ok := g.weights[v]; ok {
		if g.litOf(v) == wl.Lit {
			g.weights[v] = existing + wl.Weight
			return
		}
		// Opposite sign: cancel against the existing entry.
		w0 := existing
		w1 := wl.Weight
		switch {
		case w1 == w0:
			delete(g.weights, v)
		case w1 > w0:
			g.weights[v] = w1 - w0
			g.signs[v] = wl.Lit.IsPositive()
		default:
			g.weights[v] = w0 - w1
		}
		return
	}
	if wl.Weight <= 0 {
		g.invalid = true
		return
	}
	if _, seen := g.signs[v]; !seen {
		g.order = append(g.order, v)
	}
	g.weights[v] = wl.Weight
	g.signs[v] = wl.Lit.IsPositive()
}

func (g *GeneralizedTotalizer) litOf(v lit.Var) lit.Lit {
	if g.signs[v] {
		return lit.New(v)
	}
	return lit.New(v).Negation()
}

// NLits returns the number of distinct literals currently tracked.
func (g *GeneralizedTotalizer) NLits() int {
	n := 0
	for _, v := range g.order {
		if g.weights[v] > 0 {
			n++
		}
	}
	return n
}

func (g *GeneralizedTotalizer) totalWeight() int {
	total := 0
	for _, v := range g.order {
		total += g.weights[v]
	}
	return total
}

func (g *GeneralizedTotalizer) refreshInputs() {
	g.inputs = g.inputs[:0]
	for _, v := range g.order {
		if w := g.weights[v]; w > 0 {
			g.inputs = append(g.inputs, encoding.WeightedLit{Lit: g.litOf(v), Weight: w})
		}
	}
	g.root = nil
}

// EncodeUB is EncodeUBChange starting from an empty encoded range.
func (g *GeneralizedTotalizer) EncodeUB(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	return g.EncodeUBChange(minRHS, maxRHS, vm)
}

// EncodeUBChange widens the encoder's cap to cover maxRHS+1, emitting
// only the clauses needed for newly attainable values. Values at or
// above the cap are coalesced into a single literal, which is what keeps
// the tree's size polynomial in the number of distinct weights rather
// than in their magnitude.
func (g *GeneralizedTotalizer) EncodeUBChange(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	if minRHS < 0 || minRHS > maxRHS {
		return nil, fmt.Errorf("pb: min_rhs=%d max_rhs=%d: %w", minRHS, maxRHS, encoding.ErrInvalidBounds)
	}
	if g.invalid {
		return nil, fmt.Errorf("pb: a literal was added with non-positive weight: %w", encoding.ErrInvalidInput)
	}
	if len(g.order) == 0 {
		return nil, fmt.Errorf("pb: no literals added yet: %w", encoding.ErrInvalidInput)
	}

	g.refreshInputs()
	g.root = g.buildTree(0, len(g.inputs))

	newCap := minInt(maxRHS+1, g.totalWeight())
	if newCap < 1 {
		newCap = 1
	}
	if newCap > g.cap {
		g.cap = newCap
	}

	var out cnf.CNF
	g.encodeNode(g.root, g.cap, vm, &out)

	if !g.hasEncoded {
		g.encMin, g.encMax = minRHS, maxRHS
	} else {
		g.encMin = minInt(g.encMin, minRHS)
		g.encMax = maxInt(g.encMax, maxRHS)
	}
	g.hasEncoded = true
	g.stale = false
	return out, nil
}

func (g *GeneralizedTotalizer) encodeNode(n *node, cap int, vm varmgr.Manager, out *cnf.CNF) {
	if n.isLeaf {
		return
	}
	g.encodeNode(n.left, cap, vm, out)
	g.encodeNode(n.right, cap, vm, out)

	nodeCap := minInt(n.totalWeight, cap)
	if nodeCap < 1 {
		return
	}

	leftVals := g.reachable(n.left, cap)
	rightVals := g.reachable(n.right, cap)

	for _, i := range withZero(leftVals) {
		for _, j := range withZero(rightVals) {
			if i == 0 && j == 0 {
				continue
			}
			target := minInt(i+j, nodeCap)
			if target < 1 {
				continue
			}
			key := emissionKey{n.id, i, j, target}
			if _, done := g.ledger[key]; done {
				continue
			}
			if _, ok := n.out[target]; !ok {
				n.out[target] = vm.NewVar()
			}
			var clause cnf.Clause
			if i > 0 {
				l, _ := g.litAt(n.left, i, cap)
				clause = append(clause, l.Negation())
			}
			if j > 0 {
				l, _ := g.litAt(n.right, j, cap)
				clause = append(clause, l.Negation())
			}
			clause = append(clause, lit.New(n.out[target]))
			*out = append(*out, clause)
			g.ledger[key] = struct{}{}
		}
	}
	// Chain consecutive output values (out[hi] -> out[lo]) so that a true
	// output also forces every smaller materialized value; i = -1 keeps
	// these ledger keys apart from the merge pairs above.
	vals := g.reachable(n, cap)
	for k := 1; k < len(vals); k++ {
		key := emissionKey{n.id, -1, vals[k-1], vals[k]}
		if _, done := g.ledger[key]; done {
			continue
		}
		*out = append(*out, cnf.Clause{lit.New(n.out[vals[k]]).Negation(), lit.New(n.out[vals[k-1]])})
		g.ledger[key] = struct{}{}
	}
	n.cappedUpto = nodeCap
}

// reachable returns the sorted, distinct nonzero values materialized at
// n given the current cap.
func (g *GeneralizedTotalizer) reachable(n *node, cap int) []int {
	if n.isLeaf {
		v := minInt(n.leafWeight, cap)
		if v < 1 {
			return nil
		}
		return []int{v}
	}
	vals := make([]int, 0, len(n.out))
	for v := range n.out {
		vals = append(vals, v)
	}
	sort.Ints(vals)
	return vals
}

func (g *GeneralizedTotalizer) litAt(n *node, v, cap int) (lit.Lit, bool) {
	if v <= 0 {
		return 0, false
	}
	if n.isLeaf {
		if v == minInt(n.leafWeight, cap) {
			return n.leafLit, true
		}
		return 0, false
	}
	vr, ok := n.out[v]
	if !ok {
		return 0, false
	}
	return lit.New(vr), true
}

func withZero(vals []int) []int {
	return append([]int{0}, vals...)
}

func (g *GeneralizedTotalizer) checkEncoded(k int) error {
	if g.stale || !g.hasEncoded {
		return fmt.Errorf("pb: not encoded for requested value: %w", encoding.ErrNotEncoded)
	}
	if k < g.encMin || k > g.encMax {
		return fmt.Errorf("pb: %d outside last encoded range [%d,%d]: %w", k, g.encMin, g.encMax, encoding.ErrNotEncoded)
	}
	return nil
}

// EnforceUB returns the single assumption enforcing the weighted sum <=
// ub: the negation of the smallest materialized value strictly greater
// than ub, or an empty clause if ub already covers every attainable sum.
func (g *GeneralizedTotalizer) EnforceUB(ub int) (cnf.Clause, error) {
	if err := g.checkEncoded(ub); err != nil {
		return nil, err
	}
	if ub >= g.totalWeight() {
		return cnf.Clause{}, nil
	}
	best := -1
	for v := range g.root.out {
		if v > ub && (best == -1 || v < best) {
			best = v
		}
	}
	if best == -1 {
		return nil, fmt.Errorf("pb: value above %d not materialized: %w", ub, encoding.ErrNotEncoded)
	}
	return cnf.Clause{lit.New(g.root.out[best]).Negation()}, nil
}

// EncodeLB, EnforceLB and EnforceEQ are not supported by the plain
// upper-bound Generalized Totalizer; use InvertedGeneralizedTotalizer or
// DoubleGeneralizedTotalizer for those directions.
func (g *GeneralizedTotalizer) EncodeLB(int, int, varmgr.Manager) (cnf.CNF, error) {
	return nil, fmt.Errorf("pb: GeneralizedTotalizer is UB-only: %w", encoding.ErrNoTypeSupport)
}

func (g *GeneralizedTotalizer) EncodeLBChange(int, int, varmgr.Manager) (cnf.CNF, error) {
	return nil, fmt.Errorf("pb: GeneralizedTotalizer is UB-only: %w", encoding.ErrNoTypeSupport)
}

func (g *GeneralizedTotalizer) EnforceLB(int) (cnf.Clause, error) {
	return nil, fmt.Errorf("pb: GeneralizedTotalizer is UB-only: %w", encoding.ErrNoTypeSupport)
}

func (g *GeneralizedTotalizer) EnforceEQ(int) (cnf.Clause, error) {
	return nil, fmt.Errorf("pb: GeneralizedTotalizer is UB-only: %w", encoding.ErrNoTypeSupport)
}

var _ encoding.PseudoBoolean = (*GeneralizedTotalizer)(nil)
