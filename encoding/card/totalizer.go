// Package card implements the totalizer family of cardinality encodings:
// a balanced binary merge tree of sorted unary counters, encoded lazily
// and incrementally.
package card

import (
	"fmt"

	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/encoding"
	"github.com/ChrisJefferson/gocardinality/lit"
	"github.com/ChrisJefferson/gocardinality/varmgr"
)

type direction int

const (
	dirUB direction = iota
	dirLB
)

type emissionKey struct {
	nodeID  int
	i, j    int
	dir     direction
}

// Totalizer is the balanced-binary-tree cardinality encoder. A single
// instance is gated to one BoundType for its lifetime: a UB totalizer
// only ever builds the "at most" merge
// clauses, an LB one only the "at least" clauses, and a Both totalizer
// builds both families over the same tree.
type Totalizer struct {
	boundType encoding.BoundType

	inputs []lit.Lit
	cache  map[rangeKey]*node
	arena  []*node
	root   *node

	ledger map[emissionKey]struct{}

	hasEncoded     bool
	encMin, encMax int
	everLo, everHi int
	stale          bool
}

// New returns an empty totalizer gated to bt.
func New(bt encoding.BoundType) *Totalizer {
	return &Totalizer{
		boundType: bt,
		cache:     make(map[rangeKey]*node),
		ledger:    make(map[emissionKey]struct{}),
	}
}

// Add appends lits to the encoder's input set. The underlying tree is
// not rebuilt until the next Encode/EncodeChange call; any subsequent
// EnforceUB/EnforceLB/EnforceEQ call before that will fail with
// ErrNotEncoded, since the previous encoding no longer covers the full
// input set.
func (t *Totalizer) Add(lits []lit.Lit) {
	if len(lits) == 0 {
		return
	}
	t.inputs = append(t.inputs, lits...)
	t.root = nil
	t.stale = true
}

// NLits returns the number of literals added so far.
func (t *Totalizer) NLits() int {
	return len(t.inputs)
}

// Encode is EncodeChange starting from an empty encoded range; the two
// behave identically once at least one literal has been added, since
// EncodeChange always widens the union of every range ever requested.
func (t *Totalizer) Encode(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	return t.EncodeChange(minRHS, maxRHS, vm)
}

// EncodeChange widens the encoded range to cover [minRHS, maxRHS] in
// addition to every range previously requested, emitting only the
// clauses needed for newly materialized output positions. It never
// retracts a clause already returned by an earlier call: narrowing, or
// re-requesting an already-covered range, returns an empty CNF.
func (t *Totalizer) EncodeChange(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	if minRHS < 0 || minRHS > maxRHS {
		return nil, fmt.Errorf("card: min_rhs=%d max_rhs=%d: %w", minRHS, maxRHS, encoding.ErrInvalidBounds)
	}
	if len(t.inputs) == 0 {
		return nil, fmt.Errorf("card: no literals added yet: %w", encoding.ErrInvalidInput)
	}

	if t.root == nil {
		t.root = t.buildTree(0, len(t.inputs))
	}

	rootLo := minRHS
	if !t.boundType.SupportsLB() {
		rootLo = minRHS + 1
	}
	rootHi := maxRHS
	if t.boundType.SupportsUB() {
		rootHi = maxRHS + 1
	}

	if !t.hasEncoded {
		t.everLo, t.everHi = rootLo, rootHi
	} else {
		t.everLo = minInt(t.everLo, rootLo)
		t.everHi = maxInt(t.everHi, rootHi)
	}

	var out cnf.CNF
	t.encodeNode(t.root, t.everLo, t.everHi, vm, &out)

	if !t.hasEncoded {
		t.encMin, t.encMax = minRHS, maxRHS
	} else {
		t.encMin = minInt(t.encMin, minRHS)
		t.encMax = maxInt(t.encMax, maxRHS)
	}
	t.hasEncoded = true
	if t.stale {
		// The tree has just been rebuilt over the full current input
		// set above, so the encoding is once again current.
		t.stale = false
	}
	return out, nil
}

// encodeNode recursively materializes n's output variables for the
// S-range [lo, hi] (which may include n's sentinel positions 0 and
// n.count+1), then emits whichever merge clauses became newly valid as a
// result, at n and, through the recursive calls, at every node below it. Children are always
// processed first so their output variables exist before n's clauses
// reference them.
func (t *Totalizer) encodeNode(n *node, lo, hi int, vm varmgr.Manager, out *cnf.CNF) {
	if n.isLeaf {
		return
	}

	a, b := n.left.count, n.right.count
	lLo, lHi := max0(lo-b), minInt(a, hi)
	rLo, rHi := max0(lo-a), minInt(b, hi)
	t.encodeNode(n.left, lLo, lHi, vm, out)
	t.encodeNode(n.right, rLo, rHi, vm, out)

	wantLo := maxInt(1, lo)
	wantHi := minInt(n.count, hi)
	if wantLo > wantHi {
		return
	}
	if !n.initialized {
		n.loS, n.hiS = wantLo, wantHi
		n.initialized = true
	} else {
		n.loS = minInt(n.loS, wantLo)
		n.hiS = maxInt(n.hiS, wantHi)
	}
	for s := n.loS; s <= n.hiS; s++ {
		if _, ok := n.out[s]; !ok {
			n.out[s] = vm.NewVar()
		}
	}

	ub := t.boundType.SupportsUB()
	lb := t.boundType.SupportsLB()
	for i := 0; i <= a; i++ {
		for j := 0; j <= b; j++ {
			s := i + j
			if ub && s >= 1 && s <= n.count && t.nodeHas(n, s) {
				t.tryEmitUB(n, i, j, s, out)
			}
			s2 := s + 1
			if lb && s2 >= 1 && s2 <= n.count && t.nodeHas(n, s2) {
				t.tryEmitLB(n, i, j, s2, out)
			}
		}
	}
}

// nodeHas reports whether n's output variable for position s has been
// materialized.
func (t *Totalizer) nodeHas(n *node, s int) bool {
	if !n.initialized || s < n.loS || s > n.hiS {
		return false
	}
	_, ok := n.out[s]
	return ok
}

// litAt returns the literal standing for "n's partial sum is >= k",
// honoring the sentinel convention out[0] = true. ready is false when k
// falls inside n's real range but hasn't been materialized yet; it is
// never called with k above n.count (those combinations are filtered out
// by the caller, since they correspond to the sentinel out[count+1] =
// false and make the whole clause trivially satisfied).
func litAt(n *node, k int) (l lit.Lit, isTrivialTrue bool, ready bool) {
	if k <= 0 {
		return 0, true, true
	}
	if n.isLeaf {
		if k == 1 {
			return n.leafLit, false, true
		}
		return 0, false, false
	}
	if k < n.loS || k > n.hiS || !n.initialized {
		return 0, false, false
	}
	v, ok := n.out[k]
	if !ok {
		return 0, false, false
	}
	return lit.New(v), false, true
}

// tryEmitUB emits ¬L.out[i] ∨ ¬R.out[j] ∨ N.out[s] for pair (i, j), if
// both children's literals are ready and the clause was not already
// emitted.
func (t *Totalizer) tryEmitUB(n *node, i, j, s int, out *cnf.CNF) {
	key := emissionKey{n.id, i, j, dirUB}
	if _, done := t.ledger[key]; done {
		return
	}
	var clause cnf.Clause
	if i > 0 {
		l, _, ready := litAt(n.left, i)
		if !ready {
			return
		}
		clause = append(clause, l.Negation())
	}
	if j > 0 {
		l, _, ready := litAt(n.right, j)
		if !ready {
			return
		}
		clause = append(clause, l.Negation())
	}
	clause = append(clause, lit.New(n.out[s]))
	*out = append(*out, clause)
	t.ledger[key] = struct{}{}
}

// tryEmitLB emits L.out[i+1] ∨ R.out[j+1] ∨ ¬N.out[s2] for pair (i, j)
// where s2 = i+j+1, dropping any side whose index is n's own sentinel
// false position.
func (t *Totalizer) tryEmitLB(n *node, i, j, s2 int, out *cnf.CNF) {
	key := emissionKey{n.id, i, j, dirLB}
	if _, done := t.ledger[key]; done {
		return
	}
	var clause cnf.Clause
	if i+1 <= n.left.count {
		l, _, ready := litAt(n.left, i+1)
		if !ready {
			return
		}
		clause = append(clause, l)
	}
	if j+1 <= n.right.count {
		l, _, ready := litAt(n.right, j+1)
		if !ready {
			return
		}
		clause = append(clause, l)
	}
	clause = append(clause, lit.New(n.out[s2]).Negation())
	*out = append(*out, clause)
	t.ledger[key] = struct{}{}
}

func (t *Totalizer) checkEncoded(k int) error {
	if t.stale || !t.hasEncoded {
		return fmt.Errorf("card: not encoded for requested value: %w", encoding.ErrNotEncoded)
	}
	if k < t.encMin || k > t.encMax {
		return fmt.Errorf("card: %d outside last encoded range [%d,%d]: %w", k, t.encMin, t.encMax, encoding.ErrNotEncoded)
	}
	return nil
}

// EnforceUB returns the single assumption enforcing sum(lits) <= ub, or
// an empty clause if ub already exceeds the number of inputs.
func (t *Totalizer) EnforceUB(ub int) (cnf.Clause, error) {
	if !t.boundType.SupportsUB() {
		return nil, fmt.Errorf("card: totalizer built with bound type %v: %w", t.boundType, encoding.ErrNoTypeSupport)
	}
	if err := t.checkEncoded(ub); err != nil {
		return nil, err
	}
	k := ub + 1
	if k > len(t.inputs) {
		return cnf.Clause{}, nil
	}
	v, ok := t.root.out[k]
	if !ok {
		return nil, fmt.Errorf("card: position %d not materialized: %w", k, encoding.ErrNotEncoded)
	}
	return cnf.Clause{lit.New(v).Negation()}, nil
}

// EnforceLB returns the single assumption enforcing sum(lits) >= lb, or
// an empty clause if lb is zero. A negative lb lies outside the encoded
// range and fails with ErrNotEncoded.
func (t *Totalizer) EnforceLB(lb int) (cnf.Clause, error) {
	if !t.boundType.SupportsLB() {
		return nil, fmt.Errorf("card: totalizer built with bound type %v: %w", t.boundType, encoding.ErrNoTypeSupport)
	}
	if err := t.checkEncoded(lb); err != nil {
		return nil, err
	}
	if lb < 1 {
		return cnf.Clause{}, nil
	}
	v, ok := t.root.out[lb]
	if !ok {
		return nil, fmt.Errorf("card: position %d not materialized: %w", lb, encoding.ErrNotEncoded)
	}
	return cnf.Clause{lit.New(v)}, nil
}

// EnforceEQ returns the concatenation of EnforceUB(eq) and
// EnforceLB(eq). It fails eagerly with ErrNoTypeSupport on whichever
// direction the encoder's BoundType doesn't cover, without attempting
// the other.
func (t *Totalizer) EnforceEQ(eq int) (cnf.Clause, error) {
	if !t.boundType.SupportsUB() || !t.boundType.SupportsLB() {
		return nil, fmt.Errorf("card: totalizer built with bound type %v: %w", t.boundType, encoding.ErrNoTypeSupport)
	}
	ub, err := t.EnforceUB(eq)
	if err != nil {
		return nil, err
	}
	lb, err := t.EnforceLB(eq)
	if err != nil {
		return nil, err
	}
	return append(ub, lb...), nil
}
