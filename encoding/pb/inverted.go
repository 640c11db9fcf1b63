package pb

import (
	"fmt"

	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/encoding"
	"github.com/ChrisJefferson/gocardinality/varmgr"
)

// InvertedGeneralizedTotalizer is the lower-bound pseudo-boolean
// encoder. It holds no merge logic of its own: a lower bound
// sum(w_i*x_i) >= k is equivalent to sum(w_i*¬x_i) <= totalWeight - k,
// so it simply negates every added literal and delegates to an ordinary
// (upper-bound) GeneralizedTotalizer, translating bounds through that
// identity at the edges.
type InvertedGeneralizedTotalizer struct {
	inner *GeneralizedTotalizer
}

// NewInvertedGeneralizedTotalizer returns an empty LB-only encoder.
func NewInvertedGeneralizedTotalizer() *InvertedGeneralizedTotalizer {
	return &InvertedGeneralizedTotalizer{inner: NewGeneralizedTotalizer()}
}

// Add merges new weighted literals, storing each under its negation in
// the underlying upper-bound tree.
func (iv *InvertedGeneralizedTotalizer) Add(lits []encoding.WeightedLit) {
	negated := make([]encoding.WeightedLit, len(lits))
	for i, wl := range lits {
		negated[i] = encoding.WeightedLit{Lit: wl.Lit.Negation(), Weight: wl.Weight}
	}
	iv.inner.Add(negated)
}

// NLits returns the number of distinct literals currently tracked.
func (iv *InvertedGeneralizedTotalizer) NLits() int {
	return iv.inner.NLits()
}

// EncodeLB is EncodeLBChange starting from an empty encoded range.
func (iv *InvertedGeneralizedTotalizer) EncodeLB(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	return iv.EncodeLBChange(minRHS, maxRHS, vm)
}

// EncodeLBChange widens the encoded range to cover [minRHS, maxRHS],
// translating it through the totalWeight-k identity into the inner
// upper-bound tree's own range.
func (iv *InvertedGeneralizedTotalizer) EncodeLBChange(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	if minRHS < 0 || minRHS > maxRHS {
		return nil, fmt.Errorf("pb: min_rhs=%d max_rhs=%d: %w", minRHS, maxRHS, encoding.ErrInvalidBounds)
	}
	total := iv.inner.totalWeight()
	lo := total - maxRHS
	hi := total - minRHS
	if lo < 0 {
		lo = 0
	}
	return iv.inner.EncodeUBChange(lo, hi, vm)
}

// EnforceLB returns the assumption enforcing the weighted sum >= lb by
// enforcing the negated-literal sum <= totalWeight - lb on the inner
// tree.
func (iv *InvertedGeneralizedTotalizer) EnforceLB(lb int) (cnf.Clause, error) {
	total := iv.inner.totalWeight()
	return iv.inner.EnforceUB(total - lb)
}

// EncodeUB, EncodeUBChange, EnforceUB and EnforceEQ are not supported by
// the inverted tree; use GeneralizedTotalizer or
// DoubleGeneralizedTotalizer for those directions.
func (iv *InvertedGeneralizedTotalizer) EncodeUB(int, int, varmgr.Manager) (cnf.CNF, error) {
	return nil, fmt.Errorf("pb: InvertedGeneralizedTotalizer is LB-only: %w", encoding.ErrNoTypeSupport)
}

func (iv *InvertedGeneralizedTotalizer) EncodeUBChange(int, int, varmgr.Manager) (cnf.CNF, error) {
	return nil, fmt.Errorf("pb: InvertedGeneralizedTotalizer is LB-only: %w", encoding.ErrNoTypeSupport)
}

func (iv *InvertedGeneralizedTotalizer) EnforceUB(int) (cnf.Clause, error) {
	return nil, fmt.Errorf("pb: InvertedGeneralizedTotalizer is LB-only: %w", encoding.ErrNoTypeSupport)
}

func (iv *InvertedGeneralizedTotalizer) EnforceEQ(int) (cnf.Clause, error) {
	return nil, fmt.Errorf("pb: InvertedGeneralizedTotalizer is LB-only: %w", encoding.ErrNoTypeSupport)
}

var _ encoding.PseudoBoolean = (*InvertedGeneralizedTotalizer)(nil)
