package pb

import (
	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/encoding"
	"github.com/ChrisJefferson/gocardinality/varmgr"
)

// DoubleGeneralizedTotalizer supports all three directions by holding
// two independent trees: an ordinary GeneralizedTotalizer for the upper
// bound and an InvertedGeneralizedTotalizer for the lower bound. The two
// trees share no nodes; every Add, Encode and Enforce call is simply
// dispatched to both.
type DoubleGeneralizedTotalizer struct {
	ub *GeneralizedTotalizer
	lb *InvertedGeneralizedTotalizer
}

// NewDoubleGeneralizedTotalizer returns an empty Both-direction encoder.
func NewDoubleGeneralizedTotalizer() *DoubleGeneralizedTotalizer {
	return &DoubleGeneralizedTotalizer{
		ub: NewGeneralizedTotalizer(),
		lb: NewInvertedGeneralizedTotalizer(),
	}
}

// Add merges new weighted literals into both trees.
func (d *DoubleGeneralizedTotalizer) Add(lits []encoding.WeightedLit) {
	d.ub.Add(lits)
	d.lb.Add(lits)
}

// NLits returns the number of distinct literals tracked (the two trees
// always agree, since every Add call reaches both).
func (d *DoubleGeneralizedTotalizer) NLits() int {
	return d.ub.NLits()
}

// EncodeUB encodes the upper-bound tree only.
func (d *DoubleGeneralizedTotalizer) EncodeUB(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	return d.ub.EncodeUB(minRHS, maxRHS, vm)
}

// EncodeUBChange widens the upper-bound tree only.
func (d *DoubleGeneralizedTotalizer) EncodeUBChange(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	return d.ub.EncodeUBChange(minRHS, maxRHS, vm)
}

// EncodeLB encodes the lower-bound tree only.
func (d *DoubleGeneralizedTotalizer) EncodeLB(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	return d.lb.EncodeLB(minRHS, maxRHS, vm)
}

// EncodeLBChange widens the lower-bound tree only.
func (d *DoubleGeneralizedTotalizer) EncodeLBChange(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error) {
	return d.lb.EncodeLBChange(minRHS, maxRHS, vm)
}

// EnforceUB delegates to the upper-bound tree.
func (d *DoubleGeneralizedTotalizer) EnforceUB(ub int) (cnf.Clause, error) {
	return d.ub.EnforceUB(ub)
}

// EnforceLB delegates to the lower-bound tree.
func (d *DoubleGeneralizedTotalizer) EnforceLB(lb int) (cnf.Clause, error) {
	return d.lb.EnforceLB(lb)
}

// EnforceEQ concatenates EnforceUB(eq) and EnforceLB(eq), failing eagerly
// on whichever direction errors first.
func (d *DoubleGeneralizedTotalizer) EnforceEQ(eq int) (cnf.Clause, error) {
	ub, err := d.EnforceUB(eq)
	if err != nil {
		return nil, err
	}
	lb, err := d.EnforceLB(eq)
	if err != nil {
		return nil, err
	}
	return append(ub, lb...), nil
}

var _ encoding.PseudoBoolean = (*DoubleGeneralizedTotalizer)(nil)
