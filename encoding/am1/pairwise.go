// Package am1 implements at-most-one CNF encodings.
package am1

import (
	"fmt"

	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/encoding"
	"github.com/ChrisJefferson/gocardinality/lit"
	"github.com/ChrisJefferson/gocardinality/varmgr"
)

// Pairwise is the naive at-most-one encoding: it emits ¬lᵢ ∨ ¬lⱼ for every
// pair i<j. It allocates no auxiliary variables and has no incremental
// contract beyond simple extension — repeated Encode calls on the same
// state yield the same clause set.
type Pairwise struct {
	lits []lit.Lit
}

// New returns an empty Pairwise encoder.
func New() *Pairwise {
	return &Pairwise{}
}

// Extend appends lits to the encoder's input set.
func (p *Pairwise) Extend(lits []lit.Lit) {
	p.lits = append(p.lits, lits...)
}

// NLits returns the number of literals added so far.
func (p *Pairwise) NLits() int {
	return len(p.lits)
}

// Encode returns the C(n,2) pairwise clauses forbidding two input literals
// from being true simultaneously. It fails with ErrInvalidInput if the
// input set contains a literal and its negation, since that would assert
// something trivially equivalent to an at-most-one over equal things — the
// encoder surfaces this as a likely caller bug rather than silently
// accepting it.
func (p *Pairwise) Encode(vm varmgr.Manager) (cnf.CNF, error) {
	seen := make(map[lit.Var]lit.Lit, len(p.lits))
	for _, l := range p.lits {
		if other, ok := seen[l.Var()]; ok && other != l {
			return nil, fmt.Errorf("am1: literal %v and its negation both present: %w", l, encoding.ErrInvalidInput)
		}
		seen[l.Var()] = l
	}

	var out cnf.CNF
	for i := 0; i < len(p.lits); i++ {
		for j := i + 1; j < len(p.lits); j++ {
			out = append(out, cnf.Clause{p.lits[i].Negation(), p.lits[j].Negation()})
		}
	}
	return out, nil
}
