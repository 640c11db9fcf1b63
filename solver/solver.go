// Package solver is a thin wrapper around github.com/go-air/gini, the
// incremental SAT backend used to drive the encoders in package
// encoding/* to a concrete answer. It owns
// translation between this module's signed-integer lit.Lit and gini's own
// z.Lit coding; callers never see a z.Lit.
package solver

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/lit"
)

// Status is the three-valued outcome of a solve call, named to match this
// repository's Go conventions rather than gini's raw int coding.
type Status int

const (
	// Unsat means the given clauses (and, for SolveAssumps, the given
	// assumptions) are unsatisfiable.
	Unsat Status = -1
	// Indet means the solver could not decide within its budget. gini
	// only returns this under a Try/timeout variant; Solve and
	// SolveAssumps never produce it today, but callers should still
	// handle it rather than assume Sat/Unsat are exhaustive.
	Indet Status = 0
	// Sat means a satisfying assignment was found.
	Sat Status = 1
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "SAT"
	case Unsat:
		return "UNSAT"
	default:
		return "INDET"
	}
}

// toZ converts this module's DIMACS-style signed Lit into gini's own
// coding (2v / 2v+1), via gini's own z.Dimacs2Lit helper so both sides
// agree on which integer denotes which variable.
func toZ(l lit.Lit) z.Lit {
	return z.Dimacs2Lit(int(l.Int()))
}

// Solver drives a gini instance. The zero value is not usable; construct
// one with New.
type Solver struct {
	g *gini.Gini
}

// New returns a Solver with no clauses added.
func New() *Solver {
	return &Solver{g: gini.New()}
}

// AddClause appends a single clause. Clauses may be added between solves,
// per gini's incremental design.
func (s *Solver) AddClause(c cnf.Clause) {
	for _, l := range c {
		s.g.Add(toZ(l))
	}
	s.g.Add(0)
}

// AddCNF appends every clause of b, in order.
func (s *Solver) AddCNF(b cnf.CNF) {
	for _, c := range b {
		s.AddClause(c)
	}
}

// Solve runs the solver with no assumptions.
func (s *Solver) Solve() Status {
	return Status(s.g.Solve())
}

// SolveAssumps runs the solver under the given unit assumptions, as
// produced by an encoder's EnforceUB/EnforceLB/EnforceEQ call.
func (s *Solver) SolveAssumps(assumps cnf.Clause) Status {
	zs := make([]z.Lit, len(assumps))
	for i, l := range assumps {
		zs[i] = toZ(l)
	}
	s.g.Assume(zs...)
	return Status(s.g.Solve())
}

// Val reports the truth value assigned to l's variable by the most recent
// Sat result. Its return is meaningless after an Unsat or Indet solve.
func (s *Solver) Val(l lit.Lit) bool {
	v := s.g.Value(toZ(l))
	if !l.IsPositive() {
		return !v
	}
	return v
}

// Model evaluates every variable strictly below maxVar and returns the
// set of ones assigned true, mirroring gophersat's ModelMap convention.
// Meaningless after an Unsat or Indet solve.
func (s *Solver) Model(maxVar lit.Var) map[lit.Var]bool {
	m := make(map[lit.Var]bool, int(maxVar))
	for v := lit.Var(0); v < maxVar; v++ {
		m[v] = s.Val(lit.New(v))
	}
	return m
}

// FailedAssumptions returns the subset of assumps that belong to the
// unsat core of the most recent SolveAssumps call, via gini's own Why.
// Meaningless (and possibly empty) unless that call returned Unsat.
func (s *Solver) FailedAssumptions(assumps cnf.Clause) cnf.Clause {
	core := make(map[z.Lit]struct{}, len(assumps))
	for _, zl := range s.g.Why(nil) {
		core[zl] = struct{}{}
	}
	var out cnf.Clause
	for _, l := range assumps {
		if _, ok := core[toZ(l)]; ok {
			out = append(out, l)
		}
	}
	return out
}
