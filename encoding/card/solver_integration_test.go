package card

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/encoding"
	"github.com/ChrisJefferson/gocardinality/lit"
	"github.com/ChrisJefferson/gocardinality/solver"
	"github.com/ChrisJefferson/gocardinality/varmgr"
)

// TestTotalizerEnforceUBViaSolver drives a Both-direction totalizer
// through an actual solver.Solver instead of brute-force enumeration:
// with exactly 2 of 5 inputs forced true, the solver should accept
// enforce_ub(2) and reject enforce_ub(1).
func TestTotalizerEnforceUBViaSolver(t *testing.T) {
	const n = 5
	vm := varmgr.NewBasic()
	lits := make([]lit.Lit, n)
	for i := 0; i < n; i++ {
		lits[i] = lit.New(vm.NewVar())
	}

	tot := New(encoding.Both)
	tot.Add(lits)
	out, err := tot.Encode(0, n, vm)
	require.NoError(t, err)

	base := solver.New()
	base.AddCNF(out)
	// Fix exactly the first two inputs true, the rest false.
	for i, l := range lits {
		unit := l
		if i >= 2 {
			unit = l.Negation()
		}
		base.AddClause(cnf.Clause{unit})
	}

	ub2, err := tot.EnforceUB(2)
	require.NoError(t, err)
	require.Equal(t, solver.Sat, base.SolveAssumps(ub2))

	ub1, err := tot.EnforceUB(1)
	require.NoError(t, err)
	require.Equal(t, solver.Unsat, base.SolveAssumps(ub1))
}

// TestTotalizerEnforceLBViaSolver mirrors the UB case for the
// lower-bound direction over the same fixed assignment.
func TestTotalizerEnforceLBViaSolver(t *testing.T) {
	const n = 5
	vm := varmgr.NewBasic()
	lits := make([]lit.Lit, n)
	for i := 0; i < n; i++ {
		lits[i] = lit.New(vm.NewVar())
	}

	tot := New(encoding.Both)
	tot.Add(lits)
	out, err := tot.Encode(0, n, vm)
	require.NoError(t, err)

	base := solver.New()
	base.AddCNF(out)
	for i, l := range lits {
		unit := l
		if i >= 2 {
			unit = l.Negation()
		}
		base.AddClause(cnf.Clause{unit})
	}

	lb2, err := tot.EnforceLB(2)
	require.NoError(t, err)
	require.Equal(t, solver.Sat, base.SolveAssumps(lb2))

	lb3, err := tot.EnforceLB(3)
	require.NoError(t, err)
	require.Equal(t, solver.Unsat, base.SolveAssumps(lb3))
}

// TestTotalizerModelMatchesEnforcedCount solves a totalizer with no
// fixed assignment beyond enforce_eq(3), and checks the model gini
// returns actually has 3 of the input literals true.
func TestTotalizerModelMatchesEnforcedCount(t *testing.T) {
	const n = 6
	vm := varmgr.NewBasic()
	lits := make([]lit.Lit, n)
	for i := 0; i < n; i++ {
		lits[i] = lit.New(vm.NewVar())
	}

	tot := New(encoding.Both)
	tot.Add(lits)
	out, err := tot.EncodeChange(3, 3, vm)
	require.NoError(t, err)

	s := solver.New()
	s.AddCNF(out)
	eq, err := tot.EnforceEQ(3)
	require.NoError(t, err)
	require.Equal(t, solver.Sat, s.SolveAssumps(eq))

	count := 0
	for _, l := range lits {
		if s.Val(l) {
			count++
		}
	}
	require.Equal(t, 3, count)
}
