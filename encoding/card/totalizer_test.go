package card

import (
	"errors"
	"testing"

	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/encoding"
	"github.com/ChrisJefferson/gocardinality/lit"
	"github.com/ChrisJefferson/gocardinality/varmgr"
	"github.com/stretchr/testify/require"
)

// evalClause reports whether c is satisfied under assign.
func evalClause(c cnf.Clause, assign map[lit.Var]bool) bool {
	for _, l := range c {
		if assign[l.Var()] == l.IsPositive() {
			return true
		}
	}
	return false
}

// satisfiableWith brute-forces every assignment to auxVars and reports
// whether some combination satisfies every clause, given the fixed
// truth values of the input literals.
func satisfiableWith(clauses cnf.CNF, fixed map[lit.Var]bool, auxVars []lit.Var) bool {
	n := len(auxVars)
	for mask := 0; mask < (1 << n); mask++ {
		assign := make(map[lit.Var]bool, len(fixed)+n)
		for k, v := range fixed {
			assign[k] = v
		}
		for idx, av := range auxVars {
			assign[av] = mask&(1<<idx) != 0
		}
		allOK := true
		for _, c := range clauses {
			if !evalClause(c, assign) {
				allOK = false
				break
			}
		}
		if allOK {
			return true
		}
	}
	return false
}

func auxVarsAbove(vm varmgr.Manager, n int) []lit.Var {
	var out []lit.Var
	for v := lit.Var(n); v < vm.MaxVar(); v++ {
		out = append(out, v)
	}
	return out
}

func sumTrue(fixed map[lit.Var]bool, n int) int {
	c := 0
	for v := lit.Var(0); v < lit.Var(n); v++ {
		if fixed[v] {
			c++
		}
	}
	return c
}

// TestTotalizerUBSoundAndComplete checks, over every assignment of 4
// inputs, that enforce_ub(k) composed with the encoded clauses is
// satisfiable exactly when the true input count is <= k, for every k in
// [0,4].
func TestTotalizerUBSoundAndComplete(t *testing.T) {
	const n = 4
	tot := New(encoding.UB)
	lits := make([]lit.Lit, n)
	for i := 0; i < n; i++ {
		lits[i] = lit.New(lit.Var(i))
	}
	tot.Add(lits)

	vm := varmgr.NewBasic()
	for i := 0; i < n; i++ {
		vm.NewVar()
	}
	out, err := tot.Encode(0, n, vm)
	require.NoError(t, err)

	aux := auxVarsAbove(vm, n)
	for mask := 0; mask < (1 << n); mask++ {
		fixed := make(map[lit.Var]bool, n)
		for i := 0; i < n; i++ {
			fixed[lit.Var(i)] = mask&(1<<i) != 0
		}
		trueCount := sumTrue(fixed, n)
		for k := 0; k <= n; k++ {
			assump, err := tot.EnforceUB(k)
			require.NoError(t, err)
			clauses := append(cnf.CNF{}, out...)
			for _, a := range assump {
				clauses = append(clauses, cnf.Clause{a})
			}
			want := trueCount <= k
			got := satisfiableWith(clauses, fixed, aux)
			require.Equalf(t, want, got, "ub=%d assignment=%v trueCount=%d", k, fixed, trueCount)
		}
	}
}

// TestTotalizerLBSoundAndComplete mirrors the UB test for the lower-bound
// direction.
func TestTotalizerLBSoundAndComplete(t *testing.T) {
	const n = 4
	tot := New(encoding.LB)
	lits := make([]lit.Lit, n)
	for i := 0; i < n; i++ {
		lits[i] = lit.New(lit.Var(i))
	}
	tot.Add(lits)

	vm := varmgr.NewBasic()
	for i := 0; i < n; i++ {
		vm.NewVar()
	}
	out, err := tot.Encode(0, n, vm)
	require.NoError(t, err)

	aux := auxVarsAbove(vm, n)
	for mask := 0; mask < (1 << n); mask++ {
		fixed := make(map[lit.Var]bool, n)
		for i := 0; i < n; i++ {
			fixed[lit.Var(i)] = mask&(1<<i) != 0
		}
		trueCount := sumTrue(fixed, n)
		for k := 0; k <= n; k++ {
			assump, err := tot.EnforceLB(k)
			require.NoError(t, err)
			clauses := append(cnf.CNF{}, out...)
			for _, a := range assump {
				clauses = append(clauses, cnf.Clause{a})
			}
			want := trueCount >= k
			got := satisfiableWith(clauses, fixed, aux)
			require.Equalf(t, want, got, "lb=%d assignment=%v trueCount=%d", k, fixed, trueCount)
		}
	}
}

// TestTotalizerEquality is scenario S2: with 4 inputs and a Both
// totalizer, enforce_eq(3) should only be satisfiable by assignments with
// exactly 3 true inputs.
func TestTotalizerEquality(t *testing.T) {
	const n = 4
	tot := New(encoding.Both)
	lits := make([]lit.Lit, n)
	for i := 0; i < n; i++ {
		lits[i] = lit.New(lit.Var(i))
	}
	tot.Add(lits)

	vm := varmgr.NewBasic()
	for i := 0; i < n; i++ {
		vm.NewVar()
	}
	out, err := tot.Encode(0, n, vm)
	require.NoError(t, err)

	aux := auxVarsAbove(vm, n)
	assump, err := tot.EnforceEQ(3)
	require.NoError(t, err)
	require.Len(t, assump, 2, "enforce_eq should carry one UB and one LB assumption")

	for mask := 0; mask < (1 << n); mask++ {
		fixed := make(map[lit.Var]bool, n)
		for i := 0; i < n; i++ {
			fixed[lit.Var(i)] = mask&(1<<i) != 0
		}
		trueCount := sumTrue(fixed, n)
		clauses := append(cnf.CNF{}, out...)
		for _, a := range assump {
			clauses = append(clauses, cnf.Clause{a})
		}
		want := trueCount == 3
		got := satisfiableWith(clauses, fixed, aux)
		require.Equalf(t, want, got, "assignment=%v trueCount=%d", fixed, trueCount)
	}
}

// TestTotalizerIncrementalWidening is scenario S3: encode a narrow range,
// observe ErrNotEncoded outside it, widen with EncodeChange, and observe
// the new range now works without retracting anything already asserted.
func TestTotalizerIncrementalWidening(t *testing.T) {
	const n = 5
	tot := New(encoding.Both)
	lits := make([]lit.Lit, n)
	for i := 0; i < n; i++ {
		lits[i] = lit.New(lit.Var(i))
	}
	tot.Add(lits)

	vm := varmgr.NewBasic()
	for i := 0; i < n; i++ {
		vm.NewVar()
	}

	first, err := tot.Encode(2, 2, vm)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	_, err = tot.EnforceUB(3)
	require.Error(t, err)
	require.True(t, errors.Is(err, encoding.ErrNotEncoded))

	second, err := tot.EncodeChange(0, 3, vm)
	require.NoError(t, err)
	require.NotEmpty(t, second)

	// Widening never retracts: the first batch of clauses must still all
	// appear in the union of what has been emitted.
	emitted := make(map[string]bool)
	for _, c := range append(cnf.CNF{}, first...) {
		emitted[c.String()] = true
	}
	for _, c := range second {
		emitted[c.String()] = true
	}
	for _, c := range first {
		require.True(t, emitted[c.String()])
	}

	assump, err := tot.EnforceUB(3)
	require.NoError(t, err)
	require.Len(t, assump, 1)

	// Re-requesting the already-covered range is a no-op.
	third, err := tot.EncodeChange(2, 2, vm)
	require.NoError(t, err)
	require.Empty(t, third)

	// Narrowing never shrinks the accumulated encoded range either: the
	// wider value enforced just above must still be accepted.
	assump, err = tot.EnforceUB(3)
	require.NoError(t, err)
	require.Len(t, assump, 1)
}

// TestTotalizerAddAfterEncodeRequiresReencode confirms the lifecycle rule
// once literals are added, stale enforce calls
// fail until the next Encode/EncodeChange.
func TestTotalizerAddAfterEncodeRequiresReencode(t *testing.T) {
	tot := New(encoding.Both)
	tot.Add([]lit.Lit{lit.New(0), lit.New(1)})
	vm := varmgr.NewBasic()
	vm.NewVar()
	vm.NewVar()

	_, err := tot.Encode(0, 2, vm)
	require.NoError(t, err)

	_, err = tot.EnforceUB(1)
	require.NoError(t, err)

	tot.Add([]lit.Lit{lit.New(2)})
	vm.NewVar()
	_, err = tot.EnforceUB(1)
	require.Error(t, err)
	require.True(t, errors.Is(err, encoding.ErrNotEncoded))

	_, err = tot.Encode(0, 3, vm)
	require.NoError(t, err)
	_, err = tot.EnforceUB(1)
	require.NoError(t, err)
}

// TestTotalizerBoundTypeGating is scenario S1's error-path sibling: a
// UB-only totalizer rejects EnforceLB and EnforceEQ eagerly.
func TestTotalizerBoundTypeGating(t *testing.T) {
	tot := New(encoding.UB)
	tot.Add([]lit.Lit{lit.New(0), lit.New(1), lit.New(2)})
	vm := varmgr.NewBasic()
	vm.NewVar()
	vm.NewVar()
	vm.NewVar()
	_, err := tot.Encode(0, 3, vm)
	require.NoError(t, err)

	_, err = tot.EnforceLB(1)
	require.True(t, errors.Is(err, encoding.ErrNoTypeSupport))

	_, err = tot.EnforceEQ(1)
	require.True(t, errors.Is(err, encoding.ErrNoTypeSupport))
}

// TestTotalizerEnforceBeforeEncode confirms enforce_* fails NotEncoded
// before any Encode call has happened.
func TestTotalizerEnforceBeforeEncode(t *testing.T) {
	tot := New(encoding.Both)
	tot.Add([]lit.Lit{lit.New(0)})
	_, err := tot.EnforceUB(0)
	require.True(t, errors.Is(err, encoding.ErrNotEncoded))
}

// TestSplitSizeIsBalanced checks the height invariant driving the node
// split rule directly: a node covering count leaves has height
// ceil(log2(count)).
func TestSplitSizeIsBalanced(t *testing.T) {
	height := func(count int) int {
		h := 0
		for count > 1 {
			count = (count + 1) / 2
			h++
		}
		return h
	}
	var treeHeight func(count int) int
	treeHeight = func(count int) int {
		if count <= 1 {
			return 0
		}
		l := splitSize(count)
		r := count - l
		lh, rh := treeHeight(l), treeHeight(r)
		if lh > rh {
			return lh + 1
		}
		return rh + 1
	}
	for count := 1; count <= 64; count++ {
		require.Equal(t, height(count), treeHeight(count), "count=%d", count)
	}
}
