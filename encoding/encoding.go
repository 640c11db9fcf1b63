// Package encoding defines the shared contract every counting-constraint
// encoder in this repository implements and the
// error taxonomy they raise.
package encoding

import (
	"errors"

	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/lit"
	"github.com/ChrisJefferson/gocardinality/varmgr"
)

// BoundType declares which direction(s) of bound an encoder instance
// supports. It is carried as a plain tagged value on the encoder struct,
// not expressed via an interface hierarchy.
type BoundType int

const (
	// UB encoders support only enforce_ub.
	UB BoundType = iota
	// LB encoders support only enforce_lb.
	LB
	// Both encoders support enforce_ub, enforce_lb and enforce_eq.
	Both
)

func (b BoundType) String() string {
	switch b {
	case UB:
		return "UB"
	case LB:
		return "LB"
	case Both:
		return "BOTH"
	default:
		return "unknown"
	}
}

// SupportsUB reports whether b allows upper-bound enforcement.
func (b BoundType) SupportsUB() bool { return b == UB || b == Both }

// SupportsLB reports whether b allows lower-bound enforcement.
func (b BoundType) SupportsLB() bool { return b == LB || b == Both }

// Error kinds raised by encoders and collaborators.
// Callers match them with errors.Is; encoders wrap these sentinels with
// fmt.Errorf("...: %w", ErrX) to attach context.
var (
	// ErrNoTypeSupport is returned when an enforce_* call is invoked in a
	// direction the encoder's declared BoundType does not support.
	ErrNoTypeSupport = errors.New("encoding: bound type not supported by this encoder")
	// ErrInvalidBounds is returned when min_rhs > max_rhs or min_rhs is
	// negative. A max_rhs above the structural maximum (the number of
	// inputs, or the sum of weights) is not rejected: the encoders clamp
	// it to that maximum.
	ErrInvalidBounds = errors.New("encoding: invalid rhs bounds")
	// ErrNotEncoded is returned by enforce_* when the requested value
	// falls outside the encoder's encoded range, or inputs grew since the
	// last Encode/EncodeChange call.
	ErrNotEncoded = errors.New("encoding: value not in encoded range")
	// ErrInvalidInput is returned for malformed literal sets: a weight of
	// zero or less, an encode call with no literals added, or (for am1) a
	// literal and its negation both present.
	ErrInvalidInput = errors.New("encoding: malformed literal input")
)

// Cardinality is the trait surface for unweighted counting encoders
// (specialized to weight-1 inputs).
type Cardinality interface {
	// Add appends literals to the encoder's input set.
	Add(lits []lit.Lit)
	// NLits returns the number of literals added so far.
	NLits() int
	// Encode lazily encodes the constraint for rhs values in
	// [minRHS, maxRHS]. It must be called at least once before the
	// corresponding Enforce* call.
	Encode(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error)
	// EncodeChange extends a previous encoding to a new (possibly wider)
	// range, without retracting any clause already emitted. It never
	// unasserts: narrowing the range is a no-op that returns no clauses.
	EncodeChange(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error)
	// EnforceUB returns assumptions enforcing sum(lits) <= ub.
	EnforceUB(ub int) (cnf.Clause, error)
	// EnforceLB returns assumptions enforcing sum(lits) >= lb.
	EnforceLB(lb int) (cnf.Clause, error)
	// EnforceEQ returns assumptions enforcing sum(lits) == eq.
	EnforceEQ(eq int) (cnf.Clause, error)
}

// WeightedLit pairs a literal with a strictly positive integer weight, the
// pseudo-boolean input unit.
type WeightedLit struct {
	Lit    lit.Lit
	Weight int
}

// PseudoBoolean is the trait surface for weighted (PB) counting encoders.
// Unlike Cardinality, encode and encode_change are split by direction:
// some PB encoding libraries split EncodeUB/EncodeLB (and
// the Double variant's EncodeBoth) rather than taking one bound-type
// parameter, because a PB upper-bound tree and its inverted lower-bound
// counterpart are built over different leaf weights.
type PseudoBoolean interface {
	// Add merges new weighted literals into the encoder's input
	// multiset, normalizing duplicate literals and literal/negation
	// pairs.
	Add(lits []WeightedLit)
	// NLits returns the number of distinct literals added so far.
	NLits() int
	// EncodeUB lazily encodes the upper-bound direction for rhs values
	// in [minRHS, maxRHS]. ErrNoTypeSupport if the encoder doesn't
	// support UB.
	EncodeUB(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error)
	// EncodeUBChange extends a previous UB encoding to a new range
	// without retracting any clause already emitted.
	EncodeUBChange(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error)
	// EncodeLB is EncodeUB's lower-bound counterpart.
	EncodeLB(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error)
	// EncodeLBChange is EncodeUBChange's lower-bound counterpart.
	EncodeLBChange(minRHS, maxRHS int, vm varmgr.Manager) (cnf.CNF, error)
	// EnforceUB returns assumptions enforcing the weighted sum <= ub.
	EnforceUB(ub int) (cnf.Clause, error)
	// EnforceLB returns assumptions enforcing the weighted sum >= lb.
	EnforceLB(lb int) (cnf.Clause, error)
	// EnforceEQ returns assumptions enforcing the weighted sum == eq.
	EnforceEQ(eq int) (cnf.Clause, error)
}
