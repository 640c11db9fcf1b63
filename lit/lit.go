// Package lit provides the signed-integer variable and literal primitives
// shared by every encoder in this repository.
package lit

import "fmt"

// A Var is a zero-based variable index. Variables are allocated by a
// varmgr.Manager and never reused.
type Var int32

// Lit is a literal: a variable together with a sign. It uses the
// conventional DIMACS-style signed-integer coding, where variable v and
// sign s map to ±(v+1); 0 is reserved (never a valid Lit) so it can serve
// as a terminator on the wire.
type Lit int32

// New returns the positive literal of v.
func New(v Var) Lit {
	return Lit(v + 1)
}

// IntToLit converts a nonzero signed DIMACS integer into a Lit.
func IntToLit(i int32) Lit {
	if i == 0 {
		panic("lit: 0 is not a valid literal")
	}
	return Lit(i)
}

// Var returns the variable underlying l.
func (l Lit) Var() Var {
	if l < 0 {
		return Var(-l - 1)
	}
	return Var(l - 1)
}

// IsPositive returns true iff l is not negated.
func (l Lit) IsPositive() bool {
	return l > 0
}

// Negation returns the negation of l.
func (l Lit) Negation() Lit {
	return -l
}

// Not is a shorter alias for Negation.
func (l Lit) Not() Lit {
	return -l
}

// Int returns the external signed-integer encoding of l, i.e. ±(v+1).
func (l Lit) Int() int32 {
	return int32(l)
}

// Int returns the external zero-based integer value of v.
func (v Var) Int() int32 {
	return int32(v)
}

func (l Lit) String() string {
	return fmt.Sprintf("%d", l.Int())
}

func (v Var) String() string {
	return fmt.Sprintf("x%d", v.Int())
}

// Less gives the total order on literals induced by (index, sign): first
// by variable index, then negative before positive.
func Less(a, b Lit) bool {
	if a.Var() != b.Var() {
		return a.Var() < b.Var()
	}
	return a.IsPositive() != b.IsPositive() && !a.IsPositive()
}
