// Package bf is a small boolean-formula DSL that compiles down to the
// primitives in package cnf and hands the result to package solver. It
// lets a caller build And/Or/Not/Implies/Eq/Xor trees over named
// variables without hand-writing clauses, the same role gophersat's own
// bf package plays over its solver.
package bf

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ChrisJefferson/gocardinality/cnf"
	"github.com/ChrisJefferson/gocardinality/encoding/am1"
	"github.com/ChrisJefferson/gocardinality/lit"
	"github.com/ChrisJefferson/gocardinality/solver"
	"github.com/ChrisJefferson/gocardinality/varmgr"
)

// A Formula is any kind of boolean formula, not necessarily in CNF.
type Formula interface {
	nnf() Formula
	String() string
}

// Solve solves the given formula.
// f is first converted to CNF and handed to the solver package. It
// returns a boolean indicating if the formula was satisfiable; if it
// was, a model is provided, associating each named variable with its
// binding.
func Solve(f Formula) (sat bool, model map[string]bool, err error) {
	return asCNF(f).solve()
}

// Dimacs writes the DIMACS CNF version of the formula on w. Each
// original variable's name is associated with its DIMACS integer in a
// comment between the prolog and the clauses: for instance, if "a" is
// assigned index 1, there is a comment line "c a=1".
func Dimacs(f Formula, w io.Writer) error {
	cf := asCNF(f)
	nbVars := int(cf.vm.MaxVar())
	nbClauses := len(cf.clauses)
	prefix := fmt.Sprintf("p cnf %d %d\n", nbVars, nbClauses)
	if _, err := io.WriteString(w, prefix); err != nil {
		return fmt.Errorf("could not write DIMACS output: %v", err)
	}
	names := make([]string, 0, len(cf.vars.byName))
	for name := range cf.vars.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := cf.vars.byName[name]
		line := fmt.Sprintf("c %s=%d\n", name, v.Int()+1)
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("could not write DIMACS output: %v", err)
		}
	}
	for _, clause := range cf.clauses {
		line := fmt.Sprintf("%s 0\n", clause.String())
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("could not write DIMACS output: %v", err)
		}
	}
	return nil
}

// The "true" constant.
type trueConst struct{}

// True is the constant denoting a tautology.
var True Formula = trueConst{}

func (t trueConst) nnf() Formula   { return t }
func (t trueConst) String() string { return "⊤" }

// The "false" constant.
type falseConst struct{}

// False is the constant denoting a contradiction.
var False Formula = falseConst{}

func (f falseConst) nnf() Formula   { return f }
func (f falseConst) String() string { return "⊥" }

// Var generates a named boolean variable in a formula.
func Var(name string) Formula {
	return pbVar(name)
}

func pbVar(name string) variable {
	return variable{name: name}
}

type variable struct {
	name string
}

func (v variable) nnf() Formula {
	return lit{signed: false, v: v}
}

func (v variable) String() string {
	return v.name
}

type lit struct {
	v      variable
	signed bool
}

func (l lit) nnf() Formula {
	return l
}

func (l lit) String() string {
	if l.signed {
		return "not(" + l.v.name + ")"
	}
	return l.v.name
}

// Not represents a negation. It negates the given subformula.
func Not(f Formula) Formula {
	return not{f}
}

type not [1]Formula

// pushNegation negates every member of subs and hands the result back
// through nnf, so De Morgan's laws apply recursively rather than just at
// the top level.
func pushNegation(subs []Formula) []Formula {
	negated := make([]Formula, len(subs))
	for i, sub := range subs {
		negated[i] = not{sub}.nnf()
	}
	return negated
}

func (n not) nnf() Formula {
	switch f := n[0].(type) {
	case variable:
		return lit{v: f, signed: true}
	case lit:
		return lit{v: f.v, signed: !f.signed}
	case not:
		return f[0].nnf()
	case and:
		return or(pushNegation(f)).nnf()
	case or:
		return and(pushNegation(f)).nnf()
	case trueConst:
		return False
	case falseConst:
		return True
	default:
		panic("invalid formula type")
	}
}

func (n not) String() string {
	return "not(" + n[0].String() + ")"
}

// And generates a conjunction of subformulas.
func And(subs ...Formula) Formula {
	return and(subs)
}

type and []Formula

// collapse reports the chain's final value when flattening left zero or
// one surviving subformula (the empty/identity and singleton cases);
// ok is false when the caller should keep the full flattened chain.
func collapse(flat []Formula, identity Formula) (f Formula, ok bool) {
	switch len(flat) {
	case 0:
		return identity, true
	case 1:
		return flat[0], true
	default:
		return nil, false
	}
}

func (a and) nnf() Formula {
	var flat and
	for _, s := range a {
		switch n := s.nnf().(type) {
		case and: // an and nested in an and flattens into this level
			flat = append(flat, n...)
		case trueConst: // an unconditional true contributes nothing
		case falseConst:
			return False
		default:
			flat = append(flat, n)
		}
	}
	if f, ok := collapse(flat, True); ok {
		return f
	}
	return flat
}

func (a and) String() string {
	strs := make([]string, len(a))
	for i, f := range a {
		strs[i] = f.String()
	}
	return "and(" + strings.Join(strs, ", ") + ")"
}

// Or generates a disjunction of subformulas.
func Or(subs ...Formula) Formula {
	return or(subs)
}

type or []Formula

func (o or) nnf() Formula {
	var flat or
	for _, s := range o {
		switch n := s.nnf().(type) {
		case or: // an or nested in an or flattens into this level
			flat = append(flat, n...)
		case falseConst: // an unconditional false contributes nothing
		case trueConst:
			return True
		default:
			flat = append(flat, n)
		}
	}
	if f, ok := collapse(flat, False); ok {
		return f
	}
	return flat
}

func (o or) String() string {
	strs := make([]string, len(o))
	for i, f := range o {
		strs[i] = f.String()
	}
	return "or(" + strings.Join(strs, ", ") + ")"
}

// Implies indicates a subformula implies another one.
func Implies(f1, f2 Formula) Formula {
	return or{not{f1}, f2}
}

// Eq indicates a subformula is equivalent to another one.
func Eq(f1, f2 Formula) Formula {
	return and{or{not{f1}, f2}, or{f1, not{f2}}}
}

// Xor indicates exactly one of the two given subformulas is true.
func Xor(f1, f2 Formula) Formula {
	return and{or{not{f1}, not{f2}}, or{f1, f2}}
}

// unique is a structural constraint over a fixed set of named variables:
// exactly one of them is true. Unlike every other Formula in this
// package it compiles straight to clauses via am1.Pairwise rather than
// expanding through nnf, so it is a leaf as far as negation and
// simplification are concerned; it is meant to sit at the top level or
// inside an And, not under a Not or inside an Or.
type unique []variable

func (u unique) nnf() Formula { return u }

func (u unique) String() string {
	names := make([]string, len(u))
	for i, v := range u {
		names[i] = v.name
	}
	return "unique(" + strings.Join(names, ", ") + ")"
}

// Unique indicates exactly one of the given variables must be true. The
// at-most-one half is delegated to am1.Pairwise; the at-least-one half
// is a single clause over all the variables.
func Unique(vars ...string) Formula {
	u := make(unique, len(vars))
	for i, v := range vars {
		u[i] = pbVar(v)
	}
	return u
}

// vars maps formula variable names to allocated lit.Var indices, backed
// by a varmgr.Manager so dummy variables (introduced only by CNF
// compilation, never by a Unique constraint) share the same numbering
// space without being reported in a solved model.
type vars struct {
	vm     varmgr.Manager
	byName map[string]lit.Var
}

func newVars() *vars {
	return &vars{vm: varmgr.NewBasic(), byName: make(map[string]lit.Var)}
}

// litValue returns the lit.Lit associated with l's underlying variable,
// allocating a fresh one on first reference.
func (vs *vars) litValue(l lit) lit.Lit {
	v, ok := vs.byName[l.v.name]
	if !ok {
		v = vs.vm.NewVar()
		vs.byName[l.v.name] = v
	}
	if l.signed {
		return lit.New(v).Negation()
	}
	return lit.New(v)
}

func (vs *vars) litValueFromName(name string) lit.Lit {
	return vs.litValue(lit{v: variable{name: name}})
}

// cnfForm is the CNF compilation of a Formula: a clause batch together
// with the variable allocation that produced it.
type cnfForm struct {
	vars    *vars
	vm      varmgr.Manager
	clauses cnf.CNF
}

// solve hands cf's clauses to a fresh solver.Solver and reports the
// outcome, translating a Sat model back to variable names.
func (cf *cnfForm) solve() (sat bool, model map[string]bool, err error) {
	s := solver.New()
	s.AddCNF(cf.clauses)
	if s.Solve() != solver.Sat {
		return false, nil, nil
	}
	model = make(map[string]bool, len(cf.vars.byName))
	for name, v := range cf.vars.byName {
		model[name] = s.Val(lit.New(v))
	}
	return true, model, nil
}

// asCNF returns the CNF compilation of f.
func asCNF(f Formula) *cnfForm {
	vs := newVars()
	var out cnf.CNF
	cnfRec(f.nnf(), vs, &out)
	return &cnfForm{vars: vs, vm: vs.vm, clauses: out}
}

// cnfRec compiles the NNF formula f into clauses appended to out.
func cnfRec(f Formula, vs *vars, out *cnf.CNF) {
	switch f := f.(type) {
	case lit:
		*out = append(*out, cnf.Clause{vs.litValue(f)})
	case and:
		for _, sub := range f {
			cnfRec(sub, vs, out)
		}
	case or:
		var clause cnf.Clause
		for _, sub := range f {
			switch sub := sub.(type) {
			case lit:
				clause = append(clause, vs.litValue(sub))
			case and:
				d := vs.vm.NewVar()
				clause = append(clause, lit.New(d))
				for _, sub2 := range sub {
					var inner cnf.CNF
					cnfRec(sub2, vs, &inner)
					c := append(cnf.Clause{}, inner[0]...)
					c = append(c, lit.New(d).Negation())
					*out = append(*out, c)
				}
			default:
				panic("unexpected or in or")
			}
		}
		*out = append(*out, clause)
	case unique:
		lits := make([]lit.Lit, len(f))
		for i, v := range f {
			lits[i] = vs.litValueFromName(v.name)
		}
		p := am1.New()
		p.Extend(lits)
		amo, err := p.Encode(vs.vm)
		if err != nil {
			panic(fmt.Sprintf("bf: Unique over malformed literal set: %v", err))
		}
		*out = append(*out, amo...)
		clause := make(cnf.Clause, len(lits))
		copy(clause, lits)
		*out = append(*out, clause)
	case trueConst: // True clauses are ignored
	case falseConst: // An empty clause is trivially unsatisfiable.
		*out = append(*out, cnf.Clause{})
	default:
		panic("invalid NNF formula")
	}
}
