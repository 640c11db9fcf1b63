// Package cnf holds the clause container, treated as a simple append-only
// sink: it does no deduplication or subsumption.
package cnf

import (
	"strings"

	"github.com/ChrisJefferson/gocardinality/lit"
)

// A Clause is an ordered disjunction of literals. Order is irrelevant to
// the clause's semantics but is preserved for reproducibility, as
// the data model requires.
type Clause []lit.Lit

func (c Clause) String() string {
	parts := make([]string, len(c))
	for i, l := range c {
		parts[i] = l.String()
	}
	return strings.Join(parts, " ")
}

// ClauseAdder is anything clauses can be appended to: a CNF, a solver, or
// any other sink an encoder's caller chooses.
type ClauseAdder interface {
	AddClause(c Clause)
}

// CNF is an append-only, order-preserving batch of clauses. It is the
// return type of every encoder's Encode/EncodeChange call.
type CNF []Clause

// AddClause appends a single clause. CNF implements ClauseAdder so it can
// itself be a target for other CNF batches.
func (cnf *CNF) AddClause(c Clause) {
	*cnf = append(*cnf, c)
}

// AddTo hands every clause in cnf to dst, in order.
func (cnf CNF) AddTo(dst ClauseAdder) {
	for _, c := range cnf {
		dst.AddClause(c)
	}
}

// Append appends every clause of other to cnf, in order.
func (cnf *CNF) Append(other CNF) {
	*cnf = append(*cnf, other...)
}
