// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package predicate

import (
	"errors"
	"slices"

	"github.com/consensys/go-dectab/pkg/expr"
)

// DNF_CEILING bounds the number of product terms sum-of-products conversion
// may produce.  Arbitrary nested disjunction converts to 2^depth terms, so
// machine-generated conditions can blow up; beyond the ceiling conversion
// aborts rather than attempting partial results.
const DNF_CEILING = 1 << 16

// ErrDnfOverflow signals that sum-of-products conversion exceeded the fixed
// ceiling.
var ErrDnfOverflow = errors.New("sum-of-products conversion exceeds ceiling")

// Formula is a purely boolean formula over indices into a predicate Set.
// Evaluating a formula under any consistent assignment of truth values to the
// interned predicates yields the same truth value as the expression it was
// extracted from.
type Formula interface {
	// Eval evaluates this formula under a given assignment, where bit i of
	// the assignment gives the truth value of predicate i.
	Eval(assignment uint64) bool
}

// Literal is a formula consisting of a single (possibly negated) predicate.
type Literal struct {
	// Index of the predicate within its set.
	Index uint
	// Positive indicates the polarity of the literal.
	Positive bool
}

// Negate returns this literal with flipped polarity.
func (p Literal) Negate() Literal {
	return Literal{p.Index, !p.Positive}
}

// Eval implementation for the Formula interface.
func (p Literal) Eval(assignment uint64) bool {
	return ((assignment>>p.Index)&1 == 1) == p.Positive
}

// Constant is a formula which is identically true or false.
type Constant struct {
	Value bool
}

// Eval implementation for the Formula interface.
func (p Constant) Eval(uint64) bool {
	return p.Value
}

// And is the conjunction of zero or more formulas.
type And struct {
	Args []Formula
}

// Eval implementation for the Formula interface.
func (p And) Eval(assignment uint64) bool {
	for _, arg := range p.Args {
		if !arg.Eval(assignment) {
			return false
		}
	}
	//
	return true
}

// Or is the disjunction of zero or more formulas.
type Or struct {
	Args []Formula
}

// Eval implementation for the Formula interface.
func (p Or) Eval(assignment uint64) bool {
	for _, arg := range p.Args {
		if arg.Eval(assignment) {
			return true
		}
	}
	//
	return false
}

// Extraction accumulates the results of extracting predicates from one or
// more expressions against a shared (interning) predicate set.
type Extraction struct {
	// Set of interned predicates, shared across rules.
	Set *Set
	// Unmodeled records the verbatim texts of opaque terms encountered, in
	// extraction order.
	Unmodeled []string
}

// NewExtraction constructs an extraction against a fresh predicate set.
func NewExtraction() *Extraction {
	return &Extraction{NewSet(), nil}
}

// Extract the boolean skeleton of a normalized term.  Every atomic leaf is
// interned into the shared set (retrieving the existing index where the same
// predicate was seen before); the returned formula relates those indices such
// that it evaluates as the original term under any consistent assignment.
func (p *Extraction) Extract(term expr.Term) Formula {
	return p.extract(term, false)
}

func (p *Extraction) extract(term expr.Term, negated bool) Formula {
	switch t := term.(type) {
	case *expr.Lit:
		return Constant{t.Value.AsBool() != negated}
	case *expr.Not:
		return p.extract(t.Arg, !negated)
	case *expr.Conj:
		args := make([]Formula, len(t.Args))
		for i, arg := range t.Args {
			args[i] = p.extract(arg, negated)
		}
		// De Morgan
		if negated {
			return Or{args}
		}
		//
		return And{args}
	case *expr.Disj:
		args := make([]Formula, len(t.Args))
		for i, arg := range t.Args {
			args[i] = p.extract(arg, negated)
		}
		// De Morgan
		if negated {
			return And{args}
		}
		//
		return Or{args}
	case *expr.Ident:
		return p.literal(BoolVar(t.Name), negated)
	case *expr.Cmp:
		return p.extractCmp(t, negated)
	case *expr.Member:
		return p.extractMembership(t, negated)
	case *expr.StrOp:
		ident, ok := t.Arg.(*expr.Ident)
		if !ok {
			return p.opaque(term, negated)
		}
		//
		return p.literal(StringOp(ident.Name, t.Kind, t.Operand), negated)
	default:
		return p.opaque(term, negated)
	}
}

// Extract a comparison leaf.  Only variable-versus-literal comparisons are
// modeled; a literal on the left is mirrored first.  Anything else becomes an
// opaque predicate.
func (p *Extraction) extractCmp(t *expr.Cmp, negated bool) Formula {
	var (
		op       = t.Op
		lhs, rhs = t.Lhs, t.Rhs
	)
	// Mirror "k < x" into "x > k".
	if _, ok := lhs.(*expr.Lit); ok {
		lhs, rhs = rhs, lhs
		op = mirror(op)
	}
	//
	ident, lok := lhs.(*expr.Ident)
	lit, rok := rhs.(*expr.Lit)
	//
	if !lok || !rok {
		return p.opaque(t, negated)
	}
	//
	switch op {
	case expr.EQ:
		return p.literal(Equality(ident.Name, lit.Value), negated)
	case expr.NEQ:
		// Canonicalized as negated equality.
		return p.literal(Equality(ident.Name, lit.Value), !negated)
	default:
		return p.literal(Comparison(ident.Name, op, lit.Value), negated)
	}
}

// Extract a membership leaf as a disjunction of equalities over the same
// underlying predicates (shared with any direct equality tests against the
// same literals).
func (p *Extraction) extractMembership(t *expr.Member, negated bool) Formula {
	ident, ok := t.Arg.(*expr.Ident)
	if !ok {
		return p.opaque(t, negated)
	}
	//
	args := make([]Formula, len(t.Elems))
	for i, elem := range t.Elems {
		args[i] = p.literal(Equality(ident.Name, elem), negated)
	}
	// De Morgan
	if negated {
		return And{args}
	}
	//
	return Or{args}
}

// Intern an atomic predicate and wrap it as a literal of the appropriate
// polarity.
func (p *Extraction) literal(pred Predicate, negated bool) Formula {
	return Literal{p.Set.Add(pred), !negated}
}

// Intern an opaque leaf, recording its text in the unmodeled list.
func (p *Extraction) opaque(term expr.Term, negated bool) Formula {
	var (
		text   = term.String()
		pred   = Opaque(text)
		_, dup = p.Set.IndexOf(pred)
	)
	//
	if !dup {
		p.Unmodeled = append(p.Unmodeled, text)
	}
	//
	return p.literal(pred, negated)
}

// Mirror a comparison operator, for rewriting "k < x" as "x > k".
func mirror(op expr.CmpOp) expr.CmpOp {
	switch op {
	case expr.LT:
		return expr.GT
	case expr.LTEQ:
		return expr.GTEQ
	case expr.GT:
		return expr.LT
	case expr.GTEQ:
		return expr.LTEQ
	default:
		return op
	}
}

// ============================================================================
// Sum of products
// ============================================================================

// Dnf converts a formula into sum-of-products form: a list of product terms,
// each a list of literals over distinct predicate indices.  Contradictory
// products (containing a literal and its negation) are dropped; an empty
// result therefore signals a condition which can never hold.  A result with a
// single empty product is a tautology.  Conversion which would exceed the
// given ceiling aborts with ErrDnfOverflow.
func Dnf(formula Formula, ceiling uint) ([][]Literal, error) {
	terms, err := dnf(formula, ceiling)
	if err != nil {
		return nil, err
	}
	// Drop contradictory products, keeping the remainder in order.
	terms = slices.DeleteFunc(terms, func(t []Literal) bool { return t == nil })
	//
	return terms, nil
}

func dnf(formula Formula, ceiling uint) ([][]Literal, error) {
	switch f := formula.(type) {
	case Literal:
		return [][]Literal{{f}}, nil
	case Constant:
		if f.Value {
			// Single empty product (tautology)
			return [][]Literal{{}}, nil
		}
		// No products (contradiction)
		return nil, nil
	case And:
		return dnfProduct(f.Args, ceiling)
	case Or:
		var terms [][]Literal
		//
		for _, arg := range f.Args {
			ts, err := dnf(arg, ceiling)
			if err != nil {
				return nil, err
			}
			//
			terms = append(terms, ts...)
			//
			if uint(len(terms)) > ceiling {
				return nil, ErrDnfOverflow
			}
		}
		//
		return terms, nil
	default:
		panic("unreachable")
	}
}

// Compute the cartesian product of the child conversions, merging literal
// lists and dropping contradictions (marked as nil products).
func dnfProduct(args []Formula, ceiling uint) ([][]Literal, error) {
	terms := [][]Literal{{}}
	//
	for _, arg := range args {
		ts, err := dnf(arg, ceiling)
		if err != nil {
			return nil, err
		}
		//
		var nterms [][]Literal
		//
		for _, lhs := range terms {
			for _, rhs := range ts {
				nterms = append(nterms, mergeProduct(lhs, rhs))
				//
				if uint(len(nterms)) > ceiling {
					return nil, ErrDnfOverflow
				}
			}
		}
		//
		terms = nterms
	}
	//
	return terms, nil
}

// Merge two products into their conjunction, returning nil if the result is
// contradictory.  A nil operand propagates.
func mergeProduct(lhs []Literal, rhs []Literal) []Literal {
	if (lhs == nil && rhs != nil) || (rhs == nil && lhs != nil) {
		return nil
	}
	//
	merged := slices.Clone(lhs)
	//
	for _, lit := range rhs {
		i := slices.IndexFunc(merged, func(l Literal) bool { return l.Index == lit.Index })
		//
		switch {
		case i < 0:
			merged = append(merged, lit)
		case merged[i].Positive != lit.Positive:
			// Contradiction
			return nil
		}
	}
	//
	return merged
}
