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
package expr

import (
	"slices"
)

// Normalize a term of the dialect.  The resulting term satisfies the
// following invariants: negation appears only directly above atomic terms;
// "!=" is rewritten as a negated equality; conjunctions and disjunctions are
// n-ary, flattened, constant-folded, deduplicated and their children sorted
// by the canonical structural key.  Normalization is idempotent.
func Normalize(term Term) Term {
	return normalize(term, false)
}

// Push negation down to the leaves (De Morgan + involution), normalizing as
// we go.
func normalize(term Term, negated bool) Term {
	switch t := term.(type) {
	case *Lit:
		if negated {
			return &Lit{BoolValue(!t.Value.AsBool())}
		}
		//
		return t
	case *Not:
		// Involution
		return normalize(t.Arg, !negated)
	case *Cmp:
		return normalizeCmp(t, negated)
	case *Conj:
		if negated {
			return normalizeNary(t.Args, true, false)
		}
		//
		return normalizeNary(t.Args, false, true)
	case *Disj:
		if negated {
			return normalizeNary(t.Args, true, true)
		}
		//
		return normalizeNary(t.Args, false, false)
	default:
		// Atomic term (Ident, Member, StrOp, Opaque)
		if negated {
			return &Not{term}
		}
		//
		return term
	}
}

// Normalize a comparison.  Non-equality is canonicalized as negated equality;
// other operators keep their polarity as an enclosing negation, rather than
// being flipped into their complement (whether "x < k" and "x >= k" are
// complementary is a question about the variable's domain which is not
// decided here).
func normalizeCmp(t *Cmp, negated bool) Term {
	var atom Term = t
	//
	if t.Op == NEQ {
		atom = &Cmp{EQ, t.Lhs, t.Rhs}
		negated = !negated
	}
	//
	if negated {
		return &Not{atom}
	}
	//
	return atom
}

// Normalize the children of a conjunction or disjunction (conjunction when
// conjunctive holds), after applying De Morgan (i.e. with negation pushed
// into every child).  Children of the same connective are flattened in;
// constants are folded; duplicates are dropped; the result is sorted.
func normalizeNary(args []Term, negated bool, conjunctive bool) Term {
	var children []Term
	//
	for _, arg := range args {
		child := normalize(arg, negated)
		//
		switch c := child.(type) {
		case *Lit:
			if c.Value.AsBool() == conjunctive {
				// Identity element (true for and, false for or)
				continue
			}
			// Absorbing element
			return &Lit{BoolValue(!conjunctive)}
		case *Conj:
			if conjunctive {
				children = append(children, c.Args...)
				continue
			}
		case *Disj:
			if !conjunctive {
				children = append(children, c.Args...)
				continue
			}
		}
		//
		children = append(children, child)
	}
	// Sort children by the canonical structural key.
	slices.SortFunc(children, func(a, b Term) int { return a.Cmp(b) })
	// Drop duplicates (idempotence).
	children = slices.CompactFunc(children, func(a, b Term) bool { return a.Cmp(b) == 0 })
	//
	switch {
	case len(children) == 0:
		return &Lit{BoolValue(conjunctive)}
	case len(children) == 1:
		return children[0]
	case conjunctive:
		return &Conj{children}
	default:
		return &Disj{children}
	}
}
