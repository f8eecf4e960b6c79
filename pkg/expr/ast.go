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
	"strings"
)

// Term represents an arbitrary node of the boolean dialect.  Terms are
// immutable once constructed; normalization always builds fresh nodes.
//
// The canonical rendering produced by String() doubles as the structural key
// for a term: two terms are structurally identical exactly when their
// canonical renderings coincide.  Interning and child sorting both rely on
// this.
type Term interface {
	// String returns the canonical rendering of this term in the dialect.
	String() string
	// Cmp provides a stable total ordering over terms, based on the
	// canonical rendering.
	Cmp(other Term) int
}

// CmpOp identifies a binary comparison operator of the dialect.
type CmpOp uint8

const (
	// EQ signals equality (==)
	EQ CmpOp = iota
	// NEQ signals non-equality (!=)
	NEQ
	// LT signals a strict inequality (<)
	LT
	// LTEQ signals a non-strict inequality (<=)
	LTEQ
	// GT signals a strict inequality (>)
	GT
	// GTEQ signals a non-strict inequality (>=)
	GTEQ
)

// String returns the dialect rendering of this operator.
func (p CmpOp) String() string {
	switch p {
	case EQ:
		return "=="
	case NEQ:
		return "!="
	case LT:
		return "<"
	case LTEQ:
		return "<="
	case GT:
		return ">"
	default:
		return ">="
	}
}

// Negate returns the complementary comparison operator.  Observe predicate
// extraction does not use it: negation stays separate (see pkg/predicate).
func (p CmpOp) Negate() CmpOp {
	switch p {
	case EQ:
		return NEQ
	case NEQ:
		return EQ
	case LT:
		return GTEQ
	case LTEQ:
		return GT
	case GT:
		return LTEQ
	default:
		return LT
	}
}

// StrOpKind identifies a string operation of the dialect.
type StrOpKind uint8

const (
	// STARTS_WITH signals v.startsWith(arg)
	STARTS_WITH StrOpKind = iota
	// ENDS_WITH signals v.endsWith(arg)
	ENDS_WITH
	// CONTAINS signals v.contains(arg)
	CONTAINS
	// MATCHES signals v.matches(arg)
	MATCHES
)

// String returns the dialect method name of this operation.
func (p StrOpKind) String() string {
	switch p {
	case STARTS_WITH:
		return "startsWith"
	case ENDS_WITH:
		return "endsWith"
	case CONTAINS:
		return "contains"
	default:
		return "matches"
	}
}

// StrOpKindOf maps a method name onto a string operation, if it is one.
func StrOpKindOf(name string) (StrOpKind, bool) {
	switch name {
	case "startsWith":
		return STARTS_WITH, true
	case "endsWith":
		return ENDS_WITH, true
	case "contains":
		return CONTAINS, true
	case "matches":
		return MATCHES, true
	}
	//
	return 0, false
}

// ============================================================================
// Nodes
// ============================================================================

// Ident represents a variable reference, possibly a dotted member path such
// as "user.status".
type Ident struct {
	Name string
}

// Lit represents a scalar literal in boolean position (i.e. true / false
// after constant folding, or any literal as a comparison operand).
type Lit struct {
	Value Value
}

// Not represents logical negation.  After normalization, negation appears
// only directly above atomic terms.
type Not struct {
	Arg Term
}

// Cmp represents a binary comparison between a variable and a literal (or,
// more generally, between two terms).
type Cmp struct {
	Op  CmpOp
	Lhs Term
	Rhs Term
}

// Conj represents an n-ary conjunction.  After normalization conjunctions are
// flattened and their children sorted.
type Conj struct {
	Args []Term
}

// Disj represents an n-ary disjunction.  After normalization disjunctions are
// flattened and their children sorted.
type Disj struct {
	Args []Term
}

// Member represents a membership test "v in [l1, ..., lk]".
type Member struct {
	Arg   Term
	Elems []Value
}

// StrOp represents a string operation such as "name.startsWith("test")".
type StrOp struct {
	Kind StrOpKind
	Arg  Term
	// Operand of the operation.
	Operand string
}

// Opaque represents a node the dialect does not model, such as a user-defined
// function call.  The original text is preserved verbatim; extraction maps it
// onto an opaque boolean predicate rather than silently dropping it.
type Opaque struct {
	Text string
}

// ============================================================================
// Rendering
// ============================================================================

func (p *Ident) String() string {
	return p.Name
}

func (p *Lit) String() string {
	return p.Value.String()
}

func (p *Not) String() string {
	switch p.Arg.(type) {
	case *Ident, *Lit, *StrOp, *Opaque:
		return "!" + p.Arg.String()
	default:
		return "!(" + p.Arg.String() + ")"
	}
}

func (p *Cmp) String() string {
	return subterm(p.Lhs) + " " + p.Op.String() + " " + subterm(p.Rhs)
}

func (p *Conj) String() string {
	var builder strings.Builder
	//
	for i, arg := range p.Args {
		if i != 0 {
			builder.WriteString(" && ")
		}
		// Disjunctions bind looser, so require braces.
		if _, ok := arg.(*Disj); ok {
			builder.WriteString("(")
			builder.WriteString(arg.String())
			builder.WriteString(")")
		} else {
			builder.WriteString(arg.String())
		}
	}
	//
	return builder.String()
}

func (p *Disj) String() string {
	var builder strings.Builder
	//
	for i, arg := range p.Args {
		if i != 0 {
			builder.WriteString(" || ")
		}
		//
		builder.WriteString(arg.String())
	}
	//
	return builder.String()
}

func (p *Member) String() string {
	var builder strings.Builder
	//
	builder.WriteString(subterm(p.Arg))
	builder.WriteString(" in [")
	//
	for i, elem := range p.Elems {
		if i != 0 {
			builder.WriteString(", ")
		}
		//
		builder.WriteString(elem.String())
	}
	//
	builder.WriteString("]")
	//
	return builder.String()
}

func (p *StrOp) String() string {
	return subterm(p.Arg) + "." + p.Kind.String() + "(" + StringValue(p.Operand).String() + ")"
}

func (p *Opaque) String() string {
	return p.Text
}

// Render a child of a comparison or call, adding braces around anything which
// is not atomic.
func subterm(t Term) string {
	switch t.(type) {
	case *Ident, *Lit:
		return t.String()
	default:
		return "(" + t.String() + ")"
	}
}

// ============================================================================
// Ordering
// ============================================================================

func (p *Ident) Cmp(o Term) int { return termCmp(p, o) }

func (p *Lit) Cmp(o Term) int { return termCmp(p, o) }

func (p *Not) Cmp(o Term) int { return termCmp(p, o) }

func (p *Cmp) Cmp(o Term) int { return termCmp(p, o) }

func (p *Conj) Cmp(o Term) int { return termCmp(p, o) }

func (p *Disj) Cmp(o Term) int { return termCmp(p, o) }

func (p *Member) Cmp(o Term) int { return termCmp(p, o) }

func (p *StrOp) Cmp(o Term) int { return termCmp(p, o) }

func (p *Opaque) Cmp(o Term) int { return termCmp(p, o) }

func termCmp(lhs Term, rhs Term) int {
	return strings.Compare(lhs.String(), rhs.String())
}
