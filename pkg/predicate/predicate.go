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
	"strings"

	"github.com/consensys/go-dectab/pkg/expr"
)

// Kind distinguishes the forms an atomic predicate can take.
type Kind uint8

const (
	// BOOL_VAR signals a direct boolean variable, e.g. "rate_exceeded".
	BOOL_VAR Kind = iota
	// EQUALITY signals an equality test, e.g. "status == \"active\"".
	// Non-equality is not a distinct kind: "x != k" is the logical negation
	// of the corresponding equality.
	EQUALITY
	// COMPARISON signals an order comparison, e.g. "amount > 1000".  Only
	// the four order operators appear here; negation is kept separate, so
	// "x < k" and "x >= k" remain distinct predicates.
	COMPARISON
	// MEMBERSHIP signals a membership test, e.g. "region in [\"US\",\"EU\"]".
	// Extraction decomposes membership into a disjunction of equalities, so
	// this kind appears only when a predicate is built directly.
	MEMBERSHIP
	// STRING_OP signals a string operation, e.g. "name.startsWith(\"test\")".
	STRING_OP
	// OPAQUE signals an expression the dialect cannot model, preserved
	// verbatim and treated as an independent boolean.
	OPAQUE
)

// Predicate represents an indivisible boolean question about the inputs of a
// decision table.  Predicates are canonicalized on construction and interned
// by a Set; structural equality is equality of the canonical rendering.
type Predicate struct {
	kind Kind
	// Variable being inspected (or the verbatim text for OPAQUE).
	variable string
	// Comparison operator (COMPARISON only).
	op expr.CmpOp
	// Literal operand (EQUALITY / COMPARISON).
	value expr.Value
	// Literal operands (MEMBERSHIP only).
	values []expr.Value
	// String operation (STRING_OP only).
	strop expr.StrOpKind
	// String operand (STRING_OP only).
	arg string
}

// BoolVar constructs a predicate testing a boolean variable directly.
func BoolVar(variable string) Predicate {
	return Predicate{kind: BOOL_VAR, variable: variable}
}

// Equality constructs a predicate testing a variable against a literal.
func Equality(variable string, value expr.Value) Predicate {
	return Predicate{kind: EQUALITY, variable: variable, value: value}
}

// Comparison constructs an order-comparison predicate.  Only the four order
// operators are permitted.
func Comparison(variable string, op expr.CmpOp, value expr.Value) Predicate {
	if op == expr.EQ || op == expr.NEQ {
		panic("equality is not an order comparison")
	}
	//
	return Predicate{kind: COMPARISON, variable: variable, op: op, value: value}
}

// Membership constructs a membership predicate over a set of literals.
func Membership(variable string, values []expr.Value) Predicate {
	return Predicate{kind: MEMBERSHIP, variable: variable, values: values}
}

// StringOp constructs a string-operation predicate.
func StringOp(variable string, op expr.StrOpKind, arg string) Predicate {
	return Predicate{kind: STRING_OP, variable: variable, strop: op, arg: arg}
}

// Opaque constructs a predicate wrapping an expression the dialect cannot
// model.  The text is preserved verbatim.
func Opaque(text string) Predicate {
	return Predicate{kind: OPAQUE, variable: text}
}

// Kind returns the kind of this predicate.
func (p *Predicate) Kind() Kind {
	return p.kind
}

// Variable returns the variable this predicate inspects.  For opaque
// predicates, this is the verbatim text.
func (p *Predicate) Variable() string {
	return p.variable
}

// Value returns the literal operand of an equality or comparison predicate.
func (p *Predicate) Value() expr.Value {
	return p.value
}

// Op returns the operator of a comparison predicate.
func (p *Predicate) Op() expr.CmpOp {
	return p.op
}

// String returns the canonical rendering of this predicate in the dialect.
// Interning is keyed by this rendering.
func (p *Predicate) String() string {
	switch p.kind {
	case BOOL_VAR, OPAQUE:
		return p.variable
	case EQUALITY:
		return p.variable + " == " + p.value.String()
	case COMPARISON:
		return p.variable + " " + p.op.String() + " " + p.value.String()
	case MEMBERSHIP:
		var builder strings.Builder
		//
		builder.WriteString(p.variable)
		builder.WriteString(" in [")
		//
		for i, v := range p.values {
			if i != 0 {
				builder.WriteString(", ")
			}
			//
			builder.WriteString(v.String())
		}
		//
		builder.WriteString("]")
		//
		return builder.String()
	default:
		return p.variable + "." + p.strop.String() + "(" + expr.StringValue(p.arg).String() + ")"
	}
}

// NegatedString returns a rendering of the logical negation of this
// predicate.  The rendering is chosen such that parsing it back and
// re-extracting yields the same predicate (with negative polarity), hence
// order comparisons render as "!(x < k)" rather than "x >= k".
func (p *Predicate) NegatedString() string {
	switch p.kind {
	case BOOL_VAR:
		return "!" + p.variable
	case OPAQUE:
		return "!(" + p.variable + ")"
	case EQUALITY:
		return p.variable + " != " + p.value.String()
	case STRING_OP:
		return "!" + p.String()
	default:
		return "!(" + p.String() + ")"
	}
}

// Render this predicate under the given polarity.
func (p *Predicate) Render(positive bool) string {
	if positive {
		return p.String()
	}
	//
	return p.NegatedString()
}

// SortKey returns the key used to order predicate renderings within reports:
// alphabetical by variable name, then by operator, then by the canonical
// rendering.
func (p *Predicate) SortKey() (string, string, string) {
	var op string
	//
	switch p.kind {
	case EQUALITY:
		op = "=="
	case COMPARISON:
		op = p.op.String()
	case MEMBERSHIP:
		op = "in"
	case STRING_OP:
		op = p.strop.String()
	}
	//
	return p.variable, op, p.String()
}

// Cmp orders predicates by their sort key.
func (p *Predicate) Cmp(o Predicate) int {
	pv, po, ps := p.SortKey()
	ov, oo, os := o.SortKey()
	//
	if c := strings.Compare(pv, ov); c != 0 {
		return c
	} else if c := strings.Compare(po, oo); c != 0 {
		return c
	}
	//
	return strings.Compare(ps, os)
}
