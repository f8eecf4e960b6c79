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
	"testing"

	"github.com/consensys/go-dectab/pkg/expr"
)

func Test_Extract_01(t *testing.T) {
	ext := testExtract(t, "rate_exceeded")
	//
	testPredicates(t, ext, "rate_exceeded")
}

func Test_Extract_02(t *testing.T) {
	ext := testExtract(t, "amount > 1000")
	//
	testPredicates(t, ext, "amount > 1000")
}

func Test_Extract_03(t *testing.T) {
	ext := testExtract(t, "status == \"active\"")
	//
	testPredicates(t, ext, "status == \"active\"")
}

func Test_Extract_04(t *testing.T) {
	ext := testExtract(t, "amount > 1000 && rate_exceeded")
	//
	testPredicates(t, ext, "amount > 1000", "rate_exceeded")
}

func Test_Extract_05(t *testing.T) {
	// Negation flips polarity; the predicate stays positive.
	ext := testExtract(t, "!rate_exceeded")
	//
	testPredicates(t, ext, "rate_exceeded")
}

func Test_Extract_06(t *testing.T) {
	// Non-equality interns the underlying equality.
	ext := testExtract(t, "status != \"active\"")
	//
	testPredicates(t, ext, "status == \"active\"")
}

func Test_Extract_07(t *testing.T) {
	// Membership decomposes into shared equalities.
	ext := testExtract(t, "region in [\"US\", \"EU\"]")
	//
	testPredicates(t, ext, "region == \"US\"", "region == \"EU\"")
}

func Test_Extract_08(t *testing.T) {
	// Equalities are shared across membership and direct tests.
	ext := testExtract(t, "region in [\"US\", \"EU\"] || region == \"US\"")
	//
	testPredicates(t, ext, "region == \"US\"", "region == \"EU\"")
}

func Test_Extract_09(t *testing.T) {
	// "x < k" and "x >= k" remain distinct predicates.
	ext := testExtract(t, "amount < 10 || amount >= 10")
	//
	testPredicates(t, ext, "amount < 10", "amount >= 10")
}

func Test_Extract_10(t *testing.T) {
	ext := testExtract(t, "name.startsWith(\"test\")")
	//
	testPredicates(t, ext, "name.startsWith(\"test\")")
}

func Test_Extract_11(t *testing.T) {
	// Mirrored comparisons intern the same predicate.
	ext := testExtract(t, "1000 < amount || amount > 1000")
	//
	testPredicates(t, ext, "amount > 1000")
}

func Test_Extract_12(t *testing.T) {
	// Opaque calls intern verbatim and are recorded as unmodeled.
	// (Normalization sorts the conjuncts, so "a" interns first.)
	ext := testExtract(t, "isWeekend(day) && a")
	//
	testPredicates(t, ext, "a", "isWeekend(day)")
	//
	if len(ext.Unmodeled) != 1 || ext.Unmodeled[0] != "isWeekend(day)" {
		t.Errorf("unexpected unmodeled list: %v", ext.Unmodeled)
	}
}

func Test_Extract_13(t *testing.T) {
	// Interning across rules: same predicate, same index.
	ext := NewExtraction()
	//
	testExtractInto(t, ext, "amount > 1000")
	testExtractInto(t, ext, "amount > 1000 && verified")
	//
	testPredicates(t, ext, "amount > 1000", "verified")
}

// Formula semantics

func Test_Formula_01(t *testing.T) {
	// x && !y; normalization orders "!y" before "x", so y interns at
	// index 0 and x at index 1.
	ext := NewExtraction()
	f := testExtractInto(t, ext, "x && !y")
	//
	testTruthTable(t, f, 2, []bool{false, false, true, false})
}

func Test_Formula_02(t *testing.T) {
	// x || y
	ext := NewExtraction()
	f := testExtractInto(t, ext, "x || y")
	//
	testTruthTable(t, f, 2, []bool{false, true, true, true})
}

func Test_Formula_03(t *testing.T) {
	// !!e evaluates as e
	ext := NewExtraction()
	lhs := testExtractInto(t, ext, "!!(x && y)")
	rhs := testExtractInto(t, ext, "x && y")
	//
	for assignment := uint64(0); assignment < 4; assignment++ {
		if lhs.Eval(assignment) != rhs.Eval(assignment) {
			t.Errorf("assignment %d: !!e != e", assignment)
		}
	}
}

// Sum of products

func Test_Dnf_01(t *testing.T) {
	testDnf(t, "x && y", 1)
}

func Test_Dnf_02(t *testing.T) {
	testDnf(t, "x || y", 2)
}

func Test_Dnf_03(t *testing.T) {
	testDnf(t, "(x || y) && (a || b)", 4)
}

func Test_Dnf_04(t *testing.T) {
	// Contradictory products are dropped.
	testDnf(t, "x && !x", 0)
}

func Test_Dnf_05(t *testing.T) {
	// Tautology: a single unconstrained product.
	terms := testDnf(t, "true", 1)
	//
	if len(terms[0]) != 0 {
		t.Errorf("expected empty product, got %v", terms[0])
	}
}

func Test_Dnf_06(t *testing.T) {
	ext := NewExtraction()
	f := testExtractInto(t, ext, "(a || b) && (c || d) && (e || g)")
	//
	if _, err := Dnf(f, 4); err != ErrDnfOverflow {
		t.Errorf("expected overflow, got %v", err)
	}
}

// ============================================================================
// Framework
// ============================================================================

func testExtract(t *testing.T, input string) *Extraction {
	ext := NewExtraction()
	testExtractInto(t, ext, input)
	//
	return ext
}

func testExtractInto(t *testing.T, ext *Extraction, input string) Formula {
	env := func(string) bool { return true }
	//
	term, errs := expr.Parse(input, env)
	if len(errs) != 0 {
		t.Fatalf("parsing %q failed: %s", input, errs[0].Error())
	}
	//
	return ext.Extract(expr.Normalize(term))
}

func testPredicates(t *testing.T, ext *Extraction, expected ...string) {
	if ext.Set.Len() != uint(len(expected)) {
		t.Fatalf("expected %d predicates, got %d", len(expected), ext.Set.Len())
	}
	//
	for i, e := range expected {
		pred := ext.Set.Get(uint(i))
		//
		if pred.String() != e {
			t.Errorf("predicate %d: got %q, expected %q", i, pred.String(), e)
		}
	}
}

func testTruthTable(t *testing.T, f Formula, n uint, expected []bool) {
	for assignment := uint64(0); assignment < uint64(1)<<n; assignment++ {
		if f.Eval(assignment) != expected[assignment] {
			t.Errorf("assignment %d: got %t, expected %t", assignment,
				f.Eval(assignment), expected[assignment])
		}
	}
}

func testDnf(t *testing.T, input string, expected uint) [][]Literal {
	ext := NewExtraction()
	f := testExtractInto(t, ext, input)
	//
	terms, err := Dnf(f, DNF_CEILING)
	if err != nil {
		t.Fatalf("conversion failed: %s", err)
	}
	//
	if uint(len(terms)) != expected {
		t.Errorf("expected %d products, got %d", expected, len(terms))
	}
	//
	return terms
}
