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
	"testing"
)

func Test_Parse_01(t *testing.T) {
	testParse(t, "a", "a")
}

func Test_Parse_02(t *testing.T) {
	testParse(t, "!a", "!a")
}

func Test_Parse_03(t *testing.T) {
	testParse(t, "a && b", "a && b")
}

func Test_Parse_04(t *testing.T) {
	testParse(t, "a || b", "a || b")
}

func Test_Parse_05(t *testing.T) {
	testParse(t, "a && b || c", "a && b || c")
}

func Test_Parse_06(t *testing.T) {
	testParse(t, "a && (b || c)", "a && (b || c)")
}

func Test_Parse_07(t *testing.T) {
	testParse(t, "amount > 1000", "amount > 1000")
}

func Test_Parse_08(t *testing.T) {
	testParse(t, "amount>=1000", "amount >= 1000")
}

func Test_Parse_09(t *testing.T) {
	testParse(t, "status == \"active\"", "status == \"active\"")
}

func Test_Parse_10(t *testing.T) {
	// Single quotes are accepted, rendering is double quoted.
	testParse(t, "status == 'active'", "status == \"active\"")
}

func Test_Parse_11(t *testing.T) {
	testParse(t, "rate == 2.5", "rate == 2.5")
}

func Test_Parse_12(t *testing.T) {
	testParse(t, "amount == -5", "amount == -5")
}

func Test_Parse_13(t *testing.T) {
	testParse(t, "region in [\"US\", \"EU\"]", "region in [\"US\", \"EU\"]")
}

func Test_Parse_14(t *testing.T) {
	testParse(t, "status in [1,2,3]", "status in [1, 2, 3]")
}

func Test_Parse_15(t *testing.T) {
	testParse(t, "name.startsWith(\"test\")", "name.startsWith(\"test\")")
}

func Test_Parse_16(t *testing.T) {
	testParse(t, "name.endsWith('x') && a", "name.endsWith(\"x\") && a")
}

func Test_Parse_17(t *testing.T) {
	testParse(t, "!(a && b)", "!(a && b)")
}

func Test_Parse_18(t *testing.T) {
	testParse(t, "verified == true", "verified == true")
}

func Test_Parse_19(t *testing.T) {
	testParse(t, "true", "true")
}

func Test_Parse_20(t *testing.T) {
	testParse(t, "a != 5", "a != 5")
}

// Opaque calls

func Test_Parse_30(t *testing.T) {
	// Unknown function calls are preserved verbatim.
	term := testParse(t, "isWeekend(a)", "isWeekend(a)")
	//
	if _, ok := term.(*Opaque); !ok {
		t.Errorf("expected opaque term, got %s", term)
	}
}

func Test_Parse_31(t *testing.T) {
	testParse(t, "f(g(a), 1) && b", "f(g(a), 1) && b")
}

// Errors

func Test_Parse_40(t *testing.T) {
	testParseFails(t, "a &&")
}

func Test_Parse_41(t *testing.T) {
	testParseFails(t, "(a")
}

func Test_Parse_42(t *testing.T) {
	testParseFails(t, "unknown_var && a")
}

func Test_Parse_43(t *testing.T) {
	testParseFails(t, "a in [")
}

func Test_Parse_44(t *testing.T) {
	testParseFails(t, "a ¬ b")
}

func Test_Parse_45(t *testing.T) {
	// Error spans point at the offending token.
	_, errs := Parse("a && unknown_var", env)
	//
	if len(errs) == 0 {
		t.Fatal("expected syntax error")
	}
	//
	span := errs[0].Span()
	if span.Start() != 5 || span.End() != 16 {
		t.Errorf("unexpected span %d:%d", span.Start(), span.End())
	}
}

// ============================================================================
// Framework
// ============================================================================

// Environment for test parsing: any lowercase variable except those starting
// "unknown" is in scope.
func env(name string) bool {
	return len(name) < 7 || name[:7] != "unknown"
}

func testParse(t *testing.T, input string, expected string) Term {
	term, errs := Parse(input, env)
	//
	if len(errs) != 0 {
		t.Fatalf("parsing %q failed: %s", input, errs[0].Error())
	}
	//
	if term.String() != expected {
		t.Errorf("parsing %q gave %q, expected %q", input, term.String(), expected)
	}
	//
	return term
}

func testParseFails(t *testing.T, input string) {
	if _, errs := Parse(input, env); len(errs) == 0 {
		t.Errorf("parsing %q unexpectedly succeeded", input)
	}
}
