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
package analysis

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/consensys/go-dectab/pkg/cube"
	"github.com/consensys/go-dectab/pkg/expr"
	"github.com/consensys/go-dectab/pkg/predicate"
	"github.com/consensys/go-dectab/pkg/spec"
)

// Complete two-variable table: the function a or b, plus its complement.
func Test_Analysis_01(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a && b", expr.IntValue(1)),
		rule("R2", "a && !b", expr.IntValue(1)),
		rule("R3", "!a && b", expr.IntValue(1)),
		rule("R4", "!a && !b", expr.IntValue(0)),
	)
	//
	report := analyze(t, table)
	//
	if !report.IsComplete {
		t.Error("expected complete")
	}
	//
	if report.TotalCombinations != 4 || report.CoveredCombinations != 4 {
		t.Errorf("unexpected coverage %d/%d", report.CoveredCombinations, report.TotalCombinations)
	}
	//
	if !report.CanMinimize {
		t.Error("expected minimizable")
	}
	//
	if report.MinimizedRuleCount == nil || *report.MinimizedRuleCount != 2 {
		t.Errorf("expected minimized count 2, got %v", report.MinimizedRuleCount)
	}
}

// Incomplete table: two missing cases.
func Test_Analysis_02(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a && b", expr.IntValue(1)),
		rule("R2", "a && !b", expr.IntValue(1)),
	)
	//
	report := analyze(t, table)
	//
	if report.IsComplete {
		t.Error("expected incomplete")
	}
	//
	if report.TotalCombinations != 4 || report.CoveredCombinations != 2 {
		t.Errorf("unexpected coverage %d/%d", report.CoveredCombinations, report.TotalCombinations)
	}
	//
	if len(report.MissingCases) != 2 {
		t.Fatalf("expected 2 missing cases, got %d", len(report.MissingCases))
	}
	// Missing cases are sorted: {a=0, b=0} then {a=0, b=1}.
	testConditions(t, report.MissingCases[0].Conditions, "!a", "!b")
	testConditions(t, report.MissingCases[1].Conditions, "!a", "b")
}

// Overlap with conflicting outputs.
func Test_Analysis_03(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a", expr.IntValue(1)),
		rule("R2", "b", expr.IntValue(2)),
	)
	//
	report := analyze(t, table)
	//
	if report.IsComplete {
		t.Error("expected incomplete (00 is uncovered)")
	}
	//
	if len(report.MissingCases) != 1 {
		t.Fatalf("expected 1 missing case, got %d", len(report.MissingCases))
	}
	//
	testConditions(t, report.MissingCases[0].Conditions, "!a", "!b")
	//
	if len(report.Overlaps) != 1 {
		t.Fatalf("expected 1 overlap, got %d", len(report.Overlaps))
	}
	//
	overlap := report.Overlaps[0]
	//
	if overlap.Rules != [2]string{"R1", "R2"} {
		t.Errorf("unexpected overlap pair %v", overlap.Rules)
	}
	//
	testConditions(t, overlap.Conditions, "a", "b")
	//
	if overlap.Outputs != [2]string{"1", "2"} {
		t.Errorf("unexpected overlap outputs %v", overlap.Outputs)
	}
}

// A default output absorbs the gaps.
func Test_Analysis_04(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a && b", expr.IntValue(1)),
		rule("R2", "a && !b", expr.IntValue(1)),
	)
	//
	dflt := spec.NewOutput(expr.IntValue(99))
	table.Default = &dflt
	//
	report := analyze(t, table)
	//
	if !report.IsComplete {
		t.Error("expected complete")
	}
	//
	if report.CoveredCombinations != 4 {
		t.Errorf("unexpected coverage %d", report.CoveredCombinations)
	}
	// The default never overlaps any rule.
	if len(report.Overlaps) != 0 || len(report.Redundancies) != 0 {
		t.Errorf("unexpected overlaps %v", report.Overlaps)
	}
}

// Access-level table over an enum domain: complete, no overlaps, minimal.
func Test_Analysis_05(t *testing.T) {
	table := accessLevelSpec()
	//
	report := analyze(t, table)
	//
	if !report.IsComplete {
		t.Errorf("expected complete, missing %v", report.MissingCases)
	}
	//
	if len(report.Overlaps) != 0 {
		t.Errorf("unexpected overlaps %v", report.Overlaps)
	}
	//
	if report.CanMinimize {
		t.Error("table is already minimal")
	}
}

// Minimization benchmark: AB' + A'B + AB reduces to A + B.
func Test_Analysis_06(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a && !b", expr.IntValue(1)),
		rule("R2", "!a && b", expr.IntValue(1)),
		rule("R3", "a && b", expr.IntValue(1)),
	)
	//
	report := analyze(t, table)
	//
	if !report.CanMinimize {
		t.Error("expected minimizable")
	}
	//
	if report.MinimizedRuleCount == nil || *report.MinimizedRuleCount != 2 {
		t.Errorf("expected minimized count 2, got %v", report.MinimizedRuleCount)
	}
	// The minimized table is literally a || b.
	result, err := Minimize(table, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	//
	if len(result.Spec.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(result.Spec.Rules))
	}
	//
	if result.Spec.Rules[0].When.Expr() != "a" || result.Spec.Rules[1].When.Expr() != "b" {
		t.Errorf("unexpected rules %q, %q", result.Spec.Rules[0].When.Expr(),
			result.Spec.Rules[1].When.Expr())
	}
}

// Determinism: byte-identical reports across runs.
func Test_Analysis_10(t *testing.T) {
	table := accessLevelSpec()
	//
	lhs, err := json.Marshal(analyze(t, table))
	if err != nil {
		t.Fatal(err)
	}
	//
	rhs, err := json.Marshal(analyze(t, table))
	if err != nil {
		t.Fatal(err)
	}
	//
	if string(lhs) != string(rhs) {
		t.Error("reports differ across runs")
	}
}

// Coverage bounds.
func Test_Analysis_11(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a", expr.IntValue(1)),
	)
	//
	report := analyze(t, table)
	//
	if report.CoveredCombinations > report.TotalCombinations {
		t.Error("covered exceeds total")
	}
	//
	ratio := float64(report.CoveredCombinations) / float64(report.TotalCombinations)
	//
	if report.CoverageRatio != ratio {
		t.Errorf("inconsistent ratio %f", report.CoverageRatio)
	}
}

// Completeness iff no missing cases.
func Test_Analysis_12(t *testing.T) {
	for _, table := range []spec.Spec{
		twoVarSpec(rule("R1", "a", expr.IntValue(1))),
		twoVarSpec(rule("R1", "a || !a", expr.IntValue(1))),
		accessLevelSpec(),
	} {
		report := analyze(t, table)
		//
		if report.IsComplete != (len(report.MissingCases) == 0) {
			t.Errorf("spec %s: is_complete inconsistent with missing cases", table.Id)
		}
	}
}

// Overlap symmetry: each overlapping pair is reported once, never in both
// orders.
func Test_Analysis_13(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a", expr.IntValue(1)),
		rule("R2", "b", expr.IntValue(2)),
		rule("R3", "a && b", expr.IntValue(3)),
	)
	//
	report := analyze(t, table)
	//
	seen := make(map[string]bool)
	//
	for _, overlap := range report.Overlaps {
		key := overlap.Rules[0] + "/" + overlap.Rules[1]
		inverse := overlap.Rules[1] + "/" + overlap.Rules[0]
		//
		if seen[inverse] {
			t.Errorf("overlap %s reported in both orders", key)
		}
		//
		seen[key] = true
	}
}

// Dead rules are reported, not dropped silently.
func Test_Analysis_14(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a && !a", expr.IntValue(1)),
		rule("R2", "true", expr.IntValue(2)),
	)
	//
	report := analyze(t, table)
	//
	if len(report.DeadRules) != 1 || report.DeadRules[0].Rule != "R1" {
		t.Errorf("expected dead rule R1, got %v", report.DeadRules)
	}
	//
	if !report.IsComplete {
		t.Error("R2 covers everything")
	}
}

// Duplicate conditions are reported, modulo commutativity.
func Test_Analysis_15(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a && b", expr.IntValue(1)),
		rule("R2", "b && a", expr.IntValue(2)),
	)
	//
	report := analyze(t, table)
	//
	if len(report.Duplicates) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(report.Duplicates))
	}
	//
	if report.Duplicates[0].Rules != [2]string{"R1", "R2"} {
		t.Errorf("unexpected duplicate pair %v", report.Duplicates[0].Rules)
	}
}

// Unparseable conditions become opaque predicates, not failures.
func Test_Analysis_16(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a &&", expr.IntValue(1)),
		rule("R2", "!a", expr.IntValue(2)),
	)
	//
	report := analyze(t, table)
	//
	if len(report.Unmodeled) != 1 || report.Unmodeled[0] != "a &&" {
		t.Errorf("unexpected unmodeled list %v", report.Unmodeled)
	}
}

// Unknown variables violate the collaborator contract.
func Test_Analysis_17(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "nonsuch > 10", expr.IntValue(1)),
	)
	//
	if _, err := Analyze(table, DefaultOptions()); err == nil {
		t.Error("expected invalid spec error")
	}
}

// First-match semantics: overlaps resolved by order, shadowed rules dead.
func Test_Analysis_18(t *testing.T) {
	table := twoVarSpec(
		rule("R1", "a", expr.IntValue(1)),
		rule("R2", "a && b", expr.IntValue(2)),
	)
	//
	opts := DefaultOptions()
	opts.Mode = FIRST_MATCH
	//
	report, err := Analyze(table, opts)
	if err != nil {
		t.Fatal(err)
	}
	//
	if len(report.DeadRules) != 1 || report.DeadRules[0].Rule != "R2" {
		t.Errorf("expected R2 shadowed, got %v", report.DeadRules)
	}
}

// Round trip: the string emitted for a cube, parsed back and re-lowered,
// yields an equal cube under predicate interning.
func Test_Analysis_20(t *testing.T) {
	table := spec.Spec{
		Id: "roundtrip",
		Inputs: []spec.Variable{
			{Name: "amount", Type: spec.INT_TYPE},
			{Name: "status", Type: spec.STRING_TYPE},
			{Name: "verified", Type: spec.BOOL_TYPE},
			{Name: "name", Type: spec.STRING_TYPE},
		},
		Rules: []spec.Rule{
			rule("R1", "amount > 1000 && !(amount < 10) && status != \"closed\"", expr.IntValue(1)),
			rule("R2", "!verified && name.startsWith(\"test\")", expr.IntValue(2)),
			rule("R3", "verified || status == \"open\"", expr.IntValue(3)),
		},
	}
	//
	testRoundTrip(t, table)
}

// Negation canonicalization: lowering !!e yields the same cover as e.
func Test_Analysis_21(t *testing.T) {
	lhs := twoVarSpec(rule("R1", "a && !b", expr.IntValue(1)))
	rhs := twoVarSpec(rule("R1", "!!(a && !b)", expr.IntValue(1)))
	//
	lreport := analyze(t, lhs)
	rreport := analyze(t, rhs)
	//
	lbytes, _ := json.Marshal(lreport)
	rbytes, _ := json.Marshal(rreport)
	//
	if string(lbytes) != string(rbytes) {
		t.Error("!!e and e analyze differently")
	}
}

// Minimization preserves completeness: the minimized spec is complete exactly
// when the original is.
func Test_Analysis_22(t *testing.T) {
	table := accessLevelSpec()
	//
	result, err := Minimize(table, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	//
	lhs := analyze(t, table)
	rhs := analyze(t, result.Spec)
	//
	if lhs.IsComplete != rhs.IsComplete {
		t.Error("minimization changed completeness")
	}
}

// ============================================================================
// Framework
// ============================================================================

func analyze(t *testing.T, table spec.Spec) Report {
	report, err := Analyze(table, DefaultOptions())
	//
	if err != nil {
		t.Fatalf("analysis failed: %s", err)
	}
	//
	return report
}

func rule(id string, when string, then expr.Value) spec.Rule {
	return spec.Rule{Id: id, When: spec.NewWhen(when), Then: spec.NewOutput(then)}
}

func twoVarSpec(rules ...spec.Rule) spec.Spec {
	return spec.Spec{
		Id: "test",
		Inputs: []spec.Variable{
			{Name: "a", Type: spec.BOOL_TYPE},
			{Name: "b", Type: spec.BOOL_TYPE},
		},
		Rules: rules,
	}
}

func accessLevelSpec() spec.Spec {
	return spec.Spec{
		Id: "access_level",
		Inputs: []spec.Variable{
			{Name: "role", Type: spec.ENUM_TYPE, Values: []string{"admin", "member", "guest"}},
			{Name: "verified", Type: spec.BOOL_TYPE},
		},
		Rules: []spec.Rule{
			rule("R1", "role == \"admin\"", expr.IntValue(100)),
			rule("R2", "role == \"member\" && verified", expr.IntValue(50)),
			rule("R3", "role == \"member\" && !verified", expr.IntValue(25)),
			rule("R4", "role == \"guest\"", expr.IntValue(10)),
		},
	}
}

func testConditions(t *testing.T, actual []string, expected ...string) {
	if strings.Join(actual, " && ") != strings.Join(expected, " && ") {
		t.Errorf("unexpected conditions %v, expected %v", actual, expected)
	}
}

func testRoundTrip(t *testing.T, table spec.Spec) {
	ext := predicate.NewExtraction()
	//
	lowered, err := lower(table, ext)
	if err != nil {
		t.Fatal(err)
	}
	//
	env := func(name string) bool { _, ok := table.Variable(name); return ok }
	//
	for _, state := range lowered.rules {
		for _, c := range state.cover.Cubes() {
			var (
				text        = Condition(c, ext.Set)
				term, serrs = expr.Parse(text, env)
			)
			//
			if len(serrs) != 0 {
				t.Fatalf("re-parsing %q failed: %s", text, serrs[0].Error())
			}
			//
			formula := ext.Extract(expr.Normalize(term))
			//
			products, err := predicate.Dnf(formula, predicate.DNF_CEILING)
			if err != nil || len(products) != 1 {
				t.Fatalf("re-lowering %q gave %d products (%v)", text, len(products), err)
			}
			//
			back := cubeOf(ext.Set.Len(), products[0])
			//
			if back.Cmp(c) != 0 {
				t.Errorf("round trip of %s via %q gave %s", c.String(), text, back.String())
			}
		}
	}
}

// Build a cube of a given width from a single product.
func cubeOf(width uint, product []predicate.Literal) cube.Cube {
	c := cube.New(width)
	//
	for _, lit := range product {
		if lit.Positive {
			c.SetInput(lit.Index, cube.ONE)
		} else {
			c.SetInput(lit.Index, cube.ZERO)
		}
	}
	//
	return c
}
