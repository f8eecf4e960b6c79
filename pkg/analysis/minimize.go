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
	"fmt"

	"github.com/consensys/go-dectab/pkg/cube"
	"github.com/consensys/go-dectab/pkg/espresso"
	"github.com/consensys/go-dectab/pkg/predicate"
	"github.com/consensys/go-dectab/pkg/spec"
)

// TransformationKind classifies the steps of a minimization audit trail.
type TransformationKind string

const (
	// MERGED signals that several overlapping or adjacent cubes were
	// combined into fewer cubes.
	MERGED TransformationKind = "merged"
	// REMOVED signals that a rule was dropped (dead, or absorbed by
	// another rule).
	REMOVED TransformationKind = "removed"
	// EXPANDED signals that expansion removed literals from a condition
	// without changing the rule count.
	EXPANDED TransformationKind = "expanded"
	// SIMPLIFIED signals a table-level simplification, such as replacing
	// the false-branch of a boolean table by a default.
	SIMPLIFIED TransformationKind = "simplified"
)

// Transformation records one step of the minimization audit trail.
type Transformation struct {
	Kind        TransformationKind `json:"kind"`
	Description string             `json:"description"`
	// Rules of the input table affected by this step.
	AffectedRules []string `json:"affected_rules,omitempty"`
}

// MinimizedSpec is the result of minimizing a decision table: a new table
// computing the same function with (hopefully) fewer rules, plus the audit
// trail of how it was obtained.
type MinimizedSpec struct {
	// Spec is the minimized table.
	Spec spec.Spec `json:"spec"`
	// OriginalRuleCount of the input table.
	OriginalRuleCount uint `json:"original_rule_count"`
	// MinimizedRuleCount of the output table.
	MinimizedRuleCount uint `json:"minimized_rule_count"`
	// Transformations applied, in application order.
	Transformations []Transformation `json:"transformations"`
	// WasSimplified is true when the output table differs from the input.
	WasSimplified bool `json:"was_simplified"`
	// Capped is true when a minimization ceiling was reached, in which case
	// the output is valid but possibly not minimal.
	Capped bool `json:"capped,omitempty"`
}

// Minimize a decision table.  Rules are grouped by output value and each
// group is compressed against the complement of its own cover, so that for
// every input the original and minimized tables either produce the same
// output or are both undefined.  The output rules follow cube insertion
// order of the minimized cover.
func Minimize(s spec.Spec, opts Options) (MinimizedSpec, error) {
	if errs := s.Validate(); len(errs) != 0 {
		return MinimizedSpec{}, &InvalidSpecError{errs}
	}
	//
	lowered, err := lower(s, predicate.NewExtraction())
	if err != nil {
		return MinimizedSpec{}, err
	}
	//
	m := &minimizer{s, opts, lowered, MinimizedSpec{OriginalRuleCount: uint(len(s.Rules))}}
	//
	return m.run(), nil
}

type minimizer struct {
	spec    spec.Spec
	opts    Options
	lowered lowered
	result  MinimizedSpec
}

func (p *minimizer) run() MinimizedSpec {
	var (
		axioms = infeasible(&p.spec, p.lowered.ext.Set)
		a      = &analyzer{p.spec, p.opts, p.lowered, axioms, Report{}}
		// Output table mirrors the input, rules replaced.
		nspec = p.spec
		rules []spec.Rule
		next  = 1
		// For a complete table over a boolean output domain (without an
		// existing default), the false branch is an implicit "else" and is
		// synthesized as a default rather than kept as rules.
		collapse = p.spec.Default == nil && a.booleanDomain() && p.complete()
	)
	//
	p.removals()
	//
	for _, group := range a.groupCovers() {
		if collapse && !isTruthy(p.lowered.outputs[group.output]) {
			value := spec.NewOutput(p.lowered.outputs[group.output])
			nspec.Default = &value
			//
			p.transformation(SIMPLIFIED, "false branch replaced by default",
				p.ruleIds(group.cover)...)
			//
			continue
		}
		//
		var (
			result   = espresso.Minimize(group.cover, axioms, p.opts.Espresso)
			affected = p.ruleIds(group.cover)
		)
		//
		p.result.Capped = p.result.Capped || result.Capped
		//
		p.audit(group, result, affected)
		//
		for _, c := range result.Cover.Cubes() {
			rules = append(rules, spec.Rule{
				Id:   fmt.Sprintf("R%d", next),
				When: spec.NewWhen(Condition(c, p.lowered.ext.Set)),
				Then: spec.NewOutput(p.lowered.outputs[group.output]),
			})
			//
			next++
		}
	}
	//
	nspec.Rules = rules
	//
	p.result.Spec = nspec
	p.result.MinimizedRuleCount = uint(len(rules))
	p.result.WasSimplified = len(p.result.Transformations) > 0
	//
	return p.result
}

// Check whether the rule covers jointly contain the whole feasible input
// space.
func (p *minimizer) complete() bool {
	on := cube.NewCover(cube.ON_SET, p.lowered.ext.Set.Len())
	//
	for _, state := range p.lowered.rules {
		for _, c := range state.cover.Cubes() {
			on.Add(c)
		}
	}
	//
	missing, approx := on.Complement()
	missing = missing.SubtractAll(infeasible(&p.spec, p.lowered.ext.Set))
	//
	return missing.IsEmpty() && !approx
}

// Record removals of rules which can never fire.
func (p *minimizer) removals() {
	for _, state := range p.lowered.rules {
		switch {
		case state.dead:
			p.transformation(REMOVED, "condition is unsatisfiable", state.rule.Id)
		case p.opts.Mode == FIRST_MATCH && state.effective.IsEmpty():
			p.transformation(REMOVED, "shadowed by earlier rules", state.rule.Id)
		}
	}
}

// Record the audit trail for one output group.
func (p *minimizer) audit(group outputGroup, result espresso.Result, affected []string) {
	var (
		before     = group.cover.Size()
		after      = result.Cover.Size()
		beforeCost = group.cover.LiteralCost()
		afterCost  = result.Cover.LiteralCost()
	)
	//
	switch {
	case after < before:
		p.transformation(MERGED,
			fmt.Sprintf("merged %d conditions into %d", before, after), affected...)
	case afterCost < beforeCost:
		p.transformation(EXPANDED,
			fmt.Sprintf("expansion removed %d literals", beforeCost-afterCost), affected...)
	}
}

func (p *minimizer) transformation(kind TransformationKind, desc string, rules ...string) {
	p.result.Transformations = append(p.result.Transformations, Transformation{kind, desc, rules})
}

// Identifiers of the rules contributing cubes to a cover, in first
// appearance order.
func (p *minimizer) ruleIds(cover cube.Cover) []string {
	var (
		ids  []string
		seen = make(map[int]bool)
	)
	//
	for _, c := range cover.Cubes() {
		if c.Rule != cube.UNASSERTED && !seen[c.Rule] {
			seen[c.Rule] = true
			ids = append(ids, p.lowered.rules[c.Rule].rule.Id)
		}
	}
	//
	return ids
}
