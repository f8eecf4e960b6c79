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

// Package analysis answers three questions about a decision table: is every
// possible input covered by some rule (completeness); do two rules match a
// common input with different outputs (overlap); and can the rule set be
// compressed without changing the table's function (minimization).
//
// The analysis reasons over the boolean skeleton of the table: each distinct
// atomic predicate (e.g. "amount > 1000") becomes an independent boolean
// variable.  Whether two distinct predicates are logically related (e.g.
// "x > 10" versus "x > 5") is not decided here; callers holding such domain
// axioms may post-filter the report through the exposed predicate set.
package analysis

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/consensys/go-dectab/pkg/cube"
	"github.com/consensys/go-dectab/pkg/espresso"
	"github.com/consensys/go-dectab/pkg/expr"
	"github.com/consensys/go-dectab/pkg/predicate"
	"github.com/consensys/go-dectab/pkg/spec"
)

// MAX_PREDICATES bounds the predicate universe such that combination counts
// fit a uint64.
const MAX_PREDICATES = 62

// Mode determines how simultaneous rule matches are interpreted.
type Mode uint8

const (
	// EXHAUSTIVE treats every rule as simultaneously live, surfacing every
	// differing-output overlap as a conflict.  This is the default.
	EXHAUSTIVE Mode = iota
	// FIRST_MATCH treats each rule's effective input set as its stated
	// condition minus the union of all earlier rules.  Overlaps are
	// resolved by order, so none are conflicts; fully shadowed rules are
	// reported as dead.
	FIRST_MATCH
)

// Options configures an analysis run.
type Options struct {
	// Mode of overlap interpretation.
	Mode Mode
	// Minimize additionally runs the minimizer to populate the
	// minimization fields of the report.
	Minimize bool
	// Espresso options used when Minimize is set.
	Espresso espresso.Options
}

// DefaultOptions returns the options used in absence of any overrides.
func DefaultOptions() Options {
	return Options{EXHAUSTIVE, true, espresso.DefaultOptions()}
}

// Analyze a decision table, producing a completeness report.  The report is
// always produced unless the spec violates the collaborator contract;
// partial failures (e.g. a single rule whose condition explodes during
// lowering) degrade the report's precision but never suppress it.
func Analyze(s spec.Spec, opts Options) (Report, error) {
	if errs := s.Validate(); len(errs) != 0 {
		return Report{}, &InvalidSpecError{errs}
	}
	//
	lowered, err := lower(s, predicate.NewExtraction())
	if err != nil {
		return Report{}, err
	}
	//
	a := &analyzer{s, opts, lowered, cube.Cover{}, Report{OriginalRuleCount: uint(len(s.Rules))}}
	//
	a.axioms = infeasible(&s, lowered.ext.Set)
	//
	a.predicates()
	a.duplicates()
	//
	if n := lowered.ext.Set.Len(); n > MAX_PREDICATES {
		// Too many predicates for exhaustive analysis.
		a.report.Approximate = true
		a.report.TotalCombinations = 0
		a.report.Errors = append(a.report.Errors, RuleError{
			Kind:    PREDICATE_OVERFLOW,
			Message: fmt.Sprintf("too many predicates (%d) for exhaustive analysis", n),
		})
		//
		return a.report, nil
	}
	//
	a.deadRules()
	a.completeness()
	a.overlaps()
	//
	if opts.Minimize {
		a.minimization()
	}
	//
	return a.report, nil
}

// ExtractPredicates returns the interned predicate universe of a decision
// table, for introspection and test tooling.
func ExtractPredicates(s spec.Spec) (*predicate.Set, error) {
	lowered, err := lower(s, predicate.NewExtraction())
	if err != nil {
		return nil, err
	}
	//
	return lowered.ext.Set, nil
}

// RulesToCover lowers a list of rules into a single ON-set cover over the
// given extraction's predicate set, interning any predicates not yet seen.
// This is the low-level hook used by chain and suite analyzers.
func RulesToCover(s spec.Spec, ext *predicate.Extraction) (cube.Cover, error) {
	lowered, err := lower(s, ext)
	if err != nil {
		return cube.Cover{}, err
	}
	//
	cover := cube.NewCover(cube.ON_SET, ext.Set.Len())
	//
	for _, state := range lowered.rules {
		for _, c := range state.cover.Cubes() {
			cover.Add(c)
		}
	}
	//
	return cover, nil
}

// ============================================================================
// Lowering
// ============================================================================

// ruleState carries one rule through the analysis pipeline.
type ruleState struct {
	rule  spec.Rule
	index int
	// Normalized condition.
	term expr.Term
	// Boolean skeleton of the condition.
	formula predicate.Formula
	// Output symbol index.
	output int
	// Stated cover (one cube per product term of the condition).
	cover cube.Cover
	// Effective cover under first-match semantics (stated cover minus all
	// earlier rules).
	effective cube.Cover
	// Condition normalizes to false.
	dead bool
	// Lowering exceeded the sum-of-products ceiling.
	overflow bool
}

// lowered is the result of lowering every rule of a table.
type lowered struct {
	ext   *predicate.Extraction
	rules []ruleState
	// Output symbol table, in order of first appearance.
	outputs []expr.Value
	// Default output symbol, or UNASSERTED.
	defaultOutput int
}

// Lower every rule of a table: parse and normalize its condition, extract
// the boolean skeleton (interning predicates), then convert to cubes over
// the completed predicate universe.  An unparseable condition becomes a
// single opaque predicate; an unknown variable violates the collaborator
// contract and halts the analysis.
func lower(s spec.Spec, ext *predicate.Extraction) (lowered, error) {
	var (
		result = lowered{ext, make([]ruleState, len(s.Rules)), nil, cube.UNASSERTED}
		env    = func(name string) bool { _, ok := s.Variable(name); return ok }
	)
	// Pass 1: populate the predicate universe.
	for i, rule := range s.Rules {
		var (
			raw         = rule.When.Expr()
			term, serrs = expr.Parse(raw, env)
		)
		//
		if len(serrs) != 0 {
			if serrs[0].Message() == "unknown variable" {
				err := fmt.Errorf("rule %q: %s", rule.Id, serrs[0].Error())
				return result, &InvalidSpecError{[]error{err}}
			}
			// Unparseable: preserve verbatim as an opaque predicate.
			term = &expr.Opaque{Text: raw}
		}
		//
		term = expr.Normalize(term)
		//
		result.rules[i] = ruleState{
			rule:    rule,
			index:   i,
			term:    term,
			formula: ext.Extract(term),
			output:  result.internOutput(rule.Then.Value()),
		}
	}
	//
	if s.Default != nil {
		result.defaultOutput = result.internOutput(s.Default.Value())
	}
	// Pass 2: lower each skeleton over the completed universe.
	width := ext.Set.Len()
	//
	for i := range result.rules {
		state := &result.rules[i]
		//
		terms, err := predicate.Dnf(state.formula, predicate.DNF_CEILING)
		if err != nil {
			state.overflow = true
			state.cover = cube.NewCover(cube.ON_SET, width)
			continue
		}
		//
		state.dead = len(terms) == 0
		state.cover = cube.NewCover(cube.ON_SET, width)
		//
		for _, product := range terms {
			c := cube.New(width)
			c.Output = state.output
			c.Rule = i
			//
			for _, lit := range product {
				if lit.Positive {
					c.SetInput(lit.Index, cube.ONE)
				} else {
					c.SetInput(lit.Index, cube.ZERO)
				}
			}
			//
			state.cover.Add(c)
		}
	}
	// Pass 3: effective covers under first-match semantics.
	earlier := cube.NewCover(cube.ON_SET, width)
	//
	for i := range result.rules {
		state := &result.rules[i]
		state.effective = state.cover.SubtractAll(earlier)
		//
		for _, c := range state.cover.Cubes() {
			earlier.Add(c)
		}
	}
	//
	return result, nil
}

// Intern an output value, returning its symbol index.
func (p *lowered) internOutput(value expr.Value) int {
	for i, v := range p.outputs {
		if v.Cmp(value) == 0 {
			return i
		}
	}
	//
	p.outputs = append(p.outputs, value)
	//
	return len(p.outputs) - 1
}

// ============================================================================
// Analyzer
// ============================================================================

type analyzer struct {
	spec    spec.Spec
	opts    Options
	lowered lowered
	// Assignments violating the enum domain axioms.
	axioms cube.Cover
	report Report
}

func (a *analyzer) predicates() {
	var (
		set = a.lowered.ext.Set
	)
	//
	for i := uint(0); i < set.Len(); i++ {
		pred := set.Get(i)
		a.report.Predicates = append(a.report.Predicates, PredicateInfo{i, pred.String()})
	}
	//
	a.report.Unmodeled = a.lowered.ext.Unmodeled
}

// Report rule pairs with structurally identical normalized conditions.
func (a *analyzer) duplicates() {
	for i := range a.lowered.rules {
		for j := i + 1; j < len(a.lowered.rules); j++ {
			var (
				lhs = a.lowered.rules[i]
				rhs = a.lowered.rules[j]
			)
			//
			if lhs.term.Cmp(rhs.term) == 0 {
				a.report.Duplicates = append(a.report.Duplicates, Duplicate{
					Rules:     [2]string{lhs.rule.Id, rhs.rule.Id},
					Condition: lhs.term.String(),
				})
			}
		}
	}
}

// Report rules which can never fire: contradictory conditions and (under
// first-match semantics) rules fully shadowed by their predecessors.  Rules
// whose lowering overflowed are recorded as errors here as well.
func (a *analyzer) deadRules() {
	for _, state := range a.lowered.rules {
		switch {
		case state.overflow:
			a.report.Errors = append(a.report.Errors, RuleError{
				Rule:    state.rule.Id,
				Kind:    CUBE_OVERFLOW,
				Message: "sum-of-products conversion exceeds ceiling; rule excluded from analysis",
			})
		case state.dead:
			a.report.DeadRules = append(a.report.DeadRules, DeadRule{
				Rule:   state.rule.Id,
				Reason: "condition is unsatisfiable",
			})
		case a.infeasibleCover(state.cover):
			a.report.DeadRules = append(a.report.DeadRules, DeadRule{
				Rule:   state.rule.Id,
				Reason: "condition is infeasible for the declared domains",
			})
		case a.opts.Mode == FIRST_MATCH && state.effective.IsEmpty():
			a.report.DeadRules = append(a.report.DeadRules, DeadRule{
				Rule:   state.rule.Id,
				Reason: "shadowed by earlier rules",
			})
		}
	}
}

// Compute the uncovered regions of the input space and the coverage
// statistics.  The complement's cubes are pairwise disjoint, so minterm
// counts sum exactly.
func (a *analyzer) completeness() {
	var (
		set   = a.lowered.ext.Set
		width = set.Len()
		on    = cube.NewCover(cube.ON_SET, width)
	)
	//
	for _, state := range a.lowered.rules {
		for _, c := range state.cover.Cubes() {
			on.Add(c)
		}
	}
	// A default output is a catch-all cube placed last.  It contributes to
	// completeness but never to overlaps.
	if a.spec.Default != nil {
		c := cube.New(width)
		c.Output = a.lowered.defaultOutput
		on.Add(c)
	}
	//
	missing, approx := on.Complement()
	// Assignments violating the domain axioms cannot occur, hence are not
	// missing.
	missing = missing.SubtractAll(a.axioms)
	missing.Sort()
	//
	a.report.Approximate = a.report.Approximate || approx
	//
	var missed uint64
	//
	for _, c := range missing.Cubes() {
		missed += c.Minterms()
		//
		a.report.MissingCases = append(a.report.MissingCases, MissingCase{
			PredicateValues: Values(c, set),
			Conditions:      Conditions(c, set),
			Combinations:    c.Minterms(),
			UndefinedOutput: true,
		})
	}
	//
	total := uint64(1) << width
	//
	a.report.TotalCombinations = total
	a.report.CoveredCombinations = total - missed
	a.report.CoverageRatio = float64(total-missed) / float64(total)
	a.report.IsComplete = missed == 0
}

// Compute pairwise rule intersections.  Differing outputs are conflicts;
// matching outputs are redundancies and never conflicts.  Overlaps are
// computed under both modes; under first-match semantics they are resolved
// by rule order and hence informational rather than defects.
func (a *analyzer) overlaps() {
	set := a.lowered.ext.Set
	//
	for i := range a.lowered.rules {
		for j := i + 1; j < len(a.lowered.rules); j++ {
			var (
				lhs  = a.lowered.rules[i]
				rhs  = a.lowered.rules[j]
				seen = make(map[string]bool)
			)
			//
			for _, lc := range lhs.cover.Cubes() {
				for _, rc := range rhs.cover.Cubes() {
					x, ok := lc.Intersect(rc)
					if !ok || seen[x.String()] {
						continue
					}
					// An intersection entirely outside the feasible space
					// (e.g. two distinct enum values at once) is no overlap.
					if a.infeasibleCube(x) {
						continue
					}
					//
					seen[x.String()] = true
					//
					overlap := RuleOverlap{
						Rules:           [2]string{lhs.rule.Id, rhs.rule.Id},
						PredicateValues: Values(x, set),
						Conditions:      Conditions(x, set),
						Outputs: [2]string{
							lhs.rule.Then.Value().String(),
							rhs.rule.Then.Value().String(),
						},
					}
					//
					if lhs.output != rhs.output {
						a.report.Overlaps = append(a.report.Overlaps, overlap)
					} else {
						a.report.Redundancies = append(a.report.Redundancies, overlap)
					}
				}
			}
		}
	}
}

// Determine whether the rule set compresses.  Cubes are grouped by output
// symbol and each group is minimized against the complement of its own
// cover, which keeps the table's function intact (in particular, nothing
// expands into undefined regions).  For a complete table over a boolean
// output domain, the false-group is an implicit "else" and is excluded from
// the count.
func (a *analyzer) minimization() {
	var (
		groups  = a.groupCovers()
		count   uint
		capped  bool
		boolean = a.booleanDomain() && a.report.IsComplete
	)
	//
	for _, group := range groups {
		if boolean && !isTruthy(a.lowered.outputs[group.output]) {
			// Implicit else branch.
			continue
		}
		// Infeasible assignments cannot occur, so minimization may cover
		// them freely.
		result := espresso.Minimize(group.cover, a.axioms, a.opts.Espresso)
		//
		capped = capped || result.Capped
		count += result.Cover.Size()
	}
	//
	if capped {
		// Best effort: the current cover is valid but possibly non-minimal,
		// so the count is withheld.
		a.report.CanMinimize = true
		a.report.Approximate = true
		//
		return
	}
	//
	a.report.CanMinimize = count < a.report.OriginalRuleCount
	a.report.MinimizedRuleCount = &count
	//
	log.Debugf("minimization: %d rules -> %d cubes", a.report.OriginalRuleCount, count)
}

// outputGroup aggregates the cubes asserting one output symbol.
type outputGroup struct {
	output int
	cover  cube.Cover
}

// Group rule cubes by output symbol, in order of first appearance.  The
// default's catch-all cube is not a rule and takes no part in minimization.
// Under first-match semantics the effective covers are grouped, since they
// are what the table's function is made of.
func (a *analyzer) groupCovers() []outputGroup {
	var (
		width  = a.lowered.ext.Set.Len()
		groups []outputGroup
		index  = make(map[int]int)
	)
	//
	for _, state := range a.lowered.rules {
		cover := state.cover
		//
		if a.opts.Mode == FIRST_MATCH {
			cover = state.effective
		}
		//
		gi, ok := index[state.output]
		if !ok {
			gi = len(groups)
			index[state.output] = gi
			groups = append(groups, outputGroup{state.output, cube.NewCover(cube.ON_SET, width)})
		}
		//
		for _, c := range cover.Cubes() {
			groups[gi].cover.Add(c)
		}
	}
	//
	return groups
}

// Check whether every rule output (and the default, if any) is drawn from a
// boolean domain: true/false, or the integers 0/1.
func (a *analyzer) booleanDomain() bool {
	for _, v := range a.lowered.outputs {
		switch v.Kind() {
		case expr.BOOL_VALUE:
			// fine
		case expr.INT_VALUE:
			if v.AsInt() != 0 && v.AsInt() != 1 {
				return false
			}
		default:
			return false
		}
	}
	//
	return len(a.lowered.outputs) > 0
}

// Check whether a cube lies entirely within the infeasible space.
func (a *analyzer) infeasibleCube(c cube.Cube) bool {
	single := cube.NewCover(cube.ON_SET, c.Width())
	single.Add(c)
	//
	diff := single.SubtractAll(a.axioms)
	return !a.axioms.IsEmpty() && diff.IsEmpty()
}

// Check whether a (non-empty) cover lies entirely within the infeasible
// space.
func (a *analyzer) infeasibleCover(cover cube.Cover) bool {
	diff := cover.SubtractAll(a.axioms)
	return !cover.IsEmpty() && !a.axioms.IsEmpty() &&
		diff.IsEmpty()
}

func isTruthy(v expr.Value) bool {
	switch v.Kind() {
	case expr.BOOL_VALUE:
		return v.AsBool()
	default:
		return v.AsInt() == 1
	}
}
