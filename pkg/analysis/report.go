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

// Report is the result of analyzing a decision table for completeness,
// consistency and minimality.  Given identical input bytes, two runs produce
// byte-identical reports.
type Report struct {
	// IsComplete is true exactly when every input combination allowed by the
	// enum domain axioms is covered by at least one rule (or the default).
	IsComplete bool `json:"is_complete"`
	// TotalCombinations is 2^n for n interned predicates.
	TotalCombinations uint64 `json:"total_combinations"`
	// CoveredCombinations counts the assignments that are not missing: those
	// matched by some rule or the default, plus those excluded by the enum
	// domain axioms.
	CoveredCombinations uint64 `json:"covered_combinations"`
	// CoverageRatio is CoveredCombinations / TotalCombinations.
	CoverageRatio float64 `json:"coverage_ratio"`
	// MissingCases enumerates the uncovered regions of the input space.
	// Observe this is usually far smaller than the raw combination deficit,
	// since each case is a cube rather than a single assignment.
	MissingCases []MissingCase `json:"missing_cases"`
	// Overlaps lists pairs of rules matching a common input with different
	// outputs.  Under exhaustive semantics these are conflicts; under
	// first-match semantics they are resolved by rule order and merely
	// informational.
	Overlaps []RuleOverlap `json:"overlaps"`
	// Redundancies lists pairs of rules matching a common input with the
	// same output.  These are never conflicts.
	Redundancies []RuleOverlap `json:"redundancies,omitempty"`
	// DeadRules lists rules which can never fire.
	DeadRules []DeadRule `json:"dead_rules,omitempty"`
	// Duplicates lists rules whose normalized conditions are structurally
	// identical.
	Duplicates []Duplicate `json:"duplicates,omitempty"`
	// Predicates lists the interned atomic predicates, in interning order.
	Predicates []PredicateInfo `json:"predicates"`
	// Unmodeled lists the verbatim texts of expressions the dialect could
	// not model, which were treated as opaque predicates.
	Unmodeled []string `json:"unmodeled,omitempty"`
	// Errors lists per-rule failures which degraded the precision of this
	// report without suppressing it.
	Errors []RuleError `json:"errors,omitempty"`
	// CanMinimize is true when the rule set can be compressed without
	// changing the table's function.
	CanMinimize bool `json:"can_minimize"`
	// OriginalRuleCount is the number of rules analyzed.
	OriginalRuleCount uint `json:"original_rule_count"`
	// MinimizedRuleCount gives the compressed rule count, when minimization
	// ran to completion.
	MinimizedRuleCount *uint `json:"minimized_rule_count,omitempty"`
	// Approximate is true when some recursion or iteration ceiling was
	// reached, in which case minimization results are best-effort.
	// Completeness and overlap results are unaffected unless an Errors
	// entry says otherwise.
	Approximate bool `json:"approximate,omitempty"`
}

// PredicateInfo describes one interned predicate.
type PredicateInfo struct {
	// Id is the stable index of this predicate.
	Id uint `json:"id"`
	// Expression is the canonical rendering in the dialect.
	Expression string `json:"expression"`
}

// PredicateValue is a predicate together with its truth value within some
// region of the input space.
type PredicateValue struct {
	PredicateId uint   `json:"predicate_id"`
	Expression  string `json:"expression"`
	Value       bool   `json:"value"`
}

// MissingCase describes one uncovered region: a cube over the predicate
// universe which no rule matches.
type MissingCase struct {
	// PredicateValues gives the truth values of the predicates constrained
	// within this region; unconstrained predicates are omitted.
	PredicateValues []PredicateValue `json:"predicate_values"`
	// Conditions renders the region as readable conditions of the dialect.
	Conditions []string `json:"conditions"`
	// Combinations counts the input assignments within this region.
	Combinations uint64 `json:"combinations"`
	// UndefinedOutput tags this region as having no defined output.
	UndefinedOutput bool `json:"undefined_output"`
}

// RuleOverlap describes a pair of rules which both match some common input.
type RuleOverlap struct {
	// Rules identifies the overlapping pair, in declaration order.
	Rules [2]string `json:"rules"`
	// PredicateValues gives the truth values constrained within the
	// intersection.
	PredicateValues []PredicateValue `json:"predicate_values"`
	// Conditions renders the intersection as readable conditions.
	Conditions []string `json:"conditions"`
	// Outputs gives the (rendered) outputs of the two rules.  These differ
	// exactly when the overlap is a conflict.
	Outputs [2]string `json:"outputs"`
}

// DeadRule describes a rule which can never fire.
type DeadRule struct {
	// Rule identifier.
	Rule string `json:"rule"`
	// Reason why the rule is dead.
	Reason string `json:"reason"`
}

// Duplicate describes two rules with structurally identical normalized
// conditions.
type Duplicate struct {
	// Rules identifies the duplicated pair, in declaration order.
	Rules [2]string `json:"rules"`
	// Condition is the shared normalized condition.
	Condition string `json:"condition"`
}
