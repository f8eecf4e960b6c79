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
package cmd

import (
	"fmt"
	"strings"

	"golang.org/x/term"

	"github.com/consensys/go-dectab/pkg/analysis"
	"github.com/consensys/go-dectab/pkg/spec"
)

// Determine the width available for report lines.  Falls back on a fixed
// width when stdout is not a terminal.
func renderWidth() int {
	if term.IsTerminal(1) {
		if width, _, err := term.GetSize(1); err == nil {
			return width
		}
	}
	//
	return 80
}

// Print a report in human-readable form.
func printReport(table *spec.Spec, report analysis.Report) {
	width := renderWidth()
	//
	fmt.Printf("spec %s: %d rules, %d predicates\n", table.Id,
		report.OriginalRuleCount, len(report.Predicates))
	fmt.Printf("coverage: %d / %d combinations (%.1f%%)\n",
		report.CoveredCombinations, report.TotalCombinations, report.CoverageRatio*100)
	//
	if report.IsComplete {
		fmt.Println("complete: every input combination is covered")
	} else {
		fmt.Printf("INCOMPLETE: %d missing case(s)\n", len(report.MissingCases))
		//
		for _, missing := range report.MissingCases {
			printItem(width, fmt.Sprintf("missing (%d combinations): %s",
				missing.Combinations, strings.Join(missing.Conditions, " && ")))
		}
	}
	//
	for _, overlap := range report.Overlaps {
		printItem(width, fmt.Sprintf("CONFLICT %s/%s (outputs %s vs %s): %s",
			overlap.Rules[0], overlap.Rules[1], overlap.Outputs[0], overlap.Outputs[1],
			strings.Join(overlap.Conditions, " && ")))
	}
	//
	for _, redundancy := range report.Redundancies {
		printItem(width, fmt.Sprintf("redundancy %s/%s: %s",
			redundancy.Rules[0], redundancy.Rules[1],
			strings.Join(redundancy.Conditions, " && ")))
	}
	//
	for _, dead := range report.DeadRules {
		printItem(width, fmt.Sprintf("dead rule %s: %s", dead.Rule, dead.Reason))
	}
	//
	for _, dup := range report.Duplicates {
		printItem(width, fmt.Sprintf("duplicate rules %s/%s: %s",
			dup.Rules[0], dup.Rules[1], dup.Condition))
	}
	//
	for _, err := range report.Errors {
		printItem(width, fmt.Sprintf("error: %s", err.Error()))
	}
	//
	if report.CanMinimize {
		if report.MinimizedRuleCount != nil {
			fmt.Printf("minimizable: %d rules suffice\n", *report.MinimizedRuleCount)
		} else {
			fmt.Println("minimizable (approximate)")
		}
	}
	//
	if report.Approximate {
		fmt.Println("note: some ceilings were reached; results are best effort")
	}
}

// Print the result of a minimization run.
func printMinimized(result analysis.MinimizedSpec) {
	width := renderWidth()
	//
	fmt.Printf("minimized %d rules to %d\n", result.OriginalRuleCount, result.MinimizedRuleCount)
	//
	for _, rule := range result.Spec.Rules {
		printItem(width, fmt.Sprintf("%s: %s -> %s", rule.Id, rule.When.Expr(),
			rule.Then.Value().String()))
	}
	//
	if result.Spec.Default != nil {
		printItem(width, fmt.Sprintf("default -> %s", result.Spec.Default.Value().String()))
	}
	//
	for _, t := range result.Transformations {
		line := fmt.Sprintf("%s: %s", t.Kind, t.Description)
		//
		if len(t.AffectedRules) != 0 {
			line = fmt.Sprintf("%s [%s]", line, strings.Join(t.AffectedRules, ", "))
		}
		//
		printItem(width, line)
	}
	//
	if result.Capped {
		fmt.Println("note: minimization ceiling reached; result is best effort")
	}
}

// Print an indented item, wrapping (crudely) at the terminal width.
func printItem(width int, line string) {
	const indent = "  "
	//
	budget := max(20, width-len(indent))
	//
	for len(line) > budget {
		fmt.Printf("%s%s\n", indent, line[:budget])
		line = line[budget:]
	}
	//
	fmt.Printf("%s%s\n", indent, line)
}
