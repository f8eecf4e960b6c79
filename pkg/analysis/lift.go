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
	"slices"
	"strings"

	"github.com/consensys/go-dectab/pkg/cube"
	"github.com/consensys/go-dectab/pkg/predicate"
)

// Conditions lifts a cube back into readable conditions of the dialect: one
// condition per constrained position, negated where the position holds ZERO,
// omitted where unconstrained.  The output is stable — alphabetical by
// variable name, then by operator — so reports diff cleanly.
func Conditions(c cube.Cube, set *predicate.Set) []string {
	type entry struct {
		pred     predicate.Predicate
		positive bool
	}
	//
	var entries []entry
	//
	for i := uint(0); i < c.Width(); i++ {
		switch c.Input(i) {
		case cube.ONE:
			entries = append(entries, entry{set.Get(i), true})
		case cube.ZERO:
			entries = append(entries, entry{set.Get(i), false})
		}
	}
	//
	slices.SortStableFunc(entries, func(a, b entry) int {
		return a.pred.Cmp(b.pred)
	})
	//
	conditions := make([]string, len(entries))
	for i, e := range entries {
		conditions[i] = e.pred.Render(e.positive)
	}
	//
	return conditions
}

// Condition lifts a cube into a single conjunction of the dialect, or "true"
// for the universe cube.
func Condition(c cube.Cube, set *predicate.Set) string {
	conditions := Conditions(c, set)
	//
	if len(conditions) == 0 {
		return "true"
	}
	//
	return strings.Join(conditions, " && ")
}

// Values lists the truth values of the predicates constrained by a cube, in
// predicate index order.
func Values(c cube.Cube, set *predicate.Set) []PredicateValue {
	var values []PredicateValue
	//
	for i := uint(0); i < c.Width(); i++ {
		if !c.Input(i).IsLiteral() {
			continue
		}
		//
		pred := set.Get(i)
		//
		values = append(values, PredicateValue{
			PredicateId: i,
			Expression:  pred.String(),
			Value:       c.Input(i) == cube.ONE,
		})
	}
	//
	return values
}
