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

	"github.com/consensys/go-dectab/pkg/cube"
	"github.com/consensys/go-dectab/pkg/expr"
	"github.com/consensys/go-dectab/pkg/predicate"
	"github.com/consensys/go-dectab/pkg/spec"
)

// The analysis treats atomic predicates as independent booleans, which is
// exactly right for opaque predicates but too weak for equality tests
// against a declared enum domain: "role == admin" and "role == member" can
// never hold together, and if every value of the domain is tested, exactly
// one of the tests must hold.  This file derives those axioms from the
// declared enum variables, as a cover of infeasible assignments.  Assignments
// within the cover are excluded from missing cases and overlaps, and act as
// don't cares during minimization.
//
// No axioms are derived for any other predicate combinations (e.g. "x > 10"
// against "x > 5"): relating such predicates is the caller's business, via
// the exposed predicate set.

// Derive the infeasibility cover of a table: the set of assignments which
// violate the enum domain axioms.
func infeasible(s *spec.Spec, set *predicate.Set) cube.Cover {
	var (
		width = set.Len()
		cover = cube.NewCover(cube.DC_SET, width)
	)
	//
	for _, v := range s.Inputs {
		if v.Type != spec.ENUM_TYPE {
			continue
		}
		// Indices of interned equality tests against declared values.
		var (
			declared []uint
			values   []string
		)
		//
		for i := uint(0); i < width; i++ {
			pred := set.Get(i)
			//
			if !isEnumEquality(pred, v.Name) {
				continue
			}
			//
			value := pred.Value().AsString()
			//
			if slices.Contains(v.Values, value) {
				declared = append(declared, i)
				values = append(values, value)
			} else {
				// Equality against a value outside the domain never holds.
				c := cube.New(width)
				c.SetInput(i, cube.ONE)
				cover.Add(c)
			}
		}
		// Mutual exclusion: no two distinct values hold together.
		for a := 0; a < len(declared); a++ {
			for b := a + 1; b < len(declared); b++ {
				if values[a] == values[b] {
					continue
				}
				//
				c := cube.New(width)
				c.SetInput(declared[a], cube.ONE)
				c.SetInput(declared[b], cube.ONE)
				cover.Add(c)
			}
		}
		// Completeness: when every declared value is tested, some test must
		// hold.
		if coversDomain(values, v.Values) {
			c := cube.New(width)
			//
			for _, i := range declared {
				c.SetInput(i, cube.ZERO)
			}
			//
			cover.Add(c)
		}
	}
	//
	return cover
}

// Check whether a predicate is an equality test of the given enum variable
// against a string literal.
func isEnumEquality(pred predicate.Predicate, variable string) bool {
	return pred.Kind() == predicate.EQUALITY &&
		pred.Variable() == variable &&
		pred.Value().Kind() == expr.STRING_VALUE
}

// Check whether the tested values exhaust the declared domain.
func coversDomain(tested []string, domain []string) bool {
	if len(domain) == 0 {
		return false
	}
	//
	for _, value := range domain {
		if !slices.Contains(tested, value) {
			return false
		}
	}
	//
	return true
}
