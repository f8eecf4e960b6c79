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

// Set is an ordered, interning container of predicates.  Every structurally
// distinct predicate receives a stable index assigned in insertion order; the
// set of n interned predicates determines a universe of 2^n boolean
// assignments.
type Set struct {
	predicates []Predicate
	// Map from canonical rendering to index.
	index map[string]uint
}

// NewSet constructs an empty predicate set.
func NewSet() *Set {
	return &Set{nil, make(map[string]uint)}
}

// Add interns a predicate, returning its index.  Adding a predicate which is
// structurally equal to one already present returns the existing index.
func (p *Set) Add(pred Predicate) uint {
	key := pred.String()
	//
	if idx, ok := p.index[key]; ok {
		return idx
	}
	//
	idx := uint(len(p.predicates))
	p.index[key] = idx
	p.predicates = append(p.predicates, pred)
	//
	return idx
}

// Get returns the predicate at a given index.
func (p *Set) Get(idx uint) Predicate {
	return p.predicates[idx]
}

// IndexOf returns the index of a given predicate, if it has been interned.
func (p *Set) IndexOf(pred Predicate) (uint, bool) {
	idx, ok := p.index[pred.String()]
	return idx, ok
}

// Len returns the number of interned predicates.
func (p *Set) Len() uint {
	return uint(len(p.predicates))
}

// Predicates returns the interned predicates in insertion order.
func (p *Set) Predicates() []Predicate {
	return p.predicates
}
