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
package cube

import (
	"slices"
	"strings"
)

// Kind tags a cover with the role it plays for a given function.  For any
// one function only two of the three sets are ever stored; the third is
// derivable by complementation.
type Kind uint8

const (
	// ON_SET covers the assignments where the function is 1.
	ON_SET Kind = iota
	// OFF_SET covers the assignments where the function is 0.
	OFF_SET
	// DC_SET covers the assignments where the function is unconstrained.
	DC_SET
)

// MAX_DEPTH bounds the recursion depth of complementation and tautology
// checking.  Both recurse by Shannon expansion and, without a bound, a
// pathological cover overflows the stack.  Reaching the bound yields a
// conservative (approximate) answer which callers must surface.
const MAX_DEPTH = 30

// Cover represents a boolean function (or part of one) as an ordered
// sequence of cubes, namely the disjunction of its cubes.  Iteration order
// of a cover is always its insertion order; operations which must pick
// between equivalent cubes do so lexicographically.
type Cover struct {
	kind  Kind
	width uint
	cubes []Cube
}

// NewCover constructs an empty cover of a given kind and width.
func NewCover(kind Kind, width uint) Cover {
	return Cover{kind, width, nil}
}

// Kind returns the role tag of this cover.
func (p *Cover) Kind() Kind {
	return p.kind
}

// Width returns the number of predicate positions of this cover.
func (p *Cover) Width() uint {
	return p.width
}

// Size returns the number of cubes in this cover.
func (p *Cover) Size() uint {
	return uint(len(p.cubes))
}

// IsEmpty checks whether this cover holds no cubes at all.
func (p *Cover) IsEmpty() bool {
	return len(p.cubes) == 0
}

// Get returns the cube at a given index.
func (p *Cover) Get(index uint) Cube {
	return p.cubes[index]
}

// Cubes returns the cubes of this cover in insertion order.
func (p *Cover) Cubes() []Cube {
	return p.cubes
}

// Add appends a cube to this cover.  The cube must have the right width.
func (p *Cover) Add(cube Cube) {
	if cube.Width() != p.width {
		panic("cube width does not match cover")
	}
	//
	p.cubes = append(p.cubes, cube)
}

// Clone creates a true copy of this cover, cloning every cube.
func (p *Cover) Clone() Cover {
	cubes := make([]Cube, len(p.cubes))
	//
	for i := range p.cubes {
		cubes[i] = p.cubes[i].Clone()
	}
	//
	return Cover{p.kind, p.width, cubes}
}

// LiteralCost returns the total number of literals across all cubes, which
// is the cost function minimization drives down.
func (p *Cover) LiteralCost() uint {
	cost := uint(0)
	//
	for i := range p.cubes {
		cost += p.cubes[i].LiteralCount()
	}
	//
	return cost
}

// ContainsCube checks whether some single cube of this cover contains the
// given cube.
func (p *Cover) ContainsCube(cube Cube) bool {
	for i := range p.cubes {
		if p.cubes[i].Contains(cube) {
			return true
		}
	}
	//
	return false
}

// Covers checks whether the union of this cover contains every assignment of
// the given cube.  Unlike ContainsCube, this accounts for cubes which jointly
// (but not individually) cover the argument.
func (p *Cover) Covers(cube Cube) bool {
	residue := []Cube{cube}
	//
	for i := range p.cubes {
		var remaining []Cube
		//
		for _, r := range residue {
			remaining = append(remaining, r.Sharp(p.cubes[i])...)
		}
		//
		if len(remaining) == 0 {
			return true
		}
		//
		residue = remaining
	}
	//
	return len(residue) == 0
}

// Absorb drops every cube contained in some other cube of the cover,
// retaining first occurrences.  Absorption is idempotent.
func (p *Cover) Absorb() {
	var kept []Cube
	//
	for i := range p.cubes {
		absorbed := false
		// Check against cubes already kept.
		for j := range kept {
			if kept[j].Contains(p.cubes[i]) {
				absorbed = true
				break
			}
		}
		// Check against later cubes (strict containment only, so that equal
		// cubes keep their first occurrence).
		for j := i + 1; !absorbed && j < len(p.cubes); j++ {
			if p.cubes[j].Contains(p.cubes[i]) && !p.cubes[i].Contains(p.cubes[j]) {
				absorbed = true
			}
		}
		//
		if !absorbed {
			kept = append(kept, p.cubes[i])
		}
	}
	//
	p.cubes = kept
}

// Union returns a new cover holding the cubes of this cover followed by
// those of the other, with absorption applied.
func (p *Cover) Union(o Cover) Cover {
	result := p.Clone()
	//
	for i := range o.cubes {
		result.Add(o.cubes[i].Clone())
	}
	//
	result.Absorb()
	//
	return result
}

// Subtract returns this cover minus the given cube, replacing every cube by
// its sharp against the subtrahend.
func (p *Cover) Subtract(cube Cube) Cover {
	result := NewCover(p.kind, p.width)
	//
	for i := range p.cubes {
		for _, piece := range p.cubes[i].Sharp(cube) {
			piece.Output = p.cubes[i].Output
			piece.Rule = p.cubes[i].Rule
			result.Add(piece)
		}
	}
	//
	return result
}

// SubtractAll returns this cover minus another cover.
func (p *Cover) SubtractAll(o Cover) Cover {
	result := p.Clone()
	//
	for i := range o.cubes {
		result = result.Subtract(o.cubes[i])
	}
	//
	return result
}

// Cofactor computes the cofactor of this cover with respect to fixing a
// given position.
func (p *Cover) Cofactor(position uint, positive bool) Cover {
	result := NewCover(p.kind, p.width)
	//
	for i := range p.cubes {
		if cube, ok := p.cubes[i].Cofactor(position, positive); ok {
			result.Add(cube)
		}
	}
	//
	return result
}

// Minterms sums the assignment counts of the cubes of this cover.  This
// equals the number of assignments covered only when the cubes are pairwise
// disjoint, as holds for covers produced by Complement and SubtractAll.
func (p *Cover) Minterms() uint64 {
	count := uint64(0)
	//
	for i := range p.cubes {
		count += p.cubes[i].Minterms()
	}
	//
	return count
}

// Sort orders the cubes of this cover lexicographically.  This is used at
// the points where a deterministic output order is required of results
// assembled by recursion.
func (p *Cover) Sort() {
	slices.SortStableFunc(p.cubes, func(a, b Cube) int { return a.Cmp(b) })
}

// IsUnate checks whether the cover is monotone in every position, i.e. no
// position holds ZERO in one cube and ONE in another.
func (p *Cover) IsUnate() bool {
	for i := uint(0); i < p.width; i++ {
		var pos, neg bool
		//
		for j := range p.cubes {
			switch p.cubes[j].Input(i) {
			case ONE:
				pos = true
			case ZERO:
				neg = true
			}
		}
		//
		if pos && neg {
			return false
		}
	}
	//
	return true
}

// Complement computes the set of assignments not covered by this cover,
// using recursive Shannon expansion.  The resulting cubes are pairwise
// disjoint, so their minterm counts sum exactly.  The second result is true
// if the depth bound was reached, in which case the result is an
// under-approximation (missing assignments may be omitted, never invented).
func (p *Cover) Complement() (Cover, bool) {
	return p.complement(0)
}

func (p *Cover) complement(depth uint) (Cover, bool) {
	result := NewCover(complementKind(p.kind), p.width)
	//
	if len(p.cubes) == 0 {
		// Complement of nothing is the universe.
		result.Add(New(p.width))
		return result, false
	}
	// A universe cube makes the whole cover a tautology.
	for i := range p.cubes {
		if p.cubes[i].IsUniverse() {
			return result, false
		}
	}
	//
	if depth > MAX_DEPTH {
		// Conservative under-approximation.
		return result, true
	}
	// Split on the most binate live position.
	position, ok := p.splittingPosition()
	if !ok {
		// Every position is unconstrained in every cube, yet no universe
		// cube was found above: unreachable for well-formed covers.
		panic("unreachable")
	}
	//
	var (
		posCof            = p.Cofactor(position, true)
		negCof            = p.Cofactor(position, false)
		posComp, posAprox = posCof.complement(depth + 1)
		negComp, negAprox = negCof.complement(depth + 1)
	)
	// Re-attach the split position, keeping the two halves disjoint.
	for i := range posComp.cubes {
		cube := posComp.cubes[i]
		cube.SetInput(position, ONE)
		result.Add(cube)
	}
	//
	for i := range negComp.cubes {
		cube := negComp.cubes[i]
		cube.SetInput(position, ZERO)
		result.Add(cube)
	}
	//
	return result, posAprox || negAprox
}

// IsTautology checks whether this cover contains every assignment.  The
// second result is true if the depth bound was reached, in which case the
// first is a conservative "false".
func (p *Cover) IsTautology() (bool, bool) {
	return p.tautology(0)
}

func (p *Cover) tautology(depth uint) (bool, bool) {
	// A universe cube decides immediately.
	for i := range p.cubes {
		if p.cubes[i].IsUniverse() {
			return true, false
		}
	}
	//
	if len(p.cubes) == 0 {
		return false, false
	}
	// A unate cover without a universe cube cannot be a tautology.
	if p.IsUnate() {
		return false, false
	}
	//
	if depth > MAX_DEPTH {
		return false, true
	}
	//
	position, ok := p.splittingPosition()
	if !ok {
		return false, false
	}
	//
	posCofactor := p.Cofactor(position, true)
	posTaut, posAprox := posCofactor.tautology(depth + 1)
	if !posTaut {
		return false, posAprox
	}
	//
	negCofactor := p.Cofactor(position, false)
	negTaut, negAprox := negCofactor.tautology(depth + 1)
	//
	return negTaut, posAprox || negAprox
}

// Find the most binate position to split on, preferring balanced splits.
// Positions unconstrained in every cube are skipped: cofactoring on them
// makes no progress, and treating them as live causes unbounded recursion.
func (p *Cover) splittingPosition() (uint, bool) {
	var (
		bestPosition uint
		bestScore    = -1
	)
	//
	for i := uint(0); i < p.width; i++ {
		var pos, neg, dc int
		//
		for j := range p.cubes {
			switch p.cubes[j].Input(i) {
			case ONE:
				pos++
			case ZERO:
				neg++
			default:
				dc++
			}
		}
		// Skip positions which are don't care everywhere.
		if dc == len(p.cubes) {
			continue
		}
		//
		score := min(pos+dc, neg+dc)
		//
		if score > bestScore {
			bestScore = score
			bestPosition = i
		}
	}
	//
	return bestPosition, bestScore >= 0
}

// String renders this cover with one cube per line.
func (p *Cover) String() string {
	var builder strings.Builder
	//
	for i := range p.cubes {
		if i != 0 {
			builder.WriteString("\n")
		}
		//
		builder.WriteString(p.cubes[i].String())
	}
	//
	return builder.String()
}

// Complementing an ON-set yields an OFF-set and vice versa; a DC-set stays a
// DC-set.
func complementKind(kind Kind) Kind {
	switch kind {
	case ON_SET:
		return OFF_SET
	case OFF_SET:
		return ON_SET
	default:
		return DC_SET
	}
}
