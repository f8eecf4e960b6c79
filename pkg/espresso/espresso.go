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

// Package espresso implements heuristic two-level minimization of cube
// covers, following the classic EXPAND / ESSENTIAL / IRREDUNDANT / REDUCE
// loop.  Minimization is best effort: when a recursion or iteration ceiling
// is reached the current (valid, but possibly non-minimal) cover is returned
// and flagged as approximate.
package espresso

import (
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/consensys/go-dectab/pkg/cube"
)

// Options configures a minimization run.
type Options struct {
	// MaxIterations bounds the number of full expand/irredundant/reduce
	// passes.
	MaxIterations uint
	// DetectEssential extracts essential primes before the irredundant
	// phase.
	DetectEssential bool
	// Irredundant enables the irredundant phase.
	Irredundant bool
}

// DefaultOptions returns the options used in absence of any overrides.
func DefaultOptions() Options {
	return Options{
		MaxIterations:   16,
		DetectEssential: true,
		Irredundant:     true,
	}
}

// Result of a minimization run.
type Result struct {
	// Cover is the minimized cover, semantically equal to the input ON-set
	// (modulo the DC-set).
	Cover cube.Cover
	// Essential holds the essential primes found, each of which covers some
	// assignment no other prime covers.
	Essential []cube.Cube
	// Iterations records how many passes ran before convergence.
	Iterations uint
	// Capped is true if some ceiling was reached, in which case the result
	// is valid but possibly not minimal.
	Capped bool
}

// Minimize a cover of ON-set cubes against a (possibly empty) DC-set.
func Minimize(on cube.Cover, dc cube.Cover, opts Options) Result {
	var (
		m      = newMinimizer(on, dc, opts)
		result = m.run()
	)
	//
	log.Debugf("espresso: %d -> %d cubes in %d iterations", on.Size(), result.Cover.Size(), result.Iterations)
	//
	return result
}

// minimizer holds the (F, D, R) state the phase loop operates over.
type minimizer struct {
	// ON-set being minimized.
	f cube.Cover
	// DC-set (assignments we may freely cover).
	d cube.Cover
	// OFF-set (assignments we must not cover), derived once by
	// complementing F ∪ D over the universe.
	r cube.Cover
	//
	opts Options
	// Essential primes found so far.
	essential []cube.Cube
	// Capped records whether any ceiling was reached.
	capped bool
}

func newMinimizer(on cube.Cover, dc cube.Cover, opts Options) *minimizer {
	var (
		off    cube.Cover
		capped bool
	)
	// Derive the OFF-set.
	union := on.Union(dc)
	off, capped = union.Complement()
	//
	return &minimizer{on.Clone(), dc.Clone(), off, opts, nil, capped}
}

func (p *minimizer) run() Result {
	var iterations uint
	//
	if p.f.IsEmpty() {
		return Result{p.f, nil, 0, p.capped}
	}
	//
	if p.capped {
		// Without a trustworthy OFF-set, expansion is unsafe.  Fall back on
		// distance-1 merging, which never grows the cover beyond F union D.
		p.mergePass()
		p.f.Absorb()
		//
		return Result{p.f, nil, 0, true}
	}
	//
	var (
		prevSize = p.f.Size()
		prevCost = p.f.LiteralCost()
	)
	//
	for {
		iterations++
		//
		p.expand()
		//
		if p.opts.DetectEssential && iterations == 1 {
			p.extractEssential()
		}
		//
		if p.opts.Irredundant {
			p.irredundant()
		}
		//
		p.reduce()
		p.expand()
		//
		if p.opts.Irredundant {
			p.irredundant()
		}
		//
		size, cost := p.f.Size(), p.f.LiteralCost()
		// Converged once neither the cube count nor the literal cost moves.
		if size == prevSize && cost == prevCost {
			break
		}
		//
		prevSize, prevCost = size, cost
		//
		if iterations >= p.opts.MaxIterations {
			p.capped = true
			break
		}
	}
	// Stitch the essential primes back in front of the remainder.
	result := cube.NewCover(cube.ON_SET, p.f.Width())
	//
	for _, c := range p.essential {
		result.Add(c)
	}
	//
	for _, c := range p.f.Cubes() {
		result.Add(c)
	}
	//
	result.Absorb()
	//
	return Result{result, p.essential, iterations, p.capped}
}

// ============================================================================
// EXPAND
// ============================================================================

// Grow every cube of F into a prime implicant: free constrained positions,
// one at a time, whilst the cube stays disjoint from the OFF-set.  Cubes with
// fewer literals (the larger ones) expand first, and each expansion prefers the positions whose freeing
// subsumes the most other cubes of F.
func (p *minimizer) expand() {
	var (
		order    = p.sizeOrder()
		expanded []cube.Cube
	)
	//
	for _, index := range order {
		cc := p.f.Get(index)
		c := cc.Clone()
		// Skip cubes already subsumed by an expansion.
		if containsAny(expanded, c) {
			continue
		}
		//
		c = p.expandCube(c)
		// Drop cubes the new prime dominates.
		expanded = slices.DeleteFunc(expanded, func(o cube.Cube) bool { return c.Contains(o) })
		expanded = append(expanded, c)
	}
	//
	next := cube.NewCover(cube.ON_SET, p.f.Width())
	//
	for _, c := range expanded {
		next.Add(c)
	}
	//
	p.f = next
}

func (p *minimizer) expandCube(c cube.Cube) cube.Cube {
	for _, position := range p.expansionOrder(c) {
		test := c.Clone()
		test.SetInput(position, cube.STAR)
		//
		if !p.intersectsOff(test) {
			c = test
		}
	}
	//
	return c
}

// Order the constrained positions of a cube by how many other cubes of F the
// expansion would subsume, most first; ties resolve by position index.
// Positions unconstrained in every cube of F are excluded outright — they
// cannot gain anything, and treating them as live reintroduces the unbounded
// recursion the complement already guards against.
func (p *minimizer) expansionOrder(c cube.Cube) []uint {
	type candidate struct {
		position uint
		gain     int
	}
	//
	var candidates []candidate
	//
	for i := uint(0); i < c.Width(); i++ {
		if c.Input(i) == cube.STAR || p.deadPosition(i) {
			continue
		}
		//
		test := c.Clone()
		test.SetInput(i, cube.STAR)
		//
		gain := 0
		//
		for _, other := range p.f.Cubes() {
			if test.Contains(other) {
				gain++
			}
		}
		//
		candidates = append(candidates, candidate{i, gain})
	}
	//
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return b.gain - a.gain
	})
	//
	order := make([]uint, len(candidates))
	for i, cand := range candidates {
		order[i] = cand.position
	}
	//
	return order
}

// Check whether a given position is unconstrained in every cube of F.
func (p *minimizer) deadPosition(position uint) bool {
	for _, c := range p.f.Cubes() {
		if c.Input(position) != cube.STAR {
			return false
		}
	}
	//
	return true
}

func (p *minimizer) intersectsOff(c cube.Cube) bool {
	for _, off := range p.r.Cubes() {
		if c.Intersects(off) {
			return true
		}
	}
	//
	return false
}

// ============================================================================
// ESSENTIAL
// ============================================================================

// A prime is essential if it covers some assignment no other prime (nor the
// DC-set) covers.  Essential primes are moved out of F into the result, and
// their assignments join the DC-set for the remaining phases.
func (p *minimizer) extractEssential() {
	var remaining = cube.NewCover(cube.ON_SET, p.f.Width())
	//
	for i := uint(0); i < p.f.Size(); i++ {
		var (
			c     = p.f.Get(i)
			other = p.d.Clone()
		)
		//
		for j := uint(0); j < p.f.Size(); j++ {
			if i != j {
				other.Add(p.f.Get(j))
			}
		}
		//
		if other.Covers(c) {
			remaining.Add(c)
		} else {
			// Essential: no other prime reaches part of this cube.
			p.essential = append(p.essential, c)
			p.d.Add(c)
		}
	}
	//
	p.f = remaining
}

// ============================================================================
// IRREDUNDANT
// ============================================================================

// Drop any cube entirely covered by the union of the others (and the
// DC-set).  Cubes are examined in reverse lexicographic order so that, of
// two cubes covering the same assignments, the lexicographically smaller one
// is kept.
func (p *minimizer) irredundant() {
	var order = p.lexOrder()
	// Working copy of the retained flags.
	retained := make([]bool, p.f.Size())
	for i := range retained {
		retained[i] = true
	}
	//
	for k := len(order) - 1; k >= 0; k-- {
		var (
			i     = order[k]
			other = p.d.Clone()
		)
		//
		for j := uint(0); j < p.f.Size(); j++ {
			if j != i && retained[j] {
				other.Add(p.f.Get(j))
			}
		}
		//
		if other.Covers(p.f.Get(i)) {
			retained[i] = false
		}
	}
	//
	next := cube.NewCover(cube.ON_SET, p.f.Width())
	//
	for i := uint(0); i < p.f.Size(); i++ {
		if retained[i] {
			next.Add(p.f.Get(i))
		}
	}
	//
	p.f = next
}

// ============================================================================
// REDUCE
// ============================================================================

// Shrink each cube to the smallest cube still covering the assignments not
// covered by the rest of F (nor the DC-set).  Cubes shrunk to nothing are
// dropped.  Cubes are processed in insertion order, which keeps the result
// reproducible.
func (p *minimizer) reduce() {
	next := cube.NewCover(cube.ON_SET, p.f.Width())
	//
	for i := uint(0); i < p.f.Size(); i++ {
		var (
			c     = p.f.Get(i)
			other = p.d.Clone()
		)
		//
		for j := uint(0); j < p.f.Size(); j++ {
			if i != j {
				other.Add(p.f.Get(j))
			}
		}
		// Assignments only this cube covers.
		single := cube.NewCover(cube.ON_SET, p.f.Width())
		single.Add(c)
		//
		residue := single.SubtractAll(other)
		//
		if residue.IsEmpty() {
			// Fully covered elsewhere.
			continue
		}
		// Smallest enclosing cube of the residue.
		reduced := residue.Get(0)
		//
		for j := uint(1); j < residue.Size(); j++ {
			reduced = reduced.Supercube(residue.Get(j))
		}
		//
		reduced.Output = c.Output
		reduced.Rule = c.Rule
		next.Add(reduced)
	}
	//
	p.f = next
}

// ============================================================================
// Helpers
// ============================================================================

// Distance-1 merge fallback used when no OFF-set is available: repeatedly
// merge cube pairs differing in exactly one position.
func (p *minimizer) mergePass() {
	var (
		cubes   = slices.Clone(p.f.Cubes())
		changed = true
	)
	//
	for changed {
		changed = false
		//
	outer:
		for i := 0; i < len(cubes); i++ {
			for j := i + 1; j < len(cubes); j++ {
				if position, ok := cubes[i].CanMerge(cubes[j]); ok {
					cubes[i] = cubes[i].Merge(position)
					cubes = slices.Delete(cubes, j, j+1)
					changed = true
					//
					continue outer
				}
			}
		}
	}
	//
	next := cube.NewCover(cube.ON_SET, p.f.Width())
	//
	for _, c := range cubes {
		next.Add(c)
	}
	//
	p.f = next
}

// Indices of F ordered by ascending literal count, ties by insertion order.
func (p *minimizer) sizeOrder() []uint {
	order := make([]uint, p.f.Size())
	//
	for i := range order {
		order[i] = uint(i)
	}
	//
	slices.SortStableFunc(order, func(a, b uint) int {
		ca, cb := p.f.Get(a), p.f.Get(b)
		return int(ca.LiteralCount()) - int(cb.LiteralCount())
	})
	//
	return order
}

// Indices of F ordered lexicographically, ties by insertion order.
func (p *minimizer) lexOrder() []uint {
	order := make([]uint, p.f.Size())
	//
	for i := range order {
		order[i] = uint(i)
	}
	//
	slices.SortStableFunc(order, func(a, b uint) int {
		ca, cb := p.f.Get(a), p.f.Get(b)
		return ca.Cmp(cb)
	})
	//
	return order
}

func containsAny(cubes []cube.Cube, c cube.Cube) bool {
	for i := range cubes {
		if cubes[i].Contains(c) {
			return true
		}
	}
	//
	return false
}
