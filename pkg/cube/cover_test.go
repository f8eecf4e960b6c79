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
	"testing"
)

// Absorption

func Test_Cover_01(t *testing.T) {
	cover := testCover(t, 2, "1-", "10")
	cover.Absorb()
	//
	testCubes(t, cover, "1-")
}

func Test_Cover_02(t *testing.T) {
	// Absorption is idempotent
	cover := testCover(t, 2, "1-", "10", "--", "01")
	//
	cover.Absorb()
	once := cover.String()
	//
	cover.Absorb()
	//
	if cover.String() != once {
		t.Errorf("absorption not idempotent: %q vs %q", once, cover.String())
	}
}

func Test_Cover_03(t *testing.T) {
	// Equal cubes keep their first occurrence
	cover := testCover(t, 2, "10", "10")
	cover.Absorb()
	//
	testCubes(t, cover, "10")
}

// Containment

func Test_Cover_10(t *testing.T) {
	cover := testCover(t, 2, "10", "01")
	//
	c := testParseCube(t, "10")
	if !cover.Covers(c) {
		t.Error("cover should contain 10")
	}
}

func Test_Cover_11(t *testing.T) {
	// Joint coverage without single-cube containment
	cover := testCover(t, 2, "1-", "0-")
	//
	c := testParseCube(t, "--")
	//
	if cover.ContainsCube(c) {
		t.Error("no single cube contains the universe")
	}
	//
	if !cover.Covers(c) {
		t.Error("cover jointly contains the universe")
	}
}

// Complement

func Test_Cover_20(t *testing.T) {
	// Complement of the empty cover is the universe
	cover := NewCover(ON_SET, 2)
	//
	comp, capped := cover.Complement()
	//
	if capped {
		t.Error("unexpected cap")
	}
	//
	testCubes(t, comp, "--")
}

func Test_Cover_21(t *testing.T) {
	// Complement of the universe is empty
	cover := testCover(t, 2, "--")
	//
	comp, _ := cover.Complement()
	//
	if !comp.IsEmpty() {
		t.Errorf("expected empty complement, got %s", comp.String())
	}
}

func Test_Cover_22(t *testing.T) {
	// Shannon expansion yields disjoint pieces, not merged cubes.
	cover := testCover(t, 2, "11", "10")
	//
	comp, _ := cover.Complement()
	comp.Sort()
	//
	testCubes(t, comp, "00", "01")
}

func Test_Cover_23(t *testing.T) {
	// Complement cubes are pairwise disjoint, so minterms sum exactly.
	cover := testCover(t, 3, "1--", "-1-")
	//
	comp, _ := cover.Complement()
	//
	for i := uint(0); i < comp.Size(); i++ {
		for j := i + 1; j < comp.Size(); j++ {
			lhs, rhs := comp.Get(i), comp.Get(j)
			//
			if lhs.Intersects(rhs) {
				t.Errorf("complement cubes %s and %s intersect", lhs.String(), rhs.String())
			}
		}
	}
	// 8 - |1-- or -1-| = 8 - 6 = 2
	if comp.Minterms() != 2 {
		t.Errorf("expected 2 minterms, got %d", comp.Minterms())
	}
}

func Test_Cover_24(t *testing.T) {
	// Complementing twice preserves the denoted set.
	cover := testCover(t, 3, "11-", "0-1")
	//
	comp, _ := cover.Complement()
	back, _ := comp.Complement()
	//
	for _, c := range cover.Cubes() {
		if !back.Covers(c) {
			t.Errorf("double complement lost %s", c.String())
		}
	}
	//
	for _, c := range back.Cubes() {
		if !cover.Covers(c) {
			t.Errorf("double complement gained %s", c.String())
		}
	}
}

// Tautology

func Test_Cover_30(t *testing.T) {
	cover := testCover(t, 2, "--")
	//
	if taut, _ := cover.IsTautology(); !taut {
		t.Error("universe cube should be a tautology")
	}
}

func Test_Cover_31(t *testing.T) {
	cover := testCover(t, 2, "1-", "0-")
	//
	if taut, _ := cover.IsTautology(); !taut {
		t.Error("1- with 0- should be a tautology")
	}
}

func Test_Cover_32(t *testing.T) {
	cover := testCover(t, 2, "1-", "01")
	//
	if taut, _ := cover.IsTautology(); taut {
		t.Error("cover misses 00")
	}
}

func Test_Cover_33(t *testing.T) {
	// Unate covers are never tautologies (without a universe cube).
	cover := testCover(t, 2, "1-", "-1")
	//
	if taut, _ := cover.IsTautology(); taut {
		t.Error("unate cover misses 00")
	}
}

// Subtraction

func Test_Cover_40(t *testing.T) {
	var (
		cover = testCover(t, 2, "1-", "-1")
		other = testCover(t, 2, "11")
		diff  = cover.SubtractAll(other)
	)
	//
	diff.Sort()
	testCubes(t, diff, "01", "10")
}

// Cofactor

func Test_Cover_50(t *testing.T) {
	cover := testCover(t, 2, "1-", "01")
	//
	pos := cover.Cofactor(0, true)
	testCubes(t, pos, "--")
	//
	neg := cover.Cofactor(0, false)
	testCubes(t, neg, "-1")
}

// ============================================================================
// Framework
// ============================================================================

func testCover(t *testing.T, width uint, cubes ...string) Cover {
	cover := NewCover(ON_SET, width)
	//
	for _, text := range cubes {
		cover.Add(testParseCube(t, text))
	}
	//
	return cover
}

func testCubes(t *testing.T, cover Cover, expected ...string) {
	if cover.Size() != uint(len(expected)) {
		t.Fatalf("expected %d cubes, got %d (%s)", len(expected), cover.Size(), cover.String())
	}
	//
	for i, e := range expected {
		c := cover.Get(uint(i))
		//
		if c.String() != e {
			t.Errorf("cube %d: got %s, expected %s", i, c.String(), e)
		}
	}
}
