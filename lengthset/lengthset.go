// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package lengthset implements the bit length set algebra used by the
// DSDL front end. A bit length set is a finite set of non-negative
// integers representing every possible length, in bits, of the
// serialized representation of a data type.
//
// Sets are represented symbolically as expression trees so that the
// cheap analytical queries (Min, Max, Modulo, alignment) are answered
// in near-constant time even for layouts whose numerical expansion
// would be combinatorially large. Queries that demand the exact
// element set (Elements, Equal) expand the tree numerically; the
// expansion is memoized.
//
// The concatenation operation ("+" over sets, written A ⊕ B) is the
// set of elementwise sums of the cartesian product. It models fields
// arranged one after another in a structure. Union models the
// alternatives of a tagged union.
package lengthset

import (
	"fmt"
	"sort"
	"strings"
)

// Set is an immutable bit length set. The zero value is the set {0}.
type Set struct {
	op op
}

// New returns the set containing exactly the given values. With no
// arguments it returns {0}.
func New(values ...uint64) Set {
	return Set{newNullary(values)}
}

func wrap(o op) Set {
	return Set{&memo{child: o}}
}

func (s Set) operator() op {
	if s.op == nil {
		return zeroSet
	}
	return s.op
}

// Min returns the smallest element of the set. It is derived
// analytically.
func (s Set) Min() uint64 { return s.operator().min() }

// Max returns the largest element of the set. It is derived
// analytically.
func (s Set) Max() uint64 { return s.operator().max() }

// FixedLength tells whether the set contains exactly one element.
func (s Set) FixedLength() bool { return s.Min() == s.Max() }

// Modulo returns the sorted set of residues of the elements modulo
// d. It is derived analytically: the cost is bounded by d, not by the
// cardinality of the set.
func (s Set) Modulo(d uint64) []uint64 {
	if d < 1 {
		panic("lengthset: invalid modulo divisor")
	}
	return s.operator().modulo(d)
}

// IsAlignedAt tells whether every element of the set is a multiple of
// the given bit length.
func (s Set) IsAlignedAt(bits uint64) bool {
	r := s.Modulo(bits)
	return len(r) == 1 && r[0] == 0
}

// IsByteAligned is shorthand for IsAlignedAt(8).
func (s Set) IsByteAligned() bool { return s.IsAlignedAt(8) }

// Elements returns the sorted elements of the set. This triggers the
// exact numerical expansion, which may be expensive for complex
// layouts; prefer the analytical queries where possible.
func (s Set) Elements() []uint64 {
	e := s.operator().expand()
	out := make([]uint64, len(e))
	copy(out, e)
	return out
}

// Count returns the cardinality of the set. Like Elements, it
// triggers numerical expansion.
func (s Set) Count() int { return len(s.operator().expand()) }

// Concat returns the concatenation s ⊕ t.
func (s Set) Concat(t Set) Set { return Concatenate(s, t) }

// Concatenate returns the concatenation of all the given sets:
// the set of sums over the cartesian product of their elements.
// Concatenation is commutative and associative; with no arguments the
// result is {0}.
func Concatenate(sets ...Set) Set {
	if len(sets) == 0 {
		return Set{}
	}
	children := make([]op, len(sets))
	for i, s := range sets {
		children[i] = s.operator()
	}
	return wrap(&concatOp{children: children})
}

// Unite returns the union of all the given sets.
func Unite(sets ...Set) Set {
	if len(sets) == 0 {
		return Set{}
	}
	children := make([]op, len(sets))
	for i, s := range sets {
		children[i] = s.operator()
	}
	return wrap(&unionOp{children: children})
}

// Repeat returns the k-fold concatenation of the set with itself.
// Repeat(0) is {0}. This models a fixed-length array of k elements.
func (s Set) Repeat(k uint64) Set {
	return wrap(&repeatOp{child: s.operator(), k: k})
}

// RepeatRange returns the union of Repeat(k) for every k in [0, max].
// This models the payload of a variable-length array, exclusive of
// its length tag.
func (s Set) RepeatRange(max uint64) Set {
	return wrap(&repeatRangeOp{child: s.operator(), kmax: max})
}

// PadToAlignment returns a set in which every element is rounded up
// to the nearest multiple of the given bit length.
func (s Set) PadToAlignment(bits uint64) Set {
	if bits < 1 {
		panic("lengthset: invalid alignment")
	}
	return wrap(&padOp{child: s.operator(), align: bits})
}

// Equal tells whether two sets contain exactly the same elements.
// Mismatches are usually rejected by the analytical fingerprint
// (min, max, residues modulo 32); otherwise both operands are
// expanded and compared exactly.
func (s Set) Equal(t Set) bool {
	a, b := s.operator(), t.operator()
	if a.min() != b.min() || a.max() != b.max() {
		return false
	}
	if !equalElements(a.modulo(32), b.modulo(32)) {
		return false
	}
	return equalElements(a.expand(), b.expand())
}

// String renders the symbolic form of the set. Leaf sets render as
// sorted "{a,b,c}" lists.
func (s Set) String() string { return s.operator().String() }

func equalElements(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatElements(e []uint64) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range e {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", v)
	}
	b.WriteByte('}')
	return b.String()
}

// sortedDedup sorts values and removes duplicates in place.
func sortedDedup(values []uint64) []uint64 {
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	out := values[:0]
	for i, v := range values {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// sumSets returns the sorted deduplicated set of pairwise sums.
func sumSets(a, b []uint64) []uint64 {
	out := make([]uint64, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, x+y)
		}
	}
	return sortedDedup(out)
}

// sumSetsMod returns the sorted deduplicated set of pairwise sums
// modulo d.
func sumSetsMod(a, b []uint64, d uint64) []uint64 {
	out := make([]uint64, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, (x+y)%d)
		}
	}
	return sortedDedup(out)
}

func uniteSets(sets ...[]uint64) []uint64 {
	var out []uint64
	for _, s := range sets {
		out = append(out, s...)
	}
	return sortedDedup(out)
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b uint64) uint64 {
	return a / gcd(a, b) * b
}
