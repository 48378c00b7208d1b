// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package values defines the data structures representing constant
// expression values in the DSDL front end. A value is one of:
//
//	rational    an exact arbitrary-precision fraction
//	bool        a boolean
//	string      a unicode string
//	set         a homogeneous finite set of values
//
// Serializable data types are values too: a type reference is a
// first-class expression term. Type implementations live in the types
// package and satisfy Any (and usually Attributer and Equaler)
// defined here.
//
// Values are immutable. The operator algebra over values is defined
// in this package as well; see op.go.
package values

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/meridian-acoustics/dsdl/errors"
)

// Any is the interface implemented by every expression value,
// including serializable types.
type Any interface {
	// TypeName returns the name of the value's type as defined by the
	// language specification, e.g. "rational" or "set".
	TypeName() string
	// String returns a specification-compatible rendering of the
	// value suitable for printing.
	String() string
}

// Attributer is implemented by values that expose named attributes
// through the "." operator.
type Attributer interface {
	Any
	// Attribute resolves the named attribute, or returns an
	// UndefinedAttribute error.
	Attribute(name string) (Any, error)
}

// Equaler is implemented by values outside this package (such as
// serializable types) that define equality with other values.
type Equaler interface {
	Any
	EqualValue(other Any) (bool, error)
}

// Rational is an exact fraction. The zero value is 0.
type Rational struct {
	rat *big.Rat
}

// NewRational returns a rational holding a copy of r.
func NewRational(r *big.Rat) Rational {
	return Rational{new(big.Rat).Set(r)}
}

// NewInt returns the rational representing the given integer.
func NewInt(v int64) Rational {
	return Rational{new(big.Rat).SetInt64(v)}
}

// NewIntBig returns the rational representing the given
// arbitrary-precision integer.
func NewIntBig(v *big.Int) Rational {
	return Rational{new(big.Rat).SetInt(v)}
}

// Rat returns the underlying fraction. The result must not be
// mutated.
func (v Rational) Rat() *big.Rat {
	if v.rat == nil {
		return new(big.Rat)
	}
	return v.rat
}

// IsInteger tells whether the denominator equals one.
func (v Rational) IsInteger() bool { return v.Rat().IsInt() }

// Integer returns the value as an arbitrary-precision integer, or an
// InvalidOperand error if the value is not an integer.
func (v Rational) Integer() (*big.Int, error) {
	r := v.Rat()
	if !r.IsInt() {
		return nil, errors.Errorf(errors.InvalidOperand, "rational %s is not an integer", r.RatString())
	}
	return r.Num(), nil
}

// Uint64 returns the value as a uint64, or an InvalidOperand error if
// the value is not an integer in range.
func (v Rational) Uint64() (uint64, error) {
	n, err := v.Integer()
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, errors.Errorf(errors.InvalidOperand, "integer %s is out of range", n)
	}
	return n.Uint64(), nil
}

// TypeName implements Any.
func (v Rational) TypeName() string { return "rational" }

// String renders the fraction in the form "n" or "n/d".
func (v Rational) String() string { return v.Rat().RatString() }

// Boolean is a boolean value.
type Boolean bool

// TypeName implements Any.
func (v Boolean) TypeName() string { return "bool" }

func (v Boolean) String() string {
	if v {
		return "true"
	}
	return "false"
}

// String is a unicode string value.
type String string

// TypeName implements Any.
func (v String) TypeName() string { return "string" }

// String renders the value as a quoted literal.
func (v String) String() string { return strconv.Quote(string(v)) }

// Value returns the raw string.
func (v String) Value() string { return string(v) }

// Set is a homogeneous finite set of values. Sets are deduplicated at
// construction and preserve first-insertion order.
type Set struct {
	elemType string
	elems    []Any
	index    map[string]bool
}

// NewSet constructs a set from the given elements. Empty sets are not
// representable; heterogeneous element types are rejected.
func NewSet(elems []Any) (*Set, error) {
	if len(elems) == 0 {
		return nil, errors.Errorf(errors.InvalidOperand,
			"zero-length sets are not permitted because the element type cannot be deduced")
	}
	s := &Set{elemType: elems[0].TypeName(), index: make(map[string]bool)}
	for _, e := range elems {
		if e.TypeName() != s.elemType {
			return nil, errors.Errorf(errors.InvalidOperand,
				"heterogeneous sets are not permitted: %s vs %s", s.elemType, e.TypeName())
		}
		key := e.String()
		if s.index[key] {
			continue
		}
		s.index[key] = true
		s.elems = append(s.elems, e)
	}
	return s, nil
}

// ElementType returns the type name shared by all elements.
func (v *Set) ElementType() string { return v.elemType }

// Elements returns the set's elements in first-insertion order. The
// result must not be mutated.
func (v *Set) Elements() []Any { return v.elems }

// Len returns the cardinality of the set.
func (v *Set) Len() int { return len(v.elems) }

// Contains tells whether the set contains the given value.
func (v *Set) Contains(e Any) bool { return v.index[e.String()] }

// TypeName implements Any.
func (v *Set) TypeName() string { return "set" }

func (v *Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range v.elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Attribute implements the set attributes .min, .max and .count.
func (v *Set) Attribute(name string) (Any, error) {
	switch name {
	case "min":
		return v.extremum(Less)
	case "max":
		return v.extremum(Greater)
	case "count":
		return NewInt(int64(len(v.elems))), nil
	}
	return nil, undefinedAttribute(name)
}

func (v *Set) extremum(better func(l, r Any) (Any, error)) (Any, error) {
	out := v.elems[0]
	for _, e := range v.elems[1:] {
		won, err := better(e, out)
		if err != nil {
			return nil, err
		}
		if bool(won.(Boolean)) {
			out = e
		}
	}
	return out, nil
}

// mapLeft applies op(x, other) to every element x, producing a new
// deduplicated set.
func (v *Set) mapLeft(op func(l, r Any) (Any, error), other Any) (Any, error) {
	out := make([]Any, 0, len(v.elems))
	for _, e := range v.elems {
		r, err := op(e, other)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return NewSet(out)
}

// mapRight applies op(other, x) to every element x, producing a new
// deduplicated set.
func (v *Set) mapRight(op func(l, r Any) (Any, error), other Any) (Any, error) {
	out := make([]Any, 0, len(v.elems))
	for _, e := range v.elems {
		r, err := op(other, e)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return NewSet(out)
}

func (v *Set) sameElementType(other *Set) error {
	if v.elemType != other.elemType {
		return errors.Errorf(errors.InvalidOperand,
			"binary operators over sets are defined only for sets sharing the element type: %s vs %s",
			v.elemType, other.elemType)
	}
	return nil
}

func (v *Set) isSubsetOf(other *Set) bool {
	for _, e := range v.elems {
		if !other.Contains(e) {
			return false
		}
	}
	return true
}

func undefinedAttribute(name string) *errors.Error {
	return errors.Errorf(errors.UndefinedAttribute, "invalid attribute name %q", name)
}
