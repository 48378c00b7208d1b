// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package types contains the data structures describing serializable
// DSDL data types: void paddings, primitives, arrays, composites
// (structures and unions) and services.
//
// Per the DSDL data model a serializable type is also an expression
// value: a versioned type reference is a first-class expression term
// whose attributes are the type's constants. Every type in this
// package therefore satisfies values.Any, and type objects may flow
// through the expression evaluator unchanged.
//
// Type objects are immutable once constructed. Immutability enables
// eager computation of the bit length set at construction time and
// makes shared references between composite types safe.
package types

import (
	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/lengthset"
	"github.com/meridian-acoustics/dsdl/values"
)

// BitsPerByte is the size of the byte as prescribed by the
// specification.
const BitsPerByte = 8

// metaTypeName is the expression-level type name shared by all
// serializable types.
const metaTypeName = "metaserializable"

// Serializable is the interface implemented by every serializable
// type. Invoking String on a type returns its uniform normalized
// definition, e.g. "saturated uint8[<=3]" or "uavcan.node.Heartbeat.1.0";
// the string form is itself a valid type reference.
type Serializable interface {
	values.Any

	// BitLengthSet returns the set of all possible bit lengths of
	// the serialized representations of the type. It is never empty.
	BitLengthSet() lengthset.Set
}

// Type is a built top-level definition: a message composite or a
// service.
type Type interface {
	FullName() string
	ShortName() string
	RootNamespace() string
	Version() Version
	Deprecated() bool
	// FixedPortID returns the fixed port identifier, if one is
	// assigned.
	FixedPortID() (int, bool)
	// SourceFile returns the path of the definition file. Empty for
	// synthesized types such as service request and response
	// sections.
	SourceFile() string
}

// CastMode defines the out-of-range behavior of a primitive type:
// saturated clamps, truncated wraps.
type CastMode int

const (
	// Saturated is the default cast mode.
	Saturated CastMode = iota
	// Truncated is the optional cast mode of unsigned integers and
	// floats.
	Truncated
)

func (m CastMode) String() string {
	if m == Truncated {
		return "truncated"
	}
	return "saturated"
}

// equalTypes implements value equality between serializable types:
// two types are equal iff their normalized renderings and bit length
// sets coincide.
func equalTypes(t Serializable, other values.Any) (bool, error) {
	o, ok := other.(Serializable)
	if !ok {
		return false, errors.Errorf(errors.InvalidOperand,
			"a type can be compared only with another type, not with %s", other.TypeName())
	}
	return t.String() == o.String() && t.BitLengthSet().Equal(o.BitLengthSet()), nil
}

// typeAttribute resolves the attributes common to all serializable
// types. The only such attribute is _bit_length_, which yields the
// bit length set as a set of rationals.
func typeAttribute(t Serializable, name string) (values.Any, error) {
	if name == "_bit_length_" {
		return lengthSetValue(t.BitLengthSet())
	}
	return nil, errors.Errorf(errors.UndefinedAttribute, "invalid attribute name %q", name)
}

// lengthSetValue converts a bit length set into an expression value:
// a set of rationals. This triggers numerical expansion.
func lengthSetValue(s lengthset.Set) (values.Any, error) {
	elems := s.Elements()
	out := make([]values.Any, len(elems))
	for i, e := range elems {
		out[i] = values.NewInt(int64(e))
	}
	return values.NewSet(out)
}
