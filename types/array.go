// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package types

import (
	"fmt"
	"math/bits"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/lengthset"
	"github.com/meridian-acoustics/dsdl/values"
)

// Array is implemented by the two array kinds.
type Array interface {
	Serializable
	ElementType() Serializable
	// Capacity is the maximum (variable) or exact (fixed) number of
	// elements.
	Capacity() uint64
}

func checkArray(element Serializable, capacity uint64) error {
	if capacity < 1 {
		return errors.Errorf(errors.TypeParameter, "array capacity cannot be less than 1")
	}
	if _, ok := element.(*Void); ok {
		return errors.Errorf(errors.TypeParameter, "void types cannot be array elements")
	}
	return nil
}

// FixedArray is an array of exactly Capacity elements. Its
// serialized form carries no length information.
type FixedArray struct {
	element  Serializable
	capacity uint64
}

// NewFixedArray returns a fixed-length array type.
func NewFixedArray(element Serializable, capacity uint64) (*FixedArray, error) {
	if err := checkArray(element, capacity); err != nil {
		return nil, err
	}
	if _, ok := element.(*UTF8); ok {
		return nil, errors.Errorf(errors.TypeParameter,
			"utf8 can only be used as a variable-length array element type")
	}
	return &FixedArray{element: element, capacity: capacity}, nil
}

func (t *FixedArray) TypeName() string          { return metaTypeName }
func (t *FixedArray) ElementType() Serializable { return t.element }
func (t *FixedArray) Capacity() uint64          { return t.capacity }

func (t *FixedArray) String() string {
	return fmt.Sprintf("%s[%d]", t.element, t.capacity)
}

// BitLengthSet is the element set repeated Capacity times.
func (t *FixedArray) BitLengthSet() lengthset.Set {
	return t.element.BitLengthSet().Repeat(t.capacity)
}

func (t *FixedArray) EqualValue(o values.Any) (bool, error)     { return equalTypes(t, o) }
func (t *FixedArray) Attribute(name string) (values.Any, error) { return typeAttribute(t, name) }

// VariableArray is an array of zero to Capacity elements. Its
// serialized form prepends an implicit length tag wide enough to
// index [0, Capacity].
type VariableArray struct {
	element  Serializable
	capacity uint64
	length   *UnsignedInt
}

// NewVariableArray returns a variable-length array type with the
// given inclusive capacity bound.
func NewVariableArray(element Serializable, capacity uint64) (*VariableArray, error) {
	if err := checkArray(element, capacity); err != nil {
		return nil, err
	}
	length, err := NewUnsignedInt(uint64(bits.Len64(capacity)), Truncated)
	if err != nil {
		return nil, err
	}
	return &VariableArray{element: element, capacity: capacity, length: length}, nil
}

func (t *VariableArray) TypeName() string          { return metaTypeName }
func (t *VariableArray) ElementType() Serializable { return t.element }
func (t *VariableArray) Capacity() uint64          { return t.capacity }

// LengthFieldType returns the best-matching unsigned integer type of
// the implicit length tag. The set of valid length values is a
// subset of that of the returned type.
func (t *VariableArray) LengthFieldType() *UnsignedInt { return t.length }

// StringLike tells whether the array might contain a text string: a
// variable-length array of an 8-bit unsigned element.
func (t *VariableArray) StringLike() bool {
	switch e := t.element.(type) {
	case *UnsignedInt:
		return e.BitLength() == BitsPerByte
	case *Byte, *UTF8:
		return true
	}
	return false
}

func (t *VariableArray) String() string {
	return fmt.Sprintf("%s[<=%d]", t.element, t.capacity)
}

// BitLengthSet is the length tag concatenated with zero to Capacity
// repetitions of the element set.
func (t *VariableArray) BitLengthSet() lengthset.Set {
	payload := t.element.BitLengthSet().RepeatRange(t.capacity)
	return lengthset.New(t.length.BitLength()).Concat(payload)
}

func (t *VariableArray) EqualValue(o values.Any) (bool, error)     { return equalTypes(t, o) }
func (t *VariableArray) Attribute(name string) (values.Any, error) { return typeAttribute(t, name) }
