// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package types

import (
	"fmt"
	"unicode/utf8"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/values"
)

// Attribute is a member of a composite type: a field, a padding
// field or a constant.
type Attribute interface {
	// DataType is the declared type of the attribute.
	DataType() Serializable
	// Name is the attribute name; empty for padding fields.
	Name() string
	String() string
}

// Field is a named attribute contributing to the serialized
// representation.
type Field struct {
	typ  Serializable
	name string
}

// NewField returns a field of the given type and name.
func NewField(typ Serializable, name string) (*Field, error) {
	if _, ok := typ.(*Void); ok {
		return nil, errors.Errorf(errors.Naming,
			"void-typed fields can be used only for padding and cannot be named")
	}
	if err := CheckName(name); err != nil {
		return nil, err
	}
	return &Field{typ: typ, name: name}, nil
}

func (f *Field) DataType() Serializable { return f.typ }
func (f *Field) Name() string           { return f.name }
func (f *Field) String() string         { return fmt.Sprintf("%s %s", f.typ, f.name) }

// Padding is an unnamed void-typed field.
type Padding struct {
	typ *Void
}

// NewPadding returns a padding field of the given void type.
func NewPadding(typ *Void) *Padding {
	return &Padding{typ: typ}
}

func (p *Padding) DataType() Serializable { return p.typ }
func (p *Padding) Name() string           { return "" }
func (p *Padding) String() string         { return p.typ.String() }

// Constant is a named attribute holding a value. Constants do not
// contribute to the serialized representation.
type Constant struct {
	typ   Serializable
	name  string
	value values.Any
}

// NewConstant returns a constant of the given type, name and value.
// The value must be assignable to the type: booleans to bool,
// integers to integer types, rationals to float types, and a
// single-character string to uint8. Out-of-range values are
// rejected; the range check is exact.
func NewConstant(typ Serializable, name string, value values.Any) (*Constant, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	c := &Constant{typ: typ, name: name, value: value}
	switch t := typ.(type) {
	case *Bool:
		if _, ok := value.(values.Boolean); !ok {
			return nil, errors.Errorf(errors.Constant, "invalid value for boolean constant: %s", value)
		}
		return c, nil
	case *UnsignedInt, *SignedInt, *Byte, *UTF8:
		if s, ok := value.(values.String); ok {
			v, err := characterValue(t, s)
			if err != nil {
				return nil, err
			}
			c.value = v
		}
		r, ok := c.value.(values.Rational)
		if !ok {
			return nil, errors.Errorf(errors.Constant, "invalid value for integer constant: %s", value)
		}
		if !r.IsInteger() {
			return nil, errors.Errorf(errors.Constant,
				"the value of an integer constant must be an integer; got %s", r)
		}
		return c, checkConstantRange(t.(Arithmetic), r)
	case *Float:
		r, ok := value.(values.Rational)
		if !ok {
			return nil, errors.Errorf(errors.Constant, "invalid value for float constant: %s", value)
		}
		return c, checkConstantRange(t, r)
	}
	return nil, errors.Errorf(errors.Constant, "invalid constant type: %s", typ)
}

// characterValue converts a single-character string constant into
// its code point value. Only uint8 accepts character constants.
func characterValue(typ Serializable, s values.String) (values.Rational, error) {
	u, ok := typ.(*UnsignedInt)
	if !ok || u.BitLength() != 8 {
		return values.Rational{}, errors.Errorf(errors.Constant,
			"character constants can be used only with uint8")
	}
	r, size := utf8.DecodeRuneInString(s.Value())
	if size != 1 || len(s.Value()) != 1 {
		return values.Rational{}, errors.Errorf(errors.Constant,
			"a constant string must be exactly one ASCII character long")
	}
	return values.NewInt(int64(r)), nil
}

func checkConstantRange(t Arithmetic, r values.Rational) error {
	min, max := t.ValueRange()
	v := r.Rat()
	if v.Cmp(min) < 0 || v.Cmp(max) > 0 {
		return errors.Errorf(errors.InvalidOperand,
			"constant value %s exceeds the range of its data type %s", r, t)
	}
	return nil
}

func (c *Constant) DataType() Serializable { return c.typ }
func (c *Constant) Name() string           { return c.name }
func (c *Constant) Value() values.Any      { return c.value }

func (c *Constant) String() string {
	return fmt.Sprintf("%s %s = %s", c.typ, c.name, c.value)
}
