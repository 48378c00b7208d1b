// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package types

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/lengthset"
	"github.com/meridian-acoustics/dsdl/values"
)

// MaxPrimitiveBitLength is the widest primitive (and void) type.
const MaxPrimitiveBitLength = 64

// Primitive is implemented by the fixed-width scalar types.
type Primitive interface {
	Serializable
	// BitLength is a shortcut for the sole element of the bit length
	// set: primitive types are fixed-length.
	BitLength() uint64
	CastMode() CastMode
}

// Arithmetic is implemented by primitives whose values are numbers.
type Arithmetic interface {
	Primitive
	// ValueRange returns the inclusive range of representable
	// values. The bounds are exact.
	ValueRange() (min, max *big.Rat)
}

// StandardBitLength tells whether the primitive has a bit length
// commonly used in modern microarchitectures: at least one byte and a
// power of two.
func StandardBitLength(t Primitive) bool {
	n := t.BitLength()
	return n >= BitsPerByte && n&(n-1) == 0
}

func checkBitLength(n uint64, min uint64) error {
	if n < min {
		return errors.Errorf(errors.TypeParameter, "bit length cannot be less than %d", min)
	}
	if n > MaxPrimitiveBitLength {
		return errors.Errorf(errors.TypeParameter, "bit length cannot exceed %d", MaxPrimitiveBitLength)
	}
	return nil
}

// Bool is the one-bit boolean primitive. Its cast mode is always
// saturated.
type Bool struct{}

// NewBool returns the boolean type; the truncated cast mode is
// rejected.
func NewBool(mode CastMode) (*Bool, error) {
	if mode != Saturated {
		return nil, errors.Errorf(errors.TypeParameter, "invalid cast mode for bool: %s", mode)
	}
	return &Bool{}, nil
}

func (t *Bool) TypeName() string                          { return metaTypeName }
func (t *Bool) String() string                            { return "bool" }
func (t *Bool) BitLength() uint64                         { return 1 }
func (t *Bool) CastMode() CastMode                        { return Saturated }
func (t *Bool) BitLengthSet() lengthset.Set               { return lengthset.New(1) }
func (t *Bool) EqualValue(o values.Any) (bool, error)     { return equalTypes(t, o) }
func (t *Bool) Attribute(name string) (values.Any, error) { return typeAttribute(t, name) }

// UnsignedInt is an unsigned integer primitive of 1 to 64 bits.
type UnsignedInt struct {
	bits uint64
	mode CastMode
}

// NewUnsignedInt returns an unsigned integer type of the given width.
func NewUnsignedInt(bits uint64, mode CastMode) (*UnsignedInt, error) {
	if err := checkBitLength(bits, 1); err != nil {
		return nil, err
	}
	return &UnsignedInt{bits: bits, mode: mode}, nil
}

func (t *UnsignedInt) TypeName() string            { return metaTypeName }
func (t *UnsignedInt) String() string              { return fmt.Sprintf("%s uint%d", t.mode, t.bits) }
func (t *UnsignedInt) BitLength() uint64           { return t.bits }
func (t *UnsignedInt) CastMode() CastMode          { return t.mode }
func (t *UnsignedInt) BitLengthSet() lengthset.Set { return lengthset.New(t.bits) }

// ValueRange implements Arithmetic: [0, 2^n - 1].
func (t *UnsignedInt) ValueRange() (min, max *big.Rat) {
	hi := new(big.Int).Lsh(big.NewInt(1), uint(t.bits))
	hi.Sub(hi, big.NewInt(1))
	return new(big.Rat), new(big.Rat).SetInt(hi)
}

func (t *UnsignedInt) EqualValue(o values.Any) (bool, error)     { return equalTypes(t, o) }
func (t *UnsignedInt) Attribute(name string) (values.Any, error) { return typeAttribute(t, name) }

// SignedInt is a signed integer primitive of 2 to 64 bits. Signed
// integers are saturated-only.
type SignedInt struct {
	bits uint64
}

// NewSignedInt returns a signed integer type of the given width.
func NewSignedInt(bits uint64, mode CastMode) (*SignedInt, error) {
	if err := checkBitLength(bits, 2); err != nil {
		return nil, err
	}
	if mode != Saturated {
		return nil, errors.Errorf(errors.TypeParameter, "invalid cast mode for signed integer: %s", mode)
	}
	return &SignedInt{bits: bits}, nil
}

func (t *SignedInt) TypeName() string            { return metaTypeName }
func (t *SignedInt) String() string              { return fmt.Sprintf("saturated int%d", t.bits) }
func (t *SignedInt) BitLength() uint64           { return t.bits }
func (t *SignedInt) CastMode() CastMode          { return Saturated }
func (t *SignedInt) BitLengthSet() lengthset.Set { return lengthset.New(t.bits) }

// ValueRange implements Arithmetic: [-2^(n-1), 2^(n-1) - 1].
func (t *SignedInt) ValueRange() (min, max *big.Rat) {
	half := new(big.Int).Lsh(big.NewInt(1), uint(t.bits-1))
	hi := new(big.Int).Sub(half, big.NewInt(1))
	lo := new(big.Int).Neg(half)
	return new(big.Rat).SetInt(lo), new(big.Rat).SetInt(hi)
}

func (t *SignedInt) EqualValue(o values.Any) (bool, error)     { return equalTypes(t, o) }
func (t *SignedInt) Attribute(name string) (values.Any, error) { return typeAttribute(t, name) }

// Byte is the array-element type of byte strings: a truncated 8-bit
// unsigned integer rendered as "byte". It may only be used as an
// array element type.
type Byte struct {
	UnsignedInt
}

// NewByte returns the byte type.
func NewByte() *Byte {
	return &Byte{UnsignedInt{bits: BitsPerByte, mode: Truncated}}
}

func (t *Byte) String() string { return "byte" }

func (t *Byte) EqualValue(o values.Any) (bool, error)     { return equalTypes(t, o) }
func (t *Byte) Attribute(name string) (values.Any, error) { return typeAttribute(t, name) }

// UTF8 is the array-element type of UTF-8 strings: a truncated 8-bit
// unsigned integer rendered as "utf8". It may only be used as a
// variable-length array element type.
type UTF8 struct {
	UnsignedInt
}

// NewUTF8 returns the utf8 type.
func NewUTF8() *UTF8 {
	return &UTF8{UnsignedInt{bits: BitsPerByte, mode: Truncated}}
}

func (t *UTF8) String() string { return "utf8" }

func (t *UTF8) EqualValue(o values.Any) (bool, error)     { return equalTypes(t, o) }
func (t *UTF8) Attribute(name string) (values.Any, error) { return typeAttribute(t, name) }

// Float is an IEEE 754 floating point primitive of 16, 32 or 64
// bits.
type Float struct {
	bits      uint64
	mode      CastMode
	magnitude *big.Rat
}

// NewFloat returns a float type of the given width.
func NewFloat(bits uint64, mode CastMode) (*Float, error) {
	// The bounds are the exact largest finite magnitudes of the IEEE
	// 754 binary16/32/64 formats: 2^emax * (2 - 2^(1-p)).
	var (
		emax uint
		prec int64
	)
	switch bits {
	case 16:
		emax, prec = 0x00F, 10
	case 32:
		emax, prec = 0x07F, 23
	case 64:
		emax, prec = 0x3FF, 52
	default:
		return nil, errors.Errorf(errors.TypeParameter, "invalid bit length for float type: %d", bits)
	}
	scale := new(big.Rat).SetInt(new(big.Int).Lsh(big.NewInt(1), emax))
	frac := new(big.Rat).Sub(big.NewRat(2, 1), big.NewRat(1, int64(1)<<uint(prec)))
	return &Float{bits: bits, mode: mode, magnitude: scale.Mul(scale, frac)}, nil
}

func (t *Float) TypeName() string            { return metaTypeName }
func (t *Float) String() string              { return fmt.Sprintf("%s float%d", t.mode, t.bits) }
func (t *Float) BitLength() uint64           { return t.bits }
func (t *Float) CastMode() CastMode          { return t.mode }
func (t *Float) BitLengthSet() lengthset.Set { return lengthset.New(t.bits) }

// ValueRange implements Arithmetic; the bounds are exact.
func (t *Float) ValueRange() (min, max *big.Rat) {
	return new(big.Rat).Neg(t.magnitude), new(big.Rat).Set(t.magnitude)
}

func (t *Float) EqualValue(o values.Any) (bool, error)     { return equalTypes(t, o) }
func (t *Float) Attribute(name string) (values.Any, error) { return typeAttribute(t, name) }

// Primitive and void type names: the bit length suffix is decimal
// with no leading zero.
var primitiveNamePattern = regexp.MustCompile(`^(void|uint|int|float)([1-9]\d*)$`)

// FromName constructs the primitive or void type denoted by the
// given name, such as "uint8", "float32", "bool" or "void13". The
// castExplicit flag tells whether the cast mode was spelled out in
// the source; void types do not accept one. The second return value
// is false when the name does not denote a primitive or void type,
// in which case the name must be resolved as a composite type
// reference.
func FromName(name string, mode CastMode, castExplicit bool) (Serializable, bool, error) {
	switch name {
	case "bool":
		t, err := NewBool(mode)
		return t, true, err
	case "byte":
		if castExplicit {
			return nil, true, errors.Errorf(errors.TypeParameter, "cast mode is not applicable to byte")
		}
		return NewByte(), true, nil
	case "utf8":
		if castExplicit {
			return nil, true, errors.Errorf(errors.TypeParameter, "cast mode is not applicable to utf8")
		}
		return NewUTF8(), true, nil
	}
	m := primitiveNamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, false, nil
	}
	bits, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return nil, true, errors.Errorf(errors.TypeParameter, "invalid bit length in %q", name)
	}
	switch m[1] {
	case "void":
		if castExplicit {
			return nil, true, errors.Errorf(errors.TypeParameter, "cast mode is not applicable to void")
		}
		t, err := NewVoid(bits)
		return t, true, err
	case "uint":
		t, err := NewUnsignedInt(bits, mode)
		return t, true, err
	case "int":
		t, err := NewSignedInt(bits, mode)
		return t, true, err
	default:
		t, err := NewFloat(bits, mode)
		return t, true, err
	}
}
