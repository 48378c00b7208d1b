// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package types

import (
	"fmt"

	"github.com/meridian-acoustics/dsdl/lengthset"
	"github.com/meridian-acoustics/dsdl/values"
)

// Void is the padding type of 1 to 64 bits. Void-typed fields are
// unnamed and contribute only to the bit length.
type Void struct {
	bits uint64
}

// NewVoid returns a void type of the given width.
func NewVoid(bits uint64) (*Void, error) {
	if err := checkBitLength(bits, 1); err != nil {
		return nil, err
	}
	return &Void{bits: bits}, nil
}

func (t *Void) TypeName() string            { return metaTypeName }
func (t *Void) String() string              { return fmt.Sprintf("void%d", t.bits) }
func (t *Void) BitLength() uint64           { return t.bits }
func (t *Void) BitLengthSet() lengthset.Set { return lengthset.New(t.bits) }

func (t *Void) EqualValue(o values.Any) (bool, error)     { return equalTypes(t, o) }
func (t *Void) Attribute(name string) (values.Any, error) { return typeAttribute(t, name) }
