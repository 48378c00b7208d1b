// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package syntax

import (
	"math/big"
	"strings"
	"unicode/utf16"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/values"
)

// parseIntegerLiteral converts an integer literal token (binary,
// octal, hex or decimal, with optional underscore separators) into a
// rational value.
func parseIntegerLiteral(text string) (values.Any, error) {
	clean := strings.ReplaceAll(text, "_", "")
	base := 10
	if len(clean) >= 2 && clean[0] == '0' {
		switch clean[1] {
		case 'b', 'B':
			base, clean = 2, clean[2:]
		case 'o', 'O':
			base, clean = 8, clean[2:]
		case 'x', 'X':
			base, clean = 16, clean[2:]
		}
	}
	n, ok := new(big.Int).SetString(clean, base)
	if !ok {
		return nil, errors.Errorf(errors.Parse, "malformed integer literal %q", text)
	}
	return values.NewIntBig(n), nil
}

// parseRealLiteral converts a real literal token into an exact
// rational value. Decimal fractions and exponents are exact by
// construction, so no precision is lost.
func parseRealLiteral(text string) (values.Any, error) {
	clean := strings.ReplaceAll(text, "_", "")
	r, ok := new(big.Rat).SetString(clean)
	if !ok {
		return nil, errors.Errorf(errors.Parse, "malformed real literal %q", text)
	}
	return values.NewRational(r), nil
}

// parseStringLiteral converts a quoted string literal token,
// including its quotes, into a string value. The supported escapes
// are \r \n \t (also written \R \N \T) \' \" \\ and the \uXXXX /
// \UXXXXXXXX code point forms. Surrogate code points are not valid
// characters.
func parseStringLiteral(text string) (values.Any, error) {
	if len(text) < 2 {
		return nil, errors.Errorf(errors.Internal, "short string literal %q", text)
	}
	body := text[1 : len(text)-1]
	var out strings.Builder
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			out.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(body) {
			return nil, errors.Errorf(errors.Parse, "unexpected end of string literal")
		}
		e := body[i]
		i++
		switch e {
		case 'r', 'R':
			out.WriteByte('\r')
		case 'n', 'N':
			out.WriteByte('\n')
		case 't', 'T':
			out.WriteByte('\t')
		case '\'', '"', '\\':
			out.WriteByte(e)
		case 'u', 'U':
			digits := 4
			if e == 'U' {
				digits = 8
			}
			if i+digits > len(body) {
				return nil, errors.Errorf(errors.Parse, "unexpected end of string literal")
			}
			var code rune
			for k := 0; k < digits; k++ {
				d := hexDigit(body[i+k])
				if d < 0 {
					return nil, errors.Errorf(errors.Parse, "invalid hex character %q in string literal", body[i+k])
				}
				code = code<<4 | rune(d)
			}
			i += digits
			if utf16.IsSurrogate(code) || code > 0x10FFFF {
				return nil, errors.Errorf(errors.Parse, "invalid code point U+%04X in string literal", code)
			}
			out.WriteRune(code)
		default:
			return nil, errors.Errorf(errors.Parse, "invalid escape sequence \\%c", e)
		}
	}
	return values.String(out.String()), nil
}

func hexDigit(c byte) int {
	switch {
	case '0' <= c && c <= '9':
		return int(c - '0')
	case 'a' <= c && c <= 'f':
		return int(c-'a') + 10
	case 'A' <= c && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
