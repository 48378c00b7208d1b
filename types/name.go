// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package types

import (
	"regexp"

	"github.com/meridian-acoustics/dsdl/errors"
)

// MaxNameComponentLength limits the length of a single name
// component.
const MaxNameComponentLength = 50

// MaxFullNameLength limits the length of a full composite type name.
const MaxFullNameLength = 255

// NameSeparator joins the components of a full name.
const NameSeparator = "."

// Disallowed name patterns apply to any part of any name: attribute
// names, namespace components, type names. A pattern must match the
// whole name to trigger; matching is case-insensitive.
var disallowedNamePatterns = func() []*regexp.Regexp {
	patterns := []string{
		`truncated`,
		`saturated`,
		`true`,
		`false`,
		`bool`,
		`byte`,
		`utf8`,
		`void\d*`,
		`u?int\d*`,
		`u?q\d+_\d+`,
		`float\d*`,
		`optional`,
		`aligned`,
		`const`,
		`struct`,
		`super`,
		`template`,
		`enum`,
		`self`,
		`and`,
		`or`,
		`not`,
		`auto`,
		`type`,
		`con`,
		`prn`,
		`aux`,
		`nul`,
		`com\d`,
		`lpt\d`,
		`_.*_`,
	}
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)^(?:` + p + `)$`)
	}
	return out
}()

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameContinuation(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9')
}

// CheckName validates a single name component: an attribute name, a
// namespace component or a type short name.
func CheckName(name string) error {
	if name == "" {
		return errors.Errorf(errors.Naming, "name or namespace component cannot be empty")
	}
	if !isNameStart(name[0]) {
		return errors.Errorf(errors.Naming, "name or namespace component cannot start with %q", name[0])
	}
	for i := 1; i < len(name); i++ {
		if !isNameContinuation(name[i]) {
			return errors.Errorf(errors.Naming, "name or namespace component cannot contain %q", name[i])
		}
	}
	if len(name) > MaxNameComponentLength {
		return errors.Errorf(errors.Naming, "name component %q is longer than %d characters",
			name, MaxNameComponentLength)
	}
	for _, pat := range disallowedNamePatterns {
		if pat.MatchString(name) {
			return errors.Errorf(errors.Naming, "disallowed name: %q matches the pattern %s", name, pat)
		}
	}
	return nil
}
