// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package dsdl implements the front end of the DSDL data type
// definition language: given a root namespace directory and a set of
// lookup namespace directories, it discovers the definition files,
// parses and builds every data type with its constants evaluated,
// its cross-references resolved and its exact bit length set
// computed, and enforces the namespace-wide consistency rules. The
// first offending construct aborts processing with an error carrying
// its file and line.
package dsdl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/internal/walker"
	"github.com/meridian-acoustics/dsdl/log"
	"github.com/meridian-acoustics/dsdl/types"
)

// DefaultExtension is the definition file extension used when the
// options do not override it.
const DefaultExtension = "dsdl"

// PrintHandler receives the output of @print directives and the
// front end's diagnostics. The line number is one-based; it is zero
// when the diagnostic is not tied to a specific line.
type PrintHandler func(path string, line int, text string)

// Options controls a ReadNamespace invocation. The zero value is
// ready to use.
type Options struct {
	// PrintHandler, when set, receives @print output and
	// diagnostics such as deprecation warnings.
	PrintHandler PrintHandler
	// AllowUnregulatedFixedPortID suppresses the regulated-range
	// check of fixed port identifiers. This is a dangerous feature;
	// refer to the specification before enabling it.
	AllowUnregulatedFixedPortID bool
	// StrictDeprecation promotes the dependency-on-deprecated-type
	// diagnostic to an error.
	StrictDeprecation bool
	// Extension overrides the definition file extension, without the
	// leading dot. Defaults to DefaultExtension.
	Extension string
}

// ReadNamespace reads all definitions from the root namespace
// directory, resolving cross-references against the definitions of
// the root and lookup namespace directories. The result is sorted by
// full name, then by version, newest first, so the newest version of
// a type is always the first matching occurrence.
//
// Exactly one error is returned per invocation: the first one
// encountered. Its rendering carries the "path:line:" prefix of the
// offending construct when known.
func ReadNamespace(rootDir string, lookupDirs []string, opts *Options) ([]types.Type, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}

	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, errors.E(errors.Internal, err)
	}
	if _, err := os.Stat(rootDir); err != nil {
		return nil, err
	}

	// The root namespace participates in lookup. Lookup directories
	// are deduplicated and ordered deterministically.
	seen := map[string]bool{}
	roots := []string{rootDir}
	seen[rootDir] = true
	for _, dir := range lookupDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, errors.E(errors.Internal, err)
		}
		if !seen[abs] {
			seen[abs] = true
			roots = append(roots, abs)
		}
	}
	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)

	if err := ensureNoNestedRoots(sorted); err != nil {
		return nil, err
	}
	if err := ensureNoRootNameCollisions(sorted); err != nil {
		return nil, err
	}

	target, err := discover(rootDir, o.Extension)
	if err != nil {
		return nil, err
	}
	var lookup []*Definition
	for _, dir := range sorted {
		defs, err := discover(dir, o.Extension)
		if err != nil {
			return nil, err
		}
		lookup = append(lookup, defs...)
	}
	log.Debugf("reading %d definitions from %s with %d lookup definitions",
		len(target), rootDir, len(lookup))

	if err := ensureNoNameCollisions(target, lookup); err != nil {
		return nil, err
	}

	s := newSession(o, lookup)
	built := make([]types.Type, 0, len(target))
	for _, d := range target {
		t, err := s.read(d)
		if err != nil {
			return nil, errors.Recover(err)
		}
		built = append(built, t)
	}

	// The post-pass validates the read namespace only. Possible
	// inconsistencies confined to the lookup namespaces are outside
	// the front end's responsibility: they may be managed by a third
	// party and must not fail the user's own namespace.
	if err := ensureNoFixedPortIDCollisions(built); err != nil {
		return nil, err
	}
	if err := ensureMinorVersionCompatibility(built); err != nil {
		return nil, err
	}

	sort.Slice(built, func(i, j int) bool {
		a, b := built[i], built[j]
		if a.FullName() != b.FullName() {
			return a.FullName() < b.FullName()
		}
		av, bv := a.Version(), b.Version()
		if av.Major != bv.Major {
			return av.Major > bv.Major
		}
		return av.Minor > bv.Minor
	})
	return built, nil
}

// discover lists the definition files under one root namespace
// directory, sorted by full name, newest version first.
func discover(rootDir, extension string) ([]*Definition, error) {
	var w walker.Walker
	w.Init(rootDir)
	var out []*Definition
	suffix := "." + extension
	for w.Scan() {
		if w.Info().IsDir() || !strings.HasSuffix(w.Path(), suffix) {
			continue
		}
		d, err := newDefinition(w.Path(), rootDir, extension)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.fullName != b.fullName {
			return a.fullName < b.fullName
		}
		if a.version.Major != b.version.Major {
			return a.version.Major > b.version.Major
		}
		return a.version.Minor > b.version.Minor
	})
	return out, nil
}

// ensureNoNestedRoots rejects a root namespace directory nested
// inside another.
func ensureNoNestedRoots(roots []string) error {
	for _, a := range roots {
		for _, b := range roots {
			if a != b && strings.HasPrefix(a, b+string(filepath.Separator)) {
				return errors.Errorf(errors.Naming,
					"the root namespace %s is nested inside %s, which is not permitted", a, b)
			}
		}
	}
	return nil
}

// ensureNoRootNameCollisions rejects two distinct directories that
// define root namespaces under the same name.
func ensureNoRootNameCollisions(roots []string) error {
	for _, a := range roots {
		for _, b := range roots {
			if a != b && strings.EqualFold(filepath.Base(a), filepath.Base(b)) {
				return errors.Errorf(errors.Naming,
					"the root namespace %s conflicts with %s", a, b)
			}
		}
	}
	return nil
}

// ensureNoNameCollisions rejects target definitions whose names
// conflict with lookup definitions: same full name spelled in a
// different case, or a type name that is also a namespace.
func ensureNoNameCollisions(target, lookup []*Definition) error {
	for _, tg := range target {
		for _, lu := range lookup {
			if tg.fullName != lu.fullName && strings.EqualFold(tg.fullName, lu.fullName) {
				return locatedNamingError(tg,
					"the full name of this definition differs from %s only by letter case", lu.filePath)
			}
			luPrefix := strings.ToLower(lu.fullName) + types.NameSeparator
			if strings.HasPrefix(strings.ToLower(tg.FullNamespace())+types.NameSeparator, luPrefix) {
				return locatedNamingError(tg,
					"the namespace of this definition conflicts with the data type %s", lu.filePath)
			}
			tgPrefix := strings.ToLower(tg.fullName) + types.NameSeparator
			if strings.HasPrefix(strings.ToLower(lu.FullNamespace())+types.NameSeparator, tgPrefix) {
				return locatedNamingError(tg,
					"this data type conflicts with the namespace of %s", lu.filePath)
			}
		}
	}
	return nil
}

func locatedNamingError(d *Definition, format string, args ...interface{}) *errors.Error {
	e := errors.Errorf(errors.Naming, format, args...)
	e.Path = d.filePath
	return e
}

// ensureNoFixedPortIDCollisions rejects two definitions sharing a
// fixed port ID unless they are versions of the same type. Subjects
// and services use orthogonal port ID spaces, and types whose major
// version is zero are exempt from the cross-version rule.
func ensureNoFixedPortIDCollisions(built []types.Type) error {
	for _, a := range built {
		for _, b := range built {
			if a == b {
				continue
			}
			_, aService := a.(*types.Service)
			_, bService := b.(*types.Service)
			if aService != bService {
				continue
			}
			differentNames := a.FullName() != b.FullName()
			bothReleased := a.Version().Major > 0 && b.Version().Major > 0
			differentMajor := a.Version().Major != b.Version().Major
			if !differentNames && !(differentMajor && bothReleased) {
				continue
			}
			aid, aok := a.FixedPortID()
			bid, bok := b.FixedPortID()
			if aok && bok && aid == bid {
				e := errors.Errorf(errors.PortID,
					"the fixed port ID of this definition is also used in %s", b.SourceFile())
				e.Path = a.SourceFile()
				return e
			}
		}
	}
	return nil
}

// ensureMinorVersionCompatibility applies the per-(name, major
// version) rules: unique minor versions, same kind, mutual bit
// compatibility, and consistent fixed port IDs.
func ensureMinorVersionCompatibility(built []types.Type) error {
	groups := map[string][]types.Type{}
	for _, t := range built {
		key := fmt.Sprintf("%s.%d", t.FullName(), t.Version().Major)
		groups[key] = append(groups[key], t)
	}
	for _, group := range groups {
		for _, a := range group {
			for _, b := range group {
				if a == b {
					continue
				}
				if err := checkVersionPair(a, b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkVersionPair(a, b types.Type) error {
	fail := func(kind errors.Kind, format string, args ...interface{}) error {
		e := errors.Errorf(kind, format, args...)
		e.Path = a.SourceFile()
		return e
	}
	if a.Version().Minor == b.Version().Minor {
		return fail(errors.Version, "this definition shares its version number with %s", b.SourceFile())
	}
	as, aService := a.(*types.Service)
	bs, bService := b.(*types.Service)
	if aService != bService {
		return fail(errors.Version, "this definition is not of the same kind as %s", b.SourceFile())
	}
	compatible := false
	if aService {
		compatible = as.RequestType().IsBitCompatibleWith(bs.RequestType()) &&
			as.ResponseType().IsBitCompatibleWith(bs.ResponseType())
	} else {
		compatible = a.(*types.Composite).IsBitCompatibleWith(b.(*types.Composite))
	}
	if !compatible {
		return fail(errors.BitCompatibility, "this definition is not bit-compatible with %s", b.SourceFile())
	}
	aid, aok := a.FixedPortID()
	bid, bok := b.FixedPortID()
	switch {
	case aok == bok:
		if aid != bid {
			return fail(errors.PortID, "different fixed port ID values under the same major version: %s", b.SourceFile())
		}
	default:
		newest := a
		if b.Version().Minor > a.Version().Minor {
			newest = b
		}
		if _, ok := newest.FixedPortID(); !ok {
			e := errors.Errorf(errors.PortID, "a fixed port ID cannot be removed under the same major version")
			e.Path = newest.SourceFile()
			return e
		}
	}
	return nil
}
