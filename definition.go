// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package dsdl

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/meridian-acoustics/dsdl/errors"
	"github.com/meridian-acoustics/dsdl/log"
	"github.com/meridian-acoustics/dsdl/syntax"
	"github.com/meridian-acoustics/dsdl/types"
)

// Definition is one definition file found in a namespace directory.
// It abstracts the file system details away: the full type name,
// version and optional fixed port ID are carried by the file path,
// so a Definition can be constructed without reading the file.
type Definition struct {
	filePath    string
	rootPath    string
	fullName    string
	components  []string
	version     types.Version
	fixedPortID int
}

// newDefinition parses the path of a definition file relative to its
// root namespace directory. The file name grammar is
// "(PORT '.')? SHORT '.' MAJOR '.' MINOR '.' EXT"; the directory
// path supplies the leading name components.
func newDefinition(filePath, rootPath, extension string) (*Definition, error) {
	d := &Definition{
		filePath:    filePath,
		rootPath:    rootPath,
		fixedPortID: -1,
	}
	rel, err := filepath.Rel(rootPath, filePath)
	if err != nil {
		return nil, errors.E(errors.Internal, err)
	}

	base := filepath.Base(rel)
	base = strings.TrimSuffix(base, "."+extension)
	parts := strings.Split(base, ".")
	var portPart, shortName, majorPart, minorPart string
	switch len(parts) {
	case 3:
		shortName, majorPart, minorPart = parts[0], parts[1], parts[2]
	case 4:
		portPart, shortName, majorPart, minorPart = parts[0], parts[1], parts[2], parts[3]
	default:
		return nil, fileNameError(filePath, "invalid file name: expected (PORT.)?SHORT.MAJOR.MINOR.%s", extension)
	}
	if portPart != "" {
		port, err := strconv.Atoi(portPart)
		if err != nil || port < 0 {
			return nil, fileNameError(filePath,
				"not a valid fixed port ID: %q; namespaces are defined as directories, "+
					"putting a namespace name in the file name will not work", portPart)
		}
		d.fixedPortID = port
	}
	major, err := strconv.Atoi(majorPart)
	if err != nil {
		return nil, fileNameError(filePath, "could not parse the version numbers")
	}
	minor, err := strconv.Atoi(minorPart)
	if err != nil {
		return nil, fileNameError(filePath, "could not parse the version numbers")
	}
	d.version = types.Version{Major: major, Minor: minor}

	d.components = []string{filepath.Base(rootPath)}
	if dir := filepath.Dir(rel); dir != "." {
		d.components = append(d.components, strings.Split(dir, string(filepath.Separator))...)
	}
	for _, c := range d.components {
		if strings.Contains(c, types.NameSeparator) {
			return nil, fileNameError(filePath, "invalid name for namespace component: %q", c)
		}
	}
	d.components = append(d.components, shortName)
	d.fullName = strings.Join(d.components, types.NameSeparator)
	return d, nil
}

func fileNameError(path, format string, args ...interface{}) *errors.Error {
	e := errors.Errorf(errors.FileName, format, args...)
	e.Path = path
	return e
}

// FilePath returns the path of the definition file.
func (d *Definition) FilePath() string { return d.filePath }

// RootNamespacePath returns the path of the root namespace directory
// the definition was found under.
func (d *Definition) RootNamespacePath() string { return d.rootPath }

// FullName returns the full dot-separated type name.
func (d *Definition) FullName() string { return d.fullName }

// ShortName returns the last component of the full name.
func (d *Definition) ShortName() string { return d.components[len(d.components)-1] }

// FullNamespace returns the full name without the short name.
func (d *Definition) FullNamespace() string {
	return strings.Join(d.components[:len(d.components)-1], types.NameSeparator)
}

// RootNamespace returns the first component of the full name.
func (d *Definition) RootNamespace() string { return d.components[0] }

// Version returns the version parsed from the file name.
func (d *Definition) Version() types.Version { return d.version }

// FixedPortID returns the fixed port ID parsed from the file name,
// if one is present.
func (d *Definition) FixedPortID() (int, bool) {
	return d.fixedPortID, d.fixedPortID >= 0
}

func (d *Definition) String() string {
	return fmt.Sprintf("%s.%s", d.fullName, d.version)
}

// versionedName is the globally unique identity of a definition.
func (d *Definition) versionedName() string {
	return d.String()
}

// session carries the shared state of one ReadNamespace invocation:
// the options, the discovered definitions, the already built types
// and the recursion stack used for cycle detection.
type session struct {
	opts     Options
	lookup   []*Definition
	built    map[*Definition]types.Type
	inFlight map[string]bool
	stack    []string
}

func newSession(opts Options, lookup []*Definition) *session {
	return &session{
		opts:     opts,
		lookup:   lookup,
		built:    make(map[*Definition]types.Type),
		inFlight: make(map[string]bool),
	}
}

func (s *session) print(path string, line int, text string) {
	if s.opts.PrintHandler != nil {
		s.opts.PrintHandler(path, line, text)
	}
}

// read parses and builds one definition, recursing into referenced
// definitions as they are encountered. Results are cached for the
// duration of the session; a reference cycle is detected through the
// recursion stack.
func (s *session) read(d *Definition) (types.Type, error) {
	if t, ok := s.built[d]; ok {
		return t, nil
	}
	key := d.versionedName()
	if s.inFlight[key] {
		return nil, errors.Errorf(errors.CyclicDependency,
			"cyclic dependency: %s", strings.Join(append(append([]string{}, s.stack...), key), " -> "))
	}
	s.inFlight[key] = true
	s.stack = append(s.stack, key)
	defer func() {
		delete(s.inFlight, key)
		s.stack = s.stack[:len(s.stack)-1]
	}()

	log.Debugf("%s: processing definition %s", key, d.filePath)
	text, err := os.ReadFile(d.filePath)
	if err != nil {
		e := errors.E(errors.Other, err)
		e.SetLocation(d.filePath, 0)
		return nil, e
	}
	lines, err := syntax.Parse(string(text))
	if err != nil {
		e := errors.Recover(err)
		e.SetLocation(d.filePath, 0)
		return nil, e
	}
	b := newTypeBuilder(s, d)
	for _, line := range lines {
		if err := b.process(line); err != nil {
			e := errors.Recover(err)
			e.SetLocation(d.filePath, line.Number)
			return nil, e
		}
	}
	t, err := b.finalize()
	if err != nil {
		e := errors.Recover(err)
		e.SetLocation(d.filePath, 0)
		return nil, e
	}
	s.built[d] = t
	return t, nil
}

// resolve finds and builds the definition of the given full name. A
// name defined under more than one root namespace is ambiguous and
// cannot be referenced. With hasVersion unset the newest available
// version is selected.
func (s *session) resolve(fullName string, major, minor int, hasVersion bool) (types.Type, error) {
	var candidates []*Definition
	for _, d := range s.lookup {
		if d.fullName != fullName {
			continue
		}
		if hasVersion && (d.version.Major != major || d.version.Minor != minor) {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		if hasVersion {
			return nil, errors.Errorf(errors.UndefinedType,
				"data type %s version %d.%d could not be found", fullName, major, minor)
		}
		return nil, errors.Errorf(errors.UndefinedType, "data type %s could not be found", fullName)
	}

	roots := map[string]bool{}
	for _, c := range candidates {
		roots[c.rootPath] = true
	}
	if len(roots) > 1 {
		var where []string
		for _, c := range candidates {
			where = append(where, c.filePath)
		}
		return nil, errors.Errorf(errors.Semantic,
			"ambiguous reference: %s is defined under more than one root namespace: %s",
			fullName, strings.Join(where, ", "))
	}

	chosen := candidates[0]
	if !hasVersion {
		for _, c := range candidates[1:] {
			if c.version.Major > chosen.version.Major ||
				(c.version.Major == chosen.version.Major && c.version.Minor > chosen.version.Minor) {
				chosen = c
			}
		}
	} else if len(candidates) > 1 {
		return nil, errors.Errorf(errors.Internal, "conflicting definitions of %s", chosen)
	}
	return s.read(chosen)
}
