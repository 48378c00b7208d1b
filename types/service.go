// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package types

import (
	"fmt"
	"strings"

	"github.com/meridian-acoustics/dsdl/errors"
)

// SectionParams describes one section (request or response) of a
// service definition.
type SectionParams struct {
	Attributes []Attribute
	Union      bool
	Sealed     bool
	Extent     uint64
	HasExtent  bool
}

// ServiceParams carries the inputs of NewService.
type ServiceParams struct {
	Name        string
	Version     Version
	Request     SectionParams
	Response    SectionParams
	Deprecated  bool
	FixedPortID int
	SourceFile  string
}

// Service is a pair of composites modeling a request/response
// exchange. A service is not itself serializable; its request and
// response types are.
type Service struct {
	name        string
	version     Version
	deprecated  bool
	fixedPortID int
	sourceFile  string
	request     *Composite
	response    *Composite
}

// NewService constructs a service type. The request and response
// composites are synthesized under the names "<name>.Request" and
// "<name>.Response" and share the service's version and deprecation
// status.
func NewService(p ServiceParams) (*Service, error) {
	s := &Service{
		name:        strings.TrimSpace(p.Name),
		version:     p.Version,
		deprecated:  p.Deprecated,
		fixedPortID: p.FixedPortID,
		sourceFile:  p.SourceFile,
	}
	if s.fixedPortID < 0 {
		s.fixedPortID = -1
	}
	if s.fixedPortID > MaxServiceID {
		return nil, errors.Errorf(errors.PortID, "fixed service ID %d is not valid", s.fixedPortID)
	}
	section := func(suffix string, p SectionParams) (*Composite, error) {
		return NewComposite(CompositeParams{
			Name:          s.name + NameSeparator + suffix,
			Version:       s.version,
			Attributes:    p.Attributes,
			Union:         p.Union,
			Deprecated:    s.deprecated,
			FixedPortID:   -1,
			Sealed:        p.Sealed,
			Extent:        p.Extent,
			HasExtent:     p.HasExtent,
			parentService: s,
		})
	}
	var err error
	if s.request, err = section("Request", p.Request); err != nil {
		return nil, err
	}
	if s.response, err = section("Response", p.Response); err != nil {
		return nil, err
	}
	return s, nil
}

// FullName returns the full dot-separated service name.
func (s *Service) FullName() string { return s.name }

// NameComponents returns the components of the full name.
func (s *Service) NameComponents() []string {
	return strings.Split(s.name, NameSeparator)
}

// ShortName returns the last component of the full name.
func (s *Service) ShortName() string {
	c := s.NameComponents()
	return c[len(c)-1]
}

// RootNamespace returns the first component of the full name.
func (s *Service) RootNamespace() string { return s.NameComponents()[0] }

func (s *Service) Version() Version { return s.version }

func (s *Service) Deprecated() bool { return s.deprecated }

// FixedPortID returns the fixed service identifier, if assigned.
func (s *Service) FixedPortID() (int, bool) {
	return s.fixedPortID, s.fixedPortID >= 0
}

func (s *Service) SourceFile() string { return s.sourceFile }

// RequestType returns the synthesized request composite.
func (s *Service) RequestType() *Composite { return s.request }

// ResponseType returns the synthesized response composite.
func (s *Service) ResponseType() *Composite { return s.response }

// String renders the versioned full name.
func (s *Service) String() string {
	return fmt.Sprintf("%s.%s", s.name, s.version)
}
