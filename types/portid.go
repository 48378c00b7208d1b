// Copyright 2020 Meridian Acoustics, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package types

// MaxSubjectID is the largest subject identifier expressible on the
// transport.
const MaxSubjectID = 32767

// MaxServiceID is the largest service identifier expressible on the
// transport.
const MaxServiceID = 511

// standardRootNamespace is the root namespace of the standard
// regulated data types.
const standardRootNamespace = "uavcan"

var (
	standardSubjects = [2]int{31744, 32767}
	vendorSubjects   = [2]int{28672, 29695}
	standardServices = [2]int{384, 511}
	vendorServices   = [2]int{256, 319}
)

// IsValidRegulatedSubjectID tells whether the fixed subject ID lies
// in the regulated range applicable to the root namespace.
func IsValidRegulatedSubjectID(id int, rootNamespace string) bool {
	r := vendorSubjects
	if rootNamespace == standardRootNamespace {
		r = standardSubjects
	}
	return r[0] <= id && id <= r[1]
}

// IsValidRegulatedServiceID tells whether the fixed service ID lies
// in the regulated range applicable to the root namespace.
func IsValidRegulatedServiceID(id int, rootNamespace string) bool {
	r := vendorServices
	if rootNamespace == standardRootNamespace {
		r = standardServices
	}
	return r[0] <= id && id <= r[1]
}
