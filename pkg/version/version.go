// Copyright Amazon.com Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package version parses image release versions and computes the next one.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blang/semver/v4"

	"github.com/awsfinder/awsfinder/pkg/errs"
)

// Bump names the version component to increment
type Bump string

const (
	// Major bumps M.m.p to (M+1).0.0
	Major Bump = "major"
	// Minor bumps M.m.p to M.(m+1).0
	Minor Bump = "minor"
	// Patch bumps M.m.p to M.m.(p+1)
	Patch Bump = "patch"
)

// Bumps lists every valid Bump in the order they are presented to users
var Bumps = []string{string(Major), string(Minor), string(Patch)}

// Version is a major.minor.patch release number
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseBump converts a user supplied string into a Bump
func ParseBump(s string) (Bump, error) {
	switch b := Bump(strings.ToLower(strings.TrimSpace(s))); b {
	case Major, Minor, Patch:
		return b, nil
	}
	return "", errs.Errorf(errs.KindConfig, "parse bump", "invalid version bump %q (valid options: %s)", s, strings.Join(Bumps, ", "))
}

// Parse reads exactly three dot separated non-negative integers. Leading zeros are
// accepted, so "2024.01.05" reads as 2024.1.5. Signs, empty parts and suffixes are rejected.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, errs.Errorf(errs.KindVersion, "parse version", "%q is not major.minor.patch", s)
	}
	numbers := make([]uint64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return Version{}, errs.New(errs.KindVersion, "parse version", fmt.Errorf("%q is not major.minor.patch: %w", s, err))
		}
		numbers = append(numbers, n)
	}
	return Version{Major: numbers[0], Minor: numbers[1], Patch: numbers[2]}, nil
}

// Increment returns the version with the given component bumped and lower components reset
func (v Version) Increment(bump Bump) (Version, error) {
	sv := semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
	var err error
	switch bump {
	case Major:
		err = sv.IncrementMajor()
	case Minor:
		err = sv.IncrementMinor()
	case Patch:
		err = sv.IncrementPatch()
	default:
		return Version{}, errs.Errorf(errs.KindConfig, "increment version", "invalid version bump %q", bump)
	}
	if err != nil {
		return Version{}, errs.New(errs.KindVersion, "increment version", err)
	}
	return Version{Major: sv.Major, Minor: sv.Minor, Patch: sv.Patch}, nil
}

// Next parses s and returns the bumped version string
func Next(s string, bump Bump) (string, error) {
	v, err := Parse(s)
	if err != nil {
		return "", err
	}
	next, err := v.Increment(bump)
	if err != nil {
		return "", err
	}
	return next.String(), nil
}
