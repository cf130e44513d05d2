/*
Copyright © 2021 the PRIMAP authors.
This file is part of PRIMAP.

PRIMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

PRIMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with PRIMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package terminology holds the controlled vocabularies of emissions
// dataset coordinates and the rules that translate source-specific codes
// into them.
package terminology

import (
	"fmt"

	"github.com/spatialmodel/primap"
)

// Registry maps coordinate names to the terminologies of their values,
// e.g. "area" to "ISO3" and "category" to "IPCC2006". Secondary
// categories are keyed with the "sec_cats__" prefix.
type Registry map[string]string

// Terminology returns the terminology of coord, or "" if it has none.
func (r Registry) Terminology(coord string) string { return r[coord] }

// DimName returns the full dimension name of coord, e.g. "area (ISO3)".
// The secondary category prefix is removed.
func (r Registry) DimName(coord string) string {
	return primap.DimName(primap.SecCatName(coord), r[coord])
}

// controlled coordinates may be given a terminology.
var controlled = map[string]bool{
	primap.Area:     true,
	primap.Category: true,
	primap.Scenario: true,
	primap.Entity:   true,
}

// TerminologyError is returned when terminologies are declared for
// coordinates that may not have one, or missing for coordinates that
// need one.
type TerminologyError struct {
	Coord, Reason string
}

func (e *TerminologyError) Error() string {
	return fmt.Sprintf("terminology of %q: %s", e.Coord, e.Reason)
}

// Check checks that only controlled coordinates have terminologies,
// that area has one, and that category, scenario and secondary
// categories have one if they are among present.
func (r Registry) Check(present []string) error {
	for c := range r {
		if !controlled[c] && !primap.IsSecCat(c) {
			return &TerminologyError{Coord: c, Reason: "coordinate cannot have a terminology"}
		}
	}
	if r[primap.Area] == "" {
		return &TerminologyError{Coord: primap.Area, Reason: "terminology is required"}
	}
	for _, c := range present {
		if c == primap.Category || c == primap.Scenario || primap.IsSecCat(c) {
			if r[c] == "" {
				return &TerminologyError{Coord: c, Reason: "terminology is required"}
			}
		}
	}
	return nil
}
