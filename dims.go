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

// Package primap holds the data convention for greenhouse gas emissions
// datasets: the canonical dimension names, dataset attributes, and the
// Dataset and DataArray types that hold emissions time series as labeled
// multi-dimensional arrays with units attached.
package primap

import (
	"fmt"
	"strings"
)

// Version gives the version number.
const Version = "0.4.0"

// Canonical coordinate names.
const (
	Area       = "area"
	Category   = "category"
	Entity     = "entity"
	Scenario   = "scenario"
	Source     = "source"
	Provenance = "provenance"
	Model      = "model"
	Time       = "time"
	Unit       = "unit"
)

// SecCatPrefix marks secondary categories in configuration keys,
// e.g. "sec_cats__Class".
const SecCatPrefix = "sec_cats__"

// MandatoryCoords must be present in every interchange table.
var MandatoryCoords = []string{Area, Source, Entity, Unit}

// OptionalCoords may be present in an interchange table.
var OptionalCoords = []string{Category, Scenario, Provenance, Model}

// InterchangeOrder is the order of the leading interchange columns.
// Secondary categories follow, then additional coordinates, then
// time columns.
var InterchangeOrder = []string{Source, Scenario, Provenance, Model, Area, Entity, Unit, Category}

// DimName returns the full name of a dimension with a terminology,
// e.g. DimName("area", "ISO3") == "area (ISO3)". If terminology is
// empty, coord is returned unchanged.
func DimName(coord, terminology string) string {
	if terminology == "" {
		return coord
	}
	return fmt.Sprintf("%s (%s)", coord, terminology)
}

// SplitDimName is the inverse of DimName.
func SplitDimName(dim string) (coord, terminology string) {
	if !strings.HasSuffix(dim, ")") {
		return dim, ""
	}
	i := strings.LastIndex(dim, " (")
	if i < 0 {
		return dim, ""
	}
	return dim[:i], dim[i+2 : len(dim)-1]
}

// IsSecCat returns whether the configuration key k refers to a
// secondary category.
func IsSecCat(k string) bool { return strings.HasPrefix(k, SecCatPrefix) }

// SecCatName strips the secondary category prefix from k.
func SecCatName(k string) string { return strings.TrimPrefix(k, SecCatPrefix) }

// InterchangeRank returns the position of the coordinate coord among the
// leading interchange columns, or -1 if it is not one of them.
// coord may be a full dimension name.
func InterchangeRank(coord string) int {
	c, _ := SplitDimName(coord)
	for i, o := range InterchangeOrder {
		if o == c {
			return i
		}
	}
	return -1
}
