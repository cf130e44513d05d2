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

package primap

import (
	"fmt"
	"reflect"
)

// ValidationError is returned when a dataset does not follow the
// data convention.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "primap: invalid dataset: " + e.Reason
}

func invalid(format string, a ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, a...)}
}

// Validate checks that the dataset follows the data convention: time is the
// first dimension, the area and source dimensions exist, dimensions named
// in the attributes exist, axis labels are unique, and every variable spans
// all dimensions with a unit.
func (d *Dataset) Validate() error {
	if len(d.Dims) == 0 || d.Dims[0] != Time {
		return invalid("time must be the first dimension, dimensions are %v", d.Dims)
	}
	seen := make(map[string]bool)
	for _, dim := range d.Dims {
		if seen[dim] {
			return invalid("duplicate dimension %q", dim)
		}
		seen[dim] = true
	}

	if d.Attrs.Area == "" {
		return invalid("area dimension is not declared in the attributes")
	}
	if c, term := SplitDimName(d.Attrs.Area); c != Area || term == "" {
		return invalid("area dimension %q must be named 'area (<terminology>)'", d.Attrs.Area)
	}
	if !seen[Source] {
		return invalid("source dimension is missing")
	}
	for _, dim := range d.Attrs.Dims() {
		if !seen[dim] {
			return invalid("dimension %q named in the attributes is missing", dim)
		}
		if _, term := SplitDimName(dim); term == "" {
			return invalid("dimension %q has no terminology", dim)
		}
	}

	times := make(map[int64]bool)
	for _, t := range d.Time {
		if times[t.UnixNano()] {
			return invalid("duplicate time %v", t)
		}
		times[t.UnixNano()] = true
	}
	for _, dim := range d.Dims[1:] {
		labels, ok := d.Coords[dim]
		if !ok {
			return invalid("dimension %q has no labels", dim)
		}
		u := make(map[string]bool)
		for _, l := range labels {
			if u[l] {
				return invalid("duplicate label %q along dimension %q", l, dim)
			}
			u[l] = true
		}
	}
	for dim := range d.Coords {
		if !seen[dim] {
			return invalid("labels given for unknown dimension %q", dim)
		}
	}
	for name, ac := range d.AddCoords {
		if seen[name] {
			return invalid("additional coordinate %q has the name of a dimension", name)
		}
		if !seen[ac.Dim] || ac.Dim == Time {
			return invalid("additional coordinate %q refers to invalid dimension %q", name, ac.Dim)
		}
		if len(ac.Labels) != len(d.Coords[ac.Dim]) {
			return invalid("additional coordinate %q has %d labels but dimension %q has %d",
				name, len(ac.Labels), ac.Dim, len(d.Coords[ac.Dim]))
		}
	}

	shape := d.Shape()
	for name, v := range d.Vars {
		if v.Name != name {
			return invalid("variable %q is stored under the name %q", v.Name, name)
		}
		if !reflect.DeepEqual(v.Dims, d.Dims) {
			return invalid("variable %q has dimensions %v but dataset has %v", name, v.Dims, d.Dims)
		}
		if v.DenseArray == nil {
			return invalid("variable %q has no values", name)
		}
		if !reflect.DeepEqual(v.Shape, shape) {
			return invalid("variable %q has shape %v but dataset has %v", name, v.Shape, shape)
		}
		n := 1
		for _, s := range shape {
			n *= s
		}
		if len(v.Elements) != n {
			return invalid("variable %q has %d values but shape %v", name, len(v.Elements), shape)
		}
		if v.Unit == "" || v.quantity == nil {
			return invalid("variable %q has no unit", name)
		}
	}
	return nil
}
