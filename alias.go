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

import "fmt"

// DimensionNotExistingError is returned when a dimension is requested
// that the dataset does not have.
type DimensionNotExistingError struct {
	Dim string
}

func (e *DimensionNotExistingError) Error() string {
	return fmt.Sprintf("primap: dimension %q does not exist", e.Dim)
}

// DimAliases returns the short names that may be used in place of the
// full dimension names, e.g. "area" for "area (ISO3)". "cat" and "scen"
// are accepted for the category and scenario dimensions.
func (d *Dataset) DimAliases() map[string]string {
	o := make(map[string]string)
	for _, dim := range d.Dims {
		if c, term := SplitDimName(dim); term != "" {
			o[c] = dim
		}
	}
	if d.Attrs.Cat != "" {
		o["cat"] = d.Attrs.Cat
	}
	if d.Attrs.Scen != "" {
		o["scen"] = d.Attrs.Scen
	}
	return o
}

// Alias translates dim into a full dimension name of the dataset.
func (d *Dataset) Alias(dim string) (string, error) {
	if full, ok := d.DimAliases()[dim]; ok {
		dim = full
	}
	if indexOf(d.Dims, dim) < 0 {
		return "", &DimensionNotExistingError{Dim: dim}
	}
	return dim, nil
}
