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

package pm2io

import (
	"fmt"
	"sort"

	"github.com/spatialmodel/primap"
	"github.com/spatialmodel/primap/terminology"
)

// alias returns the frame column that key refers to.
func (f *frame) alias(n *naming, key, field string) (int, error) {
	name, ok := n.aliases[key]
	if !ok {
		name = key
	}
	i := f.col(name)
	if i < 0 || i >= f.nCoords {
		return -1, &InvalidConfigError{
			Field:  field,
			Reason: fmt.Sprintf("%q is not a coordinate of the data", key),
		}
	}
	return i, nil
}

// mapValues translates the coordinate values of f with the rules in
// mapping. The entity is translated first, so rules for other
// coordinates see translated entities.
func mapValues(f *frame, n *naming, mapping map[string]terminology.Rule) error {
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ei, ej := keys[i] == primap.Entity, keys[j] == primap.Entity
		if ei != ej {
			return ei
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		col, err := f.alias(n, k, "coords_value_mapping")
		if err != nil {
			return err
		}
		coord, _ := primap.SplitDimName(f.cols[col])
		tr, err := mapping[k].Resolve(coord)
		if err != nil {
			return &InvalidConfigError{Field: "coords_value_mapping", Err: err}
		}
		for _, row := range f.rows {
			lookup := func(c string) string {
				i, err := f.alias(n, c, "")
				if err != nil {
					return ""
				}
				return row[i]
			}
			v, err := tr(row[col], lookup)
			if err != nil {
				return fmt.Errorf("pm2io: mapping values of %s: %w", f.cols[col], err)
			}
			row[col] = v
		}
	}
	return nil
}

// fillValues replaces values of target coordinates in rows whose
// source coordinate has one of the given values.
func fillValues(f *frame, n *naming, filling map[string]map[string]map[string]string) error {
	targets := make([]string, 0, len(filling))
	for k := range filling {
		targets = append(targets, k)
	}
	sort.Strings(targets)
	for _, target := range targets {
		tcol, err := f.alias(n, target, "coords_value_filling")
		if err != nil {
			return err
		}
		sources := make([]string, 0, len(filling[target]))
		for k := range filling[target] {
			sources = append(sources, k)
		}
		sort.Strings(sources)
		for _, source := range sources {
			scol, err := f.alias(n, source, "coords_value_filling")
			if err != nil {
				return err
			}
			m := filling[target][source]
			for _, row := range f.rows {
				if v, ok := m[row[scol]]; ok {
					row[tcol] = v
				}
			}
		}
	}
	return nil
}
