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
)

// naming holds the column names and dataset attributes that a
// configuration specifies.
type naming struct {
	attrs primap.Attrs

	// coords holds the configuration keys of the coordinates, sorted.
	coords []string

	// cols maps configuration keys to output column names,
	// e.g. "area" to "area (ISO3)".
	cols map[string]string

	// addCoords maps additional coordinates to the full names of
	// the dimensions they describe.
	addCoords map[string]string

	// aliases maps the names that may be used to refer to a coordinate
	// in the value mapping and filling to output column names.
	aliases map[string]string
}

func sortedKeys(m map[string]string) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

func isCoord(key string) bool {
	for _, c := range append(append([]string{}, primap.MandatoryCoords...), primap.OptionalCoords...) {
		if c == key {
			return true
		}
	}
	return primap.IsSecCat(key)
}

// checkConfig checks cfg for consistency and determines the column
// names and dataset attributes. long specifies whether the input is
// a long table.
func checkConfig(cfg *Config, long bool) (*naming, error) {
	if cfg.Units == nil {
		return nil, &InvalidConfigError{Field: "units", Reason: "no unit registry given"}
	}
	for _, c := range primap.MandatoryCoords {
		_, inCols := cfg.CoordsCols[c]
		_, inDefaults := cfg.CoordsDefaults[c]
		if !inCols && !inDefaults {
			return nil, &MissingCoordinateError{Coord: c}
		}
	}
	if long {
		if _, ok := cfg.CoordsCols[DataCol]; !ok {
			return nil, &InvalidConfigError{Field: "coords_cols", Reason: "no data column given for long table"}
		}
		_, inCols := cfg.CoordsCols[TimeCol]
		_, inDefaults := cfg.CoordsDefaults[TimeCol]
		if !inCols && !inDefaults {
			return nil, &MissingCoordinateError{Coord: TimeCol}
		}
	}
	for _, k := range sortedKeys(cfg.CoordsCols) {
		if _, ok := cfg.CoordsDefaults[k]; ok {
			return nil, &InvalidConfigError{
				Field:  "coords_defaults",
				Reason: fmt.Sprintf("%q is given in coords_cols and coords_defaults but may only be given in one", k),
			}
		}
		if !isCoord(k) && !(long && (k == DataCol || k == TimeCol)) {
			return nil, &InvalidConfigError{
				Field:  "coords_cols",
				Reason: fmt.Sprintf("%q is unknown; prefix with %q to add a secondary category", k, primap.SecCatPrefix),
			}
		}
	}
	for _, k := range sortedKeys(cfg.CoordsDefaults) {
		if !isCoord(k) && !(long && k == TimeCol) {
			return nil, &InvalidConfigError{
				Field:  "coords_defaults",
				Reason: fmt.Sprintf("%q is unknown; prefix with %q to add a secondary category", k, primap.SecCatPrefix),
			}
		}
	}

	n := &naming{
		cols:      make(map[string]string),
		addCoords: make(map[string]string),
		aliases:   make(map[string]string),
	}
	for k := range cfg.CoordsCols {
		if k != DataCol && k != TimeCol {
			n.coords = append(n.coords, k)
		}
	}
	for k := range cfg.CoordsDefaults {
		if k != TimeCol {
			n.coords = append(n.coords, k)
		}
	}
	sort.Strings(n.coords)

	if err := cfg.CoordsTerminologies.Check(n.coords); err != nil {
		return nil, &InvalidConfigError{Field: "coords_terminologies", Err: err}
	}

	usedCols := make(map[string]bool)
	for _, col := range cfg.CoordsCols {
		usedCols[col] = true
	}
	for _, name := range sortedAddKeys(cfg.AddCoordsCols) {
		spec := cfg.AddCoordsCols[name]
		if usedCols[spec[0]] {
			return nil, &InvalidConfigError{
				Field:  "add_coords_cols",
				Reason: fmt.Sprintf("column %q is used for a dimension and additional coordinate %q", spec[0], name),
			}
		}
		if _, ok := cfg.CoordsTerminologies[name]; ok {
			return nil, &InvalidConfigError{
				Field:  "add_coords_cols",
				Reason: fmt.Sprintf("additional coordinate %q may not have a terminology", name),
			}
		}
		if _, ok := cfg.CoordsCols[spec[1]]; !ok {
			return nil, &InvalidConfigError{
				Field:  "add_coords_cols",
				Reason: fmt.Sprintf("additional coordinate %q refers to unknown coordinate %q", name, spec[1]),
			}
		}
		n.addCoords[name] = cfg.CoordsTerminologies.DimName(spec[1])
	}

	for _, k := range n.coords {
		name := cfg.CoordsTerminologies.DimName(k)
		n.cols[k] = name
		n.aliases[k] = name
		n.aliases[name] = name
		switch {
		case primap.IsSecCat(k):
			n.attrs.SecCats = append(n.attrs.SecCats, name)
			n.aliases[primap.SecCatName(k)] = name
		case k == primap.Area:
			n.attrs.Area = name
		case k == primap.Category:
			n.attrs.Cat = name
			n.aliases["cat"] = name
		case k == primap.Scenario:
			n.attrs.Scen = name
			n.aliases["scen"] = name
		case k == primap.Entity:
			n.attrs.EntityTerminology = cfg.CoordsTerminologies.Terminology(k)
		}
	}

	for _, k := range sortedKeys(cfg.MetaData) {
		if !isMetadataKey(k) {
			return nil, &InvalidConfigError{Field: "meta_data", Err: &primap.UnknownAttrError{Key: k}}
		}
		if err := n.attrs.Set(k, cfg.MetaData[k]); err != nil {
			return nil, &InvalidConfigError{Field: "meta_data", Err: err}
		}
	}
	return n, nil
}

func isMetadataKey(k string) bool {
	for _, m := range primap.MetadataKeys {
		if m == k {
			return true
		}
	}
	return false
}

func sortedAddKeys(m map[string][2]string) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// frame is a table with named coordinate columns, additional
// coordinate columns, and value columns, in that order.
type frame struct {
	cols    []string
	nCoords int
	nAdd    int
	rows    [][]string
}

func (f *frame) col(name string) int {
	for i, c := range f.cols {
		if c == name {
			return i
		}
	}
	return -1
}

func (f *frame) coordCols() []string { return f.cols[:f.nCoords] }

func (f *frame) addCols() []string { return f.cols[f.nCoords : f.nCoords+f.nAdd] }

func (f *frame) valueCols() []string { return f.cols[f.nCoords+f.nAdd:] }

// mapColumns returns a frame with the coordinate columns of t renamed,
// default coordinates added, and the value columns of t copied.
// t is not modified.
func mapColumns(t *RawTable, cfg *Config, n *naming, valueCols []string) (*frame, error) {
	var src []int // source column of each output column; -1 for defaults
	f := new(frame)
	for _, k := range n.coords {
		f.cols = append(f.cols, n.cols[k])
		col, ok := cfg.CoordsCols[k]
		if !ok {
			src = append(src, -1)
			continue
		}
		i := t.Col(col)
		if i < 0 {
			return nil, &MissingColumnError{Column: col, Field: "coords_cols"}
		}
		src = append(src, i)
	}
	f.nCoords = len(f.cols)
	for _, name := range sortedAddKeys(cfg.AddCoordsCols) {
		col := cfg.AddCoordsCols[name][0]
		i := t.Col(col)
		if i < 0 {
			return nil, &MissingColumnError{Column: col, Field: "add_coords_cols"}
		}
		f.cols = append(f.cols, name)
		src = append(src, i)
	}
	f.nAdd = len(f.cols) - f.nCoords
	for _, col := range valueCols {
		i := t.Col(col)
		if i < 0 {
			return nil, &MissingColumnError{Column: col, Field: "time_cols"}
		}
		f.cols = append(f.cols, col)
		src = append(src, i)
	}

	f.rows = make([][]string, len(t.Records))
	for j, rec := range t.Records {
		row := make([]string, len(f.cols))
		for i, s := range src {
			if s < 0 {
				row[i] = cfg.CoordsDefaults[n.coords[i]]
			} else {
				row[i] = rec[s]
			}
		}
		f.rows[j] = row
	}
	return f, nil
}
