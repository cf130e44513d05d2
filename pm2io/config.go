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

// Package pm2io converts wide and long emissions tables into the
// interchange format and the interchange format into datasets.
package pm2io

import (
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/primap"
	"github.com/spatialmodel/primap/internal/hash"
	"github.com/spatialmodel/primap/quantity"
	"github.com/spatialmodel/primap/terminology"
)

// Default time formats of wide and long tables.
const (
	DefaultWideTimeFormat = "%Y"
	DefaultLongTimeFormat = "%Y-%m-%d"
)

// Column names of long tables that hold the time and the value of each
// observation. They are keys of Config.CoordsCols.
const (
	DataCol = "data"
	TimeCol = primap.Time
)

// FilterSpec is a conjunction of constraints: a row matches if, for every
// column, the row's value is one of the given values.
type FilterSpec map[string][]string

// Config specifies a conversion into the interchange format.
// Coordinates are named by their short names, e.g. "area", and
// secondary categories by "sec_cats__" followed by their name.
type Config struct {
	// CoordsCols maps coordinates to the input columns that hold them.
	// Long tables also need the DataCol and TimeCol keys.
	CoordsCols map[string]string

	// AddCoordsCols maps additional coordinates to their input column
	// and the coordinate they describe, e.g.
	// "category_name": {"cat_name", "category"}.
	AddCoordsCols map[string][2]string

	// CoordsDefaults holds constant values of coordinates that are not
	// in the input.
	CoordsDefaults map[string]string

	// CoordsTerminologies holds the terminology of each controlled
	// coordinate.
	CoordsTerminologies terminology.Registry

	// CoordsValueMapping holds the value mapping rule of each coordinate.
	CoordsValueMapping map[string]terminology.Rule

	// CoordsValueFilling replaces values of a target coordinate based on
	// the values of a source coordinate: target -> source ->
	// source value -> target value.
	CoordsValueFilling map[string]map[string]map[string]string

	// FilterKeep keeps rows that match any of the specs. If it is nil
	// all rows are kept; if it is empty no rows are kept. Filters use
	// the input column names and values.
	FilterKeep []FilterSpec

	// FilterRemove drops rows that match any of the specs.
	FilterRemove []FilterSpec

	// FilterQuery is an optional boolean expression over input
	// columns; rows for which it is false are dropped.
	FilterQuery string

	// MetaData holds the dataset metadata, keyed by primap.MetadataKeys.
	MetaData map[string]string

	// TimeFormat is the strftime format of the time labels.
	TimeFormat string

	// TimeCols holds the time columns of wide tables. If it is empty
	// they are the columns whose names match TimeFormat.
	TimeCols []string

	// Units parses and converts units. It is required.
	Units *quantity.Registry

	// Log receives progress and warning messages. If it is nil
	// the standard logger is used.
	Log logrus.FieldLogger
}

func (c *Config) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *Config) timeFormat(long bool) string {
	switch {
	case c.TimeFormat != "":
		return c.TimeFormat
	case long:
		return DefaultLongTimeFormat
	default:
		return DefaultWideTimeFormat
	}
}

// Hash returns a key identifying the configuration. Function rules
// are identified by coordinate only.
func (c *Config) Hash() string {
	mapping := make(map[string]string)
	for k, r := range c.CoordsValueMapping {
		switch r.Kind {
		case terminology.PresetKind:
			mapping[k] = r.Kind.String() + ":" + r.Preset
		case terminology.FuncKind:
			mapping[k] = r.Kind.String()
		default:
			keys := make([]string, 0, len(r.Table))
			for kk := range r.Table {
				keys = append(keys, kk)
			}
			sort.Strings(keys)
			s := r.Kind.String()
			for _, kk := range keys {
				s += ";" + kk + "=" + r.Table[kk]
			}
			mapping[k] = s
		}
	}
	return hash.Hash(struct {
		CoordsCols          map[string]string
		AddCoordsCols       map[string][2]string
		CoordsDefaults      map[string]string
		CoordsTerminologies map[string]string
		CoordsValueMapping  map[string]string
		CoordsValueFilling  map[string]map[string]map[string]string
		FilterKeep          []FilterSpec
		FilterRemove        []FilterSpec
		FilterQuery         string
		MetaData            map[string]string
		TimeFormat          string
		TimeCols            []string
	}{
		c.CoordsCols, c.AddCoordsCols, c.CoordsDefaults, c.CoordsTerminologies,
		mapping, c.CoordsValueFilling, c.FilterKeep, c.FilterRemove, c.FilterQuery,
		c.MetaData, c.TimeFormat, c.TimeCols,
	})
}
