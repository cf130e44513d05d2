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
	"io"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/primap/terminology"
	"github.com/spf13/cast"
)

// ReadSpec reads a conversion specification in TOML format. The keys
// are the snake case names of the Config fields. Value mapping rules are
// given in coords_value_mapping either as the name of a preset or as a
// table whose values must all be mapped; tables in
// coords_value_partial_mapping keep unmapped values. Filters are arrays
// of tables whose values are strings or arrays of strings; an empty
// filter_keep array keeps no rows.
// The Units and Log fields of the returned configuration are not set.
func ReadSpec(r io.Reader) (*Config, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeReader(r, &raw); err != nil {
		return nil, fmt.Errorf("pm2io: reading conversion specification: %v", err)
	}
	cfg := new(Config)
	var err error
	for key, v := range raw {
		switch key {
		case "coords_cols":
			cfg.CoordsCols, err = stringMap(key, v)
		case "coords_defaults":
			cfg.CoordsDefaults, err = stringMap(key, v)
		case "coords_terminologies":
			var m map[string]string
			m, err = stringMap(key, v)
			cfg.CoordsTerminologies = terminology.Registry(m)
		case "meta_data":
			cfg.MetaData, err = stringMap(key, v)
		case "add_coords_cols":
			cfg.AddCoordsCols, err = addCoordsCols(v)
		case "coords_value_mapping":
			err = valueMapping(cfg, v, false)
		case "coords_value_partial_mapping":
			err = valueMapping(cfg, v, true)
		case "coords_value_filling":
			cfg.CoordsValueFilling, err = valueFilling(v)
		case "filter_keep":
			cfg.FilterKeep, err = filterSpecs(key, v)
		case "filter_remove":
			cfg.FilterRemove, err = filterSpecs(key, v)
		case "filter_query":
			cfg.FilterQuery, err = cast.ToStringE(v)
		case "time_format":
			cfg.TimeFormat, err = cast.ToStringE(v)
		case "time_cols":
			cfg.TimeCols, err = stringSlice(v)
		default:
			err = fmt.Errorf("unknown key")
		}
		if err != nil {
			return nil, &InvalidConfigError{Field: key, Err: err}
		}
	}
	return cfg, nil
}

func stringMap(key string, v interface{}) (map[string]string, error) {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	o := make(map[string]string, len(m))
	for k, vv := range m {
		s, err := cast.ToStringE(vv)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %v", key, k, err)
		}
		o[k] = s
	}
	return o, nil
}

// stringSlice converts a string or an array of scalars into a slice.
func stringSlice(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case []interface{}:
		o := make([]string, len(t))
		for i, vv := range t {
			s, err := cast.ToStringE(vv)
			if err != nil {
				return nil, err
			}
			o[i] = s
		}
		return o, nil
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func addCoordsCols(v interface{}) (map[string][2]string, error) {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	o := make(map[string][2]string, len(m))
	for k, vv := range m {
		s, err := stringSlice(vv)
		if err != nil {
			return nil, err
		}
		if len(s) != 2 {
			return nil, fmt.Errorf("%s: need [column, coordinate] but have %v", k, s)
		}
		o[k] = [2]string{s[0], s[1]}
	}
	return o, nil
}

func valueMapping(cfg *Config, v interface{}, partial bool) error {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return err
	}
	if cfg.CoordsValueMapping == nil {
		cfg.CoordsValueMapping = make(map[string]terminology.Rule)
	}
	for coord, rule := range m {
		if _, ok := cfg.CoordsValueMapping[coord]; ok {
			return fmt.Errorf("%s: more than one rule", coord)
		}
		if s, ok := rule.(string); ok && !partial {
			cfg.CoordsValueMapping[coord] = terminology.Preset(s)
			continue
		}
		table, err := stringMap(coord, rule)
		if err != nil {
			return err
		}
		if partial {
			cfg.CoordsValueMapping[coord] = terminology.PartialTable(table)
		} else {
			cfg.CoordsValueMapping[coord] = terminology.Table(table)
		}
	}
	return nil
}

func valueFilling(v interface{}) (map[string]map[string]map[string]string, error) {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return nil, err
	}
	o := make(map[string]map[string]map[string]string, len(m))
	for target, sources := range m {
		sm, err := cast.ToStringMapE(sources)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", target, err)
		}
		o[target] = make(map[string]map[string]string, len(sm))
		for source, table := range sm {
			if o[target][source], err = stringMap(target+"."+source, table); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}

func filterSpecs(key string, v interface{}) ([]FilterSpec, error) {
	var specs []interface{}
	switch t := v.(type) {
	case []map[string]interface{}:
		for _, s := range t {
			specs = append(specs, s)
		}
	case []interface{}:
		specs = t
	default:
		return nil, fmt.Errorf("%s must be an array of tables", key)
	}
	o := make([]FilterSpec, 0, len(specs))
	for i, s := range specs {
		m, err := cast.ToStringMapE(s)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %v", key, i, err)
		}
		spec := make(FilterSpec, len(m))
		for col, vals := range m {
			if spec[col], err = stringSlice(vals); err != nil {
				return nil, fmt.Errorf("%s[%d].%s: %v", key, i, col, err)
			}
		}
		o = append(o, spec)
	}
	return o, nil
}
