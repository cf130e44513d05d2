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

package terminology

import (
	"fmt"
	"sort"
)

// Kind specifies how a Rule translates values.
type Kind int

// These are the kinds of value mapping rules.
const (
	// TableKind rules look values up in a table. Values missing
	// from the table are an error.
	TableKind Kind = iota + 1

	// PartialTableKind rules look values up in a table. Values missing
	// from the table are kept unchanged.
	PartialTableKind

	// FuncKind rules call a function.
	FuncKind

	// PresetKind rules use a named built-in translation.
	PresetKind
)

func (k Kind) String() string {
	switch k {
	case TableKind:
		return "table"
	case PartialTableKind:
		return "partial table"
	case FuncKind:
		return "function"
	case PresetKind:
		return "preset"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// A Translator translates one value of a coordinate. row returns the
// value of another coordinate in the same row; coordinates that have
// already been translated return their translated value.
type Translator func(value string, row func(coord string) string) (string, error)

// Rule is a value mapping rule for one coordinate.
// Use Table, PartialTable, Func or Preset to create one.
type Rule struct {
	Kind   Kind
	Table  map[string]string
	Func   Translator
	Preset string
}

// Table returns a rule that looks values up in m.
func Table(m map[string]string) Rule { return Rule{Kind: TableKind, Table: m} }

// PartialTable returns a rule that looks values up in m and keeps
// values that m does not contain.
func PartialTable(m map[string]string) Rule { return Rule{Kind: PartialTableKind, Table: m} }

// Func returns a rule that translates values with f.
func Func(f Translator) Rule { return Rule{Kind: FuncKind, Func: f} }

// Preset returns a rule that uses the named built-in translation.
func Preset(name string) Rule { return Rule{Kind: PresetKind, Preset: name} }

// UnmappedValueError is returned when a value cannot be translated.
type UnmappedValueError struct {
	Coord, Value string
}

func (e *UnmappedValueError) Error() string {
	return fmt.Sprintf("value %q of coordinate %q cannot be mapped", e.Value, e.Coord)
}

// UnknownPresetError is returned when a preset does not exist or
// has no translation for the requested coordinate.
type UnknownPresetError struct {
	Preset, Coord string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown value mapping %q for coordinate %q; known mappings are %v",
		e.Preset, e.Coord, PresetNames())
}

// Resolve returns the translator that rule r specifies for coordinate coord.
func (r Rule) Resolve(coord string) (Translator, error) {
	switch r.Kind {
	case TableKind:
		return func(v string, _ func(string) string) (string, error) {
			o, ok := r.Table[v]
			if !ok {
				return "", &UnmappedValueError{Coord: coord, Value: v}
			}
			return o, nil
		}, nil
	case PartialTableKind:
		return func(v string, _ func(string) string) (string, error) {
			if o, ok := r.Table[v]; ok {
				return o, nil
			}
			return v, nil
		}, nil
	case FuncKind:
		if r.Func == nil {
			return nil, fmt.Errorf("terminology: nil function rule for coordinate %q", coord)
		}
		return r.Func, nil
	case PresetKind:
		p, ok := presets[r.Preset]
		if !ok {
			return nil, &UnknownPresetError{Preset: r.Preset, Coord: coord}
		}
		f, ok := p[coord]
		if !ok {
			return nil, &UnknownPresetError{Preset: r.Preset, Coord: coord}
		}
		return func(v string, row func(string) string) (string, error) {
			o, err := f(v, row)
			if err != nil {
				return "", &UnmappedValueError{Coord: coord, Value: v}
			}
			return o, nil
		}, nil
	default:
		return nil, fmt.Errorf("terminology: invalid rule kind %v for coordinate %q", r.Kind, coord)
	}
}

// PresetNames returns the names of the built-in translations.
func PresetNames() []string {
	o := make([]string, 0, len(presets))
	for k := range presets {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}
