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

package quantity

import (
	"fmt"
	"sort"

	"github.com/ctessum/unit"
)

// gwp100 holds 100-year global warming potentials, relative to CO2,
// for each supported context.
var gwp100 = map[string]map[string]float64{
	"SARGWP100": {
		"CO2": 1, "CH4": 21, "N2O": 310, "SF6": 23900,
		"HFC23": 11700, "HFC32": 650, "HFC125": 2800, "HFC134a": 1300,
		"HFC143a": 3800, "HFC152a": 140, "HFC227ea": 2900,
		"CF4": 6500, "C2F6": 9200,
	},
	"AR4GWP100": {
		"CO2": 1, "CH4": 25, "N2O": 298, "SF6": 22800, "NF3": 17200,
		"HFC23": 14800, "HFC32": 675, "HFC125": 3500, "HFC134a": 1430,
		"HFC143a": 4470, "HFC152a": 124, "HFC227ea": 3220,
		"CF4": 7390, "C2F6": 12200,
	},
	"AR5GWP100": {
		"CO2": 1, "CH4": 28, "N2O": 265, "SF6": 23500, "NF3": 16100,
		"HFC23": 12400, "HFC32": 677, "HFC125": 3170, "HFC134a": 1300,
		"HFC143a": 4800, "HFC152a": 138, "HFC227ea": 3350,
		"CF4": 6630, "C2F6": 11100,
	},
}

// Contexts returns the names of the known global warming potential
// contexts, sorted.
func Contexts() []string {
	o := make([]string, 0, len(gwp100))
	for k := range gwp100 {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// GWP returns the global warming potential of gas in the given context.
func GWP(context, gas string) (float64, error) {
	c, ok := gwp100[context]
	if !ok {
		return 0, fmt.Errorf("quantity: unknown GWP context %q", context)
	}
	v, ok := c[gas]
	if !ok {
		return 0, fmt.Errorf("quantity: gas %q has no GWP in context %q", gas, context)
	}
	return v, nil
}

// GWPFactor returns the number a value of gas in units of from must be
// multiplied by to express it as CO2 equivalents in units of to,
// using the given context. from must contain exactly one gas dimension
// and to must contain CO2 in its place, e.g. "Gg SF6 / yr" and
// "Mt CO2 / yr".
func (r *Registry) GWPFactor(context, gas, from, to string) (float64, error) {
	g, err := GWP(context, gas)
	if err != nil {
		return 0, err
	}
	f, err := r.Parse(from)
	if err != nil {
		return 0, err
	}
	t, err := r.Parse(to)
	if err != nil {
		return 0, err
	}
	if f.Dimensions()[GasDimension(gas)] != 1 {
		return 0, &IncompatibleUnitError{From: from, To: to}
	}
	swapped := f.Clone()
	swapped.Div(unit.New(1, unit.Dimensions{GasDimension(gas): 1}))
	swapped.Mul(unit.New(1, unit.Dimensions{GasDimension("CO2"): 1}))
	if !unit.DimensionsMatch(swapped, t) {
		return 0, &IncompatibleUnitError{From: from, To: to}
	}
	return g * swapped.Value() / t.Value(), nil
}
