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
	"errors"
	"math"
	"reflect"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestFactor(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		from, to string
		want     float64
	}{
		{"Gg", "Mt", 1e-3},
		{"Mt", "Gg", 1e3},
		{"Gg CO2 / yr", "Mt CO2 / yr", 1e-3},
		{"kt CO2 / yr", "t CO2 / yr", 1e3},
		{"Gg CO2 / yr", "Gg CO2 yr^-1", 1},
		{"Gg CO2 / yr", "Gg * CO2 / a", 1},
		{"t / day", "t / yr", 365.25},
		{"m**2", "ha", 1e-4},
		{"km^2", "ha", 100},
		{"kWh", "J", 3.6e6},
		{"percent", "1", 0.01},
	}
	for _, test := range tests {
		t.Run(test.from+"->"+test.to, func(t *testing.T) {
			have, err := r.Factor(test.from, test.to)
			if err != nil {
				t.Fatal(err)
			}
			if different(have, test.want, 1e-10) {
				t.Errorf("want %g but have %g", test.want, have)
			}
		})
	}
}

func TestIncompatible(t *testing.T) {
	r := NewRegistry()
	for _, pair := range [][2]string{
		{"Gg", "m"},
		{"Gg CO2 / yr", "Gg CH4 / yr"},
		{"Gg CO2 / yr", "Gg CO2"},
	} {
		_, err := r.Factor(pair[0], pair[1])
		var ie *IncompatibleUnitError
		if !errors.As(err, &ie) {
			t.Errorf("%s -> %s: want IncompatibleUnitError but have %v", pair[0], pair[1], err)
			continue
		}
		if ie.From != pair[0] || ie.To != pair[1] {
			t.Errorf("want %v but have %v", pair, []string{ie.From, ie.To})
		}
	}
	if r.Compatible("Gg", "m") {
		t.Error("Gg and m should not be compatible")
	}
	if !r.Compatible("Gg", "Mt") {
		t.Error("Gg and Mt should be compatible")
	}
}

func TestInvalid(t *testing.T) {
	r := NewRegistry()
	for _, s := range []string{"", "Gg /", "/ yr", "Gg CO2 / yrr", "m^x", "kg (CO2)"} {
		_, err := r.Parse(s)
		var ie *InvalidUnitError
		if !errors.As(err, &ie) {
			t.Errorf("%q: want InvalidUnitError but have %v", s, err)
		}
	}
}

func TestConvert(t *testing.T) {
	r := NewRegistry()
	have, err := r.Convert(1, "Mt CO2 / yr", "Gg CO2 / yr")
	if err != nil {
		t.Fatal(err)
	}
	if different(have, 1000, 1e-10) {
		t.Errorf("want 1000 but have %g", have)
	}
}

func TestCache(t *testing.T) {
	r := NewRegistry()
	a, err := r.Parse("Gg CO2 / yr")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Parse("Gg CO2 / yr")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second parse should be served from the cache")
	}
}

func TestGases(t *testing.T) {
	r := NewRegistry()
	have, err := r.Gases("Gg HFC134a / yr")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"HFC134a"}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("want %v but have %v", want, have)
	}
	have, err = r.Gases("Mt")
	if err != nil {
		t.Fatal(err)
	}
	if len(have) != 0 {
		t.Errorf("want no gases but have %v", have)
	}
}

func TestGWPFactor(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		context, gas, from, to string
		want                   float64
	}{
		{"SARGWP100", "SF6", "Gg SF6 / yr", "Gg CO2 / yr", 23900},
		{"AR4GWP100", "CH4", "Gg CH4 / yr", "Mt CO2 / yr", 25e-3},
		{"AR5GWP100", "CO2", "Gg CO2 / yr", "Gg CO2 / yr", 1},
	}
	for _, test := range tests {
		have, err := r.GWPFactor(test.context, test.gas, test.from, test.to)
		if err != nil {
			t.Fatal(err)
		}
		if different(have, test.want, 1e-10) {
			t.Errorf("%s %s: want %g but have %g", test.context, test.gas, test.want, have)
		}
	}

	if _, err := r.GWPFactor("SARGWP100", "NF3", "Gg NF3 / yr", "Gg CO2 / yr"); err == nil {
		t.Error("NF3 has no SAR GWP; want error")
	}
	if _, err := r.GWPFactor("NOPE", "CH4", "Gg CH4 / yr", "Gg CO2 / yr"); err == nil {
		t.Error("want error for unknown context")
	}
	_, err := r.GWPFactor("AR4GWP100", "CH4", "Gg CH4 / yr", "Gg CO2")
	var ie *IncompatibleUnitError
	if !errors.As(err, &ie) {
		t.Errorf("want IncompatibleUnitError but have %v", err)
	}
}
