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
	"errors"
	"strings"
	"testing"
)

func noRow(string) string { return "" }

func TestPRIMAP1Category(t *testing.T) {
	tr, err := Preset(PRIMAP1).Resolve("category")
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]string{
		"IPC1A2":    "1.A.2",
		"IPC1":      "1",
		"IPC1A":     "1.A",
		"IPC1A1ai":  "1.A.1.a.i",
		"IPC2B10":   "2.B.10",
		"IPCM0EL":   "M.0.EL",
		"IPCMAGELV": "M.AG.ELV",
		"IPCMINTB":  "M.INTB",
	}
	for in, want := range tests {
		have, err := tr(in, noRow)
		if err != nil {
			t.Errorf("%s: %v", in, err)
			continue
		}
		if have != want {
			t.Errorf("%s: want %s but have %s", in, want, have)
		}
	}
	for _, in := range []string{"1A2", "IPC", "IPCA1", "IPC1A2%"} {
		_, err := tr(in, noRow)
		var ue *UnmappedValueError
		if !errors.As(err, &ue) {
			t.Errorf("%s: want UnmappedValueError but have %v", in, err)
		}
	}
}

func TestPRIMAP1Entity(t *testing.T) {
	tests := map[string]string{
		"KYOTOGHGAR4":  "KYOTOGHG (AR4GWP100)",
		"KYOTOGHG":     "KYOTOGHG (SARGWP100)",
		"HFCSAR5CCF":   "HFCS (AR5CCFGWP100)",
		"FGASESAR5":    "FGASES (AR5GWP100)",
		"PFCSSAR":      "PFCS (SARGWP100)",
		"CO2":          "CO2",
		"CH4":          "CH4",
		"OTHERHFCSAR6": "OTHERHFCS (AR6GWP100)",
	}
	for in, want := range tests {
		if have := PRIMAP1Entity(in); have != want {
			t.Errorf("%s: want %s but have %s", in, want, have)
		}
	}
}

func TestPRIMAP1Unit(t *testing.T) {
	tr, err := Preset(PRIMAP1).Resolve("unit")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		unit, entity, want string
	}{
		{"GgCO2eq", "KYOTOGHG (SARGWP100)", "Gg CO2 / yr"},
		{"MtCO2eq", "CO2", "Mt CO2 / yr"},
		{"Gg", "CH4", "Gg CH4 / yr"},
		{"kt", "KYOTOGHG (AR4GWP100)", "kt KYOTOGHG / yr"},
	}
	for _, test := range tests {
		row := func(c string) string {
			if c == "entity" {
				return test.entity
			}
			return ""
		}
		have, err := tr(test.unit, row)
		if err != nil {
			t.Fatal(err)
		}
		if have != test.want {
			t.Errorf("want %s but have %s", test.want, have)
		}
	}
	if _, err := tr("bananas", func(string) string { return "CO2" }); err == nil {
		t.Error("want error for invalid unit")
	}
}

func TestResolve(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		tr, err := Table(map[string]string{"a": "A"}).Resolve("area")
		if err != nil {
			t.Fatal(err)
		}
		if have, _ := tr("a", noRow); have != "A" {
			t.Errorf("want A but have %s", have)
		}
		_, err = tr("b", noRow)
		var ue *UnmappedValueError
		if !errors.As(err, &ue) {
			t.Fatalf("want UnmappedValueError but have %v", err)
		}
		if ue.Coord != "area" || ue.Value != "b" {
			t.Errorf("unexpected error fields %+v", ue)
		}
	})
	t.Run("partial table", func(t *testing.T) {
		tr, err := PartialTable(map[string]string{"a": "A"}).Resolve("area")
		if err != nil {
			t.Fatal(err)
		}
		if have, _ := tr("b", noRow); have != "b" {
			t.Errorf("want b but have %s", have)
		}
	})
	t.Run("func", func(t *testing.T) {
		tr, err := Func(func(v string, _ func(string) string) (string, error) {
			return strings.ToUpper(v), nil
		}).Resolve("scenario")
		if err != nil {
			t.Fatal(err)
		}
		if have, _ := tr("hist", noRow); have != "HIST" {
			t.Errorf("want HIST but have %s", have)
		}
	})
	t.Run("unknown preset", func(t *testing.T) {
		for _, r := range []struct{ preset, coord string }{{"PRIMAP9", "category"}, {PRIMAP1, "area"}} {
			_, err := Preset(r.preset).Resolve(r.coord)
			var pe *UnknownPresetError
			if !errors.As(err, &pe) {
				t.Errorf("%v: want UnknownPresetError but have %v", r, err)
			}
		}
	})
	t.Run("invalid", func(t *testing.T) {
		if _, err := (Rule{}).Resolve("area"); err == nil {
			t.Error("want error for zero rule")
		}
		if _, err := Func(nil).Resolve("area"); err == nil {
			t.Error("want error for nil function")
		}
	})
}

func TestRegistry(t *testing.T) {
	r := Registry{"area": "ISO3", "category": "IPCC2006", "sec_cats__Class": "class"}
	if have := r.DimName("area"); have != "area (ISO3)" {
		t.Errorf("want area (ISO3) but have %s", have)
	}
	if have := r.DimName("sec_cats__Class"); have != "Class (class)" {
		t.Errorf("want Class (class) but have %s", have)
	}
	if have := r.DimName("source"); have != "source" {
		t.Errorf("want source but have %s", have)
	}
	if err := r.Check([]string{"area", "category", "sec_cats__Class", "source"}); err != nil {
		t.Error(err)
	}

	var te *TerminologyError
	if err := (Registry{"category": "IPCC2006"}).Check(nil); !errors.As(err, &te) {
		t.Errorf("missing area terminology: want TerminologyError but have %v", err)
	}
	if err := (Registry{"area": "ISO3", "source": "x"}).Check(nil); !errors.As(err, &te) {
		t.Errorf("source terminology: want TerminologyError but have %v", err)
	}
	if err := (Registry{"area": "ISO3"}).Check([]string{"scenario"}); !errors.As(err, &te) {
		t.Errorf("missing scenario terminology: want TerminologyError but have %v", err)
	}
}
