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
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kr/pretty"
	"github.com/spatialmodel/primap"
	"github.com/spatialmodel/primap/quantity"
	"github.com/spatialmodel/primap/terminology"
)

func testInterchange() *Interchange {
	nan := math.NaN()
	return &Interchange{
		Dims:       []string{"source", "area (ISO3)", "entity"},
		AddCoords:  map[string]string{"area_name": "area (ISO3)"},
		Times:      []string{"2000", "2001"},
		TimeFormat: "%Y",
		Attrs:      primap.Attrs{Area: "area (ISO3)", Title: "test"},
		Rows: []Row{
			{Coords: []string{"S", "DEU", "CO2"}, AddCoords: []string{"Germany"}, Unit: "Gg CO2 / yr", Values: []float64{1, 2}},
			{Coords: []string{"S", "USA", "CO2"}, AddCoords: []string{"United States"}, Unit: "Mt CO2 / yr", Values: []float64{1, nan}},
			{Coords: []string{"S", "DEU", "CH4"}, AddCoords: []string{"Germany"}, Unit: "Gg CH4 / yr", Values: []float64{3, nan}},
			{Coords: []string{"S", "FRA", "CH4"}, AddCoords: []string{"France"}, Unit: "Gg CH4 / yr", Values: []float64{nan, nan}},
		},
	}
}

func TestFromInterchange(t *testing.T) {
	log, _ := nullLogger()
	reg := quantity.NewRegistry()
	d, err := FromInterchange(testInterchange(), reg, log)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"time", "source", "area (ISO3)"}; !reflect.DeepEqual(d.Dims, want) {
		t.Errorf("want %v but have %v", want, d.Dims)
	}
	wantCoords := map[string][]string{
		"source":      {"S"},
		"area (ISO3)": {"DEU", "USA"},
	}
	if !reflect.DeepEqual(d.Coords, wantCoords) {
		t.Error(pretty.Diff(d.Coords, wantCoords))
	}
	wantTime := []time.Time{
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if !reflect.DeepEqual(d.Time, wantTime) {
		t.Errorf("want %v but have %v", wantTime, d.Time)
	}
	if want := []string{"CH4", "CO2"}; !reflect.DeepEqual(d.Entities(), want) {
		t.Errorf("want %v but have %v", want, d.Entities())
	}
	co2 := d.Vars["CO2"]
	if co2.Unit != "Gg CO2 / yr" {
		t.Errorf("want unit Gg CO2 / yr but have %s", co2.Unit)
	}
	nan := math.NaN()
	if want := []float64{1, 1000, 2, nan}; !sameValues(co2.Elements, want, 1e-12) {
		t.Errorf("CO2: want %v but have %v", want, co2.Elements)
	}
	if want := []float64{3, nan, nan, nan}; !sameValues(d.Vars["CH4"].Elements, want, 1e-12) {
		t.Errorf("CH4: want %v but have %v", want, d.Vars["CH4"].Elements)
	}
	wantAdd := primap.AddCoord{Dim: "area (ISO3)", Labels: []string{"Germany", "United States"}}
	if !reflect.DeepEqual(d.AddCoords["area_name"], wantAdd) {
		t.Errorf("want %v but have %v", wantAdd, d.AddCoords["area_name"])
	}
	if d.Attrs.Title != "test" {
		t.Errorf("attributes not kept: %v", d.Attrs)
	}
}

func TestFromInterchangeErrors(t *testing.T) {
	log, _ := nullLogger()
	reg := quantity.NewRegistry()

	t.Run("incompatible", func(t *testing.T) {
		ic := testInterchange()
		ic.Rows[1].Unit = "m"
		_, err := FromInterchange(ic, reg, log)
		var ue *quantity.IncompatibleUnitError
		if !errors.As(err, &ue) {
			t.Errorf("want IncompatibleUnitError but have %v", err)
		}
	})
	t.Run("duplicate", func(t *testing.T) {
		ic := testInterchange()
		ic.Rows = append(ic.Rows, ic.Rows[0])
		_, err := FromInterchange(ic, reg, log)
		var de *DuplicateRowError
		if !errors.As(err, &de) {
			t.Errorf("want DuplicateRowError but have %v", err)
		}
	})
	t.Run("time", func(t *testing.T) {
		ic := testInterchange()
		ic.Times[1] = "20x1"
		_, err := FromInterchange(ic, reg, log)
		var te *InvalidTimePeriodError
		if !errors.As(err, &te) || te.Label != "20x1" {
			t.Errorf("want InvalidTimePeriodError but have %v", err)
		}
	})
	t.Run("additional coordinate", func(t *testing.T) {
		ic := testInterchange()
		ic.Rows[2].AddCoords[0] = "Deutschland"
		if _, err := FromInterchange(ic, reg, log); err == nil {
			t.Error("want error for inconsistent additional coordinate")
		}
	})
	t.Run("no entity", func(t *testing.T) {
		ic := testInterchange()
		ic.Dims[2] = "gas"
		_, err := FromInterchange(ic, reg, log)
		var me *MissingCoordinateError
		if !errors.As(err, &me) {
			t.Errorf("want MissingCoordinateError but have %v", err)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	log, _ := nullLogger()
	reg := quantity.NewRegistry()
	d, err := FromInterchange(testInterchange(), reg, log)
	if err != nil {
		t.Fatal(err)
	}
	ic, err := ToInterchange(d, "%Y")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"source", "area (ISO3)", "entity"}; !reflect.DeepEqual(ic.Dims, want) {
		t.Errorf("want %v but have %v", want, ic.Dims)
	}
	if want := []string{"2000", "2001"}; !reflect.DeepEqual(ic.Times, want) {
		t.Errorf("want %v but have %v", want, ic.Times)
	}
	nan := math.NaN()
	want := []Row{
		{Coords: []string{"S", "DEU", "CH4"}, AddCoords: []string{"Germany"}, Unit: "Gg CH4 / yr", Values: []float64{3, nan}},
		{Coords: []string{"S", "DEU", "CO2"}, AddCoords: []string{"Germany"}, Unit: "Gg CO2 / yr", Values: []float64{1, 2}},
		{Coords: []string{"S", "USA", "CO2"}, AddCoords: []string{"United States"}, Unit: "Gg CO2 / yr", Values: []float64{1000, nan}},
	}
	if len(ic.Rows) != len(want) {
		t.Fatalf("want %d rows but have %d", len(want), len(ic.Rows))
	}
	for i, w := range want {
		have := ic.Rows[i]
		if !reflect.DeepEqual(have.Coords, w.Coords) || !reflect.DeepEqual(have.AddCoords, w.AddCoords) || have.Unit != w.Unit {
			t.Errorf("row %d: want %v but have %v", i, w, have)
		}
		if !sameValues(have.Values, w.Values, 1e-12) {
			t.Errorf("row %d: want values %v but have %v", i, w.Values, have.Values)
		}
	}

	d2, err := FromInterchange(ic, reg, log)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d.Dims, d2.Dims) || !reflect.DeepEqual(d.Coords, d2.Coords) ||
		!reflect.DeepEqual(d.Time, d2.Time) || !reflect.DeepEqual(d.AddCoords, d2.AddCoords) ||
		!reflect.DeepEqual(d.Attrs, d2.Attrs) {
		t.Error(pretty.Diff(d, d2))
	}
	for name, v := range d.Vars {
		v2, ok := d2.Vars[name]
		if !ok {
			t.Errorf("missing variable %s", name)
			continue
		}
		if v.Unit != v2.Unit || !sameValues(v.Elements, v2.Elements, 1e-12) {
			t.Errorf("%s: want %v %s but have %v %s", name, v.Elements, v.Unit, v2.Elements, v2.Unit)
		}
	}
}

func TestToInterchangeTimeFormat(t *testing.T) {
	log, _ := nullLogger()
	d, err := FromInterchange(testInterchange(), quantity.NewRegistry(), log)
	if err != nil {
		t.Fatal(err)
	}
	ic, err := ToInterchange(d, "%Y-%m-%d")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"2000-01-01", "2001-01-01"}; !reflect.DeepEqual(ic.Times, want) {
		t.Errorf("want %v but have %v", want, ic.Times)
	}
	d.Time[1] = time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = ToInterchange(d, "%Y")
	var te *InvalidTimePeriodError
	if !errors.As(err, &te) {
		t.Errorf("want InvalidTimePeriodError but have %v", err)
	}
}

func TestWriteReadInterchange(t *testing.T) {
	ic := testInterchange()
	ic.sortRows()
	var data, meta bytes.Buffer
	if err := WriteInterchange(ic, &data, &meta, "out/test.csv"); err != nil {
		t.Fatal(err)
	}
	wantHeader := "source,area (ISO3),entity,unit,area_name,2000,2001\n"
	if !strings.HasPrefix(data.String(), wantHeader) {
		t.Errorf("want header %q but have %q", wantHeader, data.String())
	}

	m, err := ReadInterchangeMeta(&meta)
	if err != nil {
		t.Fatal(err)
	}
	if m.DataFile != "test.csv" {
		t.Errorf("want data file test.csv but have %s", m.DataFile)
	}
	if want := []string{"source", "area (ISO3)", "entity", "unit"}; !reflect.DeepEqual(m.Dimensions["*"], want) {
		t.Errorf("want %v but have %v", want, m.Dimensions["*"])
	}
	have, err := ReadInterchange(m, &data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(have.Dims, ic.Dims) || !reflect.DeepEqual(have.Times, ic.Times) ||
		!reflect.DeepEqual(have.AddCoords, ic.AddCoords) || !reflect.DeepEqual(have.Attrs, ic.Attrs) ||
		have.TimeFormat != ic.TimeFormat {
		t.Error(pretty.Diff(have, ic))
	}
	if len(have.Rows) != len(ic.Rows) {
		t.Fatalf("want %d rows but have %d", len(ic.Rows), len(have.Rows))
	}
	for i, w := range ic.Rows {
		r := have.Rows[i]
		if !reflect.DeepEqual(r.Coords, w.Coords) || !reflect.DeepEqual(r.AddCoords, w.AddCoords) ||
			r.Unit != w.Unit || !sameValues(r.Values, w.Values, 0) {
			t.Errorf("row %d: want %v but have %v", i, w, r)
		}
	}
}

func TestReadInterchangeMetaErrors(t *testing.T) {
	for _, in := range []string{
		"time_format: '%Y'\n",
		"dimensions:\n  '*': [area, unit]\n",
		"dimensions: [",
	} {
		if _, err := ReadInterchangeMeta(strings.NewReader(in)); err == nil {
			t.Errorf("%q: want error", in)
		}
	}
	m := &InterchangeMeta{TimeFormat: "%Y", Dimensions: map[string][]string{"*": {"area", "entity"}}}
	_, err := ReadInterchange(m, strings.NewReader("area,entity,2000\nDEU,CO2,1\n"))
	var me *MissingCoordinateError
	if !errors.As(err, &me) || me.Coord != "unit" {
		t.Errorf("want MissingCoordinateError for unit but have %v", err)
	}
}

func TestDataFileName(t *testing.T) {
	if have := DataFileName("dir/table.yaml"); have != "dir/table.csv" {
		t.Errorf("want dir/table.csv but have %s", have)
	}
}

const testSpec = `time_format = "%Y"
filter_remove = []
filter_query = "country != 'ATA'"

[coords_cols]
area = "country"
category = "category"
entity = "gas"
unit = "unit"

[coords_defaults]
source = "TESTcsv2021"
scenario = "HISTORY"

[coords_terminologies]
area = "ISO3"
category = "IPCC2006"
scenario = "general"

[coords_value_mapping]
category = "PRIMAP1"
entity = "PRIMAP1"
unit = "PRIMAP1"

[coords_value_partial_mapping.area]
ZMB = "ZAM"

[add_coords_cols]
category_name = ["category name", "category"]

[meta_data]
references = "Just ask around."

[[filter_keep]]
gas = ["CO2", "KYOTOGHGAR4"]

[[filter_keep]]
gas = "CH4"
country = "AUS"
`

func TestReadSpec(t *testing.T) {
	cfg, err := ReadSpec(strings.NewReader(testSpec))
	if err != nil {
		t.Fatal(err)
	}
	wantKeep := []FilterSpec{
		{"gas": {"CO2", "KYOTOGHGAR4"}},
		{"gas": {"CH4"}, "country": {"AUS"}},
	}
	if !reflect.DeepEqual(cfg.FilterKeep, wantKeep) {
		t.Error(pretty.Diff(cfg.FilterKeep, wantKeep))
	}
	if cfg.FilterRemove == nil || len(cfg.FilterRemove) != 0 {
		t.Errorf("want empty filter_remove but have %#v", cfg.FilterRemove)
	}
	if !reflect.DeepEqual(cfg.CoordsValueMapping["category"], terminology.Preset(terminology.PRIMAP1)) {
		t.Errorf("category rule: %v", cfg.CoordsValueMapping["category"])
	}
	wantArea := terminology.PartialTable(map[string]string{"ZMB": "ZAM"})
	if !reflect.DeepEqual(cfg.CoordsValueMapping["area"], wantArea) {
		t.Errorf("want %v but have %v", wantArea, cfg.CoordsValueMapping["area"])
	}
	if want := [2]string{"category name", "category"}; cfg.AddCoordsCols["category_name"] != want {
		t.Errorf("want %v but have %v", want, cfg.AddCoordsCols["category_name"])
	}
	if cfg.TimeFormat != "%Y" || cfg.FilterQuery != "country != 'ATA'" {
		t.Errorf("time format %q, query %q", cfg.TimeFormat, cfg.FilterQuery)
	}

	log, _ := nullLogger()
	cfg.Units = quantity.NewRegistry()
	cfg.Log = log
	ic, err := ReadWideCSV(strings.NewReader(wideCSV), cfg)
	if err != nil {
		t.Fatal(err)
	}
	var entities []string
	for _, r := range ic.Rows {
		entities = append(entities, r.Coords[ic.Dim(primap.Entity)])
	}
	if want := []string{"CO2", "KYOTOGHG (AR4GWP100)", "CH4", "CO2"}; !reflect.DeepEqual(entities, want) {
		t.Errorf("want %v but have %v", want, entities)
	}
}

func TestReadSpecErrors(t *testing.T) {
	for _, in := range []string{
		"unknown = 1\n",
		"filter_keep = \"gas\"\n",
		"[add_coords_cols]\nname = [\"a\"]\n",
		"[coords_value_mapping]\narea = \"PRIMAP1\"\n[coords_value_partial_mapping.area]\nA = \"B\"\n",
	} {
		_, err := ReadSpec(strings.NewReader(in))
		var ce *InvalidConfigError
		if !errors.As(err, &ce) {
			t.Errorf("%q: want InvalidConfigError but have %v", in, err)
		}
	}
}

func TestConfigHash(t *testing.T) {
	a, err := ReadSpec(strings.NewReader(testSpec))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ReadSpec(strings.NewReader(testSpec))
	if err != nil {
		t.Fatal(err)
	}
	if a.Hash() != b.Hash() {
		t.Errorf("equal configurations have hashes %s and %s", a.Hash(), b.Hash())
	}
	b.CoordsDefaults["source"] = "other"
	if a.Hash() == b.Hash() {
		t.Error("different configurations have the same hash")
	}
}
