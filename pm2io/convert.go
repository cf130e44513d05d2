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
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/primap"
)

// ReadWideCSV reads a wide CSV table, with one column per time, and
// converts it into the interchange format.
func ReadWideCSV(r io.Reader, cfg *Config) (*Interchange, error) {
	t, err := ReadCSV(r)
	if err != nil {
		return nil, cfg.fail("reading wide CSV", err)
	}
	return ConvertWide(t, cfg)
}

// ReadWideExcel reads a wide table from a sheet of a Microsoft Excel
// file and converts it into the interchange format. If sheet is
// empty the first sheet is read.
func ReadWideExcel(r io.Reader, sheet string, cfg *Config) (*Interchange, error) {
	t, err := ReadExcel(r, sheet)
	if err != nil {
		return nil, cfg.fail("reading wide Excel", err)
	}
	return ConvertWide(t, cfg)
}

// ReadLongCSV reads a long CSV table, with one row per observation,
// and converts it into the interchange format.
func ReadLongCSV(r io.Reader, cfg *Config) (*Interchange, error) {
	t, err := ReadCSV(r)
	if err != nil {
		return nil, cfg.fail("reading long CSV", err)
	}
	return ConvertLong(t, cfg)
}

// ConvertWide converts a wide table, with one column per time, into
// the interchange format. t is not modified.
func ConvertWide(t *RawTable, cfg *Config) (*Interchange, error) {
	ic, err := convert(t, cfg, false)
	if err != nil {
		return nil, cfg.fail("converting wide table", err)
	}
	return ic, nil
}

// ConvertLong converts a long table, with one row per observation,
// into the interchange format. t is not modified.
func ConvertLong(t *RawTable, cfg *Config) (*Interchange, error) {
	ic, err := convert(t, cfg, true)
	if err != nil {
		return nil, cfg.fail("converting long table", err)
	}
	return ic, nil
}

func (c *Config) fail(msg string, err error) error {
	c.log().WithError(err).Error("pm2io: " + msg)
	return err
}

func convert(t *RawTable, cfg *Config, long bool) (*Interchange, error) {
	n, err := checkConfig(cfg, long)
	if err != nil {
		return nil, err
	}
	format := cfg.timeFormat(long)
	layout, err := Layout(format)
	if err != nil {
		return nil, &InvalidConfigError{Field: "time_format", Err: err}
	}

	var valueCols []string
	if long {
		if col, ok := cfg.CoordsCols[TimeCol]; ok {
			valueCols = append(valueCols, col)
		}
		valueCols = append(valueCols, cfg.CoordsCols[DataCol])
	} else if len(cfg.TimeCols) > 0 {
		valueCols = cfg.TimeCols
	} else {
		for _, c := range t.Columns {
			if matchesTimeFormat(c, layout) {
				valueCols = append(valueCols, c)
			}
		}
	}
	numeric := make(map[string]bool)
	if long {
		numeric[cfg.CoordsCols[DataCol]] = true
	} else {
		for _, c := range valueCols {
			numeric[c] = true
		}
	}

	log := cfg.log().WithFields(logrus.Fields{
		"config": cfg.Hash(),
		"long":   long,
	})
	log.WithFields(logrus.Fields{
		"rows":    len(t.Records),
		"columns": len(t.Columns),
	}).Info("pm2io: converting table")

	filtered, err := Filter(t, cfg.FilterKeep, cfg.FilterRemove, cfg.FilterQuery, numeric)
	if err != nil {
		return nil, err
	}
	var warnings []error
	if len(filtered.Records) == 0 && len(t.Records) > 0 {
		w := &EmptyResultWarning{Rows: len(t.Records)}
		log.Warn(w.Error())
		warnings = append(warnings, w)
	}

	f, err := mapColumns(filtered, cfg, n, valueCols)
	if err != nil {
		return nil, err
	}
	if cfg.CoordsValueMapping != nil {
		if err := mapValues(f, n, cfg.CoordsValueMapping); err != nil {
			return nil, err
		}
	}
	if cfg.CoordsValueFilling != nil {
		if err := fillValues(f, n, cfg.CoordsValueFilling); err != nil {
			return nil, err
		}
	}

	var ic *Interchange
	if long {
		ic, err = buildLong(f, n, cfg, layout, log)
	} else {
		ic, err = buildWide(f, n)
	}
	if err != nil {
		return nil, err
	}
	ic.TimeFormat = format
	ic.Warnings = warnings
	if err := ic.finish(cfg.Units, log); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"rows":  len(ic.Rows),
		"times": len(ic.Times),
	}).Info("pm2io: converted table")
	return ic, nil
}

// newInterchange returns an empty table with the dimensions and
// additional coordinates of f, and the index of the unit column
// and each dimension's column in f.
func newInterchange(f *frame, n *naming) (ic *Interchange, unitCol int, dimCols []int) {
	var dims []string
	for _, c := range f.coordCols() {
		if c != primap.Unit {
			dims = append(dims, c)
		}
	}
	_, dims = columnOrder(dims, f.addCols())
	ic = &Interchange{
		Dims:      dims,
		AddCoords: make(map[string]string),
		Attrs:     n.attrs,
	}
	for k, v := range n.addCoords {
		ic.AddCoords[k] = v
	}
	for _, d := range dims {
		dimCols = append(dimCols, f.col(d))
	}
	return ic, f.col(primap.Unit), dimCols
}

func (f *frame) newRow(row []string, unitCol int, dimCols []int) Row {
	r := Row{
		Coords:    make([]string, len(dimCols)),
		AddCoords: append([]string{}, row[f.nCoords:f.nCoords+f.nAdd]...),
		Unit:      row[unitCol],
	}
	for i, c := range dimCols {
		r.Coords[i] = row[c]
	}
	return r
}

// buildWide builds the interchange table from a wide frame whose value
// columns are the time columns.
func buildWide(f *frame, n *naming) (*Interchange, error) {
	ic, unitCol, dimCols := newInterchange(f, n)
	times := f.valueCols()
	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return times[order[a]] < times[order[b]] })
	for _, i := range order {
		ic.Times = append(ic.Times, times[i])
	}
	first := f.nCoords + f.nAdd
	ic.Rows = make([]Row, len(f.rows))
	for j, row := range f.rows {
		r := f.newRow(row, unitCol, dimCols)
		r.Values = make([]float64, len(order))
		for k, i := range order {
			r.Values[k] = parseValue(row[first+i])
		}
		ic.Rows[j] = r
	}
	return ic, nil
}

// observation is one value of a long table.
type observation struct {
	row   Row
	time  time.Time
	value float64
}

// buildLong pivots a long frame, whose value columns are the time, if
// it is not a default, and the data, into an interchange table.
func buildLong(f *frame, n *naming, cfg *Config, layout string, log logrus.FieldLogger) (*Interchange, error) {
	ic, unitCol, dimCols := newInterchange(f, n)
	timeCol := -1
	if _, ok := cfg.CoordsCols[TimeCol]; ok {
		timeCol = f.nCoords + f.nAdd
	}
	dataCol := len(f.cols) - 1
	format := cfg.timeFormat(true)

	obs := make([]observation, len(f.rows))
	for i, row := range f.rows {
		label := cfg.CoordsDefaults[TimeCol]
		if timeCol >= 0 {
			label = row[timeCol]
		}
		t, err := time.Parse(layout, strings.TrimSpace(label))
		if err != nil {
			return nil, &InvalidTimePeriodError{Label: label, Format: format}
		}
		obs[i] = observation{
			row:   f.newRow(row, unitCol, dimCols),
			time:  t,
			value: parseValue(row[dataCol]),
		}
	}

	// Units are harmonized before pivoting so that each time series
	// has a single unit.
	e := ic.Dim(primap.Entity)
	err := harmonizeUnits(len(obs),
		func(i int) string { return obs[i].row.Coords[e] },
		func(i int) string { return obs[i].row.Unit },
		func(i int, to string, factor float64) {
			obs[i].value *= factor
			obs[i].row.Unit = to
		}, cfg.Units, log)
	if err != nil {
		return nil, err
	}

	var times []time.Time
	timeIndex := make(map[string]int)
	for _, o := range obs {
		label := o.time.Format(layout)
		if _, ok := timeIndex[label]; !ok {
			timeIndex[label] = -1
			times = append(times, o.time)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i, t := range times {
		label := t.Format(layout)
		timeIndex[label] = i
		ic.Times = append(ic.Times, label)
	}

	series := make(map[string]int)
	seen := make(map[[2]int]bool)
	for _, o := range obs {
		k := strings.Join(o.row.Coords, "\x00")
		i, ok := series[k]
		if !ok {
			i = len(ic.Rows)
			series[k] = i
			r := o.row
			r.Values = make([]float64, len(ic.Times))
			for j := range r.Values {
				r.Values[j] = math.NaN()
			}
			ic.Rows = append(ic.Rows, r)
		}
		t := timeIndex[o.time.Format(layout)]
		if seen[[2]int{i, t}] {
			return nil, &DuplicateRowError{
				Dims:   append(append([]string{}, ic.Dims...), primap.Time),
				Coords: append(append([]string{}, o.row.Coords...), ic.Times[t]),
			}
		}
		seen[[2]int{i, t}] = true
		ic.Rows[i].Values[t] = o.value
	}
	return ic, nil
}
