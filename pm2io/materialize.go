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
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/primap"
	"github.com/spatialmodel/primap/quantity"
)

func allMissing(v []float64) bool {
	for _, x := range v {
		if !math.IsNaN(x) {
			return false
		}
	}
	return true
}

// FromInterchange materializes ic as a dataset with one variable per
// entity. The labels of each dimension are the sorted values found in
// rows that have at least one value. Rows of an entity whose unit
// differs from the first row of the entity are converted.
func FromInterchange(ic *Interchange, reg *quantity.Registry, log logrus.FieldLogger) (*primap.Dataset, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	d, err := fromInterchange(ic, reg, log)
	if err != nil {
		log.WithError(err).Error("pm2io: materializing interchange table")
		return nil, err
	}
	return d, nil
}

func fromInterchange(ic *Interchange, reg *quantity.Registry, log logrus.FieldLogger) (*primap.Dataset, error) {
	e, err := ic.entityDim()
	if err != nil {
		return nil, err
	}
	if err := ic.checkDuplicates(); err != nil {
		return nil, err
	}

	// Time axis, sorted.
	layout, err := Layout(ic.TimeFormat)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, len(ic.Times))
	for i, label := range ic.Times {
		t, err := time.Parse(layout, label)
		if err != nil {
			return nil, &InvalidTimePeriodError{Label: label, Format: ic.TimeFormat}
		}
		times[i] = t
	}
	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return times[order[a]].Before(times[order[b]]) })
	sortedTimes := make([]time.Time, len(times))
	for i, j := range order {
		sortedTimes[i] = times[j]
		if i > 0 && sortedTimes[i].Equal(sortedTimes[i-1]) {
			return nil, &InvalidTimePeriodError{Label: ic.Times[j], Format: ic.TimeFormat}
		}
	}

	// Dimension labels and the unit of each entity.
	var dims []string
	var dimIdx []int
	for i, dim := range ic.Dims {
		if i != e {
			dims = append(dims, dim)
			dimIdx = append(dimIdx, i)
		}
	}
	labelSets := make([]map[string]bool, len(dims))
	for i := range labelSets {
		labelSets[i] = make(map[string]bool)
	}
	var entities []string
	units := make(map[string]string)
	for _, r := range ic.Rows {
		if _, err := reg.Parse(r.Unit); err != nil {
			return nil, err
		}
		if allMissing(r.Values) {
			continue
		}
		for i, j := range dimIdx {
			labelSets[i][r.Coords[j]] = true
		}
		if _, ok := units[r.Coords[e]]; !ok {
			units[r.Coords[e]] = r.Unit
			entities = append(entities, r.Coords[e])
		}
	}
	coords := make(map[string][]string)
	for i, dim := range dims {
		coords[dim] = sortedSet(labelSets[i])
	}

	attrs := ic.Attrs
	if _, term := primap.SplitDimName(ic.Dims[e]); term != "" && attrs.EntityTerminology == "" {
		attrs.EntityTerminology = term
	}
	d := primap.NewDataset(dims, coords, sortedTimes, attrs)
	for _, ent := range entities {
		if _, err := d.AddVar(ent, units[ent], reg); err != nil {
			return nil, err
		}
	}

	labelIndex := make([]map[string]int, len(dims))
	for i, dim := range dims {
		labelIndex[i] = make(map[string]int)
		for j, l := range coords[dim] {
			labelIndex[i][l] = j
		}
	}
	timeIndex := make([]int, len(order))
	for i, j := range order {
		timeIndex[j] = i
	}

	add := ic.AddCoordNames()
	addLabels := make([][]string, len(add))
	addSet := make([][]bool, len(add))
	addDim := make([]int, len(add))
	for k, name := range add {
		addDim[k] = -1
		for i, dim := range dims {
			if dim == ic.AddCoords[name] {
				addDim[k] = i
			}
		}
		if addDim[k] < 0 {
			return nil, fmt.Errorf("pm2io: additional coordinate %q refers to %q, which is not a dimension", name, ic.AddCoords[name])
		}
		addLabels[k] = make([]string, len(coords[dims[addDim[k]]]))
		addSet[k] = make([]bool, len(addLabels[k]))
	}

	idx := make([]int, len(dims)+1)
	for _, r := range ic.Rows {
		if allMissing(r.Values) {
			continue
		}
		v := d.Vars[r.Coords[e]]
		f, err := reg.Factor(r.Unit, v.Unit)
		if err != nil {
			return nil, fmt.Errorf("pm2io: converting entity %s: %w", r.Coords[e], err)
		}
		for i, j := range dimIdx {
			idx[i+1] = labelIndex[i][r.Coords[j]]
		}
		for t, x := range r.Values {
			idx[0] = timeIndex[t]
			v.Set(x*f, idx...)
		}
		for k := range add {
			l := idx[addDim[k]+1]
			if addSet[k][l] && addLabels[k][l] != r.AddCoords[k] {
				return nil, fmt.Errorf("pm2io: additional coordinate %q has values %q and %q for %s %q",
					add[k], addLabels[k][l], r.AddCoords[k], dims[addDim[k]], coords[dims[addDim[k]]][l])
			}
			addLabels[k][l] = r.AddCoords[k]
			addSet[k][l] = true
		}
	}
	for k, name := range add {
		d.AddCoords[name] = primap.AddCoord{Dim: dims[addDim[k]], Labels: addLabels[k]}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"entities": len(d.Vars),
		"shape":    d.Shape(),
	}).Info("pm2io: materialized dataset")
	return d, nil
}

func sortedSet(s map[string]bool) []string {
	o := make([]string, 0, len(s))
	for k := range s {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// ToInterchange flattens d into an interchange table with one row per
// entity and combination of labels that has at least one value. Time
// labels are formatted with the strftime format timeFormat.
func ToInterchange(d *primap.Dataset, timeFormat string) (*Interchange, error) {
	if timeFormat == "" {
		timeFormat = DefaultWideTimeFormat
	}
	layout, err := Layout(timeFormat)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if len(d.Dims) == 0 || d.Dims[0] != primap.Time {
		return nil, fmt.Errorf("pm2io: time is not the first dimension")
	}
	ic := &Interchange{
		AddCoords:  make(map[string]string),
		Attrs:      d.Attrs,
		TimeFormat: timeFormat,
	}
	seen := make(map[string]bool)
	for _, t := range d.Time {
		label := t.Format(layout)
		if seen[label] {
			return nil, &InvalidTimePeriodError{Label: label, Format: timeFormat}
		}
		seen[label] = true
		ic.Times = append(ic.Times, label)
	}

	entityDim := primap.DimName(primap.Entity, d.Attrs.EntityTerminology)
	other := d.Dims[1:]
	_, ic.Dims = columnOrder(append(append([]string{}, other...), entityDim), nil)
	pos := make([]int, len(other)) // position of each other dimension in ic.Dims
	e := -1
	for i, dim := range ic.Dims {
		if dim == entityDim {
			e = i
			continue
		}
		for j, o := range other {
			if o == dim {
				pos[j] = i
			}
		}
	}

	add := make([]string, 0, len(d.AddCoords))
	for name, ac := range d.AddCoords {
		ic.AddCoords[name] = ac.Dim
		add = append(add, name)
	}
	sort.Strings(add)
	addDim := make([]int, len(add))
	for k, name := range add {
		for j, o := range other {
			if o == d.AddCoords[name].Dim {
				addDim[k] = j
			}
		}
	}

	// Series along time start at the flat indices of the first time.
	series := 1
	for _, n := range d.Shape()[1:] {
		series *= n
	}
	for _, ent := range d.Entities() {
		v := d.Vars[ent]
		for c := 0; c < series; c++ {
			idx := v.IndexNd(c)
			values := make([]float64, len(d.Time))
			for t := range values {
				idx[0] = t
				values[t] = v.Get(idx...)
			}
			if allMissing(values) {
				continue
			}
			r := Row{
				Coords:    make([]string, len(ic.Dims)),
				AddCoords: make([]string, len(add)),
				Unit:      v.Unit,
				Values:    values,
			}
			r.Coords[e] = ent
			for j, o := range other {
				r.Coords[pos[j]] = d.Coords[o][idx[j+1]]
			}
			for k, name := range add {
				r.AddCoords[k] = d.AddCoords[name].Labels[idx[addDim[k]+1]]
			}
			ic.Rows = append(ic.Rows, r)
		}
	}
	ic.sortRows()
	return ic, nil
}
