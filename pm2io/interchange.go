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
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/primap"
	"github.com/spatialmodel/primap/quantity"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

// Interchange is an emissions table in the interchange format: one row
// per time series, with the coordinates, the unit and one value per
// time label.
type Interchange struct {
	// Dims holds the full names of the dimensions in column order.
	// The unit is not a dimension.
	Dims []string

	// AddCoords maps additional coordinates to the dimension they
	// describe.
	AddCoords map[string]string

	// Times holds the time labels, formatted with TimeFormat.
	Times []string

	Rows []Row

	Attrs primap.Attrs

	// TimeFormat is the strftime format of Times.
	TimeFormat string

	// Warnings holds non-fatal problems found while building the table.
	Warnings []error
}

// Row is one time series of an Interchange table.
type Row struct {
	// Coords holds the value of each dimension.
	Coords []string

	// AddCoords holds the value of each additional coordinate, in the
	// order given by Interchange.AddCoordNames.
	AddCoords []string

	Unit string

	// Values holds the value at each time. Missing values are NaN.
	Values []float64
}

// AddCoordNames returns the sorted names of the additional coordinates.
func (ic *Interchange) AddCoordNames() []string { return sortedKeys(ic.AddCoords) }

// Dim returns the index of the dimension whose full or short name is
// dim, or -1 if there is none.
func (ic *Interchange) Dim(dim string) int {
	for i, d := range ic.Dims {
		if d == dim {
			return i
		}
	}
	for i, d := range ic.Dims {
		if c, _ := primap.SplitDimName(d); c == dim {
			return i
		}
	}
	return -1
}

// Columns returns the names of the non-time columns in order: the
// canonical coordinates and the unit in interchange order, then the
// other dimensions and additional coordinates sorted by name.
func (ic *Interchange) Columns() []string {
	cols, _ := columnOrder(ic.Dims, ic.AddCoordNames())
	return cols
}

// columnOrder returns the interchange column order of dims, the unit
// and additional coordinates, and the dimensions alone in that order.
func columnOrder(dims, add []string) (cols, orderedDims []string) {
	used := make(map[string]bool)
	for _, o := range primap.InterchangeOrder {
		if o == primap.Unit {
			cols = append(cols, primap.Unit)
			continue
		}
		for _, d := range dims {
			if c, _ := primap.SplitDimName(d); c == o && !used[d] {
				cols = append(cols, d)
				orderedDims = append(orderedDims, d)
				used[d] = true
				break
			}
		}
	}
	var rest []string
	isAdd := make(map[string]bool)
	for _, d := range dims {
		if !used[d] {
			rest = append(rest, d)
		}
	}
	for _, a := range add {
		rest = append(rest, a)
		isAdd[a] = true
	}
	sort.Strings(rest)
	for _, r := range rest {
		cols = append(cols, r)
		if !isAdd[r] {
			orderedDims = append(orderedDims, r)
		}
	}
	return cols, orderedDims
}

// cell returns the value of column col of row r.
func (ic *Interchange) cell(r *Row, col string, add []string) string {
	if col == primap.Unit {
		return r.Unit
	}
	for i, a := range add {
		if a == col {
			return r.AddCoords[i]
		}
	}
	return r.Coords[ic.Dim(col)]
}

// sortRows sorts the rows by the values of the non-time columns.
// Rows with equal values keep their order.
func (ic *Interchange) sortRows() {
	cols := ic.Columns()
	add := ic.AddCoordNames()
	keys := make([][]string, len(ic.Rows))
	for i := range ic.Rows {
		k := make([]string, len(cols))
		for j, c := range cols {
			k[j] = ic.cell(&ic.Rows[i], c, add)
		}
		keys[i] = k
	}
	idx := make([]int, len(ic.Rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		for j := range ka {
			if ka[j] != kb[j] {
				return ka[j] < kb[j]
			}
		}
		return false
	})
	rows := make([]Row, len(ic.Rows))
	for i, j := range idx {
		rows[i] = ic.Rows[j]
	}
	ic.Rows = rows
}

// checkDuplicates returns a DuplicateRowError if two rows have the same
// coordinates.
func (ic *Interchange) checkDuplicates() error {
	seen := make(map[string]bool, len(ic.Rows))
	for _, r := range ic.Rows {
		k := strings.Join(r.Coords, "\x00")
		if seen[k] {
			return &DuplicateRowError{Dims: ic.Dims, Coords: r.Coords}
		}
		seen[k] = true
	}
	return nil
}

// entityDim returns the index of the entity dimension.
func (ic *Interchange) entityDim() (int, error) {
	i := ic.Dim(primap.Entity)
	if i < 0 {
		return -1, &MissingCoordinateError{Coord: primap.Entity}
	}
	return i, nil
}

// harmonizeUnits converts the rows of each entity to the first unit
// given for the entity.
func (ic *Interchange) harmonizeUnits(reg *quantity.Registry, log logrus.FieldLogger) error {
	e, err := ic.entityDim()
	if err != nil {
		return err
	}
	return harmonizeUnits(len(ic.Rows),
		func(i int) string { return ic.Rows[i].Coords[e] },
		func(i int) string { return ic.Rows[i].Unit },
		func(i int, to string, factor float64) {
			floats.Scale(factor, ic.Rows[i].Values)
			ic.Rows[i].Unit = to
		}, reg, log)
}

// harmonizeUnits converts the n items of each entity to the first unit
// given for the entity.
func harmonizeUnits(n int, entity, unit func(int) string, convert func(i int, to string, factor float64), reg *quantity.Registry, log logrus.FieldLogger) error {
	first := make(map[string]string)
	factors := make(map[[2]string]float64)
	for i := 0; i < n; i++ {
		u := unit(i)
		if _, err := reg.Parse(u); err != nil {
			return fmt.Errorf("pm2io: unit of entity %s: %w", entity(i), err)
		}
		to, ok := first[entity(i)]
		if !ok {
			first[entity(i)] = u
			continue
		}
		if u == to {
			continue
		}
		k := [2]string{u, to}
		f, ok := factors[k]
		if !ok {
			var err error
			f, err = reg.Factor(u, to)
			if err != nil {
				return fmt.Errorf("pm2io: harmonizing units of entity %s: %w", entity(i), err)
			}
			factors[k] = f
			log.WithFields(logrus.Fields{
				"entity": entity(i),
				"from":   u,
				"to":     to,
				"factor": f,
			}).Debug("pm2io: converting units")
		}
		convert(i, to, f)
	}
	return nil
}

// finish harmonizes units and checks for duplicate rows. The rows
// keep their input order.
func (ic *Interchange) finish(reg *quantity.Registry, log logrus.FieldLogger) error {
	if err := ic.harmonizeUnits(reg, log); err != nil {
		return err
	}
	return ic.checkDuplicates()
}

// InterchangeMeta is the contents of the metadata file of an
// interchange table.
type InterchangeMeta struct {
	Attrs      primap.Attrs `yaml:"attrs"`
	TimeFormat string       `yaml:"time_format"`

	// Dimensions holds the dimension columns, including the unit,
	// under the key "*".
	Dimensions map[string][]string `yaml:"dimensions"`

	AdditionalCoordinates map[string]string `yaml:"additional_coordinates,omitempty"`

	// DataFile is the name of the CSV data file, relative to the
	// metadata file.
	DataFile string `yaml:"data_file"`
}

// DataFileName returns the name of the data file that belongs to the
// metadata file metaFile.
func DataFileName(metaFile string) string {
	return strings.TrimSuffix(metaFile, path.Ext(metaFile)) + ".csv"
}

// WriteInterchange writes the data of ic as CSV to data and its
// metadata as YAML to meta. dataFile is the name of the data file
// recorded in the metadata.
func WriteInterchange(ic *Interchange, data, meta io.Writer, dataFile string) error {
	cols := ic.Columns()
	add := ic.AddCoordNames()
	w := csv.NewWriter(data)
	if err := w.Write(append(append([]string{}, cols...), ic.Times...)); err != nil {
		return fmt.Errorf("pm2io: writing interchange data: %v", err)
	}
	rec := make([]string, len(cols)+len(ic.Times))
	for i := range ic.Rows {
		r := &ic.Rows[i]
		for j, c := range cols {
			rec[j] = ic.cell(r, c, add)
		}
		for j, v := range r.Values {
			rec[len(cols)+j] = formatValue(v)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("pm2io: writing interchange data: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("pm2io: writing interchange data: %v", err)
	}

	var dims []string
	for _, c := range cols {
		if _, ok := ic.AddCoords[c]; !ok {
			dims = append(dims, c)
		}
	}
	m := InterchangeMeta{
		Attrs:                 ic.Attrs,
		TimeFormat:            ic.TimeFormat,
		Dimensions:            map[string][]string{"*": dims},
		AdditionalCoordinates: ic.AddCoords,
		DataFile:              path.Base(dataFile),
	}
	e := yaml.NewEncoder(meta)
	if err := e.Encode(m); err != nil {
		return fmt.Errorf("pm2io: writing interchange metadata: %v", err)
	}
	return e.Close()
}

// ReadInterchangeMeta reads the metadata file of an interchange table.
func ReadInterchangeMeta(r io.Reader) (*InterchangeMeta, error) {
	m := new(InterchangeMeta)
	if err := yaml.NewDecoder(r).Decode(m); err != nil {
		return nil, fmt.Errorf("pm2io: reading interchange metadata: %v", err)
	}
	if _, ok := m.Dimensions["*"]; !ok {
		return nil, fmt.Errorf("pm2io: interchange metadata has no dimensions")
	}
	if m.TimeFormat == "" {
		return nil, fmt.Errorf("pm2io: interchange metadata has no time format")
	}
	return m, nil
}

// ReadInterchange reads the CSV data file of an interchange table with
// metadata meta. All columns that are not dimensions or additional
// coordinates are time columns.
func ReadInterchange(meta *InterchangeMeta, data io.Reader) (*Interchange, error) {
	t, err := ReadCSV(data)
	if err != nil {
		return nil, err
	}
	ic := &Interchange{
		AddCoords:  make(map[string]string),
		Attrs:      meta.Attrs,
		TimeFormat: meta.TimeFormat,
	}
	for k, v := range meta.AdditionalCoordinates {
		ic.AddCoords[k] = v
	}
	known := make(map[string]bool)
	unitCol := -1
	var dimCols []int
	for _, d := range meta.Dimensions["*"] {
		i := t.Col(d)
		if i < 0 {
			return nil, &MissingColumnError{Column: d, Field: "dimensions"}
		}
		known[d] = true
		if d == primap.Unit {
			unitCol = i
			continue
		}
		ic.Dims = append(ic.Dims, d)
		dimCols = append(dimCols, i)
	}
	if unitCol < 0 {
		return nil, &MissingCoordinateError{Coord: primap.Unit}
	}
	add := ic.AddCoordNames()
	addCols := make([]int, len(add))
	for j, a := range add {
		i := t.Col(a)
		if i < 0 {
			return nil, &MissingColumnError{Column: a, Field: "additional_coordinates"}
		}
		known[a] = true
		addCols[j] = i
	}
	var timeCols []int
	for i, c := range t.Columns {
		if !known[c] {
			ic.Times = append(ic.Times, c)
			timeCols = append(timeCols, i)
		}
	}
	ic.Rows = make([]Row, len(t.Records))
	for j, rec := range t.Records {
		r := Row{
			Coords:    make([]string, len(dimCols)),
			AddCoords: make([]string, len(addCols)),
			Unit:      rec[unitCol],
			Values:    make([]float64, len(timeCols)),
		}
		for k, i := range dimCols {
			r.Coords[k] = rec[i]
		}
		for k, i := range addCols {
			r.AddCoords[k] = rec[i]
		}
		for k, i := range timeCols {
			r.Values[k] = parseValue(rec[i])
		}
		ic.Rows[j] = r
	}
	return ic, nil
}
