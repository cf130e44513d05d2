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

package primap

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ctessum/sparse"
	"github.com/ctessum/unit"
	"github.com/spatialmodel/primap/quantity"
)

// AddCoord is a non-dimension coordinate whose labels are aligned
// with the labels of the dimension Dim.
type AddCoord struct {
	Dim    string
	Labels []string
}

// Dataset holds emissions time series as labeled multi-dimensional
// arrays, one per entity.
type Dataset struct {
	// Dims holds the dimension names. Time is the first dimension.
	Dims []string

	// Coords holds the sorted labels of each dimension other than time.
	Coords map[string][]string

	// Time holds the labels of the time dimension.
	Time []time.Time

	// AddCoords holds additional coordinates, keyed by name.
	AddCoords map[string]AddCoord

	// Vars holds the data variables, keyed by name.
	Vars map[string]*DataArray

	Attrs Attrs
}

// NewDataset returns a new dataset with no variables. The time
// dimension is added in front of dims.
func NewDataset(dims []string, coords map[string][]string, times []time.Time, attrs Attrs) *Dataset {
	d := &Dataset{
		Dims:      append([]string{Time}, dims...),
		Coords:    make(map[string][]string),
		Time:      times,
		AddCoords: make(map[string]AddCoord),
		Vars:      make(map[string]*DataArray),
		Attrs:     attrs,
	}
	for _, dim := range dims {
		d.Coords[dim] = coords[dim]
	}
	return d
}

// Labels returns the number of labels along dimension dim.
func (d *Dataset) Labels(dim string) int {
	if dim == Time {
		return len(d.Time)
	}
	return len(d.Coords[dim])
}

// Shape returns the number of labels along each dimension.
func (d *Dataset) Shape() []int {
	s := make([]int, len(d.Dims))
	for i, dim := range d.Dims {
		s[i] = d.Labels(dim)
	}
	return s
}

// AddVar adds a new data variable filled with missing values.
func (d *Dataset) AddVar(name, unitStr string, reg *quantity.Registry) (*DataArray, error) {
	if _, ok := d.Vars[name]; ok {
		return nil, fmt.Errorf("primap: variable %q already exists", name)
	}
	v, err := NewDataArray(name, d.Dims, d.Shape(), unitStr, reg)
	if err != nil {
		return nil, err
	}
	d.Vars[name] = v
	return v, nil
}

// Entities returns the sorted names of the data variables.
func (d *Dataset) Entities() []string {
	o := make([]string, 0, len(d.Vars))
	for k := range d.Vars {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// LabelIndex returns the index of label along dimension dim.
// Time labels are parsed with ParseTimeLabel.
func (d *Dataset) LabelIndex(dim, label string) (int, error) {
	if dim == Time {
		t, err := ParseTimeLabel(label)
		if err != nil {
			return -1, err
		}
		for i, tt := range d.Time {
			if tt.Equal(t) {
				return i, nil
			}
		}
		return -1, fmt.Errorf("primap: time %s not in dataset", label)
	}
	labels, ok := d.Coords[dim]
	if !ok {
		return -1, &DimensionNotExistingError{Dim: dim}
	}
	for i, l := range labels {
		if l == label {
			return i, nil
		}
	}
	return -1, fmt.Errorf("primap: label %q not found along dimension %q", label, dim)
}

// ParseTimeLabel parses a time label in one of the formats
// "2006", "2006-01", "2006-01-02" or RFC 3339.
func ParseTimeLabel(s string) (time.Time, error) {
	for _, layout := range []string{"2006", "2006-01", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("primap: invalid time label %q", s)
}

// References returns the references metadata of the dataset.
func (d *Dataset) References() string { return d.Attrs.References }

// Rights returns the rights metadata of the dataset.
func (d *Dataset) Rights() string { return d.Attrs.Rights }

// Contact returns the contact metadata of the dataset.
func (d *Dataset) Contact() string { return d.Attrs.Contact }

// Title returns the title of the dataset.
func (d *Dataset) Title() string { return d.Attrs.Title }

// Comment returns the comment metadata of the dataset.
func (d *Dataset) Comment() string { return d.Attrs.Comment }

// Institution returns the institution metadata of the dataset.
func (d *Dataset) Institution() string { return d.Attrs.Institution }

// History returns the history metadata of the dataset.
func (d *Dataset) History() string { return d.Attrs.History }

// PublicationDate returns the publication date metadata of the dataset.
func (d *Dataset) PublicationDate() string { return d.Attrs.PublicationDate }

// EntityTerminology returns the terminology of the entity names.
func (d *Dataset) EntityTerminology() string { return d.Attrs.EntityTerminology }

// AreaDim returns the full name of the area dimension.
func (d *Dataset) AreaDim() string { return d.Attrs.Area }

// CategoryDim returns the full name of the category dimension, if any.
func (d *Dataset) CategoryDim() string { return d.Attrs.Cat }

// ScenarioDim returns the full name of the scenario dimension, if any.
func (d *Dataset) ScenarioDim() string { return d.Attrs.Scen }

// SecondaryCategories returns the full names of the secondary
// category dimensions.
func (d *Dataset) SecondaryCategories() []string { return d.Attrs.SecCats }

// Loc returns the value of entity at the location given by one label
// per dimension. Dimension names may be aliases.
func (d *Dataset) Loc(entity string, labels map[string]string) (float64, error) {
	v, ok := d.Vars[entity]
	if !ok {
		return math.NaN(), fmt.Errorf("primap: no variable %q in dataset", entity)
	}
	full := make(map[string]string)
	for k, l := range labels {
		dim, err := d.Alias(k)
		if err != nil {
			return math.NaN(), err
		}
		full[dim] = l
	}
	idx := make([]int, len(d.Dims))
	for i, dim := range d.Dims {
		l, ok := full[dim]
		if !ok {
			return math.NaN(), fmt.Errorf("primap: Loc: missing label for dimension %q", dim)
		}
		j, err := d.LabelIndex(dim, l)
		if err != nil {
			return math.NaN(), err
		}
		idx[i] = j
	}
	return v.Get(idx...), nil
}

// Sel returns the subset of the dataset with the given labels along the
// given dimensions. Dimension names may be aliases. Dimensions that are
// not mentioned are kept whole.
func (d *Dataset) Sel(sel map[string][]string) (*Dataset, error) {
	keep := make([][]int, len(d.Dims))
	mentioned := make([]bool, len(d.Dims))
	for k, labels := range sel {
		dim, err := d.Alias(k)
		if err != nil {
			return nil, err
		}
		i := indexOf(d.Dims, dim)
		mentioned[i] = true
		seen := make(map[int]bool)
		for _, l := range labels {
			j, err := d.LabelIndex(dim, l)
			if err != nil {
				return nil, err
			}
			if !seen[j] {
				keep[i] = append(keep[i], j)
				seen[j] = true
			}
		}
		sort.Ints(keep[i])
	}
	for i, dim := range d.Dims {
		if mentioned[i] {
			continue
		}
		keep[i] = make([]int, d.Labels(dim))
		for j := range keep[i] {
			keep[i][j] = j
		}
	}

	o := &Dataset{
		Dims:      append([]string{}, d.Dims...),
		Coords:    make(map[string][]string),
		AddCoords: make(map[string]AddCoord),
		Vars:      make(map[string]*DataArray),
		Attrs:     d.Attrs,
	}
	for i, dim := range d.Dims {
		if dim == Time {
			for _, j := range keep[i] {
				o.Time = append(o.Time, d.Time[j])
			}
			continue
		}
		o.Coords[dim] = pick(d.Coords[dim], keep[i])
	}
	for name, ac := range d.AddCoords {
		o.AddCoords[name] = AddCoord{Dim: ac.Dim, Labels: pick(ac.Labels, keep[indexOf(d.Dims, ac.Dim)])}
	}
	for name, v := range d.Vars {
		o.Vars[name] = v.subset(keep)
	}
	return o, nil
}

func pick(labels []string, idx []int) []string {
	o := make([]string, len(idx))
	for i, j := range idx {
		o[i] = labels[j]
	}
	return o
}

func indexOf(s []string, v string) int {
	for i, e := range s {
		if e == v {
			return i
		}
	}
	return -1
}

// DataArray holds the values of one entity over all dimensions of a
// dataset. The values are stored row-major in Elements, with
// missing values as NaN.
type DataArray struct {
	*sparse.DenseArray

	Name string
	Dims []string

	// Unit is the unit of the values, e.g. "Gg CO2 / yr".
	Unit string

	quantity *unit.Unit
}

// NewDataArray returns a new array filled with missing values.
func NewDataArray(name string, dims []string, shape []int, unitStr string, reg *quantity.Registry) (*DataArray, error) {
	q, err := reg.Parse(unitStr)
	if err != nil {
		return nil, err
	}
	d := &DataArray{
		DenseArray: sparse.ZerosDense(append([]int{}, shape...)...),
		Name:       name,
		Dims:       append([]string{}, dims...),
		Unit:       unitStr,
		quantity:   q,
	}
	for i := range d.Elements {
		d.Elements[i] = math.NaN()
	}
	return d, nil
}

// Set sets the value at the given index. Zeros are stored too, so
// that they are not read back as missing.
func (d *DataArray) Set(v float64, idx ...int) { d.Elements[d.Index1d(idx...)] = v }

// Quantity returns the SI representation of one unit of the array.
func (d *DataArray) Quantity() *unit.Unit { return d.quantity }

// Value returns the i'th element as an SI quantity.
func (d *DataArray) Value(i int) *unit.Unit {
	return unit.New(d.Elements[i]*d.quantity.Value(), d.quantity.Dimensions())
}

// Entity returns the entity of the array, e.g. "KYOTOGHG" for an array
// named "KYOTOGHG (SARGWP100)".
func (d *DataArray) Entity() string {
	e, _ := SplitDimName(d.Name)
	return e
}

// GWPContext returns the global warming potential context of the array,
// e.g. "SARGWP100" for an array named "KYOTOGHG (SARGWP100)", or "" if
// there is none.
func (d *DataArray) GWPContext() string {
	_, c := SplitDimName(d.Name)
	return c
}

// Copy returns a deep copy of the array.
func (d *DataArray) Copy() *DataArray {
	o := *d
	o.DenseArray = d.DenseArray.Copy()
	o.Dims = append([]string{}, d.Dims...)
	return &o
}

// To returns a copy of the array converted to unitStr.
func (d *DataArray) To(unitStr string, reg *quantity.Registry) (*DataArray, error) {
	f, err := reg.Factor(d.Unit, unitStr)
	if err != nil {
		return nil, err
	}
	q, err := reg.Parse(unitStr)
	if err != nil {
		return nil, err
	}
	o := d.Copy()
	o.Scale(f)
	o.Unit = unitStr
	o.quantity = q
	return o, nil
}

// ToGWP returns a copy of the array converted to CO2 equivalents in
// unitStr using the global warming potentials of context. The copy is
// named after the entity and the context, e.g. "SF6 (SARGWP100)".
func (d *DataArray) ToGWP(context, unitStr string, reg *quantity.Registry) (*DataArray, error) {
	f, err := reg.GWPFactor(context, d.Entity(), d.Unit, unitStr)
	if err != nil {
		return nil, err
	}
	q, err := reg.Parse(unitStr)
	if err != nil {
		return nil, err
	}
	o := d.Copy()
	o.Scale(f)
	o.Name = DimName(d.Entity(), context)
	o.Unit = unitStr
	o.quantity = q
	return o, nil
}

// subset returns the elements of d at the given indices along each
// dimension.
func (d *DataArray) subset(keep [][]int) *DataArray {
	shape := make([]int, len(keep))
	for i, k := range keep {
		shape[i] = len(k)
	}
	o := &DataArray{
		DenseArray: sparse.ZerosDense(shape...),
		Name:       d.Name,
		Dims:       append([]string{}, d.Dims...),
		Unit:       d.Unit,
		quantity:   d.quantity,
	}
	src := make([]int, len(keep))
	for i := range o.Elements {
		for j, p := range o.IndexNd(i) {
			src[j] = keep[j][p]
		}
		o.Elements[i] = d.Get(src...)
	}
	return o
}
