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
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/primap/quantity"
)

const (
	timeUnits      = "seconds since 1970-01-01 00:00:00"
	dimsAttr       = "primap_dimensions"
	addCoordsAttr  = "primap_additional_coordinates"
	addCoordDimKey = "primap_dimension"
	listSep        = "; "
)

func strlenDim(v string) string { return v + "_strlen" }

// SaveNetCDF writes d to w in the netCDF classic format. Dimension labels
// and additional coordinates are stored as character variables, time as
// seconds since the Unix epoch, and each entity as a double-precision
// variable with a "units" attribute.
func SaveNetCDF(w cdf.ReaderWriterAt, d *Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	var dims []string
	var lengths []int
	for _, dim := range d.Dims {
		n := d.Labels(dim)
		if n == 0 {
			return fmt.Errorf("primap: saving netCDF: dimension %q is empty", dim)
		}
		dims = append(dims, dim)
		lengths = append(lengths, n)
	}
	labelVars := make(map[string][]string)
	for _, dim := range d.Dims[1:] {
		labelVars[dim] = d.Coords[dim]
	}
	addNames := make([]string, 0, len(d.AddCoords))
	for name, ac := range d.AddCoords {
		labelVars[name] = ac.Labels
		addNames = append(addNames, name)
	}
	sort.Strings(addNames)
	labelNames := make([]string, 0, len(labelVars))
	for name := range labelVars {
		labelNames = append(labelNames, name)
		dims = append(dims, strlenDim(name))
		lengths = append(lengths, maxLen(labelVars[name]))
	}
	sort.Strings(labelNames)

	h := cdf.NewHeader(dims, lengths)
	h.AddVariable(Time, []string{Time}, []float64{0})
	h.AddAttribute(Time, "units", timeUnits)
	for _, name := range labelNames {
		dim := name
		if ac, ok := d.AddCoords[name]; ok {
			dim = ac.Dim
		}
		h.AddVariable(name, []string{dim, strlenDim(name)}, "")
		if _, ok := d.AddCoords[name]; ok {
			h.AddAttribute(name, addCoordDimKey, dim)
		}
	}
	entities := d.Entities()
	for _, e := range entities {
		h.AddVariable(e, d.Dims, []float64{0})
		h.AddAttribute(e, "units", d.Vars[e].Unit)
	}
	h.AddAttribute("", dimsAttr, strings.Join(d.Dims, listSep))
	if len(addNames) > 0 {
		h.AddAttribute("", addCoordsAttr, strings.Join(addNames, listSep))
	}
	attrs := d.Attrs.Map()
	attrKeys := make([]string, 0, len(attrs))
	for k := range attrs {
		attrKeys = append(attrKeys, k)
	}
	sort.Strings(attrKeys)
	for _, k := range attrKeys {
		h.AddAttribute("", k, attrs[k])
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("primap: creating netCDF header: %v", err)
	}

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("primap: creating netCDF file: %v", err)
	}
	t := make([]float64, len(d.Time))
	for i, tt := range d.Time {
		t[i] = float64(tt.Unix())
	}
	if _, err := f.Writer(Time, nil, nil).Write(t); err != nil {
		return fmt.Errorf("primap: writing netCDF time: %v", err)
	}
	for _, name := range labelNames {
		if _, err := f.Writer(name, nil, nil).Write(padLabels(labelVars[name])); err != nil {
			return fmt.Errorf("primap: writing netCDF labels %s: %v", name, err)
		}
	}
	for _, e := range entities {
		if _, err := f.Writer(e, nil, nil).Write(d.Vars[e].Elements); err != nil {
			return fmt.Errorf("primap: writing netCDF variable %s: %v", e, err)
		}
	}
	return nil
}

func maxLen(labels []string) int {
	n := 1
	for _, l := range labels {
		if len(l) > n {
			n = len(l)
		}
	}
	return n
}

// padLabels concatenates labels, each zero-padded to the longest length.
func padLabels(labels []string) []byte {
	n := maxLen(labels)
	b := make([]byte, n*len(labels))
	for i, l := range labels {
		copy(b[i*n:], l)
	}
	return b
}

// LoadNetCDF reads a dataset written by SaveNetCDF.
func LoadNetCDF(r cdf.ReaderWriterAt, reg *quantity.Registry) (*Dataset, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("primap: opening netCDF file: %v", err)
	}
	dimsStr, ok := f.Header.GetAttribute("", dimsAttr).(string)
	if !ok {
		return nil, fmt.Errorf("primap: netCDF file has no %s attribute", dimsAttr)
	}
	d := &Dataset{
		Dims:      strings.Split(dimsStr, listSep),
		Coords:    make(map[string][]string),
		AddCoords: make(map[string]AddCoord),
		Vars:      make(map[string]*DataArray),
	}

	t, err := readFloats(f, Time)
	if err != nil {
		return nil, err
	}
	for _, s := range t {
		d.Time = append(d.Time, time.Unix(int64(s), 0).UTC())
	}
	for _, dim := range d.Dims[1:] {
		if d.Coords[dim], err = readLabels(f, dim); err != nil {
			return nil, err
		}
	}
	if s, ok := f.Header.GetAttribute("", addCoordsAttr).(string); ok && s != "" {
		for _, name := range strings.Split(s, listSep) {
			labels, err := readLabels(f, name)
			if err != nil {
				return nil, err
			}
			dim, _ := f.Header.GetAttribute(name, addCoordDimKey).(string)
			d.AddCoords[name] = AddCoord{Dim: dim, Labels: labels}
		}
	}

	attrs := make(map[string]string)
	for _, a := range f.Header.Attributes("") {
		if a == dimsAttr || a == addCoordsAttr {
			continue
		}
		if s, ok := f.Header.GetAttribute("", a).(string); ok {
			attrs[a] = s
		}
	}
	if d.Attrs, err = AttrsFromMap(attrs); err != nil {
		return nil, err
	}

	for _, v := range f.Header.Variables() {
		u, ok := f.Header.GetAttribute(v, "units").(string)
		if !ok || v == Time {
			continue
		}
		data, err := readFloats(f, v)
		if err != nil {
			return nil, err
		}
		q, err := reg.Parse(u)
		if err != nil {
			return nil, err
		}
		arr := sparse.ZerosDense(f.Header.Lengths(v)...)
		if len(data) != len(arr.Elements) {
			return nil, fmt.Errorf("primap: variable %q has %d values but shape %v", v, len(data), arr.Shape)
		}
		copy(arr.Elements, data)
		d.Vars[v] = &DataArray{
			DenseArray: arr,
			Name:       v,
			Dims:       f.Header.Dimensions(v),
			Unit:       u,
			quantity:   q,
		}
	}
	return d, d.Validate()
}

func readFloats(f *cdf.File, v string) ([]float64, error) {
	r := f.Reader(v, nil, nil)
	if r == nil {
		return nil, fmt.Errorf("primap: netCDF variable %s is missing", v)
	}
	buf, ok := r.Zero(-1).([]float64)
	if !ok {
		return nil, fmt.Errorf("primap: netCDF variable %s is not double precision", v)
	}
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("primap: reading netCDF variable %s: %v", v, err)
	}
	return buf, nil
}

func readLabels(f *cdf.File, v string) ([]string, error) {
	r := f.Reader(v, nil, nil)
	if r == nil {
		return nil, fmt.Errorf("primap: netCDF label variable %s is missing", v)
	}
	lengths := f.Header.Lengths(v)
	if len(lengths) != 2 {
		return nil, fmt.Errorf("primap: netCDF label variable %s has %d dimensions", v, len(lengths))
	}
	buf := make([]byte, lengths[0]*lengths[1])
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("primap: reading netCDF labels %s: %v", v, err)
	}
	o := make([]string, lengths[0])
	for i := range o {
		o[i] = string(bytes.TrimRight(buf[i*lengths[1]:(i+1)*lengths[1]], "\x00"))
	}
	return o, nil
}
