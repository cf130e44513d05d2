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

package primaputil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"sort"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/primap"
	"github.com/spatialmodel/primap/cloud"
	"github.com/spatialmodel/primap/pm2io"
	"github.com/spatialmodel/primap/quantity"
)

// Read converts the table in the file input into an interchange table
// as specified by the conversion specification in the file spec, and
// writes it to output. long specifies whether the input is a long
// table; otherwise it is a wide table, read from the given sheet if
// input is an Excel file. If ncf is not empty, the table is
// also saved there as a netCDF dataset.
func Read(ctx context.Context, long bool, spec, input, sheet, output, ncf string, log logrus.FieldLogger) error {
	specData, err := cloud.ReadFile(ctx, spec, log)
	if err != nil {
		return err
	}
	cfg, err := pm2io.ReadSpec(bytes.NewReader(specData))
	if err != nil {
		return fmt.Errorf("primaputil: %s: %w", spec, err)
	}
	reg := quantity.NewRegistry()
	cfg.Units = reg
	cfg.Log = log.WithField("input", input)

	r, err := cloud.Open(ctx, input, log)
	if err != nil {
		return err
	}
	var ic *pm2io.Interchange
	switch {
	case long:
		ic, err = pm2io.ReadLongCSV(r, cfg)
	case isExcel(input):
		ic, err = pm2io.ReadWideExcel(r, sheet, cfg)
	default:
		ic, err = pm2io.ReadWideCSV(r, cfg)
	}
	if err != nil {
		return err
	}
	if err := writeInterchange(ctx, ic, output, log); err != nil {
		return err
	}
	if ncf == "" {
		return nil
	}
	d, err := pm2io.FromInterchange(ic, reg, log)
	if err != nil {
		return err
	}
	return saveNetCDF(ctx, d, ncf, log)
}

// Materialize converts the interchange table whose metadata file is
// input into a dataset and saves it as netCDF to output.
func Materialize(ctx context.Context, input, output string, log logrus.FieldLogger) error {
	ic, err := readInterchange(ctx, input, log)
	if err != nil {
		return err
	}
	d, err := pm2io.FromInterchange(ic, quantity.NewRegistry(), log)
	if err != nil {
		return err
	}
	return saveNetCDF(ctx, d, output, log)
}

// Export writes the netCDF dataset in input as an interchange table to
// output, formatting time labels with timeFormat.
func Export(ctx context.Context, input, output, timeFormat string, log logrus.FieldLogger) error {
	d, err := loadNetCDF(ctx, input, quantity.NewRegistry(), log)
	if err != nil {
		return err
	}
	ic, err := pm2io.ToInterchange(d, timeFormat)
	if err != nil {
		return err
	}
	return writeInterchange(ctx, ic, output, log)
}

// Describe writes a summary of the dataset in input, which is either a
// netCDF file or the metadata file of an interchange table, to w.
func Describe(ctx context.Context, input string, w io.Writer, log logrus.FieldLogger) error {
	reg := quantity.NewRegistry()
	var d *primap.Dataset
	if isInterchange(input) {
		ic, err := readInterchange(ctx, input, log)
		if err != nil {
			return err
		}
		if d, err = pm2io.FromInterchange(ic, reg, log); err != nil {
			return err
		}
	} else {
		var err error
		if d, err = loadNetCDF(ctx, input, reg, log); err != nil {
			return err
		}
	}
	return describe(d, w)
}

func describe(d *primap.Dataset, w io.Writer) error {
	var b bytes.Buffer
	fmt.Fprintln(&b, "dimensions:")
	for _, dim := range d.Dims {
		n := d.Labels(dim)
		if dim == primap.Time && n > 0 {
			fmt.Fprintf(&b, "  %s: %d (%s to %s)\n", dim, n,
				d.Time[0].Format("2006-01-02"), d.Time[n-1].Format("2006-01-02"))
			continue
		}
		fmt.Fprintf(&b, "  %s: %d\n", dim, n)
	}
	if len(d.AddCoords) > 0 {
		fmt.Fprintln(&b, "additional coordinates:")
		names := make([]string, 0, len(d.AddCoords))
		for name := range d.AddCoords {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %s\n", name, d.AddCoords[name].Dim)
		}
	}
	attrs := d.Attrs.Map()
	if len(attrs) > 0 {
		fmt.Fprintln(&b, "attributes:")
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %s\n", k, attrs[k])
		}
	}
	fmt.Fprintln(&b, "entities:")
	for _, e := range d.Entities() {
		v := d.Vars[e]
		var s stats.Stats
		for _, x := range v.Elements {
			if !math.IsNaN(x) {
				s.Update(x)
			}
		}
		if s.Count() == 0 {
			fmt.Fprintf(&b, "  %s [%s]: no values\n", e, v.Unit)
			continue
		}
		fmt.Fprintf(&b, "  %s [%s]: n=%d min=%g mean=%g max=%g sum=%g\n",
			e, v.Unit, s.Count(), s.Min(), s.Mean(), s.Max(), s.Sum())
	}
	_, err := io.Copy(w, &b)
	return err
}

// writeInterchange writes ic to the metadata file output and the data
// file next to it.
func writeInterchange(ctx context.Context, ic *pm2io.Interchange, output string, log logrus.FieldLogger) error {
	dataFile := pm2io.DataFileName(output)
	data := cloud.Create(ctx, dataFile, log)
	meta := cloud.Create(ctx, output, log)
	if err := pm2io.WriteInterchange(ic, data, meta, path.Base(dataFile)); err != nil {
		return err
	}
	if err := data.Close(); err != nil {
		return err
	}
	if err := meta.Close(); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"metadata": output,
		"data":     dataFile,
		"rows":     len(ic.Rows),
	}).Info("primaputil: wrote interchange table")
	return nil
}

// readInterchange reads the interchange table whose metadata file is
// input.
func readInterchange(ctx context.Context, input string, log logrus.FieldLogger) (*pm2io.Interchange, error) {
	r, err := cloud.Open(ctx, input, log)
	if err != nil {
		return nil, err
	}
	meta, err := pm2io.ReadInterchangeMeta(r)
	if err != nil {
		return nil, fmt.Errorf("primaputil: %s: %w", input, err)
	}
	dataFile := meta.DataFile
	if dataFile == "" {
		dataFile = path.Base(pm2io.DataFileName(input))
	}
	data, err := cloud.Open(ctx, sibling(input, dataFile), log)
	if err != nil {
		return nil, err
	}
	return pm2io.ReadInterchange(meta, data)
}

func saveNetCDF(ctx context.Context, d *primap.Dataset, output string, log logrus.FieldLogger) error {
	u := new(uploader)
	local := u.maybeUpload(output)
	if u.err != nil {
		return u.err
	}
	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("primaputil: creating netCDF file: %v", err)
	}
	if err := primap.SaveNetCDF(f, d); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("primaputil: closing netCDF file: %v", err)
	}
	if err := u.upload(ctx, log); err != nil {
		return err
	}
	log.WithField("file", output).Info("primaputil: saved netCDF dataset")
	return nil
}

func loadNetCDF(ctx context.Context, input string, reg *quantity.Registry, log logrus.FieldLogger) (*primap.Dataset, error) {
	local, cleanup, err := maybeDownload(ctx, input, log)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("primaputil: opening netCDF file: %v", err)
	}
	defer f.Close()
	return primap.LoadNetCDF(f, reg)
}
