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
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"
)

// NAValues are the cell contents that mark missing values, in addition
// to empty cells. Other non-numeric cells are also read as missing.
var NAValues = []string{
	"nan", "NaN", "NA", "N/A", "NE", "-", "NA, NE", "NO,NE", "NA,NE", "NE,NO", "NE0", "NO, NE",
}

// RawTable is a table of strings as read from a file.
type RawTable struct {
	Columns []string
	Records [][]string
}

// Col returns the index of column name, or -1 if there is none.
func (t *RawTable) Col(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of column name.
func (t *RawTable) Column(name string) ([]string, error) {
	i := t.Col(name)
	if i < 0 {
		return nil, &MissingColumnError{Column: name, Field: "input"}
	}
	o := make([]string, len(t.Records))
	for j, r := range t.Records {
		o[j] = r[i]
	}
	return o, nil
}

// subset returns the records at the given indices.
func (t *RawTable) subset(rows []int) *RawTable {
	o := &RawTable{Columns: t.Columns, Records: make([][]string, len(rows))}
	for i, r := range rows {
		o.Records[i] = t.Records[r]
	}
	return o
}

// ReadCSV reads a table from a CSV file with a header line.
func ReadCSV(r io.Reader) (*RawTable, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("pm2io: reading CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("pm2io: reading CSV: no header")
	}
	t := &RawTable{Columns: records[0], Records: records[1:]}
	for i, c := range t.Columns {
		t.Columns[i] = strings.TrimSpace(c)
	}
	return t, nil
}

// ReadExcel reads a table from a sheet of a Microsoft Excel file. The
// first non-empty row of the sheet is the header. If sheet is empty the
// first sheet is read.
func ReadExcel(r io.Reader, sheet string) (*RawTable, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("pm2io: reading Excel file: %v", err)
	}
	f, err := xlsx.OpenReaderAt(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("pm2io: opening Excel file: %v", err)
	}
	var s *xlsx.Sheet
	if sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, fmt.Errorf("pm2io: Excel file has no sheets")
		}
		s = f.Sheets[0]
	} else {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, fmt.Errorf("pm2io: reading Excel file: no sheet %s", sheet)
		}
	}

	t := new(RawTable)
	for _, row := range s.Rows {
		if row == nil {
			continue
		}
		rec := make([]string, len(row.Cells))
		empty := true
		for i, c := range row.Cells {
			rec[i] = strings.TrimSpace(c.Value)
			if rec[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		if t.Columns == nil {
			t.Columns = rec
			continue
		}
		t.Records = append(t.Records, rec)
	}
	if t.Columns == nil {
		return nil, fmt.Errorf("pm2io: Excel sheet %s is empty", s.Name)
	}
	// Trailing empty cells may be left out of a row.
	for i, rec := range t.Records {
		if len(rec) < len(t.Columns) {
			t.Records[i] = append(rec, make([]string, len(t.Columns)-len(rec))...)
		} else if len(rec) > len(t.Columns) {
			t.Records[i] = rec[:len(t.Columns)]
		}
	}
	return t, nil
}

var naValues = func() map[string]bool {
	o := make(map[string]bool)
	for _, v := range NAValues {
		o[v] = true
	}
	return o
}()

// parseValue parses a numeric cell. Empty, NA and non-numeric
// cells are missing.
func parseValue(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || naValues[s] {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// formatValue formats a numeric cell. Missing values are empty.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
