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
	"strings"
)

// MissingCoordinateError is returned when a mandatory coordinate has
// neither a column nor a default value.
type MissingCoordinateError struct {
	Coord string
}

func (e *MissingCoordinateError) Error() string {
	return fmt.Sprintf("pm2io: mandatory coordinate %q has no column and no default", e.Coord)
}

// MissingColumnError is returned when a column named in the
// configuration is not in the input table.
type MissingColumnError struct {
	Column string

	// Field is the configuration field that names the column.
	Field string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("pm2io: column %q given in %s not found in input", e.Column, e.Field)
}

// DuplicateRowError is returned when two rows have the same
// coordinate values.
type DuplicateRowError struct {
	Dims   []string
	Coords []string
}

func (e *DuplicateRowError) Error() string {
	s := make([]string, len(e.Dims))
	for i, d := range e.Dims {
		s[i] = fmt.Sprintf("%s=%s", d, e.Coords[i])
	}
	return fmt.Sprintf("pm2io: duplicate row (%s)", strings.Join(s, ", "))
}

// InvalidTimePeriodError is returned when a time label cannot be parsed
// with the time format.
type InvalidTimePeriodError struct {
	Label, Format string
}

func (e *InvalidTimePeriodError) Error() string {
	return fmt.Sprintf("pm2io: time period %q does not match format %q", e.Label, e.Format)
}

// InvalidConfigError is returned for inconsistent conversion configurations.
type InvalidConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pm2io: invalid %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("pm2io: invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error { return e.Err }

// EmptyResultWarning is reported when filtering removes every row.
// It is not returned as an error; it is added to Interchange.Warnings.
type EmptyResultWarning struct {
	// Rows is the number of rows before filtering.
	Rows int
}

func (e *EmptyResultWarning) Error() string {
	return fmt.Sprintf("pm2io: filters removed all %d rows; check filter_keep and filter_remove", e.Rows)
}
