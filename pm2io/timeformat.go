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
	"time"
)

// strftime directives and their time package equivalents.
var directives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'b': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
	'F': "2006-01-02",
	'T': "15:04:05",
	'%': "%",
}

// layoutWords are the alphabetic elements of time package layouts.
var layoutWords = []string{"Jan", "Mon", "MST", "PM", "pm"}

// Layout converts a strftime format, e.g. "%Y-%m-%d", into a
// time package layout. Literal text may not contain digits or the
// words of layoutWords, which the time package would read as layout
// elements.
func Layout(format string) (string, error) {
	var b, lit strings.Builder
	checkLiteral := func() error {
		l := lit.String()
		lit.Reset()
		if strings.ContainsAny(l, "0123456789") {
			return fmt.Errorf("pm2io: digits in literal text %q of time format %q", l, format)
		}
		for _, w := range layoutWords {
			if strings.Contains(l, w) {
				return fmt.Errorf("pm2io: literal text %q of time format %q contains %q", l, format, w)
			}
		}
		return nil
	}
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			b.WriteByte(format[i])
			lit.WriteByte(format[i])
			continue
		}
		if err := checkLiteral(); err != nil {
			return "", err
		}
		i++
		if i == len(format) {
			return "", fmt.Errorf("pm2io: time format %q ends with %%", format)
		}
		l, ok := directives[format[i]]
		if !ok {
			return "", fmt.Errorf("pm2io: unsupported directive %%%c in time format %q", format[i], format)
		}
		b.WriteString(l)
	}
	if err := checkLiteral(); err != nil {
		return "", err
	}
	return b.String(), nil
}

// parseTime parses label with the strftime format.
func parseTime(label, format string) (time.Time, error) {
	layout, err := Layout(format)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(layout, strings.TrimSpace(label))
	if err != nil {
		return time.Time{}, &InvalidTimePeriodError{Label: label, Format: format}
	}
	return t, nil
}

// matchesTimeFormat returns whether label can be parsed with the
// given layout.
func matchesTimeFormat(label, layout string) bool {
	_, err := time.Parse(layout, label)
	return err == nil
}
