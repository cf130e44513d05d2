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

	"github.com/Knetic/govaluate"
)

type constraint struct {
	col    int
	values map[string]bool
}

// matcher matches rows against a FilterSpec.
type matcher []constraint

func newMatcher(t *RawTable, spec FilterSpec, field string) (matcher, error) {
	var m matcher
	for col, values := range spec {
		i := t.Col(col)
		if i < 0 {
			return nil, &MissingColumnError{Column: col, Field: field}
		}
		vals := make(map[string]bool, len(values))
		for _, v := range values {
			vals[v] = true
		}
		m = append(m, constraint{col: i, values: vals})
	}
	return m, nil
}

func (m matcher) match(rec []string) bool {
	for _, c := range m {
		if !c.values[rec[c.col]] {
			return false
		}
	}
	return true
}

func newMatchers(t *RawTable, specs []FilterSpec, field string) ([]matcher, error) {
	o := make([]matcher, len(specs))
	for i, s := range specs {
		m, err := newMatcher(t, s, field)
		if err != nil {
			return nil, err
		}
		o[i] = m
	}
	return o, nil
}

func matchAny(ms []matcher, rec []string) bool {
	for _, m := range ms {
		if m.match(rec) {
			return true
		}
	}
	return false
}

// Filter returns the rows of t that match any of the keep specs and
// none of the remove specs, and for which query, if given, is true.
// If keep is nil all rows are kept; if keep is empty no rows are
// kept. Columns in numeric are given to the query as numbers; others
// as strings.
func Filter(t *RawTable, keep, remove []FilterSpec, query string, numeric map[string]bool) (*RawTable, error) {
	keepM, err := newMatchers(t, keep, "filter_keep")
	if err != nil {
		return nil, err
	}
	removeM, err := newMatchers(t, remove, "filter_remove")
	if err != nil {
		return nil, err
	}
	var expr *govaluate.EvaluableExpression
	var vars []int
	if query != "" {
		expr, err = govaluate.NewEvaluableExpression(query)
		if err != nil {
			return nil, &InvalidConfigError{Field: "filter_query", Err: err}
		}
		for _, v := range expr.Vars() {
			i := t.Col(v)
			if i < 0 {
				return nil, &MissingColumnError{Column: v, Field: "filter_query"}
			}
			vars = append(vars, i)
		}
	}

	var rows []int
	for i, rec := range t.Records {
		if keep != nil && !matchAny(keepM, rec) {
			continue
		}
		if matchAny(removeM, rec) {
			continue
		}
		if expr != nil {
			params := make(map[string]interface{}, len(vars))
			for _, c := range vars {
				name := t.Columns[c]
				if numeric[name] {
					params[name] = parseValue(rec[c])
				} else {
					params[name] = rec[c]
				}
			}
			ok, err := expr.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("pm2io: evaluating filter query for row %d: %v", i, err)
			}
			b, isBool := ok.(bool)
			if !isBool {
				return nil, &InvalidConfigError{Field: "filter_query", Reason: fmt.Sprintf("%q does not evaluate to a boolean", query)}
			}
			if !b {
				continue
			}
		}
		rows = append(rows, i)
	}
	return t.subset(rows), nil
}
