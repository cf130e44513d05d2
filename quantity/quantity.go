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

// Package quantity parses and converts the unit strings used in emissions
// datasets, such as "Gg CO2 / yr" or "Mt", on top of the SI dimension
// algebra in github.com/ctessum/unit. Gases are treated as additional
// orthogonal dimensions so that "Gg CO2 / yr" and "Gg CH4 / yr" are
// not convertible into each other.
package quantity

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/ctessum/unit"
	"github.com/golang/groupcache/lru"
)

// DefaultCacheSize is the number of parsed unit strings a Registry
// created by NewRegistry remembers.
const DefaultCacheSize = 256

// Year is the length of a year in seconds (365.25 days).
const Year = 365.25 * 24 * 60 * 60

// InvalidUnitError is returned when a unit string cannot be parsed.
type InvalidUnitError struct {
	Unit   string
	Reason string
}

func (e *InvalidUnitError) Error() string {
	return fmt.Sprintf("invalid unit %q: %s", e.Unit, e.Reason)
}

// IncompatibleUnitError is returned when a value in one unit cannot be
// expressed in another unit because their dimensions differ.
type IncompatibleUnitError struct {
	From, To string
}

func (e *IncompatibleUnitError) Error() string {
	return fmt.Sprintf("cannot convert from %q to %q: incompatible dimensions", e.From, e.To)
}

// Registry parses unit strings. Parsed units are cached in a
// least-recently-used cache. A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewRegistry returns a new unit registry.
func NewRegistry() *Registry {
	return &Registry{cache: lru.New(DefaultCacheSize)}
}

// Parse returns the SI representation of one unit of s, e.g.
// "Gg CO2 / yr" is returned as 1e6/Year kg [CO2] s^-1.
// The returned value must not be modified.
func (r *Registry) Parse(s string) (*unit.Unit, error) {
	r.mu.Lock()
	if v, ok := r.cache.Get(s); ok {
		r.mu.Unlock()
		return v.(*unit.Unit), nil
	}
	r.mu.Unlock()

	u, err := parse(s)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.cache.Add(s, u)
	r.mu.Unlock()
	return u, nil
}

// Factor returns the number that a value in units of from must be
// multiplied by to express it in units of to.
func (r *Registry) Factor(from, to string) (float64, error) {
	if from == to {
		if _, err := r.Parse(from); err != nil {
			return 0, err
		}
		return 1, nil
	}
	f, err := r.Parse(from)
	if err != nil {
		return 0, err
	}
	t, err := r.Parse(to)
	if err != nil {
		return 0, err
	}
	if !unit.DimensionsMatch(f, t) {
		return 0, &IncompatibleUnitError{From: from, To: to}
	}
	return f.Value() / t.Value(), nil
}

// Convert converts v from units of from to units of to.
func (r *Registry) Convert(v float64, from, to string) (float64, error) {
	f, err := r.Factor(from, to)
	if err != nil {
		return 0, err
	}
	return v * f, nil
}

// Compatible returns whether a and b are valid units that can be
// converted into each other.
func (r *Registry) Compatible(a, b string) bool {
	_, err := r.Factor(a, b)
	return err == nil
}

// Gases returns the names of the gas dimensions of the unit s,
// in the order they appear in the string.
func (r *Registry) Gases(s string) ([]string, error) {
	if _, err := r.Parse(s); err != nil {
		return nil, err
	}
	var o []string
	for _, tok := range tokenize(s) {
		if tok == "*" || tok == "/" {
			continue
		}
		name, _, _ := splitExponent(tok)
		if _, ok := lookupAtom(name); ok {
			continue
		}
		if isGasName(name) {
			o = append(o, name)
		}
	}
	return o, nil
}

var (
	gasMu   sync.Mutex
	gasDims = make(map[string]unit.Dimension)
)

// GasDimension returns the dimension representing the named gas,
// registering it the first time it is requested.
func GasDimension(gas string) unit.Dimension {
	gasMu.Lock()
	defer gasMu.Unlock()
	if d, ok := gasDims[gas]; ok {
		return d
	}
	d := unit.NewDimension("[" + gas + "]")
	gasDims[gas] = d
	return d
}

type atom struct {
	scale    float64
	dims     unit.Dimensions
	prefixOK bool
}

var (
	mass   = unit.Dimensions{unit.MassDim: 1}
	length = unit.Dimensions{unit.LengthDim: 1}
	tm     = unit.Dimensions{unit.TimeDim: 1}
	energy = unit.Joule
	power  = unit.Watt
)

var atoms = map[string]atom{
	"g":             {1e-3, mass, true},
	"t":             {1e3, mass, true},
	"tonne":         {1e3, mass, true},
	"lb":            {0.45359237, mass, false},
	"m":             {1, length, true},
	"ha":            {1e4, unit.Meter2, false},
	"s":             {1, tm, true},
	"sec":           {1, tm, false},
	"second":        {1, tm, false},
	"min":           {60, tm, false},
	"minute":        {60, tm, false},
	"h":             {3600, tm, false},
	"hr":            {3600, tm, false},
	"hour":          {3600, tm, false},
	"d":             {86400, tm, false},
	"day":           {86400, tm, false},
	"month":         {Year / 12, tm, false},
	"a":             {Year, tm, false},
	"yr":            {Year, tm, false},
	"year":          {Year, tm, false},
	"annum":         {Year, tm, false},
	"J":             {1, energy, true},
	"W":             {1, power, true},
	"Wh":            {3600, energy, true},
	"percent":       {0.01, unit.Dimless, false},
	"%":             {0.01, unit.Dimless, false},
	"dimensionless": {1, unit.Dimless, false},
}

// prefixes are checked longest first.
var prefixes = []struct {
	symbol string
	factor float64
}{
	{"da", 1e1},
	{"Y", 1e24}, {"Z", 1e21}, {"E", 1e18}, {"P", 1e15}, {"T", 1e12},
	{"G", 1e9}, {"M", 1e6}, {"k", 1e3}, {"h", 1e2}, {"d", 1e-1},
	{"c", 1e-2}, {"m", 1e-3}, {"u", 1e-6}, {"µ", 1e-6}, {"μ", 1e-6},
	{"n", 1e-9}, {"p", 1e-12}, {"f", 1e-15},
}

// lookupAtom finds the unit named by s, either directly or as
// an SI prefix followed by a unit that accepts prefixes.
func lookupAtom(s string) (atom, bool) {
	if a, ok := atoms[s]; ok {
		return a, true
	}
	for _, p := range prefixes {
		if !strings.HasPrefix(s, p.symbol) {
			continue
		}
		a, ok := atoms[strings.TrimPrefix(s, p.symbol)]
		if ok && a.prefixOK {
			a.scale *= p.factor
			return a, true
		}
	}
	return atom{}, false
}

// isGasName reports whether s can name a gas, e.g. "CO2", "HFC134a" or "SF6".
func isGasName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if i == 0 && !unicode.IsUpper(c) {
			return false
		}
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '-') {
			return false
		}
	}
	return true
}

// tokenize splits a unit string into terms and the operators "*" and "/".
func tokenize(s string) []string {
	s = strings.Replace(s, "**", "^", -1)
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, c := range s {
		switch {
		case unicode.IsSpace(c):
			flush()
		case c == '*' || c == '/':
			flush()
			toks = append(toks, string(c))
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return toks
}

// splitExponent splits "m^2" into "m" and 2.
func splitExponent(tok string) (string, int, error) {
	i := strings.Index(tok, "^")
	if i < 0 {
		return tok, 1, nil
	}
	p, err := strconv.Atoi(tok[i+1:])
	if err != nil {
		return tok, 0, fmt.Errorf("invalid exponent in %q", tok)
	}
	return tok[:i], p, nil
}

func parse(s string) (*unit.Unit, error) {
	toks := tokenize(s)
	if len(toks) == 0 {
		return nil, &InvalidUnitError{Unit: s, Reason: "empty unit"}
	}
	o := unit.New(1, unit.Dimless)
	divide := false
	expectTerm := true
	for _, tok := range toks {
		if tok == "*" || tok == "/" {
			if expectTerm {
				return nil, &InvalidUnitError{Unit: s, Reason: fmt.Sprintf("unexpected %q", tok)}
			}
			divide = tok == "/"
			expectTerm = true
			continue
		}
		term, err := parseTerm(tok)
		if err != nil {
			return nil, &InvalidUnitError{Unit: s, Reason: err.Error()}
		}
		if divide {
			o.Div(term)
		} else {
			o.Mul(term)
		}
		divide = false
		expectTerm = false
	}
	if expectTerm {
		return nil, &InvalidUnitError{Unit: s, Reason: "dangling operator"}
	}
	return o, nil
}

func parseTerm(tok string) (*unit.Unit, error) {
	name, pow, err := splitExponent(tok)
	if err != nil {
		return nil, err
	}
	var base *unit.Unit
	if v, err := strconv.ParseFloat(name, 64); err == nil {
		base = unit.New(v, unit.Dimless)
	} else if a, ok := lookupAtom(name); ok {
		base = unit.New(a.scale, a.dims)
	} else if isGasName(name) {
		base = unit.New(1, unit.Dimensions{GasDimension(name): 1})
	} else {
		return nil, fmt.Errorf("unknown unit %q", name)
	}
	o := unit.New(1, unit.Dimless)
	for i := 0; i < pow; i++ {
		o.Mul(base)
	}
	for i := 0; i > pow; i-- {
		o.Div(base)
	}
	return o, nil
}
