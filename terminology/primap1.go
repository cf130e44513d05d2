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

package terminology

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spatialmodel/primap"
)

// PRIMAP1 is the name of the preset translating PRIMAP1 codes.
const PRIMAP1 = "PRIMAP1"

var presets = map[string]map[string]Translator{
	PRIMAP1: {
		primap.Category: primap1Category,
		primap.Entity:   primap1Entity,
		primap.Unit:     primap1Unit,
	},
}

func primap1Category(v string, _ func(string) string) (string, error) { return PRIMAP1Category(v) }

func primap1Entity(v string, _ func(string) string) (string, error) { return PRIMAP1Entity(v), nil }

// primap1Unit depends on the entity of the row.
func primap1Unit(v string, row func(string) string) (string, error) {
	return PRIMAP1Unit(v, row(primap.Entity))
}

// mCodes are PRIMAP1 memo item codes that do not follow the
// general "M" + suffix pattern.
var mCodes = map[string]string{
	"M0EL":    "M.0.EL",
	"MAG":     "M.AG",
	"MAGELV":  "M.AG.ELV",
	"MBK":     "M.BK",
	"MBKA":    "M.BK.A",
	"MBKM":    "M.BK.M",
	"MBIO":    "M.BIO",
	"MLULUCF": "M.LULUCF",
}

// IPCC category code levels: a digit, an upper case letter, digits,
// a lower case letter, a lower case roman numeral, and digits.
var ipccCode = regexp.MustCompile(`^([0-9])([A-Z])?([0-9]+)?([a-z])?([ivx]+)?([0-9]+)?$`)

// PRIMAP1Category translates a PRIMAP1 IPCC category code into the
// dotted notation, e.g. "IPC1A2" to "1.A.2" and "IPCM0EL" to "M.0.EL".
func PRIMAP1Category(code string) (string, error) {
	if !strings.HasPrefix(code, "IPC") {
		return "", fmt.Errorf("category code %q is not in PRIMAP1 IPCC notation", code)
	}
	c := strings.TrimPrefix(code, "IPC")
	if c == "" {
		return "", fmt.Errorf("category code %q is empty", code)
	}
	if strings.HasPrefix(c, "M") {
		if m, ok := mCodes[c]; ok {
			return m, nil
		}
		return "M." + strings.TrimPrefix(c, "M"), nil
	}
	m := ipccCode.FindStringSubmatch(c)
	if m == nil {
		return "", fmt.Errorf("category code %q is not in PRIMAP1 IPCC notation", code)
	}
	var parts []string
	for i, p := range m[1:] {
		if p == "" {
			// Levels must be contiguous.
			for _, q := range m[i+2:] {
				if q != "" {
					return "", fmt.Errorf("category code %q skips a level", code)
				}
			}
			break
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "."), nil
}

// gwpSuffixes are the PRIMAP1 suffixes marking global warming potential
// contexts, checked in order.
var gwpSuffixes = []struct{ suffix, context string }{
	{"AR5CCF", "AR5CCFGWP100"},
	{"AR4", "AR4GWP100"},
	{"AR5", "AR5GWP100"},
	{"AR6", "AR6GWP100"},
	{"SAR", "SARGWP100"},
}

// baskets are entities that are always given as CO2 equivalents.
var baskets = map[string]bool{
	"KYOTOGHG":  true,
	"HFCS":      true,
	"PFCS":      true,
	"FGASES":    true,
	"OTHERHFCS": true,
	"OTHERPFCS": true,
}

// PRIMAP1Entity translates a PRIMAP1 entity name into one with an
// explicit global warming potential context, e.g. "KYOTOGHGAR4" to
// "KYOTOGHG (AR4GWP100)". Gas baskets without a suffix use SAR values.
// Other entities are returned unchanged.
func PRIMAP1Entity(e string) string {
	for _, s := range gwpSuffixes {
		if strings.HasSuffix(e, s.suffix) && len(e) > len(s.suffix) {
			return primap.DimName(strings.TrimSuffix(e, s.suffix), s.context)
		}
	}
	if baskets[e] {
		return primap.DimName(e, "SARGWP100")
	}
	return e
}

var massUnit = regexp.MustCompile(`^[kMGTP]?[gt]$`)

// PRIMAP1Unit translates a PRIMAP1 unit for the given (already
// translated) entity, e.g. "GgCO2eq" to "Gg CO2 / yr" and "Gg" for entity
// "CH4" to "Gg CH4 / yr".
func PRIMAP1Unit(u, entity string) (string, error) {
	if strings.HasSuffix(u, "CO2eq") {
		prefix := strings.TrimSpace(strings.TrimSuffix(u, "CO2eq"))
		if !massUnit.MatchString(prefix) {
			return "", fmt.Errorf("unit %q has an invalid mass prefix", u)
		}
		return prefix + " CO2 / yr", nil
	}
	if !massUnit.MatchString(u) {
		return "", fmt.Errorf("unit %q is not a PRIMAP1 unit", u)
	}
	gas, _ := primap.SplitDimName(entity)
	if gas == "" {
		return "", fmt.Errorf("unit %q needs an entity", u)
	}
	return fmt.Sprintf("%s %s / yr", u, gas), nil
}
