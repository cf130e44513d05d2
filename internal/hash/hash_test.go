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

package hash

import "testing"

func TestHash(t *testing.T) {
	a := map[string]string{}
	b := map[string]string{}
	for _, k := range []string{"area", "category", "entity", "source", "unit"} {
		a[k] = k + "_col"
	}
	for _, k := range []string{"unit", "source", "entity", "category", "area"} {
		b[k] = k + "_col"
	}
	if Hash(a) != Hash(b) {
		t.Error("equal maps should have equal hashes")
	}
	b["area"] = "country"
	if Hash(a) == Hash(b) {
		t.Error("different maps should have different hashes")
	}
}
