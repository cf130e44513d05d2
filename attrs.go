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
	"sort"
	"strings"
)

// MetadataKeys are the free-form metadata keys a dataset may carry.
var MetadataKeys = []string{
	"references", "rights", "contact", "title", "comment",
	"institution", "history", "publication_date",
}

// secCatSep separates secondary category names in flattened attributes.
const secCatSep = "; "

// Attrs holds dataset-level attributes.
type Attrs struct {
	// Area, Cat and Scen hold the full names of the area, category
	// and scenario dimensions, e.g. "area (ISO3)".
	Area string `yaml:"area,omitempty"`
	Cat  string `yaml:"cat,omitempty"`
	Scen string `yaml:"scen,omitempty"`

	// SecCats holds the full names of the secondary category dimensions.
	SecCats []string `yaml:"sec_cats,omitempty"`

	// EntityTerminology is the terminology used for entity names.
	EntityTerminology string `yaml:"entity_terminology,omitempty"`

	References      string `yaml:"references,omitempty"`
	Rights          string `yaml:"rights,omitempty"`
	Contact         string `yaml:"contact,omitempty"`
	Title           string `yaml:"title,omitempty"`
	Comment         string `yaml:"comment,omitempty"`
	Institution     string `yaml:"institution,omitempty"`
	History         string `yaml:"history,omitempty"`
	PublicationDate string `yaml:"publication_date,omitempty"`
}

// UnknownAttrError is returned when an attribute key is not recognized.
type UnknownAttrError struct {
	Key string
}

func (e *UnknownAttrError) Error() string {
	return fmt.Sprintf("primap: unknown attribute %q; allowed metadata keys are %v", e.Key, MetadataKeys)
}

func (a *Attrs) field(key string) *string {
	switch key {
	case "area":
		return &a.Area
	case "cat":
		return &a.Cat
	case "scen":
		return &a.Scen
	case "entity_terminology":
		return &a.EntityTerminology
	case "references":
		return &a.References
	case "rights":
		return &a.Rights
	case "contact":
		return &a.Contact
	case "title":
		return &a.Title
	case "comment":
		return &a.Comment
	case "institution":
		return &a.Institution
	case "history":
		return &a.History
	case "publication_date":
		return &a.PublicationDate
	}
	return nil
}

// Set sets the attribute key to value. Secondary categories
// are given as a single string separated by "; ".
func (a *Attrs) Set(key, value string) error {
	if key == "sec_cats" {
		a.SecCats = nil
		if value != "" {
			a.SecCats = strings.Split(value, secCatSep)
		}
		return nil
	}
	f := a.field(key)
	if f == nil {
		return &UnknownAttrError{Key: key}
	}
	*f = value
	return nil
}

// Get returns the value of attribute key.
func (a Attrs) Get(key string) (string, error) {
	if key == "sec_cats" {
		return strings.Join(a.SecCats, secCatSep), nil
	}
	f := a.field(key)
	if f == nil {
		return "", &UnknownAttrError{Key: key}
	}
	return *f, nil
}

// Map returns the non-empty attributes as a flat map.
func (a Attrs) Map() map[string]string {
	o := make(map[string]string)
	keys := append([]string{"area", "cat", "scen", "sec_cats", "entity_terminology"}, MetadataKeys...)
	for _, k := range keys {
		v, _ := a.Get(k)
		if v != "" {
			o[k] = v
		}
	}
	return o
}

// AttrsFromMap is the inverse of Attrs.Map.
func AttrsFromMap(m map[string]string) (Attrs, error) {
	var a Attrs
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := a.Set(k, m[k]); err != nil {
			return a, err
		}
	}
	return a, nil
}

// Dims returns the full names of the dimensions named in the attributes.
func (a Attrs) Dims() []string {
	var o []string
	for _, d := range []string{a.Area, a.Cat, a.Scen} {
		if d != "" {
			o = append(o, d)
		}
	}
	return append(o, a.SecCats...)
}
