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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/primap/cloud"
)

// newLogger returns a logger writing messages at or above the given
// level to w.
func newLogger(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("primap: invalid LogLevel: %v", err)
	}
	l := logrus.New()
	l.Out = w
	l.Level = lvl
	return l, nil
}

// checkInputFile makes sure that the input file given in the
// configuration variable name is specified, and expands any
// environment variables.
func checkInputFile(name, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`primap: you need to specify the %s configuration variable (for example: --%s="emissions.csv")`, name, name)
	}
	return os.ExpandEnv(f), nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`primap: you need to specify an output file configuration variable (for example: --output="table.yaml")`)
	}
	f = os.ExpandEnv(f)
	if cloud.IsBlob(f) {
		if _, err := cloud.ParseLocation(f); err != nil {
			return f, fmt.Errorf("primap: error when checking output location: %v", err)
		}
		return f, nil
	}
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("primap: the output directory doesn't exist: %v", err)
	}
	return f, nil
}

// sibling returns the path of the file named name in the same
// directory, or blob storage prefix, as path.
func sibling(path, name string) string {
	i := strings.LastIndex(path, "/")
	if cloud.IsBlob(path) || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path[:i+1] + name
	}
	return filepath.Join(filepath.Dir(path), name)
}

// isExcel returns whether path names a Microsoft Excel file.
func isExcel(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xlsx" || ext == ".xlsm"
}

// isInterchange returns whether path names the metadata file of an
// interchange table.
func isInterchange(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
