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
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/primap/cloud"
)

func isRemote(p string) bool {
	return cloud.IsBlob(p) || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// maybeDownload checks if the input is an existing file locally.
// If not, and it is a URL or blob location, it downloads the file
// into a temporary directory and returns the path to the downloaded
// file. Files that need random access, such as netCDF files, are
// read this way. The returned cleanup function removes the temporary
// directory and must be called when the file is no longer needed.
func maybeDownload(ctx context.Context, p string, log logrus.FieldLogger) (string, func(), error) {
	nop := func() {}
	if _, err := os.Stat(p); !os.IsNotExist(err) || !isRemote(p) {
		return p, nop, nil
	}
	b, err := cloud.ReadFile(ctx, p, log)
	if err != nil {
		return p, nop, err
	}
	dir, err := ioutil.TempDir("", "primap")
	if err != nil {
		return p, nop, fmt.Errorf("primaputil: creating temporary download directory: %v", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).Warn("primaputil: removing temporary download directory")
		}
	}
	local := filepath.Join(dir, path.Base(p))
	if err := ioutil.WriteFile(local, b, 0644); err != nil {
		cleanup()
		return p, nop, fmt.Errorf("primaputil: saving download: %v", err)
	}
	log.WithFields(logrus.Fields{"from": p, "to": local}).Debug("primaputil: downloaded file")
	return local, cleanup, nil
}

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	err   error
	dir   string
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a temporary file location
// is returned. The file will then be uploaded to blob storage when
// the upload method is run.
func (u *uploader) maybeUpload(p string) string {
	if u.err != nil {
		return ""
	}
	if !cloud.IsBlob(p) {
		return p
	}
	if u.dir == "" {
		u.dir, u.err = ioutil.TempDir("", "primap")
		if u.err != nil {
			return ""
		}
	}
	local := filepath.Join(u.dir, path.Base(p))
	u.files = append(u.files, [2]string{local, p})
	return local
}

// upload copies the local files to blob storage and removes the
// temporary directory.
func (u *uploader) upload(ctx context.Context, log logrus.FieldLogger) error {
	if u.err != nil {
		return u.err
	}
	if u.dir != "" {
		defer os.RemoveAll(u.dir)
	}
	for _, files := range u.files {
		b, err := ioutil.ReadFile(files[0])
		if err != nil {
			return fmt.Errorf("primaputil: opening file '%s' for upload: %v", files[0], err)
		}
		if err := cloud.WriteFile(ctx, files[1], b, log); err != nil {
			return fmt.Errorf("primaputil: uploading file '%s' to '%s': %v", files[0], files[1], err)
		}
	}
	return nil
}
