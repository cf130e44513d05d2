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

package cloud

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		path string
		want Location
		err  bool
	}{
		{path: "gs://bucket/dir/table.csv", want: Location{Provider: "gs", Bucket: "bucket", Key: "dir/table.csv"}},
		{path: "s3://bucket/table.csv", want: Location{Provider: "s3", Bucket: "bucket", Key: "table.csv"}},
		{path: "file:///tmp/out/table.csv", want: Location{Provider: "file", Bucket: "/tmp/out", Key: "table.csv"}},
		{path: "file://out/table.csv", want: Location{Provider: "file", Bucket: "out", Key: "table.csv"}},
		{path: "gs://bucket", err: true},
		{path: "file:///tmp/out/", err: true},
		{path: "ftp://bucket/table.csv", err: true},
	}
	for _, test := range tests {
		t.Run(test.path, func(t *testing.T) {
			have, err := ParseLocation(test.path)
			if test.err {
				if err == nil {
					t.Errorf("want error but have %v", have)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if have != test.want {
				t.Errorf("want %v but have %v", test.want, have)
			}
			if have.String() != test.path {
				t.Errorf("want %s but have %s", test.path, have.String())
			}
		})
	}
}

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://a/b":        true,
		"s3://a/b":        true,
		"file:///a/b":     true,
		"/a/b":            false,
		"https://a.com/b": false,
	} {
		if have := IsBlob(path); have != want {
			t.Errorf("%s: want %v but have %v", path, want, have)
		}
	}
}

func TestReadWrite(t *testing.T) {
	dir, err := ioutil.TempDir("", "primap")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	log, _ := test.NewNullLogger()
	ctx := context.Background()

	for _, path := range []string{
		filepath.Join(dir, "local.csv"),
		"file://" + filepath.ToSlash(filepath.Join(dir, "sub", "blob.csv")),
	} {
		t.Run(path, func(t *testing.T) {
			w := Create(ctx, path, log)
			fmt.Fprint(w, "area,2000\nDEU,1\n")
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}
			b, err := ReadFile(ctx, path, log)
			if err != nil {
				t.Fatal(err)
			}
			if want := "area,2000\nDEU,1\n"; string(b) != want {
				t.Errorf("want %q but have %q", want, b)
			}
		})
	}

	if _, err := ReadFile(ctx, filepath.Join(dir, "missing.csv"), log); err == nil {
		t.Error("want error for missing file")
	}
}

func TestReadHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "time_format: '%Y'\n")
	}))
	defer ts.Close()
	log, _ := test.NewNullLogger()
	r, err := Open(context.Background(), ts.URL+"/table.yaml", log)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if want := "time_format: '%Y'\n"; string(b) != want {
		t.Errorf("want %q but have %q", want, b)
	}
}

func TestRetry(t *testing.T) {
	for _, tc := range []struct {
		name         string
		status       []int
		wantRequests int32
		wantWarnings int
		err          bool
	}{
		{name: "not found", status: []int{http.StatusNotFound}, wantRequests: 1, err: true},
		{name: "forbidden", status: []int{http.StatusForbidden}, wantRequests: 1, err: true},
		{name: "unavailable", status: []int{http.StatusServiceUnavailable, http.StatusOK}, wantRequests: 2, wantWarnings: 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var requests int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&requests, 1)
				status := tc.status[len(tc.status)-1]
				if int(n) <= len(tc.status) {
					status = tc.status[n-1]
				}
				w.WriteHeader(status)
				fmt.Fprint(w, "area,2000\n")
			}))
			defer ts.Close()
			log, hook := test.NewNullLogger()
			_, err := ReadFile(context.Background(), ts.URL+"/table.csv", log)
			if tc.err != (err != nil) {
				t.Errorf("want error %v but have %v", tc.err, err)
			}
			if have := atomic.LoadInt32(&requests); have != tc.wantRequests {
				t.Errorf("want %d requests but have %d", tc.wantRequests, have)
			}
			if have := len(hook.AllEntries()); have != tc.wantWarnings {
				t.Errorf("want %d warnings but have %d", tc.wantWarnings, have)
			}
		})
	}
}

func TestMissingBlob(t *testing.T) {
	dir, err := ioutil.TempDir("", "primap")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	log, hook := test.NewNullLogger()
	path := "file://" + filepath.ToSlash(filepath.Join(dir, "missing.csv"))
	if _, err := ReadFile(context.Background(), path, log); err == nil {
		t.Fatal("want error for missing blob")
	}
	if n := len(hook.AllEntries()); n != 0 {
		t.Errorf("missing blob was retried %d times", n)
	}
}
