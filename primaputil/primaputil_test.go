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
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/primap"
)

const testSpec = `[coords_cols]
area = "country"
category = "category"
entity = "gas"
unit = "unit"

[coords_defaults]
source = "TESTcsv2021"
scenario = "HISTORY"

[coords_terminologies]
area = "ISO3"
category = "IPCC2006"
scenario = "general"

[coords_value_mapping]
category = "PRIMAP1"
entity = "PRIMAP1"
unit = "PRIMAP1"

[meta_data]
references = "Just ask around."
`

const testCSV = `country,category,gas,unit,1991,2000,2010
AUS,IPC1A2,CO2,Gg,4.1,5,6
AUS,IPC1A2,CH4,Gg,1,NE,2
ZAM,IPC1A2,CO2,Gg,1,2,3
`

func setup(t *testing.T) (dir string) {
	dir, err := ioutil.TempDir("", "primaputil")
	if err != nil {
		t.Fatal(err)
	}
	for name, data := range map[string]string{"spec.toml": testSpec, "data.csv": testCSV} {
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestVersion(t *testing.T) {
	var b bytes.Buffer
	Root.SetOutput(&b)
	defer Root.SetOutput(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "PRIMAP v" + primap.Version + "\n"; b.String() != want {
		t.Errorf("want %q but have %q", want, b.String())
	}
}

func TestCommands(t *testing.T) {
	dir := setup(t)
	defer os.RemoveAll(dir)
	var b bytes.Buffer
	Root.SetOutput(&b)
	defer Root.SetOutput(nil)
	Cfg.Set("LogLevel", "error")

	Cfg.Set("spec", filepath.Join(dir, "spec.toml"))
	Cfg.Set("input", filepath.Join(dir, "data.csv"))
	Cfg.Set("output", filepath.Join(dir, "table.yaml"))
	Cfg.Set("netcdf", filepath.Join(dir, "read.nc"))
	Root.SetArgs([]string{"read", "wide"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	data, err := ioutil.ReadFile(filepath.Join(dir, "table.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := `source,scenario (general),area (ISO3),entity,unit,category (IPCC2006),1991,2000,2010
TESTcsv2021,HISTORY,AUS,CO2,Gg CO2 / yr,1.A.2,4.1,5,6
TESTcsv2021,HISTORY,AUS,CH4,Gg CH4 / yr,1.A.2,1,,2
TESTcsv2021,HISTORY,ZAM,CO2,Gg CO2 / yr,1.A.2,1,2,3
`
	if string(data) != want {
		t.Errorf("want\n%s\nbut have\n%s", want, data)
	}

	Cfg.Set("input", filepath.Join(dir, "table.yaml"))
	Cfg.Set("output", filepath.Join(dir, "table.nc"))
	Root.SetArgs([]string{"materialize"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	Cfg.Set("input", filepath.Join(dir, "table.nc"))
	Cfg.Set("output", filepath.Join(dir, "export.yaml"))
	Root.SetArgs([]string{"export"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	exported, err := ioutil.ReadFile(filepath.Join(dir, "export.csv"))
	if err != nil {
		t.Fatal(err)
	}
	// Exported rows are sorted by coordinate values.
	want = `source,scenario (general),area (ISO3),entity,unit,category (IPCC2006),1991,2000,2010
TESTcsv2021,HISTORY,AUS,CH4,Gg CH4 / yr,1.A.2,1,,2
TESTcsv2021,HISTORY,AUS,CO2,Gg CO2 / yr,1.A.2,4.1,5,6
TESTcsv2021,HISTORY,ZAM,CO2,Gg CO2 / yr,1.A.2,1,2,3
`
	if string(exported) != want {
		t.Errorf("want\n%s\nbut have\n%s", want, exported)
	}

	b.Reset()
	Cfg.Set("input", filepath.Join(dir, "read.nc"))
	Root.SetArgs([]string{"describe"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{
		"  time: 3 (1991-01-01 to 2010-01-01)\n",
		"  area (ISO3): 2\n",
		"  references: Just ask around.\n",
		"  CO2 [Gg CO2 / yr]: n=6 min=1 mean=",
		"  CH4 [Gg CH4 / yr]: n=2 min=1 mean=1.5 max=2 sum=3\n",
	} {
		if !strings.Contains(b.String(), s) {
			t.Errorf("describe output %q does not contain %q", b.String(), s)
		}
	}
}

func TestReadBlob(t *testing.T) {
	dir := setup(t)
	defer os.RemoveAll(dir)
	log, _ := test.NewNullLogger()
	ctx := context.Background()
	blob := "file://" + filepath.ToSlash(filepath.Join(dir, "out", "table.yaml"))
	err := Read(ctx, false, filepath.Join(dir, "spec.toml"), filepath.Join(dir, "data.csv"), "", blob,
		"file://"+filepath.ToSlash(filepath.Join(dir, "out", "table.nc")), log)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"table.yaml", "table.csv", "table.nc"} {
		if _, err := os.Stat(filepath.Join(dir, "out", f)); err != nil {
			t.Error(err)
		}
	}
	var b bytes.Buffer
	if err := Describe(ctx, blob, &b, log); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "entities:") {
		t.Errorf("unexpected description %q", b.String())
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("want error for empty output")
	}
	if _, err := checkOutputFile("/does/not/exist/table.yaml"); err == nil {
		t.Error("want error for missing directory")
	}
	if _, err := checkOutputFile("gs://bucket"); err == nil {
		t.Error("want error for blob without key")
	}
	os.Setenv("PRIMAP_TEST_DIR", os.TempDir())
	defer os.Unsetenv("PRIMAP_TEST_DIR")
	have, err := checkOutputFile("${PRIMAP_TEST_DIR}/table.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(os.TempDir(), "table.yaml"); filepath.Clean(have) != want {
		t.Errorf("want %s but have %s", want, have)
	}
}

func TestSibling(t *testing.T) {
	for _, test := range []struct{ path, want string }{
		{path: "gs://bucket/dir/table.yaml", want: "gs://bucket/dir/table.csv"},
		{path: "https://example.com/table.yaml", want: "https://example.com/table.csv"},
		{path: filepath.Join("dir", "table.yaml"), want: filepath.Join("dir", "table.csv")},
	} {
		if have := sibling(test.path, "table.csv"); have != test.want {
			t.Errorf("want %s but have %s", test.want, have)
		}
	}
}

func TestMaybeDownloadLocal(t *testing.T) {
	log, _ := test.NewNullLogger()
	k, cleanup, err := maybeDownload(context.Background(), "/dev/null", log)
	if err != nil || k != "/dev/null" {
		t.Error("Expected /dev/null, got ", k, err)
	}
	cleanup()
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Errorf("local file removed: %v", err)
	}
}

func TestMaybeDownloadCleanup(t *testing.T) {
	dir, err := ioutil.TempDir("", "primap")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	src := filepath.Join(dir, "table.nc")
	if err := ioutil.WriteFile(src, []byte("CDF"), 0644); err != nil {
		t.Fatal(err)
	}
	log, _ := test.NewNullLogger()
	local, cleanup, err := maybeDownload(context.Background(), "file://"+filepath.ToSlash(src), log)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "CDF" {
		t.Errorf("want CDF but have %q", b)
	}
	cleanup()
	if _, err := os.Stat(filepath.Dir(local)); !os.IsNotExist(err) {
		t.Errorf("download directory %s was not removed: %v", filepath.Dir(local), err)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	if _, err := newLogger("loud", ioutil.Discard); err == nil {
		t.Error("want error for invalid log level")
	}
}
