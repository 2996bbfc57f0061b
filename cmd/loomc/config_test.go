// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifestMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	m, err := loadManifest()
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if m == nil || len(m.SearchRoots) != 0 || m.RuntimeTemplate != "" {
		t.Fatalf("got %+v, want an empty manifest", m)
	}
}

func TestLoadManifestDecodesYAML(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	yaml := "searchRoots:\n  - vendor\n  - lib\nruntimeTemplate: custom.tmpl\n"
	if err := os.WriteFile(filepath.Join(dir, manifestFileName), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := loadManifest()
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if len(m.SearchRoots) != 2 || m.SearchRoots[0] != "vendor" || m.SearchRoots[1] != "lib" {
		t.Fatalf("SearchRoots = %v", m.SearchRoots)
	}
	if m.RuntimeTemplate != "custom.tmpl" {
		t.Fatalf("RuntimeTemplate = %q, want %q", m.RuntimeTemplate, "custom.tmpl")
	}
}
