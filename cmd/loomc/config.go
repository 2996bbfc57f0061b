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

	"sigs.k8s.io/yaml"
)

// manifest is the optional project configuration loomc reads from
// "loom.yaml" in the current directory (SPEC_FULL §4 "Configuration").
// It is decoded with sigs.k8s.io/yaml, the same library the teacher's
// go.mod already carries, exactly the way that package is meant to be
// used: YAML in, JSON struct tags out.
type manifest struct {
	// SearchRoots lists directories searched, in order, for an
	// imported file's ".e"/".tex" source. When it is non-empty the
	// current directory is not searched; only an empty list falls
	// back to the current directory.
	SearchRoots []string `json:"searchRoots"`
	// RuntimeTemplate overrides the default runtime-support
	// template path (equivalent to "+Pd" on the command line; the
	// command-line flag wins if both are given).
	RuntimeTemplate string `json:"runtimeTemplate"`
}

const manifestFileName = "loom.yaml"

// loadManifest reads loom.yaml from the current directory. A missing
// file is not an error: the manifest is optional, and a bare
// compilation with no imports and the default runtime template
// location needs no configuration at all.
func loadManifest() (*manifest, error) {
	data, err := os.ReadFile(manifestFileName)
	if err != nil {
		if os.IsNotExist(err) {
			return &manifest{}, nil
		}
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
