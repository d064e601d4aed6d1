/*
   hfsctl - tools for working with Macintosh HFS volumes
   Copyright (c) 2022, The hfsctl Authors

   This file is part of hfsctl.

   hfsctl is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   hfsctl is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with hfsctl. If not, see <http://www.gnu.org/licenses/>.
*/

package volume

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hfsctl/hfsctl/pkg/util"
)

func TestParsePath(t *testing.T) {

	tests := []struct {
		path     string
		volume   string
		elements []string
	}{
		{path: "", volume: "", elements: nil},
		{path: ":", volume: "", elements: []string{}},
		{path: "name", volume: "", elements: []string{"name"}},
		{path: ":name", volume: "", elements: []string{"name"}},
		{path: ":a:b:", volume: "", elements: []string{"a", "b"}},
		{path: "::a", volume: "", elements: []string{"", "a"}},
		{path: ":::", volume: "", elements: []string{"", ""}},
		{path: "MacHD:", volume: "MacHD", elements: []string{}},
		{path: "MacHD:Folder:file", volume: "MacHD",
			elements: []string{"Folder", "file"}},
		{path: "MacHD::x", volume: "MacHD", elements: []string{"", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			p := ParsePath(tt.path)
			if p.Volume != tt.volume {
				t.Errorf("volume: got %q, want %q", p.Volume, tt.volume)
			}
			if len(p.Elements) != len(tt.elements) ||
				(len(tt.elements) > 0 && !reflect.DeepEqual(p.Elements, tt.elements)) {
				t.Errorf("elements: got %q, want %q", p.Elements, tt.elements)
			}
			if p.IsAbsolute() != (tt.volume != "") {
				t.Errorf("unexpected absoluteness for %q", tt.path)
			}
		})
	}
}

func TestJoinPath(t *testing.T) {

	tests := []struct {
		dir  string
		name string
		want string
	}{
		{dir: "", name: "f", want: ":f"},
		{dir: "Folder", name: "f", want: ":Folder:f"},
		{dir: ":Folder", name: "f", want: ":Folder:f"},
		{dir: "MacHD:", name: "f", want: "MacHD:f"},
		{dir: "MacHD:A", name: "f", want: "MacHD:A:f"},
	}

	for _, tt := range tests {
		if got := JoinPath(tt.dir, tt.name); got != tt.want {
			t.Errorf("JoinPath(%q, %q) = %q, want %q", tt.dir, tt.name, got, tt.want)
		}
	}
}

func TestBase(t *testing.T) {
	for path, want := range map[string]string{
		"file":           "file",
		":a:b":           "b",
		"MacHD:a:b:":     "b",
		"MacHD:":         "MacHD",
		"MacHD:Folder::": "Folder",
	} {
		if got := Base(path); got != want {
			t.Errorf("Base(%q) = %q, want %q", path, got, want)
		}
	}
}

// chain is a volume with a fixed directory tree, for exercising the ancestor
// walk. Methods not needed are left to the nil embedded interface.
type chain struct {
	Volume
	cwd  CNID
	dirs map[CNID]link
}

type link struct {
	id     CNID
	parent CNID
	name   string
}

func newChain(cwd CNID, links ...link) *chain {
	c := &chain{cwd: cwd, dirs: make(map[CNID]link)}
	for _, l := range links {
		c.dirs[l.id] = l
	}
	return c
}

func (c *chain) Cwd() CNID {
	return c.cwd
}

func (c *chain) DirInfo(id CNID) (CNID, string, error) {
	if l, ok := c.dirs[id]; ok {
		return l.parent, l.name, nil
	}
	return 0, "", util.ErrNotFound
}

func (c *chain) Info() (*VolumeInfo, error) {
	return &VolumeInfo{Name: "MacHD"}, nil
}

func TestWorkingDirectoryPath(t *testing.T) {

	tests := []struct {
		name string
		vol  *chain
		want string
		err  error
	}{
		{
			name: "root",
			vol:  newChain(RootID),
			want: "",
		},
		{
			name: "nested",
			vol: newChain(20,
				link{16, RootID, "A"},
				link{17, 16, "B"},
				link{20, 17, "C"}),
			want: "A:B:C",
		},
		{
			name: "lookup failure",
			vol:  newChain(20, link{20, 17, "C"}),
			err:  util.ErrIO,
		},
		{
			name: "cycle",
			vol:  newChain(20, link{20, 21, "C"}, link{21, 20, "D"}),
			err:  util.ErrIO,
		},
		{
			name: "parent of root",
			vol:  newChain(20, link{20, RootParentID, "C"}),
			err:  util.ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WorkingDirectoryPath(tt.vol)
			if tt.err != nil {
				if !errors.Is(err, tt.err) || got != "" {
					t.Errorf("expected %v without path, got %q, %v", tt.err, got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got %q, %v, want %q", got, err, tt.want)
			}
		})
	}
}

func TestCurrentPath(t *testing.T) {

	got, err := CurrentPath(newChain(16, link{16, RootID, "FolderA"}))
	if err != nil || got != "MacHD:FolderA" {
		t.Errorf("got %q, %v", got, err)
	}

	got, err = CurrentPath(newChain(RootID))
	if err != nil || got != "MacHD:" {
		t.Errorf("got %q, %v", got, err)
	}
}
