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

package index

import (
	"errors"
	"reflect"
	"testing"

	"github.com/hfsctl/hfsctl/pkg/catalog"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func setup(t *testing.T) *Index {

	t.Helper()

	eng := catalog.NewMemoryEngine()
	if err := eng.Format("/disk.img", 0, "Disk"); err != nil {
		t.Fatal(err)
	}
	v, err := eng.Mount("/disk.img", 0, volume.ModeReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	if err := v.Mkdir("System Folder"); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"Read Me", ":System Folder:Finder"} {
		f, err := v.Create(p, "TEXT", "ttxt")
		if err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	i, err := Build(v)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { i.Close() })

	return i
}

func TestSearch(t *testing.T) {

	i := setup(t)

	if i.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", i.Len())
	}

	tests := []struct {
		term string
		want []string
	}{
		{term: "finder", want: []string{"Disk:System Folder:Finder"}},
		{term: "SYSTEM", want: []string{"Disk:System Folder"}},
		{term: "+kind:folder", want: []string{"Disk:System Folder"}},
		{term: "nothing", want: []string{}},
	}

	for _, tt := range tests {
		res, err := i.Search(tt.term, 10)
		if err != nil {
			t.Fatalf("%s: %v", tt.term, err)
		}
		if !reflect.DeepEqual(res.Hits, tt.want) || !res.Complete {
			t.Errorf("%s: unexpected result %+v", tt.term, res)
		}
	}
}

func TestSearchLimit(t *testing.T) {

	i := setup(t)

	res, err := i.Search("kind:file", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Hits) != 1 || res.Complete || res.Total != 2 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSearchInvalid(t *testing.T) {

	i := setup(t)

	for _, term := range []string{"", "  "} {
		if _, err := i.Search(term, 10); !errors.Is(err, util.ErrInvalid) {
			t.Errorf("%q: expected ErrInvalid, got %v", term, err)
		}
	}
	if _, err := i.Search("finder", 0); !errors.Is(err, util.ErrInvalid) {
		t.Errorf("expected ErrInvalid for zero limit, got %v", err)
	}
}
