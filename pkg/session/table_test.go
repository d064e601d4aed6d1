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

package session

import (
	"errors"
	"testing"

	"github.com/hfsctl/hfsctl/pkg/util"
)

func TestUpsertAppendsAndUpdates(t *testing.T) {

	tab := NewTable()

	a, _ := tab.Upsert("MacHD", 100, "/images/disk.img", 0)
	tab.Upsert("Games", 200, "/images/games.img", 0)

	if tab.Len() != 2 || tab.Current() != 1 {
		t.Fatalf("expected 2 entries with current 1, got %d/%d",
			tab.Len(), tab.Current())
	}

	tab.SetWorkingDirectory(a, "MacHD:FolderA")
	b, _ := tab.Upsert("Renamed", 300, "/images/disk.img", 0)

	if b != a {
		t.Error("expected update in place for same device & partition")
	}
	if tab.Len() != 2 {
		t.Errorf("expected no new entry, got %d", tab.Len())
	}
	if tab.Current() != 0 {
		t.Errorf("expected updated entry to become current, got %d", tab.Current())
	}
	if a.VolumeName != "Renamed" || a.Created != 300 || a.WorkingDir != RootDir {
		t.Errorf("entry not refreshed: %+v", a)
	}

	tab.Upsert("Other", 1, "/images/disk.img", 2)
	if tab.Len() != 3 {
		t.Errorf("different partition must create new entry, got %d", tab.Len())
	}
}

func TestRemoveAdjustsCurrent(t *testing.T) {

	tests := []struct {
		name    string
		current int
		remove  int
		want    int
	}{
		{name: "before current", current: 2, remove: 0, want: 1},
		{name: "current", current: 1, remove: 1, want: -1},
		{name: "current by negative index", current: 1, remove: -1, want: -1},
		{name: "after current", current: 0, remove: 2, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := NewTable()
			tab.Upsert("A", 1, "/a", 0)
			tab.Upsert("B", 2, "/b", 0)
			tab.Upsert("C", 3, "/c", 0)
			if err := tab.SetCurrent(tt.current); err != nil {
				t.Fatal(err)
			}
			if err := tab.Remove(tt.remove); err != nil {
				t.Fatal(err)
			}
			if tab.Current() != tt.want {
				t.Errorf("expected current %d, got %d", tt.want, tab.Current())
			}
			if tab.Len() != 2 {
				t.Errorf("expected 2 entries, got %d", tab.Len())
			}
		})
	}
}

func TestRemoveErrors(t *testing.T) {

	tab := NewTable()
	if err := tab.Remove(-1); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound without current volume, got %v", err)
	}

	tab.Upsert("A", 1, "/a", 0)
	if err := tab.Remove(5); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound for bad index, got %v", err)
	}
}

func TestGetWithoutCurrent(t *testing.T) {
	tab := NewTable()
	if e := tab.Get(-1); e != nil {
		t.Errorf("expected no entry, got %+v", e)
	}
	tab.Upsert("A", 1, "/a", 0)
	tab.Remove(-1)
	if e := tab.Get(-1); e != nil {
		t.Errorf("expected no entry after removing current, got %+v", e)
	}
	if e := tab.Get(7); e != nil {
		t.Errorf("expected no entry for bad index, got %+v", e)
	}
}

func TestSetWorkingDirectory(t *testing.T) {

	tests := []struct {
		name     string
		path     string
		wantName string
		wantCwd  string
	}{
		{name: "root", path: "MacHD:", wantName: "MacHD", wantCwd: ":"},
		{name: "folder", path: "MacHD:FolderA", wantName: "MacHD", wantCwd: ":FolderA"},
		{name: "nested", path: "MacHD:A:B", wantName: "MacHD", wantCwd: ":A:B"},
		{name: "no colon", path: "MacHD", wantName: "MacHD", wantCwd: ":"},
		{name: "resync name", path: "NewName:X", wantName: "NewName", wantCwd: ":X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := NewTable()
			e, _ := tab.Upsert("MacHD", 1, "/a", 0)
			tab.dirty = false
			tab.SetWorkingDirectory(e, tt.path)
			if e.VolumeName != tt.wantName || e.WorkingDir != tt.wantCwd {
				t.Errorf("got %q/%q, want %q/%q",
					e.VolumeName, e.WorkingDir, tt.wantName, tt.wantCwd)
			}
			if !tab.IsDirty() {
				t.Error("expected table to be dirty")
			}
		})
	}
}

func TestSetCurrent(t *testing.T) {
	tab := NewTable()
	tab.Upsert("A", 1, "/a", 0)
	tab.Upsert("B", 2, "/b", 0)
	tab.dirty = false

	if err := tab.SetCurrent(1); err != nil {
		t.Fatal(err)
	}
	if tab.IsDirty() {
		t.Error("selecting the current entry again must not dirty the table")
	}
	if err := tab.SetCurrent(0); err != nil || !tab.IsDirty() {
		t.Errorf("expected dirty table after switching, err: %v", err)
	}
	if err := tab.SetCurrent(2); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFind(t *testing.T) {
	tab := NewTable()
	tab.Upsert("MacHD", 1, "/images/disk.img", 0)
	tab.Upsert("Games", 2, "/images/games.img", 0)

	if ix := tab.Find("games"); ix != 1 {
		t.Errorf("expected case insensitive name match, got %d", ix)
	}
	if ix := tab.Find("/images/disk.img"); ix != 0 {
		t.Errorf("expected path match, got %d", ix)
	}
	if ix := tab.Find("nope"); ix != -1 {
		t.Errorf("expected no match, got %d", ix)
	}
}

func TestFieldBreakersRejected(t *testing.T) {

	tests := []struct {
		name   string
		volume string
		device string
	}{
		{name: "tab in volume name", volume: "Mac\tHD", device: "/images/disk.img"},
		{name: "newline in device", volume: "MacHD", device: "/images/disk\n.img"},
		{name: "carriage return", volume: "MacHD\r", device: "/images/disk.img"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := NewTable()
			e, err := tab.Upsert(tt.volume, 1, tt.device, 0)
			if !errors.Is(err, util.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
			if e != nil || tab.Len() != 0 || tab.IsDirty() {
				t.Errorf("table changed: %d entries, dirty %v", tab.Len(), tab.IsDirty())
			}
		})
	}

	tab := NewTable()
	e, err := tab.Upsert("MacHD", 1, "/a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := tab.SetWorkingDirectory(e, "MacHD:Two\nLines"); !errors.Is(err, util.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if e.WorkingDir != RootDir {
		t.Errorf("working directory changed to %q", e.WorkingDir)
	}
}
