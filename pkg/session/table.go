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

// Package session keeps track of the volumes a user has mounted, which of
// them is current, and the working directory within each. Every hfsctl
// command is its own process, so this state lives in a file between runs.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/util"
)

// RootDir is the working directory path of a volume's root.
const RootDir = ":"

// MountEntry is one remembered volume binding.
type MountEntry struct {
	VolumeName string
	// creation date of the volume, Unix seconds; together with the name it
	// identifies the volume
	Created    int64
	DevicePath string
	// 0 denotes the whole medium, without partition map
	Partition int
	// colon delimited path relative to the volume root, RootDir for the root
	WorkingDir string
}

// NewTable creates an empty table without current volume.
func NewTable() *Table {
	return &Table{current: -1}
}

// Table is the ordered set of mount entries, plus the index of the current
// one. It is owned by the process entry point and handed to the command that
// runs.
type Table struct {
	entries []*MountEntry
	current int
	dirty   bool
}

//
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns the entries in table order. The slice must not be modified.
func (t *Table) Entries() []*MountEntry {
	return t.entries
}

// Current returns the index of the current entry, -1 if there is none.
func (t *Table) Current() int {
	return t.current
}

// IsDirty reports whether the table diverges from what was loaded or last
// flushed.
func (t *Table) IsDirty() bool {
	return t.dirty
}

//
func (t *Table) resolve(ix int) int {
	if ix < 0 {
		return t.current
	}
	return ix
}

// Get returns the entry at index ix, or the current entry if ix is negative.
// It returns nil if there is no such entry.
func (t *Table) Get(ix int) *MountEntry {
	ix = t.resolve(ix)
	if ix < 0 || ix >= len(t.entries) {
		return nil
	}
	return t.entries[ix]
}

// Upsert registers a mounted volume and makes it current. An entry for the
// same device path & partition is updated in place, and its working directory
// reset to the root. A name or device path holding a tab or line break cannot
// be stored and yields ErrInvalid.
func (t *Table) Upsert(name string, created int64, devicePath string,
	partition int) (*MountEntry, error) {

	if err := checkFields(name, devicePath); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{
		"volume":    name,
		"device":    devicePath,
		"partition": partition,
	})

	for ix, e := range t.entries {
		if e.DevicePath == devicePath && e.Partition == partition {
			e.VolumeName = name
			e.Created = created
			e.WorkingDir = RootDir
			t.current = ix
			t.dirty = true
			logger.WithField("index", ix).Debug("updated mount entry")
			return e, nil
		}
	}

	e := &MountEntry{
		VolumeName: name,
		Created:    created,
		DevicePath: devicePath,
		Partition:  partition,
		WorkingDir: RootDir,
	}
	t.entries = append(t.entries, e)
	t.current = len(t.entries) - 1
	t.dirty = true
	logger.WithField("index", t.current).Debug("added mount entry")

	return e, nil
}

// Remove deletes the entry at index ix, or the current entry if ix is
// negative, keeping the current index pointed at the same entry as before, or
// at none if the current entry was removed.
func (t *Table) Remove(ix int) error {

	ix = t.resolve(ix)
	if ix < 0 || ix >= len(t.entries) {
		return fmt.Errorf("%w: no volume at index %d", util.ErrNotFound, ix)
	}

	copy(t.entries[ix:], t.entries[ix+1:])
	t.entries[len(t.entries)-1] = nil
	t.entries = t.entries[:len(t.entries)-1]

	if t.current > ix {
		t.current--
	} else if t.current == ix {
		t.current = -1
	}

	t.dirty = true
	log.WithFields(log.Fields{
		"index": ix, "current": t.current}).Debug("removed mount entry")

	return nil
}

// SetCurrent makes the entry at index ix current.
func (t *Table) SetCurrent(ix int) error {
	if ix < 0 || ix >= len(t.entries) {
		return fmt.Errorf("%w: no volume at index %d", util.ErrNotFound, ix)
	}
	if t.current != ix {
		t.current = ix
		t.dirty = true
	}
	return nil
}

// SetWorkingDirectory records path as the working directory of e. The path
// is absolute, i.e. the part up to the first colon is the volume name, which
// is stored as well. The remainder, starting with the colon, becomes the
// working directory. A path without colon denotes the root. Like Upsert, it
// rejects tabs and line breaks.
func (t *Table) SetWorkingDirectory(e *MountEntry, path string) error {

	if err := checkFields(path); err != nil {
		return err
	}

	name, cwd := path, RootDir
	if ix := strings.Index(path, ":"); ix > -1 {
		name, cwd = path[:ix], path[ix:]
	}

	e.VolumeName = name
	e.WorkingDir = cwd
	t.dirty = true

	log.WithFields(log.Fields{
		"volume": name, "cwd": cwd}).Debug("set working directory")

	return nil
}

// Find returns the index of the entry whose device is the file at
// pathOrName, or whose volume name matches pathOrName ignoring case. It
// returns -1 if there is no such entry.
func (t *Table) Find(pathOrName string) int {
	for ix, e := range t.entries {
		if samePath(pathOrName, e.DevicePath) ||
			strings.EqualFold(pathOrName, e.VolumeName) {
			return ix
		}
	}
	return -1
}

//
func samePath(a, b string) bool {

	if absA, err := filepath.Abs(a); err == nil {
		if absB, err := filepath.Abs(b); err == nil && absA == absB {
			return true
		}
	}

	infoA, err := os.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}
