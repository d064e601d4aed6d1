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

// Package volume defines the interface to an HFS volume engine, and the
// session level services built on top of it: re-binding a remembered volume,
// and reconstructing the working directory path.
package volume

import (
	"fmt"
	"io"
	"time"
)

// CNID is a catalog node identifier.
type CNID uint32

const (
	// RootParentID is the parent of the root directory, i.e. the sentinel at
	// which ancestor walks stop.
	RootParentID CNID = 1
	// RootID is the root directory of a volume.
	RootID CNID = 2
	// FirstUserID is the first identifier handed out for user nodes.
	FirstUserID CNID = 16
)

const (
	// MaxNameLen is the maximum length of a file or directory name, in
	// MacRoman bytes.
	MaxNameLen = 31
	// MaxVolumeNameLen is the maximum length of a volume name.
	MaxVolumeNameLen = 27
	// Separator separates path elements.
	Separator = ":"
)

// Finder flags
const (
	FinderIsOnDesk      uint16 = 1 << 0
	FinderColor         uint16 = 0x0e
	FinderHasNoInits    uint16 = 1 << 7
	FinderHasBeenInited uint16 = 1 << 8
	FinderReserved      uint16 = 1 << 9
	FinderHasCustomIcon uint16 = 1 << 10
	FinderIsStationery  uint16 = 1 << 11
	FinderNameLocked    uint16 = 1 << 12
	FinderHasBundle     uint16 = 1 << 13
	FinderIsInvisible   uint16 = 1 << 14
	FinderIsAlias       uint16 = 1 << 15
)

// FinderTransientFlags are cleared when a file is brought onto a volume.
const FinderTransientFlags = FinderIsOnDesk | FinderHasBeenInited | FinderReserved

// Mode selects how a volume is mounted.
type Mode int

const (
	ModeAny Mode = iota
	ModeReadOnly
	ModeReadWrite
)

//
func (m Mode) String() string {
	switch m {
	case ModeReadOnly:
		return "read-only"
	case ModeReadWrite:
		return "read-write"
	}
	return "any"
}

// Fork selects one of the two byte streams of a file.
type Fork int

const (
	DataFork Fork = iota
	ResourceFork
)

//
func (f Fork) String() string {
	if f == ResourceFork {
		return "resource"
	}
	return "data"
}

// DirEntry describes a file or directory in the catalog.
type DirEntry struct {
	Name     string
	CNID     CNID
	Parent   CNID
	Dir      bool
	Locked   bool
	Created  time.Time
	Modified time.Time
	// directories only
	Valence int
	// files only
	Type        string
	Creator     string
	FinderFlags uint16
	DataSize    uint32
	RsrcSize    uint32
}

// ForkSize returns the size of the selected fork.
func (e *DirEntry) ForkSize(f Fork) uint32 {
	if f == ResourceFork {
		return e.RsrcSize
	}
	return e.DataSize
}

//
func (e *DirEntry) String() string {
	if e.Dir {
		return fmt.Sprintf("%s [dir %d, %d items]", e.Name, e.CNID, e.Valence)
	}
	return fmt.Sprintf("%s [file %d, %s/%s, %d+%d]", e.Name, e.CNID,
		e.Type, e.Creator, e.DataSize, e.RsrcSize)
}

// VolumeInfo describes a mounted volume.
type VolumeInfo struct {
	Name       string
	Created    time.Time
	Modified   time.Time
	TotalBytes uint64
	FreeBytes  uint64
	Locked     bool
	Blessed    CNID
	Files      int
	Dirs       int
}

// Engine is the entry point to a volume implementation.
type Engine interface {
	// Mount opens the volume on partition of the medium at path.
	Mount(path string, partition int, mode Mode) (Volume, error)
	// Format creates an empty volume named name on partition of the medium
	// at path, replacing whatever was there.
	Format(path string, partition int, name string) error
	// Partitions returns the number of partitions on the medium at path, 0
	// if the medium has no partition map.
	Partitions(path string) (int, error)
}

// Volume is a mounted volume. Paths follow HFS conventions: elements are
// separated by colons, a leading colon or a bare name is relative to the
// current directory, a path with a colon elsewhere starts with the volume
// name, and each additional colon moves up one level.
type Volume interface {
	io.Closer
	//
	Info() (*VolumeInfo, error)
	SetInfo(vi *VolumeInfo) error
	ReadOnly() bool
	//
	Stat(path string) (*DirEntry, error)
	SetAttr(path string, e *DirEntry) error
	ReadDir(path string) ([]*DirEntry, error)
	//
	Chdir(path string) error
	Cwd() CNID
	SetCwd(id CNID) error
	// DirInfo returns the parent and name of directory id.
	DirInfo(id CNID) (CNID, string, error)
	//
	Open(path string) (File, error)
	Create(path, typ, creator string) (File, error)
	Delete(path string) error
	Mkdir(path string) error
	Rmdir(path string) error
	Rename(src, dst string) error
}

// File is an open file on a volume. Reads and writes go to the currently
// selected fork, which is the data fork after opening.
type File interface {
	io.ReadWriteCloser
	SetFork(f Fork) error
	Stat() (*DirEntry, error)
	SetAttr(e *DirEntry) error
}
