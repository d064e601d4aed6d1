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

package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/hfsctl/hfsctl/pkg/charset"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// BlockSize is the allocation block size. Fork sizes are rounded up to whole
// blocks when accounting for free space.
const BlockSize = 512

//
func blocks(size int) uint32 {
	return uint32((size + BlockSize - 1) / BlockSize)
}

// layout of the volume header record
var headerIndex = map[string][2]int{
	"nameLen":  {0, 1},
	"name":     {1, volume.MaxVolumeNameLen},
	"created":  {28, 4},
	"modified": {32, 4},
	"nextID":   {36, 4},
	"blessed":  {40, 4},
	"attrib":   {44, 1},
	"blocks":   {45, 4},
	"used":     {49, 4},
	"files":    {53, 4},
	"dirs":     {57, 4},
}

const headerLength = 61

// volume attribute bits
const (
	attribLocked = 1 << 0
)

//
func newHeader(data []byte) (*util.Block, error) {
	if len(data) != headerLength {
		return nil, fmt.Errorf("%w: invalid volume header length %d",
			util.ErrFormat, len(data))
	}
	return util.NewBlock(headerIndex, data), nil
}

// layout of a catalog record
var recordIndex = map[string][2]int{
	"kind":     {0, 1},
	"attrib":   {1, 1},
	"id":       {2, 4},
	"parent":   {6, 4},
	"created":  {10, 4},
	"modified": {14, 4},
	"valence":  {18, 4},
	"type":     {22, 4},
	"creator":  {26, 4},
	"finder":   {30, 2},
	"dsize":    {32, 4},
	"rsize":    {36, 4},
	"nameLen":  {40, 1},
	"name":     {41, volume.MaxNameLen},
}

const recordLength = 72

// record kinds
const (
	kindDir  = 'd'
	kindFile = 'f'
)

// record attribute bits
const (
	recordLocked = 1 << 0
)

// record is the decoded form of a catalog record.
type record struct {
	dir      bool
	locked   bool
	id       volume.CNID
	parent   volume.CNID
	name     string
	created  uint32
	modified uint32
	valence  uint32
	typ      [4]byte
	creator  [4]byte
	finder   uint16
	dsize    uint32
	rsize    uint32
}

//
func decodeRecord(data []byte) (*record, error) {

	if len(data) != recordLength {
		return nil, fmt.Errorf("%w: invalid catalog record length %d",
			util.ErrFormat, len(data))
	}

	b := util.NewBlock(recordIndex, data)

	r := &record{
		id:       volume.CNID(b.GetUint32("id")),
		parent:   volume.CNID(b.GetUint32("parent")),
		created:  b.GetUint32("created"),
		modified: b.GetUint32("modified"),
		valence:  b.GetUint32("valence"),
		finder:   uint16(b.GetUint32("finder")),
		dsize:    b.GetUint32("dsize"),
		rsize:    b.GetUint32("rsize"),
		locked:   b.GetByte("attrib")&recordLocked != 0,
	}

	switch b.GetByte("kind") {
	case kindDir:
		r.dir = true
	case kindFile:
	default:
		return nil, fmt.Errorf("%w: invalid catalog record kind %d",
			util.ErrFormat, b.GetByte("kind"))
	}

	l := b.GetInt("nameLen")
	if l < 1 || l > volume.MaxNameLen {
		return nil, fmt.Errorf("%w: invalid name length %d in catalog record",
			util.ErrFormat, l)
	}
	r.name = charset.Decode(b.GetSlice("name")[:l])
	copy(r.typ[:], b.GetSlice("type"))
	copy(r.creator[:], b.GetSlice("creator"))

	return r, nil
}

//
func (r *record) encode() ([]byte, error) {

	name, err := charset.Encode(r.name)
	if err != nil {
		return nil, err
	}

	b := util.NewBlock(recordIndex, make([]byte, recordLength))

	kind := byte(kindFile)
	if r.dir {
		kind = kindDir
	}
	b.SetByte("kind", kind)

	var attrib byte
	if r.locked {
		attrib |= recordLocked
	}
	b.SetByte("attrib", attrib)

	b.SetUint32("id", uint32(r.id))
	b.SetUint32("parent", uint32(r.parent))
	b.SetUint32("created", r.created)
	b.SetUint32("modified", r.modified)
	b.SetUint32("valence", r.valence)
	b.SetBytes("type", r.typ[:])
	b.SetBytes("creator", r.creator[:])
	b.SetUint32("finder", uint32(r.finder))
	b.SetUint32("dsize", r.dsize)
	b.SetUint32("rsize", r.rsize)
	b.SetByte("nameLen", byte(len(name)))
	if err := b.SetBytes("name", name); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalid, err)
	}

	return b.Data, nil
}

//
func (r *record) entry() *volume.DirEntry {

	e := &volume.DirEntry{
		Name:     r.name,
		CNID:     r.id,
		Parent:   r.parent,
		Dir:      r.dir,
		Locked:   r.locked,
		Created:  util.FromMacTime(r.created),
		Modified: util.FromMacTime(r.modified),
	}

	if r.dir {
		e.Valence = int(r.valence)
	} else {
		e.Type = charset.Decode(r.typ[:])
		e.Creator = charset.Decode(r.creator[:])
		e.FinderFlags = r.finder
		e.DataSize = r.dsize
		e.RsrcSize = r.rsize
	}

	return e
}

// apply copies the modifiable attributes of e into r. Zero dates and empty
// type or creator codes leave the respective attribute unchanged.
func (r *record) apply(e *volume.DirEntry) {

	r.locked = e.Locked

	if !e.Created.IsZero() {
		r.created = util.ToMacTime(e.Created)
	}
	if !e.Modified.IsZero() {
		r.modified = util.ToMacTime(e.Modified)
	}

	if r.dir {
		return
	}

	if e.Type != "" {
		copy(r.typ[:], charset.Code(e.Type))
	}
	if e.Creator != "" {
		copy(r.creator[:], charset.Code(e.Creator))
	}
	r.finder = e.FinderFlags
}

// layout of a thread record
var threadIndex = map[string][2]int{
	"parent":  {0, 4},
	"nameLen": {4, 1},
	"name":    {5, volume.MaxNameLen},
}

const threadLength = 36

//
func encodeThread(parent volume.CNID, name string) ([]byte, error) {

	n, err := charset.Encode(name)
	if err != nil {
		return nil, err
	}

	b := util.NewBlock(threadIndex, make([]byte, threadLength))
	b.SetUint32("parent", uint32(parent))
	b.SetByte("nameLen", byte(len(n)))
	if err := b.SetBytes("name", n); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalid, err)
	}

	return b.Data, nil
}

//
func decodeThread(data []byte) (volume.CNID, string, error) {

	if len(data) != threadLength {
		return 0, "", fmt.Errorf("%w: invalid thread record length %d",
			util.ErrFormat, len(data))
	}

	b := util.NewBlock(threadIndex, data)
	l := b.GetInt("nameLen")
	if l < 1 || l > volume.MaxNameLen {
		return 0, "", fmt.Errorf("%w: invalid name length %d in thread record",
			util.ErrFormat, l)
	}

	return volume.CNID(b.GetUint32("parent")),
		charset.Decode(b.GetSlice("name")[:l]), nil
}

// validName checks that name can be stored in a catalog record.
func validName(name string, max int) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", util.ErrInvalid)
	case strings.ContainsRune(name, ':'):
		return fmt.Errorf("%w: name %q contains a colon", util.ErrInvalid, name)
	case charset.Len(name) > max:
		return fmt.Errorf("%w: name %q too long", util.ErrInvalid, name)
	}
	return nil
}

//
func now() uint32 {
	return util.ToMacTime(time.Now())
}
