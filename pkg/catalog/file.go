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
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// file is an open file. Fork contents are loaded on first access and kept in
// memory. Changed forks are written back to the store on Close.
type file struct {
	vol    *vol
	rec    *record
	fork   volume.Fork
	forks  [2][]byte
	loaded [2]bool
	dirty  [2]bool
	pos    int
	// set when modification date was given explicitly
	keepModified bool
	closed       bool
}

//
func newFile(v *vol, r *record) *file {
	return &file{vol: v, rec: r}
}

//
func (f *file) check() error {
	if f.closed {
		return fmt.Errorf("%w: file is closed", util.ErrIO)
	}
	return f.vol.check()
}

//
func (f *file) load() ([]byte, error) {

	ix := int(f.fork)
	if !f.loaded[ix] {
		data, err := f.vol.store.Get(forkKey(f.fork, f.rec.id))
		if err != nil {
			return nil, err
		}
		f.forks[ix] = data
		f.loaded[ix] = true
	}

	return f.forks[ix], nil
}

// SetFork selects the fork to read from and write to, and rewinds.
func (f *file) SetFork(fork volume.Fork) error {
	if err := f.check(); err != nil {
		return err
	}
	f.fork = fork
	f.pos = 0
	return nil
}

//
func (f *file) Read(p []byte) (int, error) {

	if err := f.check(); err != nil {
		return 0, err
	}

	data, err := f.load()
	if err != nil {
		return 0, err
	}

	if f.pos >= len(data) {
		return 0, io.EOF
	}

	n := copy(p, data[f.pos:])
	f.pos += n
	return n, nil
}

//
func (f *file) Write(p []byte) (int, error) {

	if err := f.check(); err != nil {
		return 0, err
	}
	if err := f.vol.writable(); err != nil {
		return 0, err
	}
	if f.rec.locked {
		return 0, util.ErrLocked
	}

	data, err := f.load()
	if err != nil {
		return 0, err
	}

	end := f.pos + len(p)
	if end > len(data) {
		if err := f.reserve(end); err != nil {
			return 0, err
		}
		data = append(data, make([]byte, end-len(data))...)
	}

	copy(data[f.pos:], p)
	f.pos = end

	ix := int(f.fork)
	f.forks[ix] = data
	f.dirty[ix] = true

	return len(p), nil
}

// reserve checks that growing the current fork to size bytes fits onto the
// volume, taking into account pending growth of the other fork.
func (f *file) reserve(size int) error {

	var pending int64

	for ix, stored := range []uint32{f.rec.dsize, f.rec.rsize} {
		n := int(stored)
		if ix == int(f.fork) {
			n = size
		} else if f.dirty[ix] {
			n = len(f.forks[ix])
		}
		pending += int64(blocks(n)) - int64(blocks(int(stored)))
	}

	if pending > f.vol.freeBlocks() {
		return util.ErrVolumeFull
	}
	return nil
}

//
func (f *file) Stat() (*volume.DirEntry, error) {

	if err := f.check(); err != nil {
		return nil, err
	}

	e := f.rec.entry()
	if f.dirty[volume.DataFork] {
		e.DataSize = uint32(len(f.forks[volume.DataFork]))
	}
	if f.dirty[volume.ResourceFork] {
		e.RsrcSize = uint32(len(f.forks[volume.ResourceFork]))
	}

	return e, nil
}

//
func (f *file) SetAttr(e *volume.DirEntry) error {

	if err := f.check(); err != nil {
		return err
	}
	if err := f.vol.writable(); err != nil {
		return err
	}

	f.rec.apply(e)
	if !e.Modified.IsZero() {
		f.keepModified = true
	}

	if err := f.vol.putRecord(f.rec); err != nil {
		return err
	}

	f.vol.touch()
	return nil
}

// Close writes back changed forks and updates size and modification date of
// the file.
func (f *file) Close() error {

	if f.closed {
		return nil
	}
	f.closed = true

	if !f.dirty[volume.DataFork] && !f.dirty[volume.ResourceFork] {
		return nil
	}

	if err := f.vol.check(); err != nil {
		return err
	}

	for ix, size := range []*uint32{&f.rec.dsize, &f.rec.rsize} {

		if !f.dirty[ix] {
			continue
		}

		data := f.forks[ix]
		if err := f.vol.store.Put(forkKey(volume.Fork(ix), f.rec.id),
			data); err != nil {
			return err
		}

		f.vol.count("used", int(blocks(len(data)))-int(blocks(int(*size))))
		*size = uint32(len(data))
	}

	if !f.keepModified {
		f.rec.modified = now()
	}

	if err := f.vol.putRecord(f.rec); err != nil {
		return err
	}
	f.vol.touch()

	log.WithFields(log.Fields{
		"name":     f.rec.name,
		"data":     f.rec.dsize,
		"resource": f.rec.rsize,
	}).Debug("file closed")

	return nil
}
