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

package transfer

import (
	"fmt"
	"io"

	"github.com/hfsctl/hfsctl/pkg/binhex"
	"github.com/hfsctl/hfsctl/pkg/charset"
	"github.com/hfsctl/hfsctl/pkg/macbinary"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// layout of the BinHex pre-header following the file name
var binHexIndex = map[string][2]int{
	"type":     {0, 4},
	"creator":  {4, 4},
	"flags":    {8, 2},
	"dataSize": {10, 4},
	"rsrcSize": {14, 4},
}

const binHexInfoLength = 18

// Finder flags cleared when a file is brought in from BinHex
const binHexClearedFlags = volume.FinderIsOnDesk | volume.FinderHasBeenInited |
	volume.FinderIsInvisible

// binHexHeader is the pre-header of a BinHex stream.
type binHexHeader struct {
	name     string
	typ      string
	creator  string
	flags    uint16
	dataSize uint32
	rsrcSize uint32
}

// binHexIn decodes a BinHex stream onto the volume.
func (e *Engine) binHexIn(in io.Reader, dest string) error {

	r, err := binhex.NewReader(in)
	if err != nil {
		return err
	}

	h, err := readBinHexHeader(r)
	if err != nil {
		return err
	}

	f, err := e.create(dest, h.name, h.typ, h.creator)
	if err != nil {
		return err
	}

	for _, fork := range []struct {
		fork volume.Fork
		size uint32
	}{{volume.DataFork, h.dataSize}, {volume.ResourceFork, h.rsrcSize}} {
		if err = f.SetFork(fork.fork); err != nil {
			return closeFile(f, err)
		}
		if err = readBinHexFork(r, f, fork.size); err != nil {
			return closeFile(f, err)
		}
	}

	err = updateAttr(f, func(ent *volume.DirEntry) {
		ent.FinderFlags = h.flags &^ binHexClearedFlags
	})

	return closeFile(f, err)
}

//
func readBinHexHeader(r *binhex.Reader) (*binHexHeader, error) {

	var l [1]byte
	if err := readFull(r, l[:]); err != nil {
		return nil, err
	}

	n := int(l[0])
	if n < 1 || n > volume.MaxNameLen {
		return nil, fmt.Errorf(
			"%w: invalid BinHex file header (bad file name)", util.ErrFormat)
	}

	name := make([]byte, n+1)
	if err := readFull(r, name); err != nil {
		return nil, err
	}
	if name[n] != 0 {
		return nil, fmt.Errorf(
			"%w: invalid BinHex file header (bad file name)", util.ErrFormat)
	}

	b := util.NewBlock(binHexIndex, make([]byte, binHexInfoLength))
	if err := readFull(r, b.Data); err != nil {
		return nil, err
	}

	h := &binHexHeader{
		name:     charset.Decode(name[:n]),
		typ:      charset.Decode(b.GetSlice("type")),
		creator:  charset.Decode(b.GetSlice("creator")),
		flags:    uint16(b.GetUint32("flags")),
		dataSize: b.GetUint32("dataSize"),
		rsrcSize: b.GetUint32("rsrcSize"),
	}

	if h.dataSize > macbinary.MaxForkSize || h.rsrcSize > macbinary.MaxForkSize {
		return nil, fmt.Errorf(
			"%w: invalid BinHex file header (bad file length)", util.ErrFormat)
	}

	if err := r.ReadCRC(); err != nil {
		return nil, err
	}

	return h, nil
}

// readBinHexFork copies size bytes of a fork and checks the fork's CRC.
func readBinHexFork(r *binhex.Reader, w io.Writer, size uint32) error {

	buf := make([]byte, ChunkSize)

	for remaining := int(size); remaining > 0; {
		chunk := buf
		if remaining < len(chunk) {
			chunk = chunk[:remaining]
		}
		if err := readFull(r, chunk); err != nil {
			return err
		}
		n, err := w.Write(chunk)
		if err != nil {
			return err
		}
		if n != len(chunk) {
			return fmt.Errorf("%w: wrote incomplete chunk", util.ErrIO)
		}
		remaining -= n
	}

	return r.ReadCRC()
}

// binHexOut encodes file f described by ent into a BinHex stream.
func binHexOut(f volume.File, ent *volume.DirEntry, out io.Writer) error {

	w, err := binhex.NewWriter(out)
	if err != nil {
		return err
	}

	err = writeBinHex(w, f, ent)
	if cerr := w.Close(); err == nil {
		err = cerr
	}

	return err
}

//
func writeBinHex(w *binhex.Writer, f volume.File, ent *volume.DirEntry) error {

	name, err := charset.Encode(ent.Name)
	if err != nil {
		return err
	}

	b := util.NewBlock(binHexIndex, make([]byte, binHexInfoLength))
	b.SetBytes("type", charset.Code(ent.Type))
	b.SetBytes("creator", charset.Code(ent.Creator))
	b.SetUint32("flags", uint32(ent.FinderFlags))
	b.SetUint32("dataSize", ent.DataSize)
	b.SetUint32("rsrcSize", ent.RsrcSize)

	head := append([]byte{byte(len(name))}, name...)
	head = append(head, 0)
	head = append(head, b.Data...)

	if _, err := w.Write(head); err != nil {
		return err
	}
	if err := w.WriteCRC(); err != nil {
		return err
	}

	for _, fork := range []volume.Fork{volume.DataFork, volume.ResourceFork} {
		if err := f.SetFork(fork); err != nil {
			return err
		}
		n, err := CopyChunks(w, f)
		if err != nil {
			return err
		}
		if n != int64(ent.ForkSize(fork)) {
			return fmt.Errorf("%w: inconsistent fork length", util.ErrIO)
		}
		if err := w.WriteCRC(); err != nil {
			return err
		}
	}

	return nil
}
