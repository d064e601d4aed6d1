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
	"io"

	"github.com/hfsctl/hfsctl/pkg/macbinary"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// macBinaryIn decodes a MacBinary II stream onto the volume. The header is
// validated before the destination is touched. Metadata is set only after
// both forks were written completely.
func (e *Engine) macBinaryIn(in io.Reader, dest string) error {

	r, err := macbinary.NewReader(in)
	if err != nil {
		return err
	}
	h := r.Header()

	f, err := e.create(dest, h.Name, h.Type, h.Creator)
	if err != nil {
		return err
	}

	for _, fork := range []struct {
		fork volume.Fork
		size uint32
	}{{volume.DataFork, h.DataSize}, {volume.ResourceFork, h.RsrcSize}} {
		if err = f.SetFork(fork.fork); err != nil {
			return closeFile(f, err)
		}
		if err = r.ReadFork(f, fork.size); err != nil {
			return closeFile(f, err)
		}
	}

	err = updateAttr(f, func(ent *volume.DirEntry) {
		ent.FinderFlags = h.FinderFlags &^ volume.FinderTransientFlags
		ent.Created = h.Created
		ent.Modified = h.Modified
	})

	return closeFile(f, err)
}

// macBinaryOut encodes file f described by ent into a MacBinary II stream.
func macBinaryOut(f volume.File, ent *volume.DirEntry, out io.Writer) error {

	w := macbinary.NewWriter(out)

	if err := w.WriteHeader(&macbinary.Header{
		Name:        ent.Name,
		Type:        ent.Type,
		Creator:     ent.Creator,
		FinderFlags: ent.FinderFlags,
		DataSize:    ent.DataSize,
		RsrcSize:    ent.RsrcSize,
		Created:     ent.Created,
		Modified:    ent.Modified,
	}); err != nil {
		return err
	}

	for _, fork := range []volume.Fork{volume.DataFork, volume.ResourceFork} {
		if err := f.SetFork(fork); err != nil {
			return err
		}
		if err := w.WriteFork(f, ent.ForkSize(fork)); err != nil {
			return err
		}
	}

	return nil
}
