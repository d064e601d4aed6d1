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

	"github.com/hfsctl/hfsctl/pkg/volume"
)

// rawIn copies in to the data fork of a new file.
func (e *Engine) rawIn(in *source, dest string) error {

	f, err := e.create(dest, in.name, RawType, HostCreator)
	if err != nil {
		return err
	}

	_, err = CopyChunks(f, in)
	return closeFile(f, err)
}

// rawOut copies the data fork of f.
func rawOut(f volume.File, out io.Writer) error {
	_, err := CopyChunks(out, f)
	return err
}
