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
	"strings"

	"github.com/hfsctl/hfsctl/pkg/charset"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// textIn copies UTF-8 text with LF line endings into the data fork of a new
// file, as MacRoman with CR line endings.
func (e *Engine) textIn(in *source, dest string) error {

	hint := in.name
	if strings.HasSuffix(strings.ToLower(hint), ".txt") {
		hint = hint[:len(hint)-len(".txt")]
	}

	f, err := e.create(dest, hint, TextType, HostCreator)
	if err != nil {
		return err
	}

	enc := charset.NewEncoder(f)
	_, err = CopyChunks(&lineEndings{w: enc, from: '\n', to: '\r'}, in)
	if cerr := enc.Close(); err == nil && cerr != nil {
		err = classify(cerr, "error writing data")
	}

	return closeFile(f, err)
}

// textOut copies the data fork of f as UTF-8 text with LF line endings.
func textOut(f volume.File, out io.Writer) error {

	dec := charset.NewDecoder(out)
	_, err := CopyChunks(&lineEndings{w: dec, from: '\r', to: '\n'}, f)
	if cerr := dec.Close(); err == nil && cerr != nil {
		err = classify(cerr, "error writing data")
	}

	return err
}

// lineEndings replaces line end character from with to while writing to w.
// Both are ASCII, so this is safe within multi-byte sequences.
type lineEndings struct {
	w        io.Writer
	from, to byte
	buf      []byte
}

//
func (l *lineEndings) Write(p []byte) (int, error) {

	l.buf = append(l.buf[:0], p...)
	for ix, b := range l.buf {
		if b == l.from {
			l.buf[ix] = l.to
		}
	}

	return l.w.Write(l.buf)
}
