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

// Package charset translates between Unicode (UTF-8) and the Macintosh Roman
// character set used for names and text on HFS volumes.
package charset

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/hfsctl/hfsctl/pkg/util"
)

// Replacement is substituted for runes that have no MacRoman representation.
const Replacement = '?'

//
func encoder() *encoding.Encoder {
	return encoding.ReplaceUnsupported(charmap.Macintosh.NewEncoder())
}

// Encode converts s into MacRoman. Runes that cannot be represented are
// replaced by Replacement.
func Encode(s string) ([]byte, error) {
	b, _, err := transform.Bytes(encoder(), []byte(norm.NFC.String(s)))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot encode %q: %v", util.ErrFormat, s, err)
	}
	return b, nil
}

// Decode converts MacRoman bytes into a UTF-8 string. Every byte value has a
// mapping, so this cannot fail.
func Decode(b []byte) string {
	s, _, err := transform.Bytes(charmap.Macintosh.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

// Len returns the length of s in MacRoman bytes.
func Len(s string) int {
	if b, err := Encode(s); err == nil {
		return len(b)
	}
	return len(s)
}

// Truncate shortens s so that its MacRoman form is at most max bytes long.
func Truncate(s string, max int) string {
	b, err := Encode(s)
	if err != nil || len(b) <= max {
		return s
	}
	return Decode(b[:max])
}

// Normalize returns the form in which two names are compared for identity: NFC
// composed, then mapped to MacRoman.
func Normalize(s string) []byte {
	if b, err := Encode(s); err == nil {
		return b
	}
	return []byte(norm.NFC.String(s))
}

// Equal reports whether a and b denote the same name on an HFS volume.
func Equal(a, b string) bool {
	return bytes.Equal(Normalize(a), Normalize(b))
}

// NewEncoder returns a writer that converts UTF-8 written to it into MacRoman
// written to w. A multi-byte sequence split across Write calls is held back
// until it is complete, so callers may write arbitrary chunks. Close must be
// called to flush the remainder.
func NewEncoder(w io.Writer) io.WriteCloser {
	return transform.NewWriter(w, encoder())
}

// NewDecoder returns a writer that converts MacRoman written to it into UTF-8
// written to w.
func NewDecoder(w io.Writer) io.WriteCloser {
	return transform.NewWriter(w, charmap.Macintosh.NewDecoder())
}

// Code returns the four byte form of a type or creator code, padded with
// blanks.
func Code(s string) []byte {
	ret := []byte{' ', ' ', ' ', ' '}
	b, err := Encode(s)
	if err != nil {
		b = []byte(s)
	}
	copy(ret, b)
	return ret
}
