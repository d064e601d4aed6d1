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

// Package binhex implements the BinHex 4.0 encoding, a 7-bit text container
// for Macintosh files. Bytes are run-length compressed, then spread over a
// 64 character alphabet, with the stream framed by colons and wrapped into
// lines. Callers structure the stream into sections, each followed by a
// CRC-16 over its uncompressed bytes.
package binhex

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/hfsctl/hfsctl/pkg/util"
)

// Banner precedes the encoded data.
const Banner = "(This file must be converted with BinHex 4.0)"

const (
	alphabet = "!\"#$%&'()*+,-012345689@ABCDEFGHIJKLMNPQRSTUVXYZ[`abcdefhijklmpqr"
	// LineLength is the number of characters per line of encoded output.
	LineLength = 64
	// run-length marker
	runMarker = 0x90
	// longest run a marker can express
	maxRun = 255
)

var decodeTable [256]int8

//
func init() {
	for ix := range decodeTable {
		decodeTable[ix] = -1
	}
	for ix := 0; ix < len(alphabet); ix++ {
		decodeTable[alphabet[ix]] = int8(ix)
	}
}

// ----------------------------------------------------------------------------

// Writer encodes into BinHex. Bytes passed to Write are accumulated into the
// checksum of the current section, which WriteCRC appends and resets. Close
// must be called to complete the stream.
type Writer struct {
	out *bufio.Writer
	// run-length state
	last  int
	count int
	// 6-bit state
	acc   uint32
	nbits uint
	line  int
	crc   uint16
	err   error
}

// NewWriter writes the banner to w and starts the encoded stream.
func NewWriter(w io.Writer) (*Writer, error) {
	ret := &Writer{out: bufio.NewWriter(w), last: -1}
	ret.puts(Banner + "\n\n:")
	ret.line = 1
	return ret, ret.err
}

// Write inserts p into the stream.
func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.crc = util.UpdateCRC16(w.crc, p)
	for _, b := range p {
		w.compress(b)
	}
	return len(p), w.err
}

// WriteCRC inserts the checksum of everything written since the previous
// checksum.
func (w *Writer) WriteCRC() error {
	if w.err != nil {
		return w.err
	}
	crc := w.crc
	w.compress(byte(crc >> 8))
	w.compress(byte(crc))
	w.crc = 0
	return w.err
}

// Close flushes all pending output and writes the closing frame. It does not
// close the underlying writer.
func (w *Writer) Close() error {

	if w.err != nil {
		return w.err
	}

	w.flushRun()
	if w.nbits > 0 {
		w.putChar(alphabet[(w.acc<<(6-w.nbits))&0x3f])
		w.nbits = 0
	}
	w.putChar(':')
	w.puts("\n")

	if w.err == nil {
		if err := w.out.Flush(); err != nil {
			w.err = fmt.Errorf("%w: error writing data: %v", util.ErrIO, err)
		}
	}

	return w.err
}

//
func (w *Writer) compress(b byte) {
	if int(b) == w.last && w.count < maxRun {
		w.count++
		return
	}
	w.flushRun()
	w.last = int(b)
	w.count = 1
}

//
func (w *Writer) flushRun() {

	if w.last < 0 {
		return
	}

	w.literal(byte(w.last))

	switch {
	case w.count == 2:
		w.literal(byte(w.last))
	case w.count > 2:
		w.encode(runMarker)
		w.encode(byte(w.count))
	}

	w.last = -1
	w.count = 0
}

//
func (w *Writer) literal(b byte) {
	w.encode(b)
	if b == runMarker {
		w.encode(0)
	}
}

//
func (w *Writer) encode(b byte) {
	w.acc = w.acc<<8 | uint32(b)
	w.nbits += 8
	for w.nbits >= 6 {
		w.nbits -= 6
		w.putChar(alphabet[(w.acc>>w.nbits)&0x3f])
	}
	w.acc &= 1<<w.nbits - 1
}

//
func (w *Writer) putChar(c byte) {
	if w.line == LineLength {
		w.puts("\n")
		w.line = 0
	}
	if w.err == nil {
		if err := w.out.WriteByte(c); err != nil {
			w.err = fmt.Errorf("%w: error writing data: %v", util.ErrIO, err)
		}
	}
	w.line++
}

//
func (w *Writer) puts(s string) {
	if w.err == nil {
		if _, err := w.out.WriteString(s); err != nil {
			w.err = fmt.Errorf("%w: error writing data: %v", util.ErrIO, err)
		}
	}
}

// ----------------------------------------------------------------------------

// Reader decodes BinHex. Like Writer, it accumulates the checksum of the bytes
// read, which ReadCRC verifies against the stream.
type Reader struct {
	in *bufio.Reader
	// 6-bit state
	acc   uint32
	nbits uint
	done  bool
	// run-length state
	last   byte
	repeat int
	crc    uint16
}

// NewReader skips everything up to and including the banner and the opening
// colon of the encoded stream.
func NewReader(r io.Reader) (*Reader, error) {

	ret := &Reader{in: bufio.NewReader(r)}

	if err := ret.skipTo([]byte(Banner)); err != nil {
		return nil, err
	}
	if err := ret.skipTo([]byte{':'}); err != nil {
		return nil, err
	}

	return ret, nil
}

//
func (r *Reader) skipTo(marker []byte) error {

	matched := 0

	for matched < len(marker) {
		b, err := r.in.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: not a BinHex 4.0 file", util.ErrFormat)
			}
			return fmt.Errorf("%w: error reading data: %v", util.ErrIO, err)
		}
		switch {
		case b == marker[matched]:
			matched++
		case b == marker[0]:
			matched = 1
		default:
			matched = 0
		}
	}

	return nil
}

// Read fills p with decoded bytes. It returns io.EOF at the closing colon.
func (r *Reader) Read(p []byte) (int, error) {

	for n := range p {
		b, err := r.next()
		if err != nil {
			r.crc = util.UpdateCRC16(r.crc, p[:n])
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		p[n] = b
	}

	r.crc = util.UpdateCRC16(r.crc, p)
	return len(p), nil
}

// ReadCRC reads the checksum that follows a section and compares it against
// the bytes read since the previous checksum.
func (r *Reader) ReadCRC() error {

	var stored uint16
	for ix := 0; ix < 2; ix++ {
		b, err := r.next()
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("%w: truncated BinHex file", util.ErrFormat)
			}
			return err
		}
		stored = stored<<8 | uint16(b)
	}

	crc := r.crc
	r.crc = 0
	if stored != crc {
		return fmt.Errorf("%w: BinHex CRC mismatch", util.ErrFormat)
	}
	return nil
}

// next returns the next byte after run-length expansion.
func (r *Reader) next() (byte, error) {

	for {
		if r.repeat > 0 {
			r.repeat--
			return r.last, nil
		}

		b, err := r.decode()
		if err != nil {
			return 0, err
		}

		if b != runMarker {
			r.last = b
			return b, nil
		}

		n, err := r.decode()
		if err != nil {
			if err == io.EOF {
				return 0, fmt.Errorf("%w: truncated run in BinHex file",
					util.ErrFormat)
			}
			return 0, err
		}

		switch n {
		case 0:
			r.last = runMarker
			return runMarker, nil
		case 1:
			// a run of one adds nothing
		default:
			r.repeat = int(n) - 2
			return r.last, nil
		}
	}
}

// decode returns the next byte of the 6-bit layer.
func (r *Reader) decode() (byte, error) {

	for r.nbits < 8 {

		if r.done {
			return 0, io.EOF
		}

		c, err := r.in.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("%w: missing end of BinHex data",
					util.ErrFormat)
			}
			return 0, fmt.Errorf("%w: error reading data: %v", util.ErrIO, err)
		}

		switch c {
		case ':':
			r.done = true
			continue
		case '\n', '\r', '\t', ' ':
			continue
		}

		v := decodeTable[c]
		if v < 0 {
			return 0, fmt.Errorf("%w: invalid character %q in BinHex data",
				util.ErrFormat, c)
		}

		r.acc = r.acc<<6 | uint32(v)
		r.nbits += 6
	}

	r.nbits -= 8
	b := byte(r.acc >> r.nbits)
	r.acc &= 1<<r.nbits - 1
	return b, nil
}
