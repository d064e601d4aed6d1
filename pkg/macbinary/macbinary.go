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

// Package macbinary reads and writes MacBinary II, the container format that
// carries both forks and the Finder metadata of a Macintosh file in a single
// byte stream: a 128 byte header, followed by data fork and resource fork,
// each padded with zeros to a multiple of 128 bytes.
package macbinary

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hfsctl/hfsctl/pkg/charset"
	"github.com/hfsctl/hfsctl/pkg/util"
)

const (
	// HeaderLength is the length of the header, and the unit forks are
	// padded to.
	HeaderLength = 128
	// Version is the MacBinary II version number written to, and the
	// highest minimum version accepted from a header.
	Version = 129
	// MaxNameLen is the maximum length of the file name in the header. The
	// name field spans 63 bytes, but a zero byte must follow the name.
	MaxNameLen = 62
	// MaxForkSize is the largest fork size a header may declare.
	MaxForkSize = 0x7fffffff
	// ChunkSize is the unit in which fork contents are moved.
	ChunkSize = 2048
)

// the header layout; fields not listed are reserved
var headerIndex = map[string][2]int{
	"zero":       {0, 1},
	"nameLen":    {1, 1},
	"name":       {2, MaxNameLen},
	"type":       {65, 4},
	"creator":    {69, 4},
	"flagsHigh":  {73, 1},
	"zero2":      {74, 1},
	"dataSize":   {83, 4},
	"rsrcSize":   {87, 4},
	"created":    {91, 4},
	"modified":   {95, 4},
	"flagsLow":   {101, 1},
	"version":    {122, 1},
	"minVersion": {123, 1},
	"crc":        {124, 2},
	"checked":    {0, 124},
}

// Header holds the metadata of a MacBinary file.
type Header struct {
	Name        string
	Type        string
	Creator     string
	FinderFlags uint16
	DataSize    uint32
	RsrcSize    uint32
	Created     time.Time
	Modified    time.Time
}

// Encode renders the header into its 128 byte form, including checksum.
func (h *Header) Encode() ([]byte, error) {

	name, err := charset.Encode(h.Name)
	if err != nil {
		return nil, err
	}
	if len(name) < 1 || len(name) > MaxNameLen {
		return nil, fmt.Errorf("%w: invalid file name length %d for %q",
			util.ErrInvalid, len(name), h.Name)
	}
	if h.DataSize > MaxForkSize || h.RsrcSize > MaxForkSize {
		return nil, fmt.Errorf("%w: fork too large", util.ErrInvalid)
	}

	b := util.NewBlock(headerIndex, make([]byte, HeaderLength))

	b.SetByte("nameLen", byte(len(name)))
	b.SetBytes("name", name)
	b.SetBytes("type", charset.Code(h.Type))
	b.SetBytes("creator", charset.Code(h.Creator))
	b.SetByte("flagsHigh", byte(h.FinderFlags>>8))
	b.SetByte("flagsLow", byte(h.FinderFlags))
	b.SetUint32("dataSize", h.DataSize)
	b.SetUint32("rsrcSize", h.RsrcSize)
	b.SetUint32("created", util.ToMacTime(h.Created))
	b.SetUint32("modified", util.ToMacTime(h.Modified))
	b.SetByte("version", Version)
	b.SetByte("minVersion", Version)
	b.SetUint32("crc", uint32(util.CRC16(b.GetSlice("checked"), 0)))

	return b.Data, nil
}

// Decode parses and validates a 128 byte header. Any inconsistency yields
// ErrFormat.
func Decode(data []byte) (*Header, error) {

	if len(data) != HeaderLength {
		return nil, fmt.Errorf("%w: invalid MacBinary header length %d",
			util.ErrFormat, len(data))
	}

	b := util.NewBlock(headerIndex, data)

	if b.GetByte("zero") != 0 || b.GetByte("zero2") != 0 {
		return nil, fmt.Errorf("%w: not a MacBinary II file", util.ErrFormat)
	}

	if crc := util.CRC16(b.GetSlice("checked"), 0); uint32(crc) != b.GetUint32("crc") {
		return nil, fmt.Errorf("%w: MacBinary header checksum mismatch",
			util.ErrFormat)
	}

	if v := b.GetByte("minVersion"); v > Version {
		return nil, fmt.Errorf("%w: unsupported MacBinary version %d",
			util.ErrFormat, v)
	}

	l := b.GetInt("nameLen")
	if l < 1 || l > MaxNameLen || data[2+l] != 0 {
		return nil, fmt.Errorf("%w: invalid MacBinary file header (bad file name)",
			util.ErrFormat)
	}

	h := &Header{
		Name:        charset.Decode(b.GetSlice("name")[:l]),
		Type:        charset.Decode(b.GetSlice("type")),
		Creator:     charset.Decode(b.GetSlice("creator")),
		FinderFlags: uint16(b.GetByte("flagsHigh"))<<8 | uint16(b.GetByte("flagsLow")),
		DataSize:    b.GetUint32("dataSize"),
		RsrcSize:    b.GetUint32("rsrcSize"),
		Created:     util.FromMacTime(b.GetUint32("created")),
		Modified:    util.FromMacTime(b.GetUint32("modified")),
	}

	if h.DataSize > MaxForkSize || h.RsrcSize > MaxForkSize {
		return nil, fmt.Errorf(
			"%w: invalid MacBinary file header (bad file length)", util.ErrFormat)
	}

	return h, nil
}

// Padding returns the number of zero bytes following a fork of size bytes.
func Padding(size uint32) int {
	if r := int(size % HeaderLength); r > 0 {
		return HeaderLength - r
	}
	return 0
}

// ----------------------------------------------------------------------------

// Writer produces a MacBinary stream.
type Writer struct {
	w   io.Writer
	buf []byte
}

//
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, buf: make([]byte, ChunkSize)}
}

//
func (w *Writer) WriteHeader(h *Header) error {
	data, err := h.Encode()
	if err != nil {
		return err
	}
	return w.write(data)
}

// WriteFork copies a fork from r, which must yield exactly size bytes, and
// pads it.
func (w *Writer) WriteFork(r io.Reader, size uint32) error {

	var total int64

	for {
		n, err := r.Read(w.buf)
		if n > 0 {
			if err := w.write(w.buf[:n]); err != nil {
				return err
			}
			total += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", util.ErrIO, err)
		}
	}

	if total != int64(size) {
		return fmt.Errorf("%w: inconsistent fork length", util.ErrIO)
	}

	if pad := Padding(size); pad > 0 {
		return w.write(make([]byte, pad))
	}
	return nil
}

//
func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	if err != nil {
		return fmt.Errorf("%w: error writing data: %v", util.ErrIO, err)
	}
	if n != len(p) {
		return fmt.Errorf("%w: wrote incomplete chunk", util.ErrIO)
	}
	return nil
}

// Reader consumes a MacBinary stream.
type Reader struct {
	r      io.Reader
	header *Header
	buf    []byte
}

// NewReader reads and validates the header at the start of r.
func NewReader(r io.Reader) (*Reader, error) {

	data := make([]byte, HeaderLength)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: file too short for MacBinary header",
				util.ErrFormat)
		}
		return nil, fmt.Errorf("%w: %v", util.ErrIO, err)
	}

	h, err := Decode(data)
	if err != nil {
		return nil, err
	}

	return &Reader{r: r, header: h, buf: make([]byte, ChunkSize)}, nil
}

//
func (r *Reader) Header() *Header {
	return r.header
}

// ReadFork copies exactly size bytes to w and skips the padding after them.
// Padding missing at the end of the stream is tolerated.
func (r *Reader) ReadFork(w io.Writer, size uint32) error {

	remaining := int64(size)

	for remaining > 0 {
		chunk := r.buf
		if remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, err := io.ReadFull(r.r, chunk)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: read incomplete chunk", util.ErrIO)
			}
			return fmt.Errorf("%w: error reading data: %v", util.ErrIO, err)
		}

		written, err := w.Write(chunk[:n])
		if err != nil {
			return err
		}
		if written != n {
			return fmt.Errorf("%w: wrote incomplete chunk", util.ErrIO)
		}
		remaining -= int64(n)
	}

	if pad := Padding(size); pad > 0 {
		if _, err := io.ReadFull(r.r, r.buf[:pad]); err != nil &&
			!errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: error reading data: %v", util.ErrIO, err)
		}
	}

	return nil
}
