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

package util

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Block gives named access to the fields of a fixed layout binary record. The
// index maps a field name to its offset and length within the data. All
// multi-byte integers are big-endian, as on the Macintosh.
type Block struct {
	index map[string][2]int
	Data  []byte
}

//
func NewBlock(index map[string][2]int, data []byte) *Block {
	return &Block{index: index, Data: data}
}

//
func (b *Block) field(name string) ([]byte, bool) {
	if f, ok := b.index[name]; ok && f[0]+f[1] <= len(b.Data) {
		return b.Data[f[0] : f[0]+f[1]], true
	}
	return nil, false
}

//
func (b *Block) GetSlice(name string) []byte {
	f, _ := b.field(name)
	return f
}

//
func (b *Block) GetByte(name string) byte {
	if f, ok := b.field(name); ok && len(f) > 0 {
		return f[0]
	}
	return 0
}

//
func (b *Block) SetByte(name string, v byte) error {
	f, ok := b.field(name)
	if !ok || len(f) == 0 {
		return fmt.Errorf("invalid field: %s", name)
	}
	f[0] = v
	return nil
}

// GetInt returns the unsigned big-endian value of a 1, 2 or 4 byte field.
func (b *Block) GetInt(name string) int {
	return int(b.GetUint32(name))
}

//
func (b *Block) GetUint32(name string) uint32 {
	f, ok := b.field(name)
	if !ok {
		return 0
	}
	switch len(f) {
	case 1:
		return uint32(f[0])
	case 2:
		return uint32(binary.BigEndian.Uint16(f))
	case 4:
		return binary.BigEndian.Uint32(f)
	}
	return 0
}

//
func (b *Block) SetUint32(name string, v uint32) error {
	f, ok := b.field(name)
	if !ok {
		return fmt.Errorf("invalid field: %s", name)
	}
	switch len(f) {
	case 1:
		f[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(f, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(f, v)
	default:
		return fmt.Errorf("field %s is not an integer field", name)
	}
	return nil
}

// GetString returns the field contents up to the first zero byte.
func (b *Block) GetString(name string) string {
	f, _ := b.field(name)
	if ix := bytes.IndexByte(f, 0); ix > -1 {
		f = f[:ix]
	}
	return string(f)
}

// SetBytes copies v into the field, zero filling the remainder. Values longer
// than the field are rejected.
func (b *Block) SetBytes(name string, v []byte) error {
	f, ok := b.field(name)
	if !ok {
		return fmt.Errorf("invalid field: %s", name)
	}
	if len(v) > len(f) {
		return fmt.Errorf("value too long for field %s: %d > %d",
			name, len(v), len(f))
	}
	n := copy(f, v)
	for ; n < len(f); n++ {
		f[n] = 0
	}
	return nil
}

// Sum returns the plain byte sum over the field.
func (b *Block) Sum(name string) int {
	sum := 0
	f, _ := b.field(name)
	for _, v := range f {
		sum += int(v)
	}
	return sum
}
