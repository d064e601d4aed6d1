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

// Package catalog implements HFS volumes on top of an ordered key/value
// store. Like the HFS catalog B*-tree, the store holds one record per file or
// directory keyed by parent directory and name, a thread record per node
// mapping its CNID back to parent and name, and the fork contents. Two stores
// are provided: a bbolt database file for volume images, and an in-memory
// B-tree.
package catalog

import (
	"encoding/binary"
	"strings"

	"github.com/hfsctl/hfsctl/pkg/charset"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// Store is an ordered key/value store holding one volume. Changes become
// durable with Commit. Close releases the store, discarding anything not
// committed.
type Store interface {
	// Get returns the value for key, or nil if there is none.
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	// Ascend calls fn for all keys starting with prefix, in key order, until
	// fn returns false. fn must not modify the store.
	Ascend(prefix []byte, fn func(key, value []byte) bool) error
	Commit() error
	Close() error
}

// key prefixes
const (
	prefixVolume  = 'V'
	prefixCatalog = 'C'
	prefixThread  = 'T'
	prefixData    = 'D'
	prefixRsrc    = 'R'
)

var volumeKey = []byte{prefixVolume}

//
func idKey(prefix byte, id volume.CNID) []byte {
	k := make([]byte, 5)
	k[0] = prefix
	binary.BigEndian.PutUint32(k[1:], uint32(id))
	return k
}

// childPrefix is the common prefix of the catalog keys of all children of
// directory parent.
func childPrefix(parent volume.CNID) []byte {
	return idKey(prefixCatalog, parent)
}

// catalogKey returns the key of the catalog record for name in directory
// parent. Names are compared case insensitively, so the key carries the
// folded name.
func catalogKey(parent volume.CNID, name string) []byte {
	return append(childPrefix(parent), foldName(name)...)
}

//
func threadKey(id volume.CNID) []byte {
	return idKey(prefixThread, id)
}

//
func forkKey(f volume.Fork, id volume.CNID) []byte {
	if f == volume.ResourceFork {
		return idKey(prefixRsrc, id)
	}
	return idKey(prefixData, id)
}

//
func foldName(name string) []byte {
	return charset.Normalize(strings.ToLower(name))
}

//
func sameName(a, b string) bool {
	return string(foldName(a)) == string(foldName(b))
}
