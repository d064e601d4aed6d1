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
	"bytes"
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/hfsctl/hfsctl/pkg/util"
)

// NewMemoryEngine creates an engine that keeps volumes in memory. Media are
// identified by path, and exist once formatted. Mounting for writing works on
// a copy of the volume's tree, which replaces the original when the volume is
// closed.
func NewMemoryEngine() *Engine {
	return &Engine{
		backend:  &memBackend{media: make(map[string]map[int]*btree.BTree)},
		Capacity: DefaultCapacity,
	}
}

const treeDegree = 16

//
type memBackend struct {
	mu    sync.Mutex
	media map[string]map[int]*btree.BTree
}

//
func (b *memBackend) open(path string, partition int, writable bool) (
	Store, error) {

	b.mu.Lock()
	defer b.mu.Unlock()

	parts, ok := b.media[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrNotFound, path)
	}

	tree, ok := parts[partition]
	if !ok {
		return nil, fmt.Errorf("%w: no volume on partition %d of %s",
			util.ErrFormat, partition, path)
	}

	s := &memStore{
		backend:   b,
		path:      path,
		partition: partition,
		tree:      tree,
	}
	if writable {
		s.tree = tree.Clone()
		s.writable = true
	}

	return s, nil
}

//
func (b *memBackend) create(path string, partition int) (Store, error) {
	return &memStore{
		backend:   b,
		path:      path,
		partition: partition,
		tree:      btree.New(treeDegree),
		writable:  true,
		fresh:     true,
	}, nil
}

//
func (b *memBackend) partitions(path string) ([]int, error) {

	b.mu.Lock()
	defer b.mu.Unlock()

	parts, ok := b.media[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrNotFound, path)
	}

	var ret []int
	for p := range parts {
		ret = append(ret, p)
	}
	return sortedPartitions(ret), nil
}

//
func (b *memBackend) install(s *memStore) {

	b.mu.Lock()
	defer b.mu.Unlock()

	parts := b.media[s.path]
	if parts == nil || (s.fresh && s.partition == 0) {
		parts = make(map[int]*btree.BTree)
		b.media[s.path] = parts
	}
	if s.fresh && s.partition > 0 {
		delete(parts, 0)
	}

	parts[s.partition] = s.tree
}

// memItem is a key/value pair in the tree.
type memItem struct {
	key   []byte
	value []byte
}

//
func (i *memItem) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(*memItem).key) < 0
}

//
type memStore struct {
	backend   *memBackend
	path      string
	partition int
	tree      *btree.BTree
	writable  bool
	fresh     bool
	closed    bool
}

//
func (s *memStore) check(write bool) error {
	if s.closed {
		return fmt.Errorf("%w: store is closed", util.ErrIO)
	}
	if write && !s.writable {
		return util.ErrReadOnly
	}
	return nil
}

//
func (s *memStore) Get(key []byte) ([]byte, error) {
	if err := s.check(false); err != nil {
		return nil, err
	}
	if i := s.tree.Get(&memItem{key: key}); i != nil {
		return clone(i.(*memItem).value), nil
	}
	return nil, nil
}

//
func (s *memStore) Put(key, value []byte) error {
	if err := s.check(true); err != nil {
		return err
	}
	s.tree.ReplaceOrInsert(&memItem{key: clone(key), value: clone(value)})
	return nil
}

//
func (s *memStore) Delete(key []byte) error {
	if err := s.check(true); err != nil {
		return err
	}
	s.tree.Delete(&memItem{key: key})
	return nil
}

//
func (s *memStore) Ascend(prefix []byte, fn func(key, value []byte) bool) error {

	if err := s.check(false); err != nil {
		return err
	}

	s.tree.AscendGreaterOrEqual(&memItem{key: prefix},
		func(i btree.Item) bool {
			it := i.(*memItem)
			if !bytes.HasPrefix(it.key, prefix) {
				return false
			}
			return fn(clone(it.key), clone(it.value))
		})

	return nil
}

//
func (s *memStore) Commit() error {
	if err := s.check(true); err != nil {
		return err
	}
	s.backend.install(s)
	s.tree = s.tree.Clone()
	s.fresh = false
	return nil
}

//
func (s *memStore) Close() error {
	s.closed = true
	return nil
}

//
func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}
