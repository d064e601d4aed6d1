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
	"errors"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/hfsctl/hfsctl/pkg/util"
)

// LockTimeout is how long mounting waits for a medium that is in use by
// another process.
const LockTimeout = 2 * time.Second

// NewImageEngine creates an engine that keeps volumes in image files. An
// image file is a bbolt database with one bucket per partition. Media written
// by other HFS implementations, i.e. native on-disk HFS structures, cannot be
// read; mounting one yields ErrFormat. Read-only
// mounts take a shared lock on the image, read-write mounts an exclusive one,
// held until the volume is closed.
func NewImageEngine() *Engine {
	return &Engine{
		backend:  &imageBackend{},
		Capacity: DefaultCapacity,
	}
}

//
type imageBackend struct{}

//
func (b *imageBackend) db(path string, writable bool) (*bolt.DB, error) {

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", util.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", util.ErrIO, err)
	}

	return b.openDB(path, writable)
}

//
func (b *imageBackend) openDB(path string, writable bool) (*bolt.DB, error) {

	db, err := bolt.Open(path, 0644, &bolt.Options{
		Timeout:  LockTimeout,
		ReadOnly: !writable,
	})

	switch {
	case err == nil:
		return db, nil
	case errors.Is(err, os.ErrPermission):
		return nil, fmt.Errorf("%w: %v", util.ErrReadOnly, err)
	case errors.Is(err, bolt.ErrTimeout):
		return nil, fmt.Errorf("%w: %s is in use", util.ErrIO, path)
	case errors.Is(err, bolt.ErrInvalid), errors.Is(err, bolt.ErrVersionMismatch),
		errors.Is(err, bolt.ErrChecksum):
		return nil, fmt.Errorf(
			"%w: %s is not a volume image created by hfsctl format: %v",
			util.ErrFormat, path, err)
	}

	return nil, fmt.Errorf("%w: %v", util.ErrIO, err)
}

//
func (b *imageBackend) open(path string, partition int, writable bool) (
	Store, error) {

	db, err := b.db(path, writable)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin(writable)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", util.ErrIO, err)
	}

	bucket := tx.Bucket(partitionName(partition))
	if bucket == nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("%w: no volume on partition %d of %s",
			util.ErrFormat, partition, path)
	}

	return &boltStore{db: db, tx: tx, bucket: bucket}, nil
}

//
func (b *imageBackend) create(path string, partition int) (Store, error) {

	db, err := b.openDB(path, true)
	if err != nil {
		return nil, err
	}

	tx, err := db.Begin(true)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", util.ErrIO, err)
	}

	fail := func(err error) (Store, error) {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("%w: %v", util.ErrIO, err)
	}

	var drop [][]byte
	err = tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
		p, ok := parsePartitionName(name)
		if !ok || p == partition || p == 0 || partition == 0 {
			drop = append(drop, append([]byte(nil), name...))
		}
		return nil
	})
	if err != nil {
		return fail(err)
	}

	for _, name := range drop {
		log.WithField("bucket", string(name)).Debug("dropping bucket")
		if err := tx.DeleteBucket(name); err != nil {
			return fail(err)
		}
	}

	bucket, err := tx.CreateBucket(partitionName(partition))
	if err != nil {
		return fail(err)
	}

	return &boltStore{db: db, tx: tx, bucket: bucket}, nil
}

//
func (b *imageBackend) partitions(path string) ([]int, error) {

	db, err := b.db(path, false)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var ret []int
	err = db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if p, ok := parsePartitionName(name); ok {
				ret = append(ret, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrIO, err)
	}

	return sortedPartitions(ret), nil
}

// boltStore is a bucket within a transaction that lasts as long as the
// volume is mounted.
type boltStore struct {
	db     *bolt.DB
	tx     *bolt.Tx
	bucket *bolt.Bucket
}

//
func (s *boltStore) check(write bool) error {
	if s.tx == nil {
		return fmt.Errorf("%w: store is closed", util.ErrIO)
	}
	if write && !s.tx.Writable() {
		return util.ErrReadOnly
	}
	return nil
}

//
func (s *boltStore) Get(key []byte) ([]byte, error) {
	if err := s.check(false); err != nil {
		return nil, err
	}
	// values are only valid during the transaction
	return clone(s.bucket.Get(key)), nil
}

//
func (s *boltStore) Put(key, value []byte) error {
	if err := s.check(true); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	if err := s.bucket.Put(clone(key), clone(value)); err != nil {
		return fmt.Errorf("%w: %v", util.ErrIO, err)
	}
	return nil
}

//
func (s *boltStore) Delete(key []byte) error {
	if err := s.check(true); err != nil {
		return err
	}
	if err := s.bucket.Delete(key); err != nil {
		return fmt.Errorf("%w: %v", util.ErrIO, err)
	}
	return nil
}

//
func (s *boltStore) Ascend(prefix []byte, fn func(key, value []byte) bool) error {

	if err := s.check(false); err != nil {
		return err
	}

	c := s.bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if !fn(clone(k), clone(v)) {
			break
		}
	}

	return nil
}

//
func (s *boltStore) Commit() error {

	if err := s.check(true); err != nil {
		return err
	}

	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrIO, err)
	}
	return nil
}

//
func (s *boltStore) Close() error {

	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrIO, err)
	}
	return nil
}
