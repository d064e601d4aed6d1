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
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// DefaultCapacity is the size in bytes of volumes created by Format.
const DefaultCapacity = 32 * 1024 * 1024

// backend gives access to the media a store implementation keeps volumes on.
// A medium holds either one volume as partition 0, or a set of partitions
// numbered from 1.
type backend interface {
	// open opens the volume on partition of the medium at path
	open(path string, partition int, writable bool) (Store, error)
	// create opens a new, empty partition, replacing what was there before;
	// creating partition 0 drops all other partitions of the medium, and
	// vice versa
	create(path string, partition int) (Store, error)
	// partitions lists the partitions present on the medium at path
	partitions(path string) ([]int, error)
}

// Engine mounts and formats volumes kept in a store.
type Engine struct {
	backend backend
	// Capacity is the size in bytes of volumes created by Format.
	Capacity uint64
}

// Mount opens the volume on partition of the medium at path. With ModeAny,
// a medium that cannot be written is mounted read-only. A locked volume is
// always read-only.
func (e *Engine) Mount(path string, partition int, mode volume.Mode) (
	volume.Volume, error) {

	logger := log.WithFields(log.Fields{
		"path":      path,
		"partition": partition,
		"mode":      mode,
	})

	if partition < 0 {
		return nil, fmt.Errorf("%w: invalid partition number %d",
			util.ErrInvalid, partition)
	}

	readOnly := mode == volume.ModeReadOnly
	st, err := e.backend.open(path, partition, !readOnly)
	if err != nil && mode == volume.ModeAny && errors.Is(err, util.ErrReadOnly) {
		logger.Debug("medium not writable, mounting read-only")
		readOnly = true
		st, err = e.backend.open(path, partition, false)
	}
	if err != nil {
		return nil, err
	}

	v, err := load(st, readOnly)
	if err != nil {
		st.Close()
		return nil, err
	}

	if v.locked() && !readOnly {
		if mode == volume.ModeReadWrite {
			st.Close()
			return nil, fmt.Errorf("%w: volume is locked", util.ErrReadOnly)
		}
		logger.Debug("volume is locked, mounting read-only")
		v.readOnly = true
	}

	logger.WithField("volume", v.name()).Debug("volume mounted")
	return v, nil
}

// Format creates an empty volume named name on partition of the medium at
// path, with the engine's capacity.
func (e *Engine) Format(path string, partition int, name string) error {

	if partition < 0 {
		return fmt.Errorf("%w: invalid partition number %d",
			util.ErrInvalid, partition)
	}
	if err := validName(name, volume.MaxVolumeNameLen); err != nil {
		return err
	}

	capacity := e.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}

	st, err := e.backend.create(path, partition)
	if err != nil {
		return err
	}

	if err := initialize(st, name, capacity); err != nil {
		st.Close()
		return err
	}

	err = st.Commit()
	if cerr := st.Close(); cerr != nil && err == nil {
		err = cerr
	}

	if err == nil {
		log.WithFields(log.Fields{
			"path":      path,
			"partition": partition,
			"name":      name,
			"capacity":  capacity,
		}).Debug("volume formatted")
	}

	return err
}

// Partitions returns the number of partitions on the medium at path, or 0 if
// the medium is not partitioned.
func (e *Engine) Partitions(path string) (int, error) {

	parts, err := e.backend.partitions(path)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range parts {
		if p == 0 {
			return 0, nil
		}
		count++
	}

	return count, nil
}

//
func partitionName(partition int) []byte {
	return []byte(fmt.Sprintf("partition-%d", partition))
}

//
func parsePartitionName(name []byte) (int, bool) {
	var p int
	if n, err := fmt.Sscanf(string(name), "partition-%d", &p); err != nil ||
		n != 1 || p < 0 {
		return 0, false
	}
	return p, true
}

//
func sortedPartitions(parts []int) []int {
	sort.Ints(parts)
	return parts
}
