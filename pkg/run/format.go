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

package run

import (
	"errors"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewFormat() *Format {

	f := &Format{}
	f.Runner = *NewRunner(
		"format [-f] [-l {label}] {destination-path} [{partition-no}]",
		"create a new HFS volume and make it current",
		`
Use the format command to create an empty HFS volume on the medium at
destination-path, which is created if it does not exist. All data on the
selected partition is lost. A partitioned medium requires a partition number
if it has more than one partition. Partition 0 denotes the whole medium and
erases the partition map, which requires -f. The new volume becomes current.

The medium is written in hfsctl's own image layout, not as native HFS on-disk
structures, so it can only be used with hfsctl.`,
		"  hfsctl format -l \"Work Disk\" disk.img",
		runnerHelpEpilogue, f.Run)

	f.Args = rangeArgs(1, 2)
	f.AddBaseSettings()
	f.AddSetting(&f.Force, "force", "f", "", false,
		"overwrite partition map, or a medium that is not a volume image", false)
	f.AddSetting(&f.Label, "label", "l", "", "Untitled", "volume name", false)

	return f
}

//
type Format struct {
	//
	Runner
	//
	Force bool
	Label string
}

//
func (f *Format) Run(args []string) error {

	f.ParseSettings()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s: %v", util.ErrInvalid, args[0], err)
	}

	nparts, err := f.Engine.Partitions(path)
	switch {
	case err == nil:
	case errors.Is(err, util.ErrNotFound):
		nparts = 0
	case errors.Is(err, util.ErrFormat) && f.Force:
		log.WithField("path", path).Warn("replacing medium that is not a volume image")
		if err := f.Fs.Remove(path); err != nil {
			return fmt.Errorf("%w: %s: %v", util.ErrIO, args[0], err)
		}
		nparts = 0
	default:
		return fmt.Errorf("%s: %w", args[0], err)
	}

	partition := 0
	if len(args) > 1 {
		if partition, err = parsePartition(args[1]); err != nil {
			return err
		}
	} else if nparts > 1 {
		return fmt.Errorf("%w: must specify partition number (%d available)",
			util.ErrInvalid, nparts)
	} else if nparts == 1 {
		partition = 1
	}

	if nparts > 0 && partition == 0 {
		if !f.Force {
			return fmt.Errorf(
				"%w: medium is partitioned; select partition > 0 or use -f",
				util.ErrInvalid)
		}
		log.WithField("path", path).Warn("erasing partition information")
	}

	log.WithFields(log.Fields{
		"path":      path,
		"partition": partition,
		"label":     f.Label,
	}).Info("formatting")

	if err := f.Engine.Format(path, partition, f.Label); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	v, err := f.Engine.Mount(path, partition, volume.ModeAny)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	return f.unmount(v, f.register(v, path, partition))
}
