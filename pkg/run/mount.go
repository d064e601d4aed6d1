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
	"fmt"
	"path/filepath"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewMount() *Mount {

	m := &Mount{}
	m.Runner = *NewRunner(
		"mount {source-path} [{partition-no}]",
		"introduce a new HFS volume and make it current",
		`
Use the mount command to make the HFS volume on the medium at source-path
current. If the medium contains more than one HFS partition, the partition
number has to be given. The volume is remembered until umount is used, and
can be made current again with vol.

Only media created with the format command can be mounted. hfsctl keeps its
volumes in its own image layout, and does not read native HFS disks or
images written by other tools.`,
		"  hfsctl mount disk.img\n  hfsctl mount /dev/sdb 2",
		runnerHelpEpilogue, m.Run)

	m.Args = rangeArgs(1, 2)
	m.AddBaseSettings()

	return m
}

//
type Mount struct {
	//
	Runner
}

//
func (m *Mount) Run(args []string) error {

	m.ParseSettings()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s: %v", util.ErrInvalid, args[0], err)
	}

	nparts, err := m.Engine.Partitions(path)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	if nparts > 0 {
		fmt.Fprintf(m.OutOrStdout(), "%s: contains %d HFS partition%s\n",
			args[0], nparts, plural(nparts))
	}

	partition := 0
	if len(args) > 1 {
		if partition, err = parsePartition(args[1]); err != nil {
			return err
		}
	} else if nparts > 1 {
		return fmt.Errorf("%w: must specify partition number", util.ErrInvalid)
	} else if nparts == 1 {
		partition = 1
	}

	log.WithFields(log.Fields{
		"path": path, "partition": partition}).Info("mounting volume")

	v, err := m.Engine.Mount(path, partition, volume.ModeAny)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	err = m.register(v, path, partition)
	return m.unmount(v, err)
}

// register prints info about freshly mounted volume v, and records it as the
// current volume.
func (r *Runner) register(v volume.Volume, path string, partition int) error {

	info, err := v.Info()
	if err != nil {
		return err
	}

	if err := r.printVolumeInfo(v); err != nil {
		return err
	}

	return r.withSession(func(t *session.Table) error {
		_, err := t.Upsert(info.Name, info.Created.Unix(), path, partition)
		return err
	})
}

//
func parsePartition(arg string) (int, error) {
	p, err := strconv.Atoi(arg)
	if err != nil || p < 0 {
		return 0, fmt.Errorf("%w: bad partition number: %s", util.ErrInvalid, arg)
	}
	return p, nil
}

//
func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
