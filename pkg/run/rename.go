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

	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewRename() *Rename {

	r := &Rename{}
	r.Runner = *NewRunner(
		"rename {hfs-src-path} [...] {hfs-target-path}",
		"rename or move HFS files or directories",
		`
Use the rename command to rename a file or directory, or to move files and
directories into another directory on the same volume. With more than one
source, hfs-target-path has to be a directory. Renaming the root directory
renames the volume.`,
		"  hfsctl rename Notes Letters\n  hfsctl rename :Docs:* :Archive:",
		runnerHelpEpilogue, r.Run)

	r.Aliases = []string{"mv"}
	r.Args = rangeArgs(2, -1)
	r.AddBaseSettings()

	return r
}

//
type Rename struct {
	//
	Runner
}

//
func (r *Rename) Run(args []string) error {

	r.ParseSettings()

	return r.withSession(func(t *session.Table) error {

		v, err := r.remount(t, volume.ModeAny)
		if err != nil {
			return err
		}

		sources := volume.Glob(v, args[:len(args)-1])
		target := args[len(args)-1]

		if len(sources) > 1 {
			if ent, err := v.Stat(target); err != nil || !ent.Dir {
				return r.unmount(v, fmt.Errorf("%s: %w", target, util.ErrNotADirectory))
			}
		}

		err = r.eachItem(sources, func(src string) error {
			return v.Rename(src, target)
		})

		// the volume or an ancestor of the working directory may have been
		// renamed
		if uerr := r.updateWorkingDirectory(t, t.Get(-1), v); uerr != nil {
			r.perror("", uerr)
			if err == nil {
				err = ErrReported
			}
		}

		return r.unmount(v, err)
	})
}
