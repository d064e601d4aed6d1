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
	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewRmdir() *Rmdir {
	r := &Rmdir{}
	r.Runner = *NewRunner(
		"rmdir {hfs-path} [...]", "remove empty HFS directories",
		"\nUse the rmdir command to remove empty directories from the current volume.",
		"", runnerHelpEpilogue, r.Run)
	r.Args = rangeArgs(1, -1)
	r.AddBaseSettings()
	return r
}

//
type Rmdir struct {
	Runner
}

//
func (r *Rmdir) Run(args []string) error {

	r.ParseSettings()

	return r.withSession(func(t *session.Table) error {
		v, err := r.remount(t, volume.ModeAny)
		if err != nil {
			return err
		}
		return r.unmount(v, r.eachItem(volume.Glob(v, args), v.Rmdir))
	})
}
