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
func NewDel() *Del {
	d := &Del{}
	d.Runner = *NewRunner(
		"del {hfs-path} [...]", "delete both forks of HFS files",
		"\nUse the del command to delete files from the current volume. Directories\nare removed with rmdir.",
		"", runnerHelpEpilogue, d.Run)
	d.Aliases = []string{"rm"}
	d.Args = rangeArgs(1, -1)
	d.AddBaseSettings()
	return d
}

//
type Del struct {
	Runner
}

//
func (d *Del) Run(args []string) error {

	d.ParseSettings()

	return d.withSession(func(t *session.Table) error {
		v, err := d.remount(t, volume.ModeAny)
		if err != nil {
			return err
		}
		return d.unmount(v, d.eachItem(volume.Glob(v, args), v.Delete))
	})
}
