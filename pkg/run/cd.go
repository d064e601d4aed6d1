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
func NewCd() *Cd {

	c := &Cd{}
	c.Runner = *NewRunner(
		"cd [{hfs-path}]",
		"change the current HFS directory",
		`
Use the cd command to change the current directory of the current volume.
Without hfs-path, the root directory becomes current. An absolute path may
name another known volume, which then becomes the current volume.`,
		"  hfsctl cd :System Folder\n  hfsctl cd ::",
		runnerHelpEpilogue, c.Run)

	c.Aliases = []string{"chdir"}
	c.Args = rangeArgs(0, 1)
	c.AddBaseSettings()

	return c
}

//
type Cd struct {
	//
	Runner
}

//
func (c *Cd) Run(args []string) error {

	c.ParseSettings()

	return c.withSession(func(t *session.Table) error {

		path := ""
		if len(args) > 0 {
			path = args[0]
		}

		v, err := c.remount(t, volume.ModeReadOnly)
		if err != nil {
			return err
		}

		if path == "" {
			err = v.SetCwd(volume.RootID)
		} else {
			err = c.chdir(v, path)
		}

		if err == nil {
			err = c.updateWorkingDirectory(t, t.Get(-1), v)
		}

		return c.unmount(v, err)
	})
}

//
func (c *Cd) chdir(v volume.Volume, path string) error {

	paths := volume.Glob(v, []string{path})
	if len(paths) > 1 {
		return fmt.Errorf("%w: %s: ambiguous path", util.ErrInvalid, path)
	}

	if err := v.Chdir(paths[0]); err != nil {
		return fmt.Errorf("%s: %w", paths[0], err)
	}
	return nil
}
