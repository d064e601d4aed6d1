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
)

//
func NewPwd() *Pwd {
	p := &Pwd{}
	p.Runner = *NewRunner(
		"pwd", "print the full path of the current HFS directory",
		"\nUse the pwd command to print the path of the current directory of the current volume.",
		"", runnerHelpEpilogue, p.Run)
	p.Args = rangeArgs(0, 0)
	p.AddBaseSettings()
	return p
}

//
type Pwd struct {
	Runner
}

// Run prints the remembered working directory. The medium is not accessed.
func (p *Pwd) Run(args []string) error {

	p.ParseSettings()

	return p.withSession(func(t *session.Table) error {

		e := t.Get(-1)
		if e == nil {
			return util.ErrNoCurrentVolume
		}

		if e.WorkingDir == session.RootDir {
			fmt.Fprintf(p.OutOrStdout(), "%s:\n", e.VolumeName)
		} else {
			fmt.Fprintf(p.OutOrStdout(), "%s%s:\n", e.VolumeName, e.WorkingDir)
		}

		return nil
	})
}
