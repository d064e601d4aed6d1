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
func NewMkdir() *Mkdir {
	m := &Mkdir{}
	m.Runner = *NewRunner(
		"mkdir {hfs-path} [...]", "create new HFS directories",
		"\nUse the mkdir command to create directories on the current volume.",
		"", runnerHelpEpilogue, m.Run)
	m.Args = rangeArgs(1, -1)
	m.AddBaseSettings()
	return m
}

//
type Mkdir struct {
	Runner
}

//
func (m *Mkdir) Run(args []string) error {

	m.ParseSettings()

	return m.withSession(func(t *session.Table) error {
		v, err := m.remount(t, volume.ModeAny)
		if err != nil {
			return err
		}
		return m.unmount(v, m.eachItem(args, v.Mkdir))
	})
}
