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

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/util"
)

//
func NewUmount() *Umount {

	u := &Umount{}
	u.Runner = *NewRunner(
		"umount [{source-path}|{volume-name}]",
		"forget about an HFS volume",
		`
Use the umount command to forget about the current volume, or about the
volume mounted from source-path or named volume-name. If the forgotten volume
was current, there is no current volume afterwards.`,
		"", runnerHelpEpilogue, u.Run)

	u.Args = rangeArgs(0, 1)
	u.AddBaseSettings()

	return u
}

//
type Umount struct {
	//
	Runner
}

//
func (u *Umount) Run(args []string) error {

	u.ParseSettings()

	return u.withSession(func(t *session.Table) error {

		ix := -1

		if len(args) == 0 {
			if t.Get(-1) == nil {
				return util.ErrNoCurrentVolume
			}
		} else if ix = t.Find(args[0]); ix < 0 {
			return fmt.Errorf("%w: unknown volume \"%s\"", util.ErrNotFound, args[0])
		}

		e := t.Get(ix)
		log.WithFields(log.Fields{
			"volume": e.VolumeName, "device": e.DevicePath}).Info("forgetting volume")

		return t.Remove(ix)
	})
}
