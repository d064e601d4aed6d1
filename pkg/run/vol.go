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
	"io"

	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewVol() *Vol {

	v := &Vol{}
	v.Runner = *NewRunner(
		"vol [{source-path}|{volume-name}]",
		"display or change the current HFS volume",
		`
Use the vol command without arguments to show the current volume and list
all other known volumes. With an argument, the volume mounted from
source-path or named volume-name becomes current.`,
		"", runnerHelpEpilogue, v.Run)

	v.Args = rangeArgs(0, 1)
	v.AddBaseSettings()

	return v
}

//
type Vol struct {
	//
	Runner
}

//
func (v *Vol) Run(args []string) error {

	v.ParseSettings()

	return v.withSession(func(t *session.Table) error {

		if len(args) > 0 {
			ix := t.Find(args[0])
			if ix < 0 {
				return fmt.Errorf("%w: unknown volume \"%s\"",
					util.ErrNotFound, args[0])
			}
			if err := t.SetCurrent(ix); err != nil {
				return err
			}
			return v.show(t)
		}

		out := v.OutOrStdout()

		if t.Get(-1) != nil {
			if err := v.show(t); err != nil {
				return err
			}
		}

		var listed bool
		for ix, e := range t.Entries() {

			if ix == t.Current() {
				continue
			}

			if !listed {
				if t.Get(-1) != nil {
					fmt.Fprintln(out, "\nOther known volumes:")
				} else {
					fmt.Fprintln(out, "Known volumes:")
				}
				listed = true
			}
			listEntry(out, e)
		}

		if t.Len() == 0 {
			fmt.Fprintln(out,
				"No known volumes; use `mount' to introduce new volumes")
		}

		return nil
	})
}

// show prints where the current volume is mounted from, followed by volume
// info.
func (v *Vol) show(t *session.Table) error {

	e := t.Get(-1)
	out := v.OutOrStdout()

	fmt.Fprint(out, "Current volume is mounted from")
	if e.Partition > 0 {
		fmt.Fprintf(out, " partition %d of", e.Partition)
	}
	fmt.Fprintf(out, ":\n\t%s\n", e.DevicePath)

	vol, err := v.remount(t, volume.ModeAny)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	return v.unmount(vol, v.printVolumeInfo(vol))
}

//
func listEntry(out io.Writer, e *session.MountEntry) {
	if e.Partition > 0 {
		fmt.Fprintf(out, "\t%-35s\t\t\"%s\" (partition %d)\n",
			e.DevicePath, e.VolumeName, e.Partition)
	} else {
		fmt.Fprintf(out, "\t%-35s\t\t\"%s\"\n", e.DevicePath, e.VolumeName)
	}
}
