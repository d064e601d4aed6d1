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
	"encoding/hex"
	"fmt"

	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/transfer"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		"dump [-r|--resource] {hfs-path}",
		"hex dump a fork of an HFS file",
		"\nUse the dump command to output a hex dump of the data or resource fork of a file.",
		"", runnerHelpEpilogue, d.Run)

	d.Args = rangeArgs(1, 1)
	d.AddBaseSettings()
	d.AddSetting(&d.Resource, "resource", "r", "", false,
		"dump resource fork instead of data fork", false)

	return d
}

//
type Dump struct {
	//
	Runner
	//
	Resource bool
}

//
func (d *Dump) Run(args []string) error {

	d.ParseSettings()

	return d.withSession(func(t *session.Table) error {

		v, err := d.remount(t, volume.ModeReadOnly)
		if err != nil {
			return err
		}

		return d.unmount(v, d.dump(v, args[0]))
	})
}

//
func (d *Dump) dump(v volume.Volume, path string) error {

	f, err := v.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()

	if d.Resource {
		if err := f.SetFork(volume.ResourceFork); err != nil {
			return err
		}
	}

	dumper := hex.Dumper(d.OutOrStdout())
	if _, err := transfer.CopyChunks(dumper, f); err != nil {
		dumper.Close()
		return fmt.Errorf("%s: %w", path, err)
	}

	return dumper.Close()
}
