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

	"github.com/hfsctl/hfsctl/pkg/util"
)

//
func NewVersion() *Version {
	v := &Version{}
	v.Runner = *NewRunner(
		"version", "show version info", "", "", "", v.Run)
	v.Args = rangeArgs(0, 0)
	v.AddBaseSettings()
	return v
}

//
type Version struct {
	Runner
}

//
func (v *Version) Run(args []string) error {
	PrintVersion(v.OutOrStdout())
	return nil
}

//
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, `
  _     __     _   _
 | |__ / _|___| |_| |
 | '_ \  _(_-<  _| |
 |_||_|_| /__/\__|_|

 tools for Macintosh HFS volumes

hfsctl:    %s

`, util.HfsCtlVersion)
}
