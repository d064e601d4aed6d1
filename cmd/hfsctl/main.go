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

package main

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hfsctl/hfsctl/pkg/run"
)

//
func main() {

	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
	})
	log.SetLevel(log.WarnLevel)

	root := &cobra.Command{
		Use:           "hfsctl",
		Short:         "tools for working with Macintosh HFS volumes",
		Long: `
hfsctl manages Macintosh HFS style volumes held in image files, with the
commands of hfsutils. Volumes are created with hfsctl format, and stored in
hfsctl's own image layout. Native HFS disks and images made by other tools
are not supported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&run.NewMount().Command,
		&run.NewUmount().Command,
		&run.NewVol().Command,
		&run.NewCd().Command,
		&run.NewPwd().Command,
		&run.NewLs().Command,
		&run.NewCopy().Command,
		&run.NewAttrib().Command,
		&run.NewRename().Command,
		&run.NewMkdir().Command,
		&run.NewRmdir().Command,
		&run.NewDel().Command,
		&run.NewFormat().Command,
		&run.NewFind().Command,
		&run.NewDump().Command,
		&run.NewVersion().Command,
	)

	if err := root.Execute(); err != nil {
		if !errors.Is(err, run.ErrReported) {
			fmt.Fprintf(os.Stderr, "hfsctl: %v\n", err)
		}
		os.Exit(1)
	}
}
