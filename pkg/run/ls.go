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
	"sort"
	"strings"

	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewLs() *Ls {

	l := &Ls{}
	l.Runner = *NewRunner(
		"ls [-l] [{hfs-path} ...]",
		"list HFS directory contents",
		`
Use the ls command to list the contents of directories on the current
volume, by default the current directory. With -l, type, creator, fork
sizes and modification date are shown for files, and the number of items
for directories.`,
		"", runnerHelpEpilogue, l.Run)

	l.Aliases = []string{"dir"}
	l.Args = rangeArgs(0, -1)
	l.AddBaseSettings()
	l.AddSetting(&l.Long, "long", "l", "", false, "long format", false)

	return l
}

//
type Ls struct {
	//
	Runner
	//
	Long bool
}

//
func (l *Ls) Run(args []string) error {

	l.ParseSettings()

	return l.withSession(func(t *session.Table) error {

		v, err := l.remount(t, volume.ModeReadOnly)
		if err != nil {
			return err
		}

		paths := []string{":"}
		if len(args) > 0 {
			paths = volume.Glob(v, args)
		}

		out := l.OutOrStdout()
		first := true

		err = l.eachItem(paths, func(path string) error {

			ent, err := v.Stat(path)
			if err != nil {
				return err
			}

			entries := []*volume.DirEntry{ent}
			if ent.Dir {
				if entries, err = v.ReadDir(path); err != nil {
					return err
				}
				if len(paths) > 1 {
					if !first {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "%s:\n", path)
				}
			}
			first = false

			l.list(out, entries)
			return nil
		})

		return l.unmount(v, err)
	})
}

//
func (l *Ls) list(out io.Writer, entries []*volume.DirEntry) {

	sorted := append([]*volume.DirEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	if !l.Long {
		for _, e := range sorted {
			if e.Dir {
				fmt.Fprintf(out, "%s:\n", e.Name)
			} else {
				fmt.Fprintln(out, e.Name)
			}
		}
		return
	}

	for _, e := range sorted {
		date := e.Modified.Local().Format("Jan _2 2006 15:04")
		if e.Dir {
			items := fmt.Sprintf("%d item%s", e.Valence, plural(e.Valence))
			fmt.Fprintf(out, "d%s %9s %19s %s %s\n", invisible(e), "", items,
				date, e.Name)
		} else {
			kind := "f"
			if e.Locked {
				kind = "F"
			}
			fmt.Fprintf(out, "%s%s %4s/%4s %9d %9d %s %s\n", kind, invisible(e),
				e.Type, e.Creator, e.RsrcSize, e.DataSize, date, e.Name)
		}
	}
}

//
func invisible(e *volume.DirEntry) string {
	if e.FinderFlags&volume.FinderIsInvisible != 0 {
		return "i"
	}
	return " "
}
