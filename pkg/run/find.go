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
	"strings"

	"github.com/hfsctl/hfsctl/pkg/index"
	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewFind() *Find {

	f := &Find{}
	f.Runner = *NewRunner(
		"find [-n|--max {max}] {term} [...]",
		"search file and folder names on the current HFS volume",
		`
Use the find command to search the names of all files and folders on the
current volume. Words match regardless of case. The search terms use query
string syntax, e.g. +kind:folder only matches folders, and -word excludes
names containing word.`,
		"  hfsctl find finder\n  hfsctl find system +kind:folder",
		runnerHelpEpilogue, f.Run)

	f.Args = rangeArgs(1, -1)
	f.AddBaseSettings()
	f.AddSetting(&f.Max, "max", "n", "", 50, "maximum number of results", false)

	return f
}

//
type Find struct {
	//
	Runner
	//
	Max int
}

//
func (f *Find) Run(args []string) error {

	f.ParseSettings()

	return f.withSession(func(t *session.Table) error {

		v, err := f.remount(t, volume.ModeReadOnly)
		if err != nil {
			return err
		}

		return f.unmount(v, f.search(v, strings.Join(args, " ")))
	})
}

//
func (f *Find) search(v volume.Volume, term string) error {

	idx, err := index.Build(v)
	if err != nil {
		return err
	}
	defer idx.Close()

	res, err := idx.Search(term, f.Max)
	if err != nil {
		return err
	}

	out := f.OutOrStdout()
	for _, h := range res.Hits {
		fmt.Fprintln(out, h)
	}
	if !res.Complete {
		fmt.Fprintf(out, "(%d of %d matches shown)\n", len(res.Hits), res.Total)
	}

	return nil
}
