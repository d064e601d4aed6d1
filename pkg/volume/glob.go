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

package volume

import (
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Glob expands the wildcards *, ? and [...] in the last element of each
// argument against the directory listing of v. Matching is case insensitive,
// as are HFS names. Arguments without wildcards, or without any match, are
// passed through verbatim, so that the caller reports them as not found.
func Glob(v Volume, args []string) []string {

	var ret []string

	for _, arg := range args {

		dir, pattern := "", arg
		if ix := strings.LastIndex(arg, Separator); ix > -1 {
			dir, pattern = arg[:ix+1], arg[ix+1:]
		}

		if !strings.ContainsAny(pattern, "*?[") {
			ret = append(ret, arg)
			continue
		}

		entries, err := v.ReadDir(dir)
		if err != nil {
			log.WithField("path", dir).Debugf("cannot glob: %v", err)
			ret = append(ret, arg)
			continue
		}

		// path.Match never lets a wildcard cross '/', which is an ordinary
		// character in HFS names, so swap it for the separator that no
		// name can contain.
		pattern = matchable(pattern)
		matched := 0

		for _, e := range entries {
			if ok, err := path.Match(pattern, matchable(e.Name)); err != nil {
				log.WithField("pattern", pattern).Debugf("bad pattern: %v", err)
				break
			} else if ok {
				ret = append(ret, dir+e.Name)
				matched++
			}
		}

		if matched == 0 {
			ret = append(ret, arg)
		}
	}

	return ret
}

func matchable(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "/", Separator)
}
