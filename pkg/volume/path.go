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
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/util"
)

// Path is a parsed HFS path.
type Path struct {
	// Volume is the leading volume name of an absolute path, empty for
	// relative paths
	Volume string
	// Elements holds the names to walk, where an empty element means the
	// parent directory
	Elements []string
}

//
func (p *Path) IsAbsolute() bool {
	return p.Volume != ""
}

// ParsePath splits path into its volume name and elements.
func ParsePath(path string) *Path {

	ret := &Path{}

	if path == "" {
		return ret
	}

	ix := strings.Index(path, Separator)
	if ix == -1 {
		ret.Elements = []string{path}
		return ret
	}

	if ix > 0 {
		ret.Volume = path[:ix]
	}

	elements := strings.Split(path[ix+1:], Separator)
	// a single trailing separator only marks a directory
	if l := len(elements); l > 0 && elements[l-1] == "" {
		elements = elements[:l-1]
	}
	ret.Elements = elements

	return ret
}

// JoinPath appends name to directory path dir.
func JoinPath(dir, name string) string {
	switch {
	case dir == "":
		return Separator + name
	case !strings.Contains(dir, Separator):
		return Separator + dir + Separator + name
	case strings.HasSuffix(dir, Separator):
		return dir + name
	}
	return dir + Separator + name
}

// Base returns the last named element of path.
func Base(path string) string {
	p := ParsePath(path)
	for ix := len(p.Elements) - 1; ix >= 0; ix-- {
		if p.Elements[ix] != "" {
			return p.Elements[ix]
		}
	}
	return p.Volume
}

// WorkingDirectoryPath reconstructs the path of the current directory of v,
// relative to the volume root, by walking up the ancestor chain. Elements are
// separated by colons, without leading or trailing separator. The root yields
// the empty string. If any lookup fails, no partial path is returned.
func WorkingDirectoryPath(v Volume) (string, error) {

	var segments []string
	seen := make(map[CNID]bool)

	for id := v.Cwd(); id != RootID; {

		if id == RootParentID || seen[id] {
			return "", fmt.Errorf(
				"%w: broken directory chain at node %d", util.ErrIO, id)
		}
		seen[id] = true

		parent, name, err := v.DirInfo(id)
		if err != nil {
			return "", fmt.Errorf(
				"%w: cannot get info for directory %d: %v", util.ErrIO, id, err)
		}

		log.WithFields(log.Fields{
			"id": id, "parent": parent, "name": name}).Trace("resolving path")

		segments = append(segments, name)
		id = parent
	}

	for l, r := 0, len(segments)-1; l < r; l, r = l+1, r-1 {
		segments[l], segments[r] = segments[r], segments[l]
	}

	return strings.Join(segments, Separator), nil
}

// CurrentPath returns the absolute path of the current directory of v, i.e.
// volume name, colon, and the working directory path.
func CurrentPath(v Volume) (string, error) {

	info, err := v.Info()
	if err != nil {
		return "", err
	}

	rel, err := WorkingDirectoryPath(v)
	if err != nil {
		return "", err
	}

	return info.Name + Separator + rel, nil
}
