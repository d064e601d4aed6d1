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
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/charset"
	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewAttrib() *Attrib {

	a := &Attrib{}
	a.Runner = *NewRunner(
		"attrib [-t {type}] [-c {creator}] [-i|+i] [-l|+l] {hfs-path} [...]\n  attrib -b {hfs-path}",
		"change HFS file or directory attributes",
		`
Use the attrib command to change the Finder type and creator of files, and
the invisible and locked attributes of files and directories. A leading +i
or +l argument sets the invisible or locked attribute, the -i and -l flags
clear them. With -b, the given directory becomes the blessed system folder
of the volume.`,
		"  hfsctl attrib -t TEXT -c ttxt ReadMe\n  hfsctl attrib +l :Docs:*",
		runnerHelpEpilogue, a.Run)

	a.Args = rangeArgs(1, -1)
	a.AddBaseSettings()
	a.AddSetting(&a.Type, "type", "t", "", nil, "four character file type", false)
	a.AddSetting(&a.Creator, "creator", "c", "", nil, "four character file creator", false)
	a.AddSetting(&a.Visible, "visible", "i", "", false, "clear invisible attribute", false)
	a.AddSetting(&a.Unlocked, "unlocked", "l", "", false, "clear locked attribute", false)
	a.AddSetting(&a.Bless, "bless", "b", "", false, "bless system folder", false)

	return a
}

//
type Attrib struct {
	//
	Runner
	//
	Type     string
	Creator  string
	Visible  bool
	Unlocked bool
	Bless    bool
	//
	invisible bool
	locked    bool
}

//
func (a *Attrib) Run(args []string) error {

	a.ParseSettings()

	paths, err := a.parseArgs(args)
	if err != nil {
		return err
	}

	return a.withSession(func(t *session.Table) error {

		v, err := a.remount(t, volume.ModeAny)
		if err != nil {
			return err
		}

		if a.Bless {
			return a.unmount(v, a.bless(v, paths[0]))
		}

		return a.unmount(v, a.eachItem(volume.Glob(v, paths), func(path string) error {
			return a.apply(v, path)
		}))
	})
}

// parseArgs picks up leading +i and +l arguments, validates the attribute
// combination, and returns the remaining paths.
func (a *Attrib) parseArgs(args []string) ([]string, error) {

flags:
	for len(args) > 0 {
		switch args[0] {
		case "+i":
			a.invisible = true
		case "+l":
			a.locked = true
		default:
			break flags
		}
		args = args[1:]
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no paths specified", util.ErrInvalid)
	}

	if a.invisible && a.Visible || a.locked && a.Unlocked {
		return nil, fmt.Errorf("%w: contradicting attributes", util.ErrInvalid)
	}

	for _, code := range []string{a.Type, a.Creator} {
		if code != "" && charset.Len(code) != 4 {
			return nil, fmt.Errorf(
				"%w: file type and creator must be 4 characters: %s",
				util.ErrInvalid, code)
		}
	}

	others := a.Type != "" || a.Creator != "" || a.invisible || a.Visible ||
		a.locked || a.Unlocked

	if a.Bless {
		if others || len(args) > 1 {
			return nil, fmt.Errorf(
				"%w: -b must be used alone with a single path", util.ErrInvalid)
		}
	} else if !others {
		return nil, fmt.Errorf("%w: no attributes specified", util.ErrInvalid)
	}

	return args, nil
}

//
func (a *Attrib) apply(v volume.Volume, path string) error {

	ent, err := v.Stat(path)
	if err != nil {
		return err
	}

	if !ent.Dir {
		if a.Type != "" {
			ent.Type = a.Type
		}
		if a.Creator != "" {
			ent.Creator = a.Creator
		}
	}

	if a.invisible {
		ent.FinderFlags |= volume.FinderIsInvisible
	} else if a.Visible {
		ent.FinderFlags &^= volume.FinderIsInvisible
	}

	if a.locked {
		ent.Locked = true
	} else if a.Unlocked {
		ent.Locked = false
	}

	log.WithFields(log.Fields{
		"path":    path,
		"type":    ent.Type,
		"creator": ent.Creator,
		"flags":   fmt.Sprintf("%04x", ent.FinderFlags),
		"locked":  ent.Locked,
	}).Debug("setting attributes")

	return v.SetAttr(path, ent)
}

//
func (a *Attrib) bless(v volume.Volume, path string) error {

	ent, err := v.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !ent.Dir {
		return fmt.Errorf("%s: %w", path, util.ErrNotADirectory)
	}

	info, err := v.Info()
	if err != nil {
		return err
	}

	info.Blessed = ent.CNID
	info.Created, info.Modified = time.Time{}, time.Time{}
	return v.SetInfo(info)
}
