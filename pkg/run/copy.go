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

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/transfer"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func NewCopy() *Copy {

	c := &Copy{}
	c.Runner = *NewRunner(
		"copy [-m|-b|-t|-r|-a] [-u] {source-path} [...] {target-path}",
		"copy files from or to an HFS volume",
		`
Use the copy command to copy files between the host and the current HFS
volume. If target-path contains a colon, and does not start with a dot or
slash, sources are host files that get copied onto the volume. Otherwise,
sources are HFS files that get copied to the host. With more than one
source, target-path has to be a directory. A source or target of - denotes
standard input or output.

The transfer mode decides how files are translated:

  -m  MacBinary II, both forks and Finder info
  -b  BinHex 4.0, both forks and Finder info
  -t  text, data fork only, line ending and character set translation
  -r  raw, data fork only, as is
  -a  automatic selection, the default

Automatic selection looks at the suffix of the host file name, so
compressed files and archives are copied as is. With -u, host sources
compressed with gzip, or zip and 7z archives holding a single file, are
unpacked on the fly, and the mode is selected from the contained file's
name. Raw mode never unpacks.`,
		"  hfsctl copy -m app.bin :Applications:\n  hfsctl copy ReadMe -t readme.txt",
		runnerHelpEpilogue, c.Run)

	c.Aliases = []string{"cp"}
	c.Args = rangeArgs(2, -1)
	c.AddBaseSettings()
	c.AddSetting(&c.MacBinary, "macbinary", "m", "", false, "MacBinary II mode", false)
	c.AddSetting(&c.BinHex, "binhex", "b", "", false, "BinHex 4.0 mode", false)
	c.AddSetting(&c.Text, "text", "t", "", false, "text mode", false)
	c.AddSetting(&c.Raw, "raw", "r", "", false, "raw mode", false)
	c.AddSetting(&c.Auto, "auto", "a", "", false, "automatic mode selection", false)
	c.AddSetting(&c.Unpack, "unpack", "u", "", false,
		"unpack compressed host sources when copying onto the volume", false)

	return c
}

//
type Copy struct {
	//
	Runner
	//
	MacBinary bool
	BinHex    bool
	Text      bool
	Raw       bool
	Auto      bool
	Unpack    bool
}

//
func (c *Copy) Run(args []string) error {

	c.ParseSettings()

	mode, err := c.mode()
	if err != nil {
		return err
	}

	sources, target := args[:len(args)-1], args[len(args)-1]
	in := isVolumePath(target)

	log.WithFields(log.Fields{
		"sources": len(sources),
		"target":  target,
		"mode":    mode,
		"in":      in,
	}).Debug("copying")

	return c.withSession(func(t *session.Table) error {

		m := volume.ModeReadOnly
		if in {
			m = volume.ModeAny
		}

		v, err := c.remount(t, m)
		if err != nil {
			return err
		}

		eng := transfer.NewEngine(v, c.Fs)
		eng.Stdin = c.InOrStdin()
		eng.Stdout = c.OutOrStdout()
		eng.Unpack = c.Unpack

		var results []*transfer.Result
		if in {
			results, err = eng.CopyIn(sources, target, mode)
		} else {
			results, err = eng.CopyOut(volume.Glob(v, sources), target, mode)
		}

		if err != nil {
			if results == nil {
				err = fmt.Errorf("%s: %w", target, err)
			} else {
				for _, res := range results {
					if res.Err != nil {
						c.perror(res.Source, res.Err)
					}
				}
				err = ErrReported
			}
		}

		return c.unmount(v, err)
	})
}

// mode returns the transfer mode selected by flags. At most one may be given.
func (c *Copy) mode() (transfer.Mode, error) {

	ret := transfer.ModeAuto
	count := 0

	for _, m := range []struct {
		set  bool
		mode transfer.Mode
	}{
		{c.MacBinary, transfer.ModeMacBinary},
		{c.BinHex, transfer.ModeBinHex},
		{c.Text, transfer.ModeText},
		{c.Raw, transfer.ModeRaw},
		{c.Auto, transfer.ModeAuto},
	} {
		if m.set {
			ret = m.mode
			count++
		}
	}

	if count > 1 {
		return ret, fmt.Errorf("%w: only one transfer mode may be selected",
			util.ErrInvalid)
	}

	return ret, nil
}

// isVolumePath reports whether target names a location on an HFS volume
// rather than on the host.
func isVolumePath(target string) bool {
	return strings.Contains(target, volume.Separator) &&
		!strings.HasPrefix(target, ".") && !strings.HasPrefix(target, "/")
}
