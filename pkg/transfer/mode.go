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

package transfer

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// Mode is a transfer mode.
type Mode int

const (
	ModeAuto Mode = iota
	ModeMacBinary
	ModeBinHex
	ModeText
	ModeRaw
)

//
func (m Mode) String() string {
	switch m {
	case ModeMacBinary:
		return "macbinary"
	case ModeBinHex:
		return "binhex"
	case ModeText:
		return "text"
	case ModeRaw:
		return "raw"
	}
	return "auto"
}

// ParseMode accepts the mode names as returned by String, as well as their
// single letter flags m, b, t, r and a.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "a", "auto":
		return ModeAuto, nil
	case "m", "macbinary":
		return ModeMacBinary, nil
	case "b", "binhex":
		return ModeBinHex, nil
	case "t", "text":
		return ModeText, nil
	case "r", "raw":
		return ModeRaw, nil
	}
	return ModeAuto, fmt.Errorf("%w: unknown transfer mode: %s", util.ErrInvalid, s)
}

// suffixes for selecting the copy-in mode, checked in order
var inSuffixes = []struct {
	suffix string
	mode   Mode
}{
	{".bin", ModeMacBinary},
	{".hqx", ModeBinHex},
	{".txt", ModeText},
	{".c", ModeText},
	{".h", ModeText},
	{".html", ModeText},
	{".htm", ModeText},
	{".rtf", ModeText},
}

// AutoIn selects the mode for copying host file name onto a volume, based on
// its suffix. Files with unknown suffix are copied raw.
func AutoIn(name string) Mode {
	lower := strings.ToLower(name)
	for _, s := range inSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.mode
		}
	}
	return ModeRaw
}

// AutoOut selects the mode for copying file path off of volume v. Text files
// are translated, files without resource fork are copied raw, everything
// else is wrapped into MacBinary. If the file cannot be inspected, MacBinary
// is chosen, and the copy reports the actual problem.
func AutoOut(v volume.Volume, path string) Mode {

	e, err := v.Stat(path)
	if err != nil {
		log.WithField("path", path).Debugf("cannot select mode: %v", err)
		return ModeMacBinary
	}

	switch {
	case e.Type == "TEXT" || e.Type == "ttro":
		return ModeText
	case e.RsrcSize == 0:
		return ModeRaw
	}
	return ModeMacBinary
}
