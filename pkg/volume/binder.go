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

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/charset"
	"github.com/hfsctl/hfsctl/pkg/session"
	"github.com/hfsctl/hfsctl/pkg/util"
)

// Remount re-establishes the volume remembered by entry. The medium must
// still carry a volume with the remembered name, otherwise ErrMediaMismatch
// is returned. If the remembered working directory has vanished, the volume
// is still returned, positioned at its root, and a warning is logged.
func Remount(eng Engine, entry *session.MountEntry, mode Mode) (Volume, error) {

	if entry == nil {
		return nil, util.ErrNoCurrentVolume
	}

	logger := log.WithFields(log.Fields{
		"device":    entry.DevicePath,
		"partition": entry.Partition,
		"mode":      mode,
	})
	logger.Debug("remounting volume")

	vol, err := eng.Mount(entry.DevicePath, entry.Partition, mode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry.DevicePath, err)
	}

	info, err := vol.Info()
	if err != nil {
		vol.Close()
		return nil, fmt.Errorf("%s: %w", entry.DevicePath, err)
	}

	if !charset.Equal(info.Name, entry.VolumeName) {
		vol.Close()
		return nil, fmt.Errorf(
			"%w: expected volume %q not found (found %q); replace media on %s or use `mount'",
			util.ErrMediaMismatch, entry.VolumeName, info.Name, entry.DevicePath)
	}

	if err := vol.Chdir(entry.WorkingDir); err != nil {
		log.Warnf("current HFS directory \"%s%s:\" no longer exists",
			entry.VolumeName, trimRoot(entry.WorkingDir))
		logger.Debugf("chdir failed: %v", err)
		if err := vol.SetCwd(RootID); err != nil {
			vol.Close()
			return nil, err
		}
	}

	logger.WithField("volume", info.Name).Debug("volume remounted")
	return vol, nil
}

//
func trimRoot(cwd string) string {
	if cwd == Separator {
		return ""
	}
	return cwd
}
