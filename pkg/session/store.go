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

package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/hfsctl/hfsctl/pkg/util"
)

// StateFileName is the name of the state file in the user's home directory.
const StateFileName = ".hcwd"

// DefaultPath returns the location of the state file for the current user.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: cannot determine home directory: %v",
			util.ErrIO, err)
	}
	return filepath.Join(home, StateFileName), nil
}

// Open loads the state file at path, creating it if it does not exist. The
// file stays open until Flush.
//
// There is no locking. Two processes flushing concurrently race, and the
// last one wins.
func Open(fs afero.Fs, path string) (*Store, error) {

	logger := log.WithField("path", path)

	f, err := fs.OpenFile(path, os.O_RDWR, 0)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		logger.Debug("creating state file")
		f, err = fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open state file: %v", util.ErrIO, err)
	}

	t, err := Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: cannot read state file: %v", util.ErrIO, err)
	}

	logger.WithFields(log.Fields{
		"entries": t.Len(), "current": t.Current()}).Debug("state loaded")

	return &Store{fs: fs, path: path, file: f, table: t}, nil
}

// Store binds a table to its state file.
type Store struct {
	fs    afero.Fs
	path  string
	file  afero.File
	table *Table
}

//
func (s *Store) Table() *Table {
	return s.table
}

//
func (s *Store) Path() string {
	return s.path
}

// Flush rewrites the state file if the table is dirty, and closes it. The
// rewrite goes to a temporary file first, which then replaces the state file,
// so the file is never left half written. A clean table causes no write.
func (s *Store) Flush() error {

	var err error

	if s.table.IsDirty() {
		if err = s.write(); err == nil {
			s.table.dirty = false
			log.WithField("path", s.path).Debug("state flushed")
		}
	}

	if s.file != nil {
		if e := s.file.Close(); e != nil && err == nil {
			err = fmt.Errorf("%w: cannot close state file: %v", util.ErrIO, e)
		}
		s.file = nil
	}

	return err
}

//
func (s *Store) write() error {

	tmp := s.path + ".tmp"

	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%w: cannot write state file: %v", util.ErrIO, err)
	}

	if err := Encode(s.table, f); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return fmt.Errorf("%w: cannot write state file: %v", util.ErrIO, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return fmt.Errorf("%w: cannot sync state file: %v", util.ErrIO, err)
	}

	if err := f.Close(); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("%w: cannot close state file: %v", util.ErrIO, err)
	}

	if err := s.fs.Rename(tmp, s.path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("%w: cannot replace state file: %v", util.ErrIO, err)
	}

	return nil
}
