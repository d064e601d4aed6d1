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

package util

import (
	"errors"
)

// The error taxonomy shared by all components. Operations wrap one of these
// with context, e.g. fmt.Errorf("%w: bad file name", ErrFormat), so that
// callers can test the class with errors.Is.
var (
	// host or medium I/O failure, including short reads & writes
	ErrIO = errors.New("i/o error")
	// malformed container header, bad checksum, version or field lengths
	ErrFormat = errors.New("invalid format")
	// bound volume no longer matches the expected identity
	ErrMediaMismatch = errors.New("media mismatch")
	//
	ErrNotADirectory = errors.New("not a directory")
	ErrNotFound      = errors.New("not found")
	ErrIsADirectory  = errors.New("is a directory")
	ErrOutOfMemory   = errors.New("not enough memory")
	//
	ErrNoCurrentVolume = errors.New(
		"no volume is current; use `mount' or `vol'")
	//
	ErrReadOnly   = errors.New("volume is read-only")
	ErrExists     = errors.New("file exists")
	ErrNotEmpty   = errors.New("directory not empty")
	ErrVolumeFull = errors.New("volume is full")
	ErrLocked     = errors.New("file is locked")
	ErrInvalid    = errors.New("invalid argument")
)

// Kind returns the taxonomy member err belongs to, or nil if it does not wrap
// any of them.
func Kind(err error) error {
	for _, k := range []error{ErrIO, ErrFormat, ErrMediaMismatch,
		ErrNotADirectory, ErrNotFound, ErrIsADirectory, ErrOutOfMemory,
		ErrNoCurrentVolume, ErrReadOnly, ErrExists, ErrNotEmpty,
		ErrVolumeFull, ErrLocked, ErrInvalid} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
