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
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/util"
)

// source is a host file opened for copying onto a volume. When unwrapping is
// requested, compressed files and archives are unwrapped, in which case name
// is that of the contained file.
type source struct {
	io.ReadCloser
	name       string
	compressor string
}

//
func (e *Engine) openSource(path string, unwrap bool) (*source, error) {

	if path == "-" {
		return &source{ReadCloser: io.NopCloser(e.Stdin)}, nil
	}

	f, err := e.host.Open(path)
	if err != nil {
		return nil, hostError(err, "error opening source file")
	}

	name, compressor := splitCompressor(path)
	if !unwrap || compressor == "" {
		return &source{ReadCloser: f, name: filepath.Base(path)}, nil
	}

	log.WithFields(log.Fields{
		"path":       path,
		"compressor": compressor}).Debug("unwrapping source")

	var ret *source

	switch compressor {
	case "gz", "gzip":
		ret, err = gzipSource(f, name)
	case "zip":
		ret, err = archiveSource(f, false)
	case "7z":
		ret, err = archiveSource(f, true)
	}

	if err != nil {
		f.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"compressor": ret.compressor,
		"name":       ret.name}).Debug("source unwrapped")

	return ret, nil
}

// splitCompressor returns the base name of path with a compression suffix
// removed, and the compressor that suffix denotes.
func splitCompressor(path string) (name, compressor string) {

	name = filepath.Base(path)
	ext := filepath.Ext(name)

	switch c := strings.ToLower(strings.TrimPrefix(ext, ".")); c {
	case "gz", "gzip", "zip", "7z":
		return strings.TrimSuffix(name, ext), c
	}

	return name, ""
}

//
func gzipSource(r io.ReadCloser, name string) (*source, error) {

	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrFormat, err)
	}

	if gzr.Name != "" {
		name = filepath.Base(gzr.Name)
	}

	return &source{
		ReadCloser: &stack{Reader: gzr, closers: []io.Closer{gzr, r}},
		name:       name,
		compressor: "gzip",
	}, nil
}

// archiveSource opens the first entry of a zip or 7-zip archive. Both need
// random access, so the archive is read into memory.
func archiveSource(r io.ReadCloser, zip7 bool) (*source, error) {

	var sponge bytes.Buffer
	size, err := io.Copy(&sponge, r)
	if err != nil {
		return nil, fmt.Errorf("%w: error reading source file: %v", util.ErrIO, err)
	}
	r.Close()

	ret := &source{}
	var entry io.ReadCloser

	if zip7 {
		zr, err := sevenzip.NewReader(bytes.NewReader(sponge.Bytes()), size)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrFormat, err)
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("%w: empty 7-zip archive", util.ErrFormat)
		}
		if len(zr.File) > 1 {
			return nil, fmt.Errorf("%w: 7-zip archive holds %d files, only single file archives can be unpacked",
				util.ErrFormat, len(zr.File))
		}
		ret.name = filepath.Base(zr.File[0].Name)
		ret.compressor = "7z"
		entry, err = zr.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrFormat, err)
		}

	} else {
		zr, err := zip.NewReader(bytes.NewReader(sponge.Bytes()), size)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrFormat, err)
		}
		if len(zr.File) == 0 {
			return nil, fmt.Errorf("%w: empty zip archive", util.ErrFormat)
		}
		if len(zr.File) > 1 {
			return nil, fmt.Errorf("%w: zip archive holds %d files, only single file archives can be unpacked",
				util.ErrFormat, len(zr.File))
		}
		ret.name = filepath.Base(zr.File[0].Name)
		ret.compressor = "zip"
		entry, err = zr.File[0].Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrFormat, err)
		}
	}

	ret.ReadCloser = entry
	return ret, nil
}

// stack reads from Reader and closes all closers on Close, reporting the
// first error.
type stack struct {
	io.Reader
	closers []io.Closer
}

//
func (s *stack) Close() error {
	var ret error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && ret == nil {
			ret = err
		}
	}
	return ret
}

// hostError classifies an error from the host file system.
func hostError(err error, msg string) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s: %v", util.ErrNotFound, msg, err)
	}
	return fmt.Errorf("%w: %s: %v", util.ErrIO, msg, err)
}
