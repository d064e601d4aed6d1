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

// Package transfer copies files between the host file system and a mounted
// volume. Each file goes through one of several modes: MacBinary II and
// BinHex 4.0 preserve both forks and the Finder metadata, text mode
// translates line endings and character set of the data fork, and raw mode
// copies the data fork as is.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/hfsctl/hfsctl/pkg/charset"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// ChunkSize is the unit in which fork contents are moved.
const ChunkSize = 2048

// type and creator codes for files created by text and raw mode
const (
	TextType    = "TEXT"
	RawType     = "????"
	HostCreator = "UNIX"
)

// Engine copies files between host and a volume.
type Engine struct {
	vol  volume.Volume
	host afero.Fs
	// used for source and destination "-"
	Stdin  io.Reader
	Stdout io.Writer
	// Unpack makes copy-in decompress gzip sources and extract single file
	// zip and 7z archives. Mode selection then uses the name of the
	// contained file. Raw mode never unpacks.
	Unpack bool
}

// Result is the outcome of copying a single source.
type Result struct {
	Source string
	// the mode actually used, i.e. never ModeAuto if the copy got as far as
	// selecting a mode
	Mode Mode
	Err  error
}

//
func NewEngine(v volume.Volume, host afero.Fs) *Engine {
	return &Engine{vol: v, host: host, Stdin: os.Stdin, Stdout: os.Stdout}
}

// CopyIn copies host files sources onto the volume. With more than one
// source, dest has to be an existing directory on the volume. A failing
// source does not stop the batch. The returned error aggregates the errors of
// all failed sources.
func (e *Engine) CopyIn(sources []string, dest string, mode Mode) (
	[]*Result, error) {

	if len(sources) > 1 {
		if ent, err := e.vol.Stat(dest); err != nil || !ent.Dir {
			return nil, fmt.Errorf("%w: %s", util.ErrNotADirectory, dest)
		}
	}

	return e.batch(sources, mode, func(res *Result) error {
		return e.copyIn(res, dest)
	})
}

// CopyOut copies files sources from the volume to the host. With more than one
// source, dest has to be an existing directory on the host. Batch semantics
// are the same as for CopyIn.
func (e *Engine) CopyOut(sources []string, dest string, mode Mode) (
	[]*Result, error) {

	if len(sources) > 1 {
		if fi, err := e.host.Stat(dest); err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("%w: %s", util.ErrNotADirectory, dest)
		}
	}

	return e.batch(sources, mode, func(res *Result) error {
		return e.copyOut(res, dest)
	})
}

//
func (e *Engine) batch(sources []string, mode Mode,
	fn func(res *Result) error) ([]*Result, error) {

	var errs *multierror.Error
	ret := make([]*Result, 0, len(sources))

	for _, src := range sources {

		res := &Result{Source: src, Mode: mode}
		res.Err = fn(res)

		fields := log.Fields{"source": src, "mode": res.Mode}
		if res.Err != nil {
			log.WithFields(fields).Debugf("copy failed: %v", res.Err)
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", src, res.Err))
		} else {
			log.WithFields(fields).Debug("copied")
		}

		ret = append(ret, res)
	}

	return ret, errs.ErrorOrNil()
}

//
func (e *Engine) copyIn(res *Result, dest string) error {

	if res.Source != "-" {
		if fi, err := e.host.Stat(res.Source); err == nil && fi.IsDir() {
			return fmt.Errorf("%w: %s", util.ErrIsADirectory, res.Source)
		}
	}

	in, err := e.openSource(res.Source, e.Unpack && res.Mode != ModeRaw)
	if err != nil {
		return err
	}

	if res.Mode == ModeAuto {
		res.Mode = AutoIn(in.name)
	}

	switch res.Mode {
	case ModeMacBinary:
		err = e.macBinaryIn(in, dest)
	case ModeBinHex:
		err = e.binHexIn(in, dest)
	case ModeText:
		err = e.textIn(in, dest)
	default:
		err = e.rawIn(in, dest)
	}

	if cerr := in.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: error closing source file: %v", util.ErrIO, cerr)
	}
	return err
}

//
func (e *Engine) copyOut(res *Result, dest string) error {

	if ent, err := e.vol.Stat(res.Source); err == nil && ent.Dir {
		return fmt.Errorf("%w: %s", util.ErrIsADirectory, res.Source)
	}

	if res.Mode == ModeAuto {
		res.Mode = AutoOut(e.vol, res.Source)
	}

	f, err := e.vol.Open(res.Source)
	if err != nil {
		return err
	}

	ent, err := f.Stat()
	if err != nil {
		return closeFile(f, err)
	}

	out, err := e.openHost(dest, hostName(ent.Name, res.Mode))
	if err != nil {
		return closeFile(f, err)
	}

	switch res.Mode {
	case ModeMacBinary:
		err = macBinaryOut(f, ent, out)
	case ModeBinHex:
		err = binHexOut(f, ent, out)
	case ModeText:
		err = textOut(f, out)
	default:
		err = rawOut(f, out)
	}

	if cerr := out.Close(); cerr != nil && err == nil {
		err = hostError(cerr, "error closing destination file")
	}
	return closeFile(f, err)
}

// create replaces the file at dest with an empty one. If dest is a directory,
// the file is created in there, named after hint.
func (e *Engine) create(dest, hint, typ, creator string) (volume.File, error) {

	path := dest
	if ent, err := e.vol.Stat(dest); err == nil && ent.Dir {
		path = volume.JoinPath(dest, volumeName(hint))
	}

	if err := e.vol.Delete(path); err != nil && !errors.Is(err, util.ErrNotFound) {
		return nil, err
	}

	log.WithFields(log.Fields{
		"path":    path,
		"type":    typ,
		"creator": creator}).Trace("creating file")

	return e.vol.Create(path, typ, creator)
}

// openHost opens the host destination for writing. If dest is a directory,
// the file is created in there, named hint.
func (e *Engine) openHost(dest, hint string) (io.WriteCloser, error) {

	if dest == "-" {
		return nopWriteCloser{e.Stdout}, nil
	}

	path := dest
	if fi, err := e.host.Stat(dest); err == nil && fi.IsDir() {
		path = filepath.Join(dest, hint)
	}

	f, err := e.host.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, hostError(err, "error opening destination file")
	}
	return f, nil
}

// volumeName turns a name hint into a valid file name on the volume.
func volumeName(hint string) string {
	return charset.Truncate(
		strings.ReplaceAll(hint, volume.Separator, "-"), volume.MaxNameLen)
}

var hostReplacer = strings.NewReplacer("/", "-", "\\", "-", " ", "_")

// hostName derives the host file name for a file called name on the volume
// that is copied out in mode m.
func hostName(name string, m Mode) string {

	name = hostReplacer.Replace(name)

	switch m {
	case ModeMacBinary:
		name += ".bin"
	case ModeBinHex:
		name += ".hqx"
	case ModeText:
		if !strings.Contains(name, ".") {
			name += ".txt"
		}
	}

	return name
}

// CopyChunks copies src to dst in chunks of ChunkSize bytes, and returns the
// number of bytes copied. Errors from the volume are passed on, others are
// reported as I/O errors.
func CopyChunks(dst io.Writer, src io.Reader) (int64, error) {

	buf := make([]byte, ChunkSize)
	var total int64

	for {
		n, err := src.Read(buf)
		if n > 0 {
			written, werr := dst.Write(buf[:n])
			if werr != nil {
				return total, classify(werr, "error writing data")
			}
			if written != n {
				return total, fmt.Errorf("%w: wrote incomplete chunk", util.ErrIO)
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, classify(err, "error reading data")
		}
	}
}

// readFull fills p from r. A premature end is a format error, since sources
// read this way carry their own length information.
func readFull(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: read incomplete chunk", util.ErrFormat)
		}
		return classify(err, "error reading data")
	}
	return nil
}

//
func classify(err error, msg string) error {
	if util.Kind(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %s: %v", util.ErrIO, msg, err)
}

// updateAttr applies fn to the attributes of f.
func updateAttr(f volume.File, fn func(e *volume.DirEntry)) error {
	ent, err := f.Stat()
	if err != nil {
		return err
	}
	fn(ent)
	return f.SetAttr(ent)
}

// closeFile closes f, and returns err if set, otherwise the error from
// closing.
func closeFile(f io.Closer, err error) error {
	if cerr := f.Close(); err == nil {
		return cerr
	}
	return err
}

//
type nopWriteCloser struct {
	io.Writer
}

//
func (nopWriteCloser) Close() error {
	return nil
}
