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
	"bufio"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/hfsctl/hfsctl/pkg/util"
)

// The state file is UTF-8 text. The first line holds the current index, each
// further line one entry as tab separated fields:
//
//	name  created  device  partition  cwd
//
const fieldCount = 5

// checkFields rejects values that would break the line and field structure
// of the state file. Table guards every string it stores with it, so Encode
// writes fields verbatim.
func checkFields(fields ...string) error {
	for _, f := range fields {
		if strings.ContainsAny(f, "\t\n\r") {
			return fmt.Errorf("%w: %q contains tab or line break", util.ErrInvalid, f)
		}
	}
	return nil
}

// Decode reads a table from r. Lines that carry no working directory are
// dropped; numeric fields that cannot be parsed count as zero. Neither is an
// error. A current index that does not refer to a loaded entry is reset.
func Decode(r io.Reader) (*Table, error) {

	t := NewTable()
	current := -1

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), 1024*1024)

	if scanner.Scan() {
		current = cast.ToInt(strings.TrimSpace(scanner.Text()))
	}

	line := 1
	for scanner.Scan() {

		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		fields := strings.SplitN(text, "\t", fieldCount)

		if len(fields) < fieldCount || fields[fieldCount-1] == "" {
			log.WithField("line", line).Debug(
				"dropping session entry without working directory")
			continue
		}

		e := &MountEntry{
			VolumeName: fields[0],
			Created:    cast.ToInt64(strings.TrimSpace(fields[1])),
			DevicePath: fields[2],
			Partition:  cast.ToInt(strings.TrimSpace(fields[3])),
			WorkingDir: fields[4],
		}

		if e.Partition < 0 {
			e.Partition = 0
		}

		if t.indexOf(e.DevicePath, e.Partition) > -1 {
			log.WithFields(log.Fields{
				"line":   line,
				"device": e.DevicePath,
			}).Warn("dropping duplicate session entry")
			continue
		}

		t.entries = append(t.entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if current >= 0 && current < len(t.entries) {
		t.current = current
	}

	return t, nil
}

// Encode writes t to w in the format understood by Decode.
func Encode(t *Table, w io.Writer) error {

	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "%d\n", t.current); err != nil {
		return err
	}

	for _, e := range t.entries {
		if _, err := fmt.Fprintf(bw, "%s\t%d\t%s\t%d\t%s\n",
			e.VolumeName, e.Created, e.DevicePath, e.Partition,
			e.WorkingDir); err != nil {
			return err
		}
	}

	return bw.Flush()
}

//
func (t *Table) indexOf(devicePath string, partition int) int {
	for ix, e := range t.entries {
		if e.DevicePath == devicePath && e.Partition == partition {
			return ix
		}
	}
	return -1
}
