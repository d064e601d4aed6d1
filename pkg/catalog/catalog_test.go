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

package catalog

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

//
func forEachEngine(t *testing.T, fn func(t *testing.T, eng *Engine, path string)) {

	fixtures := []struct {
		name string
		eng  *Engine
		path string
	}{
		{name: "memory", eng: NewMemoryEngine(), path: "/media/disk.img"},
		{name: "image", eng: NewImageEngine(),
			path: filepath.Join(t.TempDir(), "disk.img")},
	}

	for _, f := range fixtures {
		f := f
		t.Run(f.name, func(t *testing.T) {
			fn(t, f.eng, f.path)
		})
	}
}

//
func mount(t *testing.T, eng *Engine, path string, mode volume.Mode) volume.Volume {
	t.Helper()
	v, err := eng.Mount(path, 0, mode)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	return v
}

//
func format(t *testing.T, eng *Engine, path, name string) volume.Volume {
	t.Helper()
	if err := eng.Format(path, 0, name); err != nil {
		t.Fatalf("format failed: %v", err)
	}
	return mount(t, eng, path, volume.ModeReadWrite)
}

//
func writeFile(t *testing.T, v volume.Volume, path string, data, rsrc []byte) {
	t.Helper()
	f, err := v.Create(path, "TEXT", "ttxt")
	if err != nil {
		t.Fatalf("create %s failed: %v", path, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if rsrc != nil {
		if err := f.SetFork(volume.ResourceFork); err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write(rsrc); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

//
func readFork(t *testing.T, v volume.Volume, path string, fork volume.Fork) string {
	t.Helper()
	f, err := v.Open(path)
	if err != nil {
		t.Fatalf("open %s failed: %v", path, err)
	}
	defer f.Close()
	if err := f.SetFork(fork); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadAll(f)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(b)
}

func TestFormatAndMount(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		v := format(t, eng, path, "MacHD")
		defer v.Close()

		info, err := v.Info()
		if err != nil {
			t.Fatal(err)
		}
		if info.Name != "MacHD" || info.Files != 0 || info.Dirs != 0 {
			t.Errorf("unexpected volume info: %+v", info)
		}
		if info.TotalBytes != DefaultCapacity || info.FreeBytes != DefaultCapacity {
			t.Errorf("unexpected capacity: %d/%d", info.TotalBytes, info.FreeBytes)
		}
		if v.Cwd() != volume.RootID {
			t.Errorf("expected to start at root, got %d", v.Cwd())
		}

		parent, name, err := v.DirInfo(volume.RootID)
		if err != nil || parent != volume.RootParentID || name != "MacHD" {
			t.Errorf("unexpected root info: %d %q %v", parent, name, err)
		}

		n, err := eng.Partitions(path)
		if err != nil || n != 0 {
			t.Errorf("expected unpartitioned medium, got %d, %v", n, err)
		}
	})
}

func TestFormatRejectsBadName(t *testing.T) {
	eng := NewMemoryEngine()
	for _, name := range []string{"", "a:b", "ThisVolumeNameIsWayTooLongForHFS"} {
		if err := eng.Format("/disk", 0, name); !errors.Is(err, util.ErrInvalid) {
			t.Errorf("%q: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestMountMissing(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {
		if _, err := eng.Mount(path, 0, volume.ModeAny); !errors.Is(err, util.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestFilesAndDirectories(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		v := format(t, eng, path, "MacHD")
		defer v.Close()

		if err := v.Mkdir("FolderA"); err != nil {
			t.Fatal(err)
		}
		if err := v.Mkdir(":FolderA:Inner"); err != nil {
			t.Fatal(err)
		}
		writeFile(t, v, "MacHD:FolderA:beta", []byte("hello"), []byte("rsrc"))
		writeFile(t, v, ":folderA:Alpha", []byte("world"), nil)

		if err := v.Mkdir(":FolderA"); !errors.Is(err, util.ErrExists) {
			t.Errorf("expected ErrExists, got %v", err)
		}

		entries, err := v.ReadDir(":FOLDERA")
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, e := range entries {
			names = append(names, e.Name)
		}
		if len(names) != 3 || names[0] != "Alpha" || names[1] != "beta" ||
			names[2] != "Inner" {
			t.Errorf("unexpected listing: %v", names)
		}

		e, err := v.Stat(":FolderA:BETA")
		if err != nil {
			t.Fatal(err)
		}
		if e.Type != "TEXT" || e.Creator != "ttxt" || e.DataSize != 5 ||
			e.RsrcSize != 4 || e.Dir {
			t.Errorf("unexpected entry: %v", e)
		}

		if d := readFork(t, v, ":FolderA:beta", volume.DataFork); d != "hello" {
			t.Errorf("unexpected data fork %q", d)
		}
		if r := readFork(t, v, ":FolderA:beta", volume.ResourceFork); r != "rsrc" {
			t.Errorf("unexpected resource fork %q", r)
		}

		d, err := v.Stat("FolderA:")
		if err == nil {
			t.Errorf("volume name mismatch must fail, got %v", d)
		}

		d, err = v.Stat(":FolderA")
		if err != nil || !d.Dir || d.Valence != 3 {
			t.Errorf("unexpected folder entry: %v, %v", d, err)
		}

		info, _ := v.Info()
		if info.Files != 2 || info.Dirs != 2 {
			t.Errorf("unexpected counts: %d files, %d dirs", info.Files, info.Dirs)
		}
		if info.FreeBytes != DefaultCapacity-3*BlockSize {
			t.Errorf("unexpected free space %d", info.FreeBytes)
		}

		if _, err := v.Open(":FolderA"); !errors.Is(err, util.ErrIsADirectory) {
			t.Errorf("expected ErrIsADirectory, got %v", err)
		}
		if _, err := v.Stat(":FolderA:beta:x"); !errors.Is(err, util.ErrNotADirectory) {
			t.Errorf("expected ErrNotADirectory, got %v", err)
		}
		if _, err := v.Stat(":nope"); !errors.Is(err, util.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestChdirAndParentElements(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		v := format(t, eng, path, "MacHD")
		defer v.Close()

		v.Mkdir("A")
		v.Mkdir(":A:B")

		if err := v.Chdir(":A:B"); err != nil {
			t.Fatal(err)
		}
		rel, err := volume.WorkingDirectoryPath(v)
		if err != nil || rel != "A:B" {
			t.Errorf("unexpected working directory %q, %v", rel, err)
		}

		if err := v.Chdir("::"); err != nil {
			t.Fatal(err)
		}
		if e, _ := v.Stat(":"); e.Name != "A" {
			t.Errorf("expected to be in A, got %s", e.Name)
		}

		if err := v.Chdir(":::::"); err != nil {
			t.Fatal(err)
		}
		if v.Cwd() != volume.RootID {
			t.Errorf("moving above the root must stay at the root")
		}

		writeFile(t, v, "f", nil, nil)
		if err := v.Chdir("f"); !errors.Is(err, util.ErrNotADirectory) {
			t.Errorf("expected ErrNotADirectory, got %v", err)
		}
		if err := v.SetCwd(999); !errors.Is(err, util.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRename(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		v := format(t, eng, path, "MacHD")
		defer v.Close()

		v.Mkdir("A")
		v.Mkdir("B")
		v.Mkdir(":A:Sub")
		writeFile(t, v, "file", []byte("x"), nil)
		writeFile(t, v, "other", nil, nil)

		if err := v.Rename("file", "renamed"); err != nil {
			t.Fatal(err)
		}
		if _, err := v.Stat("file"); !errors.Is(err, util.ErrNotFound) {
			t.Errorf("old name still present: %v", err)
		}

		if err := v.Rename("renamed", "RENAMED"); err != nil {
			t.Fatal(err)
		}
		if e, err := v.Stat("renamed"); err != nil || e.Name != "RENAMED" {
			t.Errorf("case change failed: %v, %v", e, err)
		}

		if err := v.Rename("RENAMED", "A"); err != nil {
			t.Fatal(err)
		}
		if d := readFork(t, v, ":A:RENAMED", volume.DataFork); d != "x" {
			t.Errorf("moved file has data %q", d)
		}
		if a, _ := v.Stat("A"); a.Valence != 2 {
			t.Errorf("expected valence 2, got %d", a.Valence)
		}

		if err := v.Rename("other", ":A:RENAMED"); !errors.Is(err, util.ErrExists) {
			t.Errorf("expected ErrExists, got %v", err)
		}
		if err := v.Rename("A", ":A:Sub"); !errors.Is(err, util.ErrInvalid) {
			t.Errorf("expected ErrInvalid, got %v", err)
		}
		if err := v.Rename("A", ":B:Moved"); err != nil {
			t.Fatal(err)
		}
		if _, err := v.Stat(":B:Moved:Sub"); err != nil {
			t.Errorf("subtree not moved: %v", err)
		}

		if err := v.Rename("MacHD:", "NewName"); err != nil {
			t.Fatal(err)
		}
		info, _ := v.Info()
		if info.Name != "NewName" {
			t.Errorf("volume not renamed: %s", info.Name)
		}
		if _, err := v.Stat("NewName:B:Moved"); err != nil {
			t.Errorf("absolute path with new name failed: %v", err)
		}
	})
}

func TestRemove(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		v := format(t, eng, path, "MacHD")
		defer v.Close()

		v.Mkdir("Dir")
		writeFile(t, v, ":Dir:f", make([]byte, 1000), nil)

		if err := v.Rmdir("Dir"); !errors.Is(err, util.ErrNotEmpty) {
			t.Errorf("expected ErrNotEmpty, got %v", err)
		}
		if err := v.Rmdir(":Dir:f"); !errors.Is(err, util.ErrNotADirectory) {
			t.Errorf("expected ErrNotADirectory, got %v", err)
		}
		if err := v.Delete("Dir"); !errors.Is(err, util.ErrIsADirectory) {
			t.Errorf("expected ErrIsADirectory, got %v", err)
		}
		if err := v.Rmdir("MacHD:"); !errors.Is(err, util.ErrInvalid) {
			t.Errorf("expected ErrInvalid, got %v", err)
		}

		e, _ := v.Stat(":Dir:f")
		e.Locked = true
		if err := v.SetAttr(":Dir:f", e); err != nil {
			t.Fatal(err)
		}
		if err := v.Delete(":Dir:f"); !errors.Is(err, util.ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", err)
		}
		e.Locked = false
		v.SetAttr(":Dir:f", e)

		if err := v.Delete(":Dir:f"); err != nil {
			t.Fatal(err)
		}
		if err := v.Rmdir("Dir"); err != nil {
			t.Fatal(err)
		}

		info, _ := v.Info()
		if info.Files != 0 || info.Dirs != 0 || info.FreeBytes != info.TotalBytes {
			t.Errorf("unexpected volume info after removal: %+v", info)
		}
	})
}

func TestPersistence(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		v := format(t, eng, path, "MacHD")
		v.Mkdir("Kept")
		writeFile(t, v, ":Kept:file", []byte("content"), nil)
		if err := v.Close(); err != nil {
			t.Fatal(err)
		}

		// read-only mounts reject changes
		v = mount(t, eng, path, volume.ModeReadOnly)
		if !v.ReadOnly() {
			t.Error("expected read-only volume")
		}
		if err := v.Mkdir("Lost"); !errors.Is(err, util.ErrReadOnly) {
			t.Errorf("expected ErrReadOnly, got %v", err)
		}
		if d := readFork(t, v, ":Kept:file", volume.DataFork); d != "content" {
			t.Errorf("unexpected content %q", d)
		}
		v.Close()

		v = mount(t, eng, path, volume.ModeAny)
		defer v.Close()
		if v.ReadOnly() {
			t.Error("expected writable volume")
		}
		if _, err := v.Stat("Lost"); !errors.Is(err, util.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSetAttrKeepsModificationDate(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		v := format(t, eng, path, "MacHD")
		defer v.Close()

		f, err := v.Create("app", "APPL", "????")
		if err != nil {
			t.Fatal(err)
		}
		f.Write([]byte("code"))
		e, _ := f.Stat()
		if e.DataSize != 4 {
			t.Errorf("expected pending size 4, got %d", e.DataSize)
		}

		e.Modified = util.FromMacTime(3000000000)
		e.Created = util.FromMacTime(2900000000)
		e.Type, e.Creator = "APPL", "CREA"
		e.FinderFlags = volume.FinderHasBundle
		if err := f.SetAttr(e); err != nil {
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}

		e, _ = v.Stat("app")
		if !e.Modified.Equal(util.FromMacTime(3000000000)) ||
			!e.Created.Equal(util.FromMacTime(2900000000)) {
			t.Errorf("dates not kept: %v / %v", e.Created, e.Modified)
		}
		if e.Creator != "CREA" || e.FinderFlags != volume.FinderHasBundle ||
			e.DataSize != 4 {
			t.Errorf("unexpected entry: %v", e)
		}
	})
}

func TestVolumeFull(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		eng.Capacity = 4 * BlockSize
		v := format(t, eng, path, "Tiny")
		defer v.Close()

		f, err := v.Create("big", "????", "????")
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		if _, err := f.Write(make([]byte, 4*BlockSize)); err != nil {
			t.Fatalf("expected full volume to fit, got %v", err)
		}
		if _, err := f.Write([]byte{1}); !errors.Is(err, util.ErrVolumeFull) {
			t.Errorf("expected ErrVolumeFull, got %v", err)
		}
	})
}

func TestPartitions(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		for p, name := range map[int]string{1: "One", 2: "Two"} {
			if err := eng.Format(path, p, name); err != nil {
				t.Fatal(err)
			}
		}

		n, err := eng.Partitions(path)
		if err != nil || n != 2 {
			t.Errorf("expected 2 partitions, got %d, %v", n, err)
		}

		v, err := eng.Mount(path, 2, volume.ModeReadOnly)
		if err != nil {
			t.Fatal(err)
		}
		info, _ := v.Info()
		v.Close()
		if info.Name != "Two" {
			t.Errorf("unexpected volume %s on partition 2", info.Name)
		}

		if _, err := eng.Mount(path, 0, volume.ModeAny); !errors.Is(err, util.ErrFormat) {
			t.Errorf("expected ErrFormat for missing partition, got %v", err)
		}

		if err := eng.Format(path, 0, "Whole"); err != nil {
			t.Fatal(err)
		}
		if n, _ := eng.Partitions(path); n != 0 {
			t.Errorf("expected unpartitioned medium after format, got %d", n)
		}
	})
}

func TestLockedVolume(t *testing.T) {
	forEachEngine(t, func(t *testing.T, eng *Engine, path string) {

		v := format(t, eng, path, "MacHD")
		info, _ := v.Info()
		info.Locked = true
		if err := v.SetInfo(info); err != nil {
			t.Fatal(err)
		}
		v.Close()

		if _, err := eng.Mount(path, 0, volume.ModeReadWrite); !errors.Is(err, util.ErrReadOnly) {
			t.Errorf("expected ErrReadOnly, got %v", err)
		}

		v = mount(t, eng, path, volume.ModeAny)
		defer v.Close()
		if !v.ReadOnly() {
			t.Error("locked volume must mount read-only")
		}
	})
}

func TestForeignImage(t *testing.T) {

	// an 800K floppy image with an HFS master directory block signature
	data := make([]byte, 800*1024)
	data[1024], data[1025] = 'B', 'D'

	path := filepath.Join(t.TempDir(), "native.dsk")
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	eng := NewImageEngine()
	for _, mode := range []volume.Mode{volume.ModeReadOnly, volume.ModeAny} {
		_, err := eng.Mount(path, 0, mode)
		if !errors.Is(err, util.ErrFormat) {
			t.Fatalf("expected ErrFormat, got %v", err)
		}
		if !strings.Contains(err.Error(), "hfsctl format") {
			t.Errorf("error does not point at hfsctl format: %v", err)
		}
	}
}
