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
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/hfsctl/hfsctl/pkg/catalog"
	"github.com/hfsctl/hfsctl/pkg/macbinary"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

const disk = "/images/disk.img"

var (
	created  = time.Date(1994, 3, 1, 12, 0, 0, 0, time.UTC)
	modified = time.Date(1995, 7, 4, 8, 30, 15, 0, time.UTC)
)

//
func setup(t *testing.T) (*Engine, volume.Volume, afero.Fs) {

	t.Helper()

	eng := catalog.NewMemoryEngine()
	if err := eng.Format(disk, 0, "MacHD"); err != nil {
		t.Fatalf("format failed: %v", err)
	}
	v, err := eng.Mount(disk, 0, volume.ModeReadWrite)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	t.Cleanup(func() { v.Close() })

	host := afero.NewMemMapFs()
	for _, d := range []string{"/host", "/out"} {
		if err := host.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
	}

	return NewEngine(v, host), v, host
}

//
func pattern(size int, seed byte) []byte {
	ret := make([]byte, size)
	for ix := range ret {
		ret[ix] = seed + byte(ix*13)
	}
	return ret
}

//
func makeFile(t *testing.T, v volume.Volume, path, typ, creator string,
	data, rsrc []byte, attr func(e *volume.DirEntry)) {

	t.Helper()

	f, err := v.Create(path, typ, creator)
	if err != nil {
		t.Fatalf("create %s failed: %v", path, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := f.SetFork(volume.ResourceFork); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(rsrc); err != nil {
		t.Fatal(err)
	}
	if attr != nil {
		ent, err := f.Stat()
		if err != nil {
			t.Fatal(err)
		}
		attr(ent)
		if err := f.SetAttr(ent); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

//
func readFork(t *testing.T, v volume.Volume, path string, fork volume.Fork) []byte {

	t.Helper()

	f, err := v.Open(path)
	if err != nil {
		t.Fatalf("open %s failed: %v", path, err)
	}
	defer f.Close()

	if err := f.SetFork(fork); err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

//
func stat(t *testing.T, v volume.Volume, path string) *volume.DirEntry {
	t.Helper()
	ent, err := v.Stat(path)
	if err != nil {
		t.Fatalf("stat %s failed: %v", path, err)
	}
	return ent
}

//
func writeHost(t *testing.T, host afero.Fs, path string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(host, path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

//
func readHost(t *testing.T, host afero.Fs, path string) []byte {
	t.Helper()
	data, err := afero.ReadFile(host, path)
	if err != nil {
		t.Fatalf("reading %s failed: %v", path, err)
	}
	return data
}

//
func copyIn(t *testing.T, e *Engine, src, dest string, mode Mode) *Result {
	t.Helper()
	res, err := e.CopyIn([]string{src}, dest, mode)
	if err != nil {
		t.Fatalf("copy in of %s failed: %v", src, err)
	}
	return res[0]
}

//
func copyOut(t *testing.T, e *Engine, src, dest string, mode Mode) *Result {
	t.Helper()
	res, err := e.CopyOut([]string{src}, dest, mode)
	if err != nil {
		t.Fatalf("copy out of %s failed: %v", src, err)
	}
	return res[0]
}

//
func macBinaryFile(t *testing.T, h *macbinary.Header, data, rsrc []byte) []byte {

	t.Helper()

	h.DataSize = uint32(len(data))
	h.RsrcSize = uint32(len(rsrc))

	var buf bytes.Buffer
	w := macbinary.NewWriter(&buf)
	if err := w.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFork(bytes.NewReader(data), h.DataSize); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFork(bytes.NewReader(rsrc), h.RsrcSize); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAutoSelection(t *testing.T) {

	e, v, host := setup(t)

	writeHost(t, host, "/host/notes.txt", []byte("hello\nworld\n"))
	if res := copyIn(t, e, "/host/notes.txt", "MacHD:", ModeAuto); res.Mode != ModeText {
		t.Errorf("notes.txt: want text mode, got %s", res.Mode)
	}

	ent := stat(t, v, "MacHD:notes")
	if ent.Type != TextType || ent.Creator != HostCreator {
		t.Errorf("want TEXT/UNIX, got %s/%s", ent.Type, ent.Creator)
	}
	if got := string(readFork(t, v, "MacHD:notes", volume.DataFork)); got != "hello\rworld\r" {
		t.Errorf("unexpected text contents: %q", got)
	}

	app := macBinaryFile(t, &macbinary.Header{
		Name:        "App",
		Type:        "APPL",
		Creator:     "CREA",
		FinderFlags: volume.FinderHasBundle | volume.FinderIsOnDesk,
		Created:     created,
		Modified:    modified,
	}, []byte("code"), []byte("resources"))
	writeHost(t, host, "/host/app.bin", app)

	if res := copyIn(t, e, "/host/app.bin", "MacHD:", ModeAuto); res.Mode != ModeMacBinary {
		t.Errorf("app.bin: want MacBinary mode, got %s", res.Mode)
	}

	ent = stat(t, v, "MacHD:App")
	if ent.Type != "APPL" || ent.Creator != "CREA" {
		t.Errorf("want APPL/CREA, got %s/%s", ent.Type, ent.Creator)
	}
	if ent.FinderFlags != volume.FinderHasBundle {
		t.Errorf("want finder flags %#x, got %#x", volume.FinderHasBundle,
			ent.FinderFlags)
	}
	if !ent.Created.Equal(created) || !ent.Modified.Equal(modified) {
		t.Errorf("dates not restored: %v, %v", ent.Created, ent.Modified)
	}

	if res := copyOut(t, e, "MacHD:notes", "/out", ModeAuto); res.Mode != ModeText {
		t.Errorf("notes: want text mode, got %s", res.Mode)
	}
	if got := string(readHost(t, host, "/out/notes.txt")); got != "hello\nworld\n" {
		t.Errorf("unexpected text copied out: %q", got)
	}
}

func TestTextTranscoding(t *testing.T) {

	e, v, host := setup(t)

	makeFile(t, v, "MacHD:ReadMe", "TEXT", "ttxt",
		[]byte("line1\rline2\rcaf\x8e"), nil, nil)

	copyOut(t, e, "MacHD:ReadMe", "/out", ModeAuto)
	if got := string(readHost(t, host, "/out/ReadMe.txt")); got != "line1\nline2\ncafé" {
		t.Errorf("unexpected text: %q", got)
	}

	// a two byte sequence straddling the chunk boundary
	text := "a" + strings.Repeat("é", ChunkSize)
	writeHost(t, host, "/host/accents.txt", []byte(text))
	copyIn(t, e, "/host/accents.txt", "MacHD:", ModeAuto)

	want := append([]byte("a"), bytes.Repeat([]byte{0x8e}, ChunkSize)...)
	if got := readFork(t, v, "MacHD:accents", volume.DataFork); !bytes.Equal(got, want) {
		t.Errorf("split sequence mistranslated")
	}

	copyOut(t, e, "MacHD:accents", "/out/accents.txt", ModeText)
	if got := string(readHost(t, host, "/out/accents.txt")); got != text {
		t.Errorf("text did not survive round trip")
	}
}

func TestBatchContinuesAfterFailure(t *testing.T) {

	e, v, host := setup(t)

	writeHost(t, host, "/host/one", []byte("first"))
	writeHost(t, host, "/host/three", []byte("third"))

	res, err := e.CopyIn(
		[]string{"/host/one", "/host/two", "/host/three"}, "MacHD:", ModeAuto)

	merr, ok := err.(*multierror.Error)
	if !ok || len(merr.Errors) != 1 {
		t.Fatalf("want one aggregated error, got %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("want 3 results, got %d", len(res))
	}
	if !errors.Is(res[1].Err, util.ErrNotFound) {
		t.Errorf("want not found for second source, got %v", res[1].Err)
	}

	for _, ix := range []int{0, 2} {
		if res[ix].Err != nil {
			t.Errorf("source %d: %v", ix, res[ix].Err)
		}
		if res[ix].Mode != ModeRaw {
			t.Errorf("source %d: want raw mode, got %s", ix, res[ix].Mode)
		}
	}

	if got := string(readFork(t, v, "MacHD:three", volume.DataFork)); got != "third" {
		t.Errorf("unexpected contents: %q", got)
	}
	if ent := stat(t, v, "MacHD:one"); ent.Type != RawType {
		t.Errorf("want type %s, got %s", RawType, ent.Type)
	}
}

func TestMultipleSourcesNeedDirectory(t *testing.T) {

	e, v, host := setup(t)

	writeHost(t, host, "/host/a", []byte("a"))
	writeHost(t, host, "/host/b", []byte("b"))
	makeFile(t, v, "MacHD:file", "TEXT", "ttxt", []byte("x"), nil, nil)

	for _, dest := range []string{"MacHD:file", "MacHD:missing"} {
		res, err := e.CopyIn([]string{"/host/a", "/host/b"}, dest, ModeRaw)
		if !errors.Is(err, util.ErrNotADirectory) || res != nil {
			t.Errorf("%s: want not a directory, got %v", dest, err)
		}
	}
	if _, err := v.Stat("MacHD:a"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("source copied despite error")
	}

	_, err := e.CopyOut([]string{"MacHD:file", "MacHD:file"}, "/out/x", ModeRaw)
	if !errors.Is(err, util.ErrNotADirectory) {
		t.Errorf("want not a directory, got %v", err)
	}
}

func TestDirectorySources(t *testing.T) {

	e, v, _ := setup(t)

	if err := v.Mkdir("MacHD:Folder"); err != nil {
		t.Fatal(err)
	}

	res, err := e.CopyIn([]string{"/host"}, "MacHD:", ModeAuto)
	if err == nil || !errors.Is(res[0].Err, util.ErrIsADirectory) {
		t.Errorf("want is a directory, got %v", err)
	}

	res, err = e.CopyOut([]string{"MacHD:Folder"}, "/out", ModeAuto)
	if err == nil || !errors.Is(res[0].Err, util.ErrIsADirectory) {
		t.Errorf("want is a directory, got %v", err)
	}
}

func TestCopyInReplacesFile(t *testing.T) {

	e, v, host := setup(t)

	writeHost(t, host, "/host/data", []byte("a much longer first version"))
	copyIn(t, e, "/host/data", "MacHD:Data", ModeRaw)

	writeHost(t, host, "/host/data", []byte("second"))
	copyIn(t, e, "/host/data", "MacHD:Data", ModeRaw)

	if got := string(readFork(t, v, "MacHD:Data", volume.DataFork)); got != "second" {
		t.Errorf("file not replaced: %q", got)
	}
}

func TestMacBinaryRoundTrip(t *testing.T) {

	e, v, host := setup(t)

	data := pattern(3000, 1)
	rsrc := pattern(129, 7)
	makeFile(t, v, ":Read Me", "APPL", "CREA", data, rsrc,
		func(ent *volume.DirEntry) {
			ent.FinderFlags = volume.FinderHasBundle | volume.FinderIsOnDesk
			ent.Created = created
			ent.Modified = modified
		})

	copyOut(t, e, ":Read Me", "/out", ModeMacBinary)
	if len(readHost(t, host, "/out/Read_Me.bin")) != 128+3072+256 {
		t.Errorf("unexpected MacBinary size")
	}

	if err := v.Mkdir("MacHD:Copies"); err != nil {
		t.Fatal(err)
	}
	if res := copyIn(t, e, "/out/Read_Me.bin", "MacHD:Copies", ModeAuto); res.Mode != ModeMacBinary {
		t.Errorf("want MacBinary, got %s", res.Mode)
	}

	path := "MacHD:Copies:Read Me"
	ent := stat(t, v, path)
	if ent.Type != "APPL" || ent.Creator != "CREA" {
		t.Errorf("want APPL/CREA, got %s/%s", ent.Type, ent.Creator)
	}
	if ent.FinderFlags != volume.FinderHasBundle {
		t.Errorf("unexpected finder flags %#x", ent.FinderFlags)
	}
	if !ent.Created.Equal(created) || !ent.Modified.Equal(modified) {
		t.Errorf("dates not restored: %v, %v", ent.Created, ent.Modified)
	}
	if !bytes.Equal(readFork(t, v, path, volume.DataFork), data) {
		t.Errorf("data fork differs")
	}
	if !bytes.Equal(readFork(t, v, path, volume.ResourceFork), rsrc) {
		t.Errorf("resource fork differs")
	}
}

func TestBinHexRoundTrip(t *testing.T) {

	e, v, host := setup(t)

	data := append(pattern(2500, 3), bytes.Repeat([]byte{0x90}, 300)...)
	rsrc := pattern(77, 9)
	makeFile(t, v, ":Archive", "SIT!", "SIT!", data, rsrc,
		func(ent *volume.DirEntry) {
			ent.FinderFlags = volume.FinderHasBundle | volume.FinderIsInvisible
		})

	copyOut(t, e, ":Archive", "/out", ModeBinHex)
	encoded := readHost(t, host, "/out/Archive.hqx")
	if !bytes.HasPrefix(encoded, []byte("(This file must be converted with BinHex 4.0)")) {
		t.Errorf("missing BinHex banner")
	}

	if err := v.Mkdir("MacHD:Copies"); err != nil {
		t.Fatal(err)
	}
	if res := copyIn(t, e, "/out/Archive.hqx", "MacHD:Copies:", ModeAuto); res.Mode != ModeBinHex {
		t.Errorf("want BinHex, got %s", res.Mode)
	}

	path := "MacHD:Copies:Archive"
	ent := stat(t, v, path)
	if ent.Type != "SIT!" || ent.Creator != "SIT!" {
		t.Errorf("want SIT!/SIT!, got %s/%s", ent.Type, ent.Creator)
	}
	if ent.FinderFlags != volume.FinderHasBundle {
		t.Errorf("unexpected finder flags %#x", ent.FinderFlags)
	}
	if !bytes.Equal(readFork(t, v, path, volume.DataFork), data) {
		t.Errorf("data fork differs")
	}
	if !bytes.Equal(readFork(t, v, path, volume.ResourceFork), rsrc) {
		t.Errorf("resource fork differs")
	}
}

func TestCorruptContainerLeavesVolumeAlone(t *testing.T) {

	e, v, host := setup(t)

	writeHost(t, host, "/host/bad.bin", pattern(300, 5))
	writeHost(t, host, "/host/bad.hqx", []byte("no banner here\n"))

	res, _ := e.CopyIn([]string{"/host/bad.bin", "/host/bad.hqx"}, "MacHD:", ModeAuto)
	for _, r := range res {
		if !errors.Is(r.Err, util.ErrFormat) {
			t.Errorf("%s: want format error, got %v", r.Source, r.Err)
		}
	}

	entries, err := v.ReadDir("MacHD:")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("files created for corrupt sources: %v", entries)
	}
}

func TestStandardStreams(t *testing.T) {

	e, _, _ := setup(t)

	e.Stdin = strings.NewReader("piped data")
	if res := copyIn(t, e, "-", "MacHD:Piped", ModeAuto); res.Mode != ModeRaw {
		t.Errorf("want raw mode for stdin, got %s", res.Mode)
	}

	var out bytes.Buffer
	e.Stdout = &out
	copyOut(t, e, "MacHD:Piped", "-", ModeAuto)
	if out.String() != "piped data" {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestCompressedSources(t *testing.T) {

	e, v, host := setup(t)
	e.Unpack = true

	var gz bytes.Buffer
	gzw := gzip.NewWriter(&gz)
	gzw.Write([]byte("hello\n"))
	gzw.Close()
	writeHost(t, host, "/host/notes.txt.gz", gz.Bytes())

	writeHost(t, host, "/host/bundle.zip", zipArchive(t, "docs/readme.txt"))

	res, err := e.CopyIn(
		[]string{"/host/notes.txt.gz", "/host/bundle.zip"}, "MacHD:", ModeAuto)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res {
		if r.Mode != ModeText {
			t.Errorf("%s: want text mode, got %s", r.Source, r.Mode)
		}
	}

	if got := string(readFork(t, v, "MacHD:notes", volume.DataFork)); got != "hello\r" {
		t.Errorf("unexpected contents: %q", got)
	}
	if got := string(readFork(t, v, "MacHD:readme", volume.DataFork)); got != "docs/readme.txt\r" {
		t.Errorf("unexpected contents: %q", got)
	}

	// raw copies leave archives alone
	copyIn(t, e, "/host/notes.txt.gz", "MacHD:", ModeRaw)
	if got := readFork(t, v, "MacHD:notes.txt.gz", volume.DataFork); !bytes.Equal(got, gz.Bytes()) {
		t.Errorf("raw copy of archive altered")
	}

	// archives with several files are not unpacked
	writeHost(t, host, "/host/many.zip", zipArchive(t, "a.txt", "b.txt"))
	res, err = e.CopyIn([]string{"/host/many.zip"}, "MacHD:", ModeAuto)
	if err == nil || !errors.Is(res[0].Err, util.ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
	if _, err := v.Stat("MacHD:a"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("partial archive content copied: %v", err)
	}
}

func TestArchivesCopiedVerbatim(t *testing.T) {

	e, v, host := setup(t)

	archive := zipArchive(t, "a.txt", "b.txt")
	writeHost(t, host, "/host/x.zip", archive)

	var gz bytes.Buffer
	gzw := gzip.NewWriter(&gz)
	gzw.Write([]byte("hello\n"))
	gzw.Close()
	writeHost(t, host, "/host/notes.txt.gz", gz.Bytes())

	res, err := e.CopyIn(
		[]string{"/host/x.zip", "/host/notes.txt.gz"}, "MacHD:", ModeAuto)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res {
		if r.Mode != ModeRaw {
			t.Errorf("%s: want raw mode, got %s", r.Source, r.Mode)
		}
	}

	if got := readFork(t, v, "MacHD:x.zip", volume.DataFork); !bytes.Equal(got, archive) {
		t.Errorf("archive not copied byte for byte")
	}
	if got := readFork(t, v, "MacHD:notes.txt.gz", volume.DataFork); !bytes.Equal(got, gz.Bytes()) {
		t.Errorf("compressed file not copied byte for byte")
	}
	if ent := stat(t, v, "MacHD:x.zip"); ent.Type != RawType || ent.Creator != HostCreator {
		t.Errorf("unexpected type/creator: %s/%s", ent.Type, ent.Creator)
	}
}

// zipArchive returns a zip archive holding the named files, each containing
// its own name followed by a newline.
func zipArchive(t *testing.T, names ...string) []byte {

	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range names {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(n + "\n"))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
