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
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/charset"
	"github.com/hfsctl/hfsctl/pkg/util"
	"github.com/hfsctl/hfsctl/pkg/volume"
)

// initialize writes an empty volume named name with the given capacity in
// bytes into st.
func initialize(st Store, name string, capacity uint64) error {

	if err := validName(name, volume.MaxVolumeNameLen); err != nil {
		return err
	}

	n, err := charset.Encode(name)
	if err != nil {
		return err
	}

	t := now()
	count := capacity / BlockSize
	if count > 0xffffffff {
		count = 0xffffffff
	}

	h := util.NewBlock(headerIndex, make([]byte, headerLength))
	h.SetByte("nameLen", byte(len(n)))
	h.SetBytes("name", n)
	h.SetUint32("created", t)
	h.SetUint32("modified", t)
	h.SetUint32("nextID", uint32(volume.FirstUserID))
	h.SetUint32("blocks", uint32(count))

	if err := st.Put(volumeKey, h.Data); err != nil {
		return err
	}

	v := &vol{store: st, header: h}
	return v.putRecord(&record{
		dir:      true,
		id:       volume.RootID,
		parent:   volume.RootParentID,
		name:     name,
		created:  t,
		modified: t,
	})
}

// load reads the volume header from st.
func load(st Store, readOnly bool) (*vol, error) {

	data, err := st.Get(volumeKey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: not a Macintosh HFS volume", util.ErrFormat)
	}

	h, err := newHeader(data)
	if err != nil {
		return nil, err
	}

	return &vol{
		store:    st,
		header:   h,
		readOnly: readOnly,
		cwd:      volume.RootID,
	}, nil
}

// vol is a mounted volume.
type vol struct {
	store    Store
	header   *util.Block
	readOnly bool
	cwd      volume.CNID
	changed  bool
	closed   bool
}

//
func (v *vol) name() string {
	l := v.header.GetInt("nameLen")
	if l > volume.MaxVolumeNameLen {
		l = volume.MaxVolumeNameLen
	}
	return charset.Decode(v.header.GetSlice("name")[:l])
}

//
func (v *vol) locked() bool {
	return v.header.GetByte("attrib")&attribLocked != 0
}

//
func (v *vol) check() error {
	if v.closed {
		return fmt.Errorf("%w: volume is closed", util.ErrIO)
	}
	return nil
}

//
func (v *vol) writable() error {
	if err := v.check(); err != nil {
		return err
	}
	if v.readOnly {
		return util.ErrReadOnly
	}
	return nil
}

// touch marks the volume as modified.
func (v *vol) touch() {
	v.header.SetUint32("modified", now())
	v.changed = true
}

//
func (v *vol) count(field string, delta int) {
	n := int64(v.header.GetUint32(field)) + int64(delta)
	if n < 0 {
		n = 0
	}
	v.header.SetUint32(field, uint32(n))
}

//
func (v *vol) nextID() volume.CNID {
	id := v.header.GetUint32("nextID")
	v.header.SetUint32("nextID", id+1)
	return volume.CNID(id)
}

//
func (v *vol) freeBlocks() int64 {
	return int64(v.header.GetUint32("blocks")) - int64(v.header.GetUint32("used"))
}

// ----------------------------------------------------------------------------

//
func (v *vol) ReadOnly() bool {
	return v.readOnly
}

//
func (v *vol) Close() error {

	if v.closed {
		return nil
	}
	v.closed = true

	if v.readOnly || !v.changed {
		return v.store.Close()
	}

	err := v.store.Put(volumeKey, v.header.Data)
	if err == nil {
		err = v.store.Commit()
	}

	if e := v.store.Close(); e != nil && err == nil {
		err = e
	}

	log.WithField("volume", v.name()).Debug("volume closed")
	return err
}

//
func (v *vol) Info() (*volume.VolumeInfo, error) {

	if err := v.check(); err != nil {
		return nil, err
	}

	h := v.header
	total := uint64(h.GetUint32("blocks")) * BlockSize
	used := uint64(h.GetUint32("used")) * BlockSize

	var free uint64
	if total > used {
		free = total - used
	}

	return &volume.VolumeInfo{
		Name:       v.name(),
		Created:    util.FromMacTime(h.GetUint32("created")),
		Modified:   util.FromMacTime(h.GetUint32("modified")),
		TotalBytes: total,
		FreeBytes:  free,
		Locked:     v.locked(),
		Blessed:    volume.CNID(h.GetUint32("blessed")),
		Files:      h.GetInt("files"),
		Dirs:       h.GetInt("dirs"),
	}, nil
}

// SetInfo changes name, dates, blessed folder and lock state of the volume.
// Zero dates are left unchanged.
func (v *vol) SetInfo(vi *volume.VolumeInfo) error {

	if err := v.writable(); err != nil {
		return err
	}

	if vi.Blessed != 0 {
		r, err := v.recordByID(vi.Blessed)
		if err != nil {
			return err
		}
		if !r.dir {
			return fmt.Errorf("%w: only folders can be blessed",
				util.ErrNotADirectory)
		}
	}

	if vi.Name != "" && vi.Name != v.name() {
		if err := v.renameVolume(vi.Name); err != nil {
			return err
		}
	}

	h := v.header
	h.SetUint32("blessed", uint32(vi.Blessed))

	attrib := h.GetByte("attrib") &^ attribLocked
	if vi.Locked {
		attrib |= attribLocked
	}
	h.SetByte("attrib", attrib)

	v.touch()

	if !vi.Created.IsZero() {
		h.SetUint32("created", util.ToMacTime(vi.Created))
	}
	if !vi.Modified.IsZero() {
		h.SetUint32("modified", util.ToMacTime(vi.Modified))
	}

	return nil
}

//
func (v *vol) renameVolume(name string) error {

	if err := validName(name, volume.MaxVolumeNameLen); err != nil {
		return err
	}

	n, err := charset.Encode(name)
	if err != nil {
		return err
	}

	root, err := v.recordByID(volume.RootID)
	if err != nil {
		return err
	}

	if err := v.store.Delete(catalogKey(root.parent, root.name)); err != nil {
		return err
	}
	root.name = name
	if err := v.putRecord(root); err != nil {
		return err
	}

	v.header.SetByte("nameLen", byte(len(n)))
	v.header.SetBytes("name", n)
	v.touch()

	log.WithField("name", name).Debug("renamed volume")
	return nil
}

//
func (v *vol) Stat(path string) (*volume.DirEntry, error) {
	r, err := v.lookup(path)
	if err != nil {
		return nil, err
	}
	return r.entry(), nil
}

//
func (v *vol) SetAttr(path string, e *volume.DirEntry) error {

	if err := v.writable(); err != nil {
		return err
	}

	r, err := v.lookup(path)
	if err != nil {
		return err
	}

	r.apply(e)
	if err := v.putRecord(r); err != nil {
		return err
	}

	v.touch()
	return nil
}

// ReadDir lists directory path in catalog order.
func (v *vol) ReadDir(path string) ([]*volume.DirEntry, error) {

	r, err := v.lookup(path)
	if err != nil {
		return nil, err
	}
	if !r.dir {
		return nil, util.ErrNotADirectory
	}

	var ret []*volume.DirEntry
	var decodeErr error

	err = v.store.Ascend(childPrefix(r.id),
		func(key, value []byte) bool {
			c, err := decodeRecord(value)
			if err != nil {
				decodeErr = err
				return false
			}
			ret = append(ret, c.entry())
			return true
		})

	if err == nil {
		err = decodeErr
	}
	return ret, err
}

//
func (v *vol) Chdir(path string) error {

	r, err := v.lookup(path)
	if err != nil {
		return err
	}
	if !r.dir {
		return util.ErrNotADirectory
	}

	v.cwd = r.id
	return nil
}

//
func (v *vol) Cwd() volume.CNID {
	return v.cwd
}

//
func (v *vol) SetCwd(id volume.CNID) error {

	r, err := v.recordByID(id)
	if err != nil {
		return err
	}
	if !r.dir {
		return util.ErrNotADirectory
	}

	v.cwd = id
	return nil
}

//
func (v *vol) DirInfo(id volume.CNID) (volume.CNID, string, error) {

	if err := v.check(); err != nil {
		return 0, "", err
	}

	data, err := v.store.Get(threadKey(id))
	if err != nil {
		return 0, "", err
	}
	if data == nil {
		return 0, "", fmt.Errorf("%w: no catalog node %d", util.ErrNotFound, id)
	}

	return decodeThread(data)
}

//
func (v *vol) Open(path string) (volume.File, error) {

	r, err := v.lookup(path)
	if err != nil {
		return nil, err
	}
	if r.dir {
		return nil, util.ErrIsADirectory
	}

	return newFile(v, r), nil
}

// Create creates an empty file and opens it. The file must not exist yet.
func (v *vol) Create(path, typ, creator string) (volume.File, error) {

	if err := v.writable(); err != nil {
		return nil, err
	}

	parent, name, err := v.locate(path)
	if err != nil {
		return nil, err
	}

	t := now()
	r := &record{
		id:       v.nextID(),
		parent:   parent.id,
		name:     name,
		created:  t,
		modified: t,
	}
	copy(r.typ[:], charset.Code(typ))
	copy(r.creator[:], charset.Code(creator))

	if err := v.putRecord(r); err != nil {
		return nil, err
	}
	if err := v.adjustValence(parent, 1); err != nil {
		return nil, err
	}
	v.count("files", 1)
	v.touch()

	log.WithFields(log.Fields{
		"name": name, "id": r.id, "parent": parent.id}).Debug("created file")

	return newFile(v, r), nil
}

//
func (v *vol) Delete(path string) error {

	if err := v.writable(); err != nil {
		return err
	}

	r, err := v.lookup(path)
	if err != nil {
		return err
	}
	if r.dir {
		return util.ErrIsADirectory
	}
	if r.locked {
		return util.ErrLocked
	}

	for _, k := range [][]byte{
		catalogKey(r.parent, r.name),
		threadKey(r.id),
		forkKey(volume.DataFork, r.id),
		forkKey(volume.ResourceFork, r.id),
	} {
		if err := v.store.Delete(k); err != nil {
			return err
		}
	}

	v.count("used", -int(blocks(int(r.dsize))+blocks(int(r.rsize))))
	v.count("files", -1)
	v.touch()

	parent, err := v.recordByID(r.parent)
	if err != nil {
		return err
	}
	return v.adjustValence(parent, -1)
}

//
func (v *vol) Mkdir(path string) error {

	if err := v.writable(); err != nil {
		return err
	}

	parent, name, err := v.locate(path)
	if err != nil {
		return err
	}

	t := now()
	r := &record{
		dir:      true,
		id:       v.nextID(),
		parent:   parent.id,
		name:     name,
		created:  t,
		modified: t,
	}

	if err := v.putRecord(r); err != nil {
		return err
	}
	v.count("dirs", 1)
	v.touch()

	return v.adjustValence(parent, 1)
}

//
func (v *vol) Rmdir(path string) error {

	if err := v.writable(); err != nil {
		return err
	}

	r, err := v.lookup(path)
	if err != nil {
		return err
	}
	if !r.dir {
		return util.ErrNotADirectory
	}
	if r.id == volume.RootID {
		return fmt.Errorf("%w: cannot remove root directory", util.ErrInvalid)
	}
	if r.valence > 0 {
		return util.ErrNotEmpty
	}

	if err := v.store.Delete(catalogKey(r.parent, r.name)); err != nil {
		return err
	}
	if err := v.store.Delete(threadKey(r.id)); err != nil {
		return err
	}

	if v.cwd == r.id {
		v.cwd = r.parent
	}
	if volume.CNID(v.header.GetUint32("blessed")) == r.id {
		v.header.SetUint32("blessed", 0)
	}
	v.count("dirs", -1)
	v.touch()

	parent, err := v.recordByID(r.parent)
	if err != nil {
		return err
	}
	return v.adjustValence(parent, -1)
}

// Rename renames or moves src. If dst is an existing directory, src is moved
// into it keeping its name. Renaming the root directory renames the volume.
func (v *vol) Rename(src, dst string) error {

	if err := v.writable(); err != nil {
		return err
	}

	r, err := v.lookup(src)
	if err != nil {
		return err
	}

	if r.id == volume.RootID {
		return v.renameVolume(volume.Base(dst))
	}

	var parent *record
	var name string

	target, err := v.lookup(dst)
	switch {
	case err == nil && target.dir && target.id != r.id:
		parent, name = target, r.name
	case err == nil && target.id != r.id:
		return util.ErrExists
	case err == nil || errors.Is(err, util.ErrNotFound):
		// a new name, or another spelling of the current one
		parent, name, err = v.locate(dst)
		if err != nil && !errors.Is(err, util.ErrExists) {
			return err
		}
	default:
		return err
	}

	if err := validName(name, volume.MaxNameLen); err != nil {
		return err
	}

	if other, err := v.child(parent.id, name); err != nil {
		return err
	} else if other != nil && other.id != r.id {
		return util.ErrExists
	}

	if r.dir {
		inside, err := v.isWithin(parent.id, r.id)
		if err != nil {
			return err
		}
		if inside {
			return fmt.Errorf("%w: cannot move a directory into itself",
				util.ErrInvalid)
		}
	}

	if err := v.store.Delete(catalogKey(r.parent, r.name)); err != nil {
		return err
	}

	from := r.parent
	r.parent = parent.id
	r.name = name
	if err := v.putRecord(r); err != nil {
		return err
	}
	v.touch()

	log.WithFields(log.Fields{
		"id": r.id, "name": name, "parent": parent.id}).Debug("renamed")

	if from == parent.id {
		return nil
	}

	old, err := v.recordByID(from)
	if err != nil {
		return err
	}
	if err := v.adjustValence(old, -1); err != nil {
		return err
	}
	if parent, err = v.recordByID(parent.id); err != nil {
		return err
	}
	return v.adjustValence(parent, 1)
}

// ----------------------------------------------------------------------------

// lookup resolves path to its catalog record.
func (v *vol) lookup(path string) (*record, error) {

	if err := v.check(); err != nil {
		return nil, err
	}

	p := volume.ParsePath(path)
	cur, err := v.start(p)
	if err != nil {
		return nil, err
	}

	for _, el := range p.Elements {
		if cur, err = v.step(cur, el); err != nil {
			return nil, err
		}
	}

	return cur, nil
}

// locate resolves the directory in which path would reside, and returns it
// along with the name path gives to the node. It fails with ErrExists if the
// node already exists.
func (v *vol) locate(path string) (*record, string, error) {

	if err := v.check(); err != nil {
		return nil, "", err
	}

	p := volume.ParsePath(path)
	n := len(p.Elements)
	if n == 0 || p.Elements[n-1] == "" {
		return nil, "", fmt.Errorf("%w: %q does not name a file or folder",
			util.ErrInvalid, path)
	}
	name := p.Elements[n-1]

	cur, err := v.start(p)
	if err != nil {
		return nil, "", err
	}

	for _, el := range p.Elements[:n-1] {
		if cur, err = v.step(cur, el); err != nil {
			return nil, "", err
		}
	}
	if !cur.dir {
		return nil, "", util.ErrNotADirectory
	}

	if err := validName(name, volume.MaxNameLen); err != nil {
		return nil, "", err
	}

	existing, err := v.child(cur.id, name)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return cur, name, util.ErrExists
	}

	return cur, name, nil
}

//
func (v *vol) start(p *volume.Path) (*record, error) {
	if p.IsAbsolute() {
		if !sameName(p.Volume, v.name()) {
			return nil, fmt.Errorf("%w: no volume named %q", util.ErrNotFound,
				p.Volume)
		}
		return v.recordByID(volume.RootID)
	}
	return v.recordByID(v.cwd)
}

//
func (v *vol) step(cur *record, el string) (*record, error) {

	if !cur.dir {
		return nil, util.ErrNotADirectory
	}

	if el == "" {
		if cur.id == volume.RootID {
			return cur, nil
		}
		return v.recordByID(cur.parent)
	}

	r, err := v.child(cur.id, el)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, util.ErrNotFound
	}
	return r, nil
}

// child returns the record for name in directory parent, or nil if there is
// none.
func (v *vol) child(parent volume.CNID, name string) (*record, error) {
	data, err := v.store.Get(catalogKey(parent, name))
	if err != nil || data == nil {
		return nil, err
	}
	return decodeRecord(data)
}

//
func (v *vol) recordByID(id volume.CNID) (*record, error) {

	parent, name, err := v.DirInfo(id)
	if err != nil {
		return nil, err
	}

	r, err := v.child(parent, name)
	if err != nil {
		return nil, err
	}
	if r == nil || r.id != id {
		return nil, fmt.Errorf("%w: dangling thread for catalog node %d",
			util.ErrIO, id)
	}
	return r, nil
}

// putRecord writes catalog and thread record of r.
func (v *vol) putRecord(r *record) error {

	data, err := r.encode()
	if err != nil {
		return err
	}
	thread, err := encodeThread(r.parent, r.name)
	if err != nil {
		return err
	}

	if err := v.store.Put(catalogKey(r.parent, r.name), data); err != nil {
		return err
	}
	return v.store.Put(threadKey(r.id), thread)
}

//
func (v *vol) adjustValence(dir *record, delta int) error {
	n := int64(dir.valence) + int64(delta)
	if n < 0 {
		n = 0
	}
	dir.valence = uint32(n)
	dir.modified = now()
	return v.putRecord(dir)
}

// isWithin reports whether directory id is ancestor or is itself.
func (v *vol) isWithin(id, ancestor volume.CNID) (bool, error) {

	seen := make(map[volume.CNID]bool)

	for id != volume.RootParentID {
		if id == ancestor {
			return true, nil
		}
		if seen[id] {
			return false, fmt.Errorf("%w: directory cycle at node %d",
				util.ErrIO, id)
		}
		seen[id] = true

		parent, _, err := v.DirInfo(id)
		if err != nil {
			return false, err
		}
		id = parent
	}

	return false, nil
}
