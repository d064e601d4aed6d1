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

// Package index provides full text search over the names of the files and
// directories on a volume.
package index

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	log "github.com/sirupsen/logrus"

	"github.com/hfsctl/hfsctl/pkg/volume"
)

// characters that separate words in names, in addition to white space
const replaceChars = "`~!@#$%^&*_-+=()[]{}|;:',.<>?/\\\""

// maximum number of pending entries before a batch is executed
const batchSize = 100

var nameCleaner *strings.Replacer

//
func init() {
	rep := make([]string, 0, 2*len(replaceChars))
	for _, c := range replaceChars {
		rep = append(rep, string(c), " ")
	}
	nameCleaner = strings.NewReplacer(rep...)
}

// Entry is the document indexed for each catalog node.
type Entry struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Index is an in-memory index over the catalog of a volume. Documents are
// identified by the absolute path of the node.
type Index struct {
	index      bleve.Index
	batch      *bleve.Batch
	batchCount int
	count      int
}

// Build indexes all files and directories on v.
func Build(v volume.Volume) (*Index, error) {

	info, err := v.Info()
	if err != nil {
		return nil, err
	}

	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("cannot create index: %v", err)
	}

	i := &Index{index: idx, batch: idx.NewBatch()}
	logger := log.WithField("volume", info.Name)
	logger.Debug("indexing volume")

	root := info.Name + volume.Separator
	if err := i.walk(v, root, map[volume.CNID]bool{volume.RootID: true}); err != nil {
		i.Close()
		return nil, err
	}

	if err := i.batched(true); err != nil {
		i.Close()
		return nil, err
	}

	logger.WithField("entries", i.count).Debug("index ready")
	return i, nil
}

//
func (i *Index) walk(v volume.Volume, dir string, seen map[volume.CNID]bool) error {

	entries, err := v.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}

	for _, e := range entries {

		path := volume.JoinPath(dir, e.Name)
		kind := "file"
		if e.Dir {
			kind = "folder"
		}

		if err := i.addEntry(path, Entry{
			Name: nameCleaner.Replace(e.Name), Kind: kind}); err != nil {
			return err
		}

		if e.Dir && !seen[e.CNID] {
			seen[e.CNID] = true
			if err := i.walk(v, path, seen); err != nil {
				return err
			}
		}
	}

	return nil
}

//
func (i *Index) addEntry(path string, e Entry) error {

	log.WithField("path", path).Trace("adding entry to index")

	if err := i.batch.Index(path, e); err != nil {
		return fmt.Errorf("failed to batch entry add: %v", err)
	}

	i.count++
	return i.batched(false)
}

// This is not thread safe. An index is only ever populated by Build.
func (i *Index) batched(flush bool) error {

	if i.batchCount++; flush || i.batchCount > batchSize {
		log.Trace("flushing pending index actions")
		if err := i.index.Batch(i.batch); err != nil {
			return fmt.Errorf("failed to execute index batch: %v", err)
		}
		i.batch = i.index.NewBatch()
		i.batchCount = 0
	}

	return nil
}

// Len returns the number of indexed nodes.
func (i *Index) Len() int {
	return i.count
}

//
func (i *Index) Close() error {
	return i.index.Close()
}
