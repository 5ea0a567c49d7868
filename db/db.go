// Package db is the database facade (C8): the public surface that opens
// a directory of data/hint files, recovers the key index, and serves
// Insert/Get/Delete/FlushActiveFile/Close against the active file and a
// table of closed ones.
package db

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/nireo/karu/bloomfilter"
	"github.com/nireo/karu/datafile"
	"github.com/nireo/karu/dbconfig"
	"github.com/nireo/karu/dberrors"
	"github.com/nireo/karu/fileid"
	"github.com/nireo/karu/hintfile"
	"github.com/nireo/karu/index"
	"github.com/nireo/karu/iofile"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Engine is the operation set a caller embeds karu through. DB is the
// only implementation; the interface exists so callers can substitute a
// test double.
type Engine interface {
	Insert(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	FlushActiveFile() error
	Close() error
}

// DB is one open database directory.
type DB struct {
	dir    string
	cfg    *dbconfig.Config
	logger *zap.SugaredLogger

	idx *index.Index

	writerMu sync.Mutex   // serializes appends + rotation on the active file
	fileMu   sync.RWMutex // guards active/closed against rotation swaps

	active *datafile.DataFile
	closed map[int64]*datafile.DataFile
}

var _ Engine = (*DB)(nil)

// Open opens (creating if absent) the database directory at dir, recovers
// the key index per cfg's strategy, and starts a fresh active file.
func Open(dir string, opts ...dbconfig.Option) (*DB, error) {
	cfg := dbconfig.Apply(opts...)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, dberrors.IoError("failed to create database directory", err)
	}

	d := &DB{
		dir:    dir,
		cfg:    cfg,
		logger: cfg.Logger,
		idx:    index.New(),
		closed: make(map[int64]*datafile.DataFile),
	}

	ids, err := discoverFileIDs(dir)
	if err != nil {
		return nil, err
	}

	if cfg.HintMode {
		d.recoverFromHints(ids)
	} else {
		if err := d.recoverFromScans(ids); err != nil {
			return nil, err
		}
	}

	active, err := d.newActiveFile()
	if err != nil {
		return nil, err
	}
	d.active = active

	return d, nil
}

// discoverFileIDs scans dir for *.data files and returns their file-ids
// in ascending order, so callers that rebuild the index in this order get
// last-write-wins recency for free.
func discoverFileIDs(dir string) ([]int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, dberrors.IoError("failed to read database directory", err)
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if filepath.Ext(e.Name()) != fileid.DataExt {
			continue
		}
		id, ok := fileid.Parse(e.Name())
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// recoverFromHints rebuilds the index by parsing each file-id's hint
// file in ascending order. Per spec §4.8, recovery is fail-soft: a
// missing or corrupt hint file is logged and skipped rather than
// aborting Open.
func (d *DB) recoverFromHints(ids []int64) {
	for _, id := range ids {
		path := filepath.Join(d.dir, fileid.HintName(id))
		if _, err := os.Stat(path); err != nil {
			d.logger.Warnw("missing hint file during recovery, skipping", "file_id", id)
			continue
		}
		if err := hintfile.Parse(path, id, d.idx); err != nil {
			d.logger.Warnw("failed to parse hint file, skipping", "file_id", id, "error", err)
			continue
		}
	}

	for _, id := range ids {
		filter := bloomfilter.New(d.cfg.BloomBits, d.cfg.BloomHashes)
		repopulateFilterFromData(d.logger, filepath.Join(d.dir, fileid.DataName(id)), filter)
		r, err := iofile.OpenReader(filepath.Join(d.dir, fileid.DataName(id)))
		if err != nil {
			d.logger.Warnw("failed to open closed data file for reads", "file_id", id, "error", err)
			continue
		}
		d.closed[id] = datafile.Open(id, r, nil, filter)
	}
}

// repopulateFilterFromData rebuilds a bloom filter by scanning a data
// file's keys, used during hint-mode recovery so the short-circuit stays
// correct even though hints don't carry filter state.
func repopulateFilterFromData(logger *zap.SugaredLogger, path string, filter *bloomfilter.Filter) {
	idx := index.New()
	r, err := iofile.OpenReader(path)
	if err != nil {
		logger.Warnw("failed to open data file to rebuild bloom filter", "path", path, "error", err)
		return
	}
	defer r.Close()

	scratch := datafile.Open(0, r, nil, filter)
	_ = scratch.PopulateIndex(idx)
}

// recoverFromScans rebuilds the index by scanning each data file in
// ascending file-id order, attaching a reader and a fresh bloom filter
// to each as it becomes part of the closed-files table.
func (d *DB) recoverFromScans(ids []int64) error {
	for _, id := range ids {
		path := filepath.Join(d.dir, fileid.DataName(id))
		r, err := iofile.OpenReader(path)
		if err != nil {
			d.logger.Warnw("failed to open data file during recovery, skipping", "file_id", id, "error", err)
			continue
		}

		filter := bloomfilter.New(d.cfg.BloomBits, d.cfg.BloomHashes)
		df := datafile.Open(id, r, nil, filter)
		if err := df.PopulateIndex(d.idx); err != nil {
			d.logger.Warnw("failed to scan data file during recovery, skipping", "file_id", id, "error", err)
			df.Close()
			continue
		}

		d.closed[id] = df
	}

	return nil
}

// newActiveFile allocates a fresh file-id and opens a new data file with
// both reader and writer attached, without touching d.active. Callers
// decide when and under what lock to publish the result.
func (d *DB) newActiveFile() (*datafile.DataFile, error) {
	id := fileid.New()
	path := filepath.Join(d.dir, fileid.DataName(id))

	w, err := iofile.OpenWriter(path, os.FileMode(d.cfg.FileMode))
	if err != nil {
		return nil, err
	}
	r, err := iofile.OpenReader(path)
	if err != nil {
		w.Close()
		return nil, err
	}

	return datafile.Open(id, r, w, bloomfilter.New(d.cfg.BloomBits, d.cfg.BloomHashes)), nil
}

// Insert appends key/value to the active file and publishes the new
// location to the index.
func (d *DB) Insert(key, value []byte) error {
	d.writerMu.Lock()
	d.fileMu.RLock()
	valuePos, valueLen, err := d.active.Insert(key, value, false)
	fileID := d.active.FileID
	d.fileMu.RUnlock()
	d.writerMu.Unlock()
	if err != nil {
		return err
	}

	d.idx.Put(key, index.Entry{FileID: fileID, ValuePos: valuePos, ValueLen: valueLen})
	return nil
}

// Get resolves key through the index and reads its value bytes from
// whichever file currently owns it.
func (d *DB) Get(key []byte) ([]byte, error) {
	e, ok := d.idx.Get(key)
	if !ok {
		return nil, dberrors.NotFound("key not found")
	}

	d.fileMu.RLock()
	defer d.fileMu.RUnlock()

	if e.FileID == d.active.FileID {
		return d.active.FindByPosition(e.ValuePos, e.ValueLen)
	}

	df, ok := d.closed[e.FileID]
	if !ok {
		return nil, dberrors.Internal("index entry references an unregistered file-id")
	}
	return df.FindByPosition(e.ValuePos, e.ValueLen)
}

// Delete appends a tombstone record and removes key from the index.
func (d *DB) Delete(key []byte) error {
	d.writerMu.Lock()
	d.fileMu.RLock()
	_, _, err := d.active.Insert(key, nil, true)
	d.fileMu.RUnlock()
	d.writerMu.Unlock()
	if err != nil {
		return err
	}

	d.idx.Delete(key)
	return nil
}

// FlushActiveFile rotates the active file into the closed-files table
// and opens a fresh one, then writes a hint file for the just-closed one
// whatever the hint-mode setting; a failed hint write is logged and does
// not fail the rotation. Publishing the closed file and installing the new
// active file happen under one fileMu critical section (spec §9 rotation
// atomicity): the new file is opened first, and the old one is only
// published into the closed-files table once the new one is confirmed
// open, so a failed rotation never leaves the closing file marked both
// active and closed.
func (d *DB) FlushActiveFile() error {
	d.writerMu.Lock()
	defer d.writerMu.Unlock()

	newActive, err := d.newActiveFile()
	if err != nil {
		return err
	}

	d.fileMu.Lock()
	closing := d.active
	d.closed[closing.FileID] = closing
	d.active = newActive
	d.fileMu.Unlock()

	hintPath := filepath.Join(d.dir, fileid.HintName(closing.FileID))
	if err := hintfile.Write(hintPath, closing); err != nil {
		d.logger.Warnw("failed to write hint file on rotation", "file_id", closing.FileID, "error", err)
	}

	return nil
}

// Close releases every open file descriptor, active and closed alike,
// aggregating any close errors via multierr.
func (d *DB) Close() error {
	d.writerMu.Lock()
	d.fileMu.Lock()
	defer d.fileMu.Unlock()
	defer d.writerMu.Unlock()

	var err error
	if d.active != nil {
		err = multierr.Append(err, d.active.Close())
	}
	for _, df := range d.closed {
		err = multierr.Append(err, df.Close())
	}
	return err
}
