// Package datafile implements the data file component (C5): the unit
// that couples a positioned reader, an optional append writer, a bloom
// filter, a local offset map, and a file-id into the single object the
// engine inserts into and scans during recovery.
package datafile

import (
	"github.com/nireo/karu/bloomfilter"
	"github.com/nireo/karu/dberrors"
	"github.com/nireo/karu/index"
	"github.com/nireo/karu/iofile"
	"github.com/nireo/karu/record"
)

// LocalEntry is the offset-map counterpart of index.Entry, scoped to one
// file: it omits the file-id since every entry here belongs to this file.
type LocalEntry struct {
	ValuePos uint32
	ValueLen uint16
}

// DataFile couples the I/O primitives and filter for a single .data file.
// The writer is nil for files opened during recovery. The active file has
// one, and a file rotated out by db.FlushActiveFile keeps its writer open
// until Close, so Insert on such a file still appends.
type DataFile struct {
	FileID int64

	reader *iofile.Reader
	writer *iofile.Writer
	filter *bloomfilter.Filter

	local map[string]LocalEntry
}

// Open attaches a reader (and, if writer is non-nil, a writer) to the
// data file identified by fileID. The local offset map starts empty and
// filter is used as given; PopulateIndex fills both, hint parsing neither.
func Open(fileID int64, reader *iofile.Reader, writer *iofile.Writer, filter *bloomfilter.Filter) *DataFile {
	return &DataFile{
		FileID: fileID,
		reader: reader,
		writer: writer,
		filter: filter,
		local:  make(map[string]LocalEntry),
	}
}

// MayContain reports whether key could be present in this file, per the
// bloom filter. A false return means the key is definitely absent.
func (d *DataFile) MayContain(key []byte) bool {
	return d.filter.Contains(key)
}

// Insert appends an insert or tombstone record to this file. It requires
// a writer to be attached (only the active file has one). Returns the
// absolute offset at which the value bytes begin.
func (d *DataFile) Insert(key, value []byte, isTombstone bool) (valuePos uint32, valueLen uint16, err error) {
	if d.writer == nil {
		return 0, 0, dberrors.Internal("insert called on a data file with no writer")
	}

	buf, err := record.EncodeData(key, value, isTombstone)
	if err != nil {
		return 0, 0, err
	}

	start, err := d.writer.Append(buf)
	if err != nil {
		return 0, 0, err
	}
	if err := d.writer.Sync(); err != nil {
		return 0, 0, err
	}

	d.filter.Add(key)

	vLen := uint16(len(value))
	if isTombstone {
		vLen = record.Tombstone
	}
	vPos := uint32(start) + record.DataHeaderSize + uint32(len(key))

	if isTombstone {
		delete(d.local, string(key))
	} else {
		d.local[string(key)] = LocalEntry{ValuePos: vPos, ValueLen: vLen}
	}

	return vPos, vLen, nil
}

// FindByPosition reads exactly valueLen bytes starting at valuePos.
func (d *DataFile) FindByPosition(valuePos uint32, valueLen uint16) ([]byte, error) {
	buf := make([]byte, valueLen)
	if err := d.reader.ReadFullAt(int64(valuePos), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// PopulateIndex rebuilds idx and this file's bloom filter and local
// offset map by scanning records from offset 0. It terminates cleanly
// (without error) on a truncated header or truncated body, treating
// either as the end of a crash-interrupted append.
func (d *DataFile) PopulateIndex(idx *index.Index) error {
	var offset int64
	headerBuf := make([]byte, record.DataHeaderSize)

	for {
		n, err := d.reader.ReadAt(offset, headerBuf)
		if n < record.DataHeaderSize || err != nil {
			return nil
		}

		header := record.NewDataHeader(headerBuf)
		keyLen := header.KeyLen()
		valueLen := header.ValueLen()
		isTombstone := header.IsTombstone()

		if keyLen == 0 || keyLen > record.MaxKeyLen {
			return nil
		}

		keyBuf := make([]byte, keyLen)
		if n, err := d.reader.ReadAt(offset+record.DataHeaderSize, keyBuf); n < int(keyLen) || err != nil {
			return nil
		}

		bodyLen := int64(keyLen)
		if !isTombstone {
			bodyLen += int64(valueLen)
		}
		if !d.fileHasBytes(offset+record.DataHeaderSize+int64(keyLen), bodyLen-int64(keyLen)) {
			return nil
		}

		valuePos := uint32(offset) + record.DataHeaderSize + uint32(keyLen)
		d.filter.Add(keyBuf)

		if isTombstone {
			idx.Delete(keyBuf)
			delete(d.local, string(keyBuf))
		} else {
			idx.Put(keyBuf, index.Entry{FileID: d.FileID, ValuePos: valuePos, ValueLen: valueLen})
			d.local[string(keyBuf)] = LocalEntry{ValuePos: valuePos, ValueLen: valueLen}
		}

		offset += record.DataHeaderSize + int64(keyLen)
		if !isTombstone {
			offset += int64(valueLen)
		}
	}
}

// fileHasBytes reports whether a read of n bytes at offset would succeed
// in full, used to detect a truncated value body without consuming it
// into a scratch buffer larger than necessary.
func (d *DataFile) fileHasBytes(offset, n int64) bool {
	if n <= 0 {
		return true
	}
	probe := make([]byte, n)
	read, err := d.reader.ReadAt(offset, probe)
	return read == int(n) && err == nil
}

// LiveEntries returns the local offset map, used by the hint writer to
// emit one hint record per live key without rescanning the file.
func (d *DataFile) LiveEntries() map[string]LocalEntry {
	return d.local
}

// Close closes the underlying reader and, if present, the writer.
func (d *DataFile) Close() error {
	var err error
	if d.writer != nil {
		if werr := d.writer.Close(); werr != nil {
			err = werr
		}
	}
	if rerr := d.reader.Close(); rerr != nil && err == nil {
		err = rerr
	}
	return err
}
