// Package hintfile implements hint-file generation and parsing (C6): the
// compact sidecar that lets startup rebuild the index without scanning
// every data file in full.
package hintfile

import (
	"github.com/nireo/karu/datafile"
	"github.com/nireo/karu/index"
	"github.com/nireo/karu/iofile"
	"github.com/nireo/karu/record"
)

// Write emits one hint record per live key in df to the file at path,
// then syncs once. This is the well-defined emission point spec §9
// ties to data-file closure: the caller invokes Write exactly once, on
// FlushActiveFile, using the just-closed file's local offset map rather
// than a fresh scan.
func Write(path string, df *datafile.DataFile) error {
	w, err := iofile.OpenWriter(path, 0644)
	if err != nil {
		return err
	}
	defer w.Close()

	for key, e := range df.LiveEntries() {
		buf, err := record.EncodeHint([]byte(key), e.ValueLen, e.ValuePos, false)
		if err != nil {
			return err
		}
		if _, err := w.Append(buf); err != nil {
			return err
		}
	}

	return w.Sync()
}

// Parse streams hint records from the file at path into idx, tagging
// every entry with fileID (the hint file's corresponding data file).
// A truncated trailing record terminates parsing without error, matching
// data-file scan policy. Callers must invoke Parse across all hint files
// in ascending file-id order so that newer files win (spec §4.6).
func Parse(path string, fileID int64, idx *index.Index) error {
	r, err := iofile.OpenReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var offset int64
	headerBuf := make([]byte, record.HintHeaderSize)

	for {
		n, err := r.ReadAt(offset, headerBuf)
		if n < record.HintHeaderSize || err != nil {
			return nil
		}

		header := record.NewHintHeader(headerBuf)
		keyLen := header.KeyLen()
		if keyLen == 0 || keyLen > record.MaxKeyLen {
			return nil
		}

		keyBuf := make([]byte, keyLen)
		if n, err := r.ReadAt(offset+record.HintHeaderSize, keyBuf); n < int(keyLen) || err != nil {
			return nil
		}

		if header.IsTombstone() {
			idx.Delete(keyBuf)
		} else {
			idx.Put(keyBuf, index.Entry{
				FileID:   fileID,
				ValuePos: header.ValuePos(),
				ValueLen: header.ValueLen(),
			})
		}

		offset += record.HintHeaderSize + int64(keyLen)
	}
}
