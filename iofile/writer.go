// Package iofile provides the two low-level file primitives the storage
// engine builds on: an append-only Writer that hands back the offset of
// each write (C3), and a positioned Reader safe for concurrent callers
// (C4). Neither type protects against concurrent writers to the same
// file — that discipline lives in db, whose writer mutex serializes appends.
package iofile

import (
	"os"

	"github.com/nireo/karu/dberrors"
)

// Writer wraps one file opened for append, tracking a monotonically
// increasing offset starting from the file's size at open.
type Writer struct {
	f      *os.File
	offset int64
}

// OpenWriter opens path for append (creating it if absent) and positions
// the tracked offset at the file's current size.
func OpenWriter(path string, perm os.FileMode) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, perm)
	if err != nil {
		return nil, dberrors.IoError("failed to open file for append", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, dberrors.IoError("failed to stat file", err)
	}

	return &Writer{f: f, offset: info.Size()}, nil
}

// Append writes buf in full and returns the offset at which the write
// began. Not safe for concurrent callers against the same Writer.
func (w *Writer) Append(buf []byte) (int64, error) {
	start := w.offset

	n, err := w.f.Write(buf)
	if err != nil {
		return 0, dberrors.IoError("failed to append to file", err)
	}
	if n < len(buf) {
		return 0, dberrors.IoError("short write", nil)
	}

	w.offset += int64(n)
	return start, nil
}

// Sync commits the file's written contents to stable storage (fsync).
func (w *Writer) Sync() error {
	if err := w.f.Sync(); err != nil {
		return dberrors.IoError("failed to sync file", err)
	}
	return nil
}

// Offset returns the next byte offset a successful Append would start at.
func (w *Writer) Offset() int64 { return w.offset }

// Close closes the underlying file descriptor.
func (w *Writer) Close() error { return w.f.Close() }
