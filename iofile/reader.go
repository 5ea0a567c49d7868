package iofile

import (
	"io"
	"os"

	"github.com/nireo/karu/dberrors"
)

// Reader wraps one file descriptor opened read/write, so it can be used
// against the active file concurrently with appends to it. ReadAt is
// backed by the OS pread equivalent, which does not share a cursor across
// goroutines, so multiple callers may read concurrently without
// synchronization.
type Reader struct {
	f *os.File
}

// OpenReader opens path read/write (read/write, not read-only, so the
// same descriptor can back a reader over the currently-active file).
func OpenReader(path string) (*Reader, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, dberrors.IoError("failed to open file for reading", err)
	}
	return &Reader{f: f}, nil
}

// ReadAt performs one positioned read into buf, returning the number of
// bytes actually read. A return of n < len(buf) with err == io.EOF (n == 0
// when offset is at or past the end) indicates a clean end of file; callers decide
// whether a short read is terminal (graceful scan termination) or an
// error (ShortRead).
func (r *Reader) ReadAt(offset int64, buf []byte) (int, error) {
	n, err := r.f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, dberrors.IoError("positioned read failed", err)
	}
	return n, err
}

// ReadFullAt reads exactly len(buf) bytes at offset, failing with
// ShortRead if fewer bytes were available.
func (r *Reader) ReadFullAt(offset int64, buf []byte) error {
	n, err := r.f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return dberrors.IoError("positioned read failed", err)
	}
	if n < len(buf) {
		return dberrors.ShortRead("positioned read returned fewer bytes than requested")
	}
	return nil
}

// Close closes the underlying file descriptor.
func (r *Reader) Close() error { return r.f.Close() }
