package iofile

import (
	"os"
	"path/filepath"
	"testing"
)

func setupWriterTest(t *testing.T) (*Writer, func()) {
	dir := t.TempDir()
	path := filepath.Join(dir, "active.data")

	w, err := OpenWriter(path, 0644)
	if err != nil {
		t.Fatal(err)
	}

	return w, func() { w.Close() }
}

func TestAppendReturnsOffsetAndAdvances(t *testing.T) {
	w, cleanup := setupWriterTest(t)
	defer cleanup()

	off1, err := w.Append([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if off1 != 0 {
		t.Fatal("expected first offset 0", "got", off1)
	}

	off2, err := w.Append([]byte("world!"))
	if err != nil {
		t.Fatal(err)
	}
	if off2 != 5 {
		t.Fatal("expected second offset 5", "got", off2)
	}

	if w.Offset() != 11 {
		t.Fatal("expected tracked offset 11", "got", w.Offset())
	}
}

func TestOpenWriterResumesFromExistingSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "active.data")

	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := OpenWriter(path, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.Offset() != 10 {
		t.Fatal("expected resumed offset 10", "got", w.Offset())
	}

	off, err := w.Append([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if off != 10 {
		t.Fatal("expected append offset 10", "got", off)
	}
}
