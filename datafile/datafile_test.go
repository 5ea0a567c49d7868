package datafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nireo/karu/bloomfilter"
	"github.com/nireo/karu/index"
	"github.com/nireo/karu/iofile"
)

func openActive(t *testing.T, path string) *DataFile {
	w, err := iofile.OpenWriter(path, 0644)
	if err != nil {
		t.Fatal(err)
	}
	r, err := iofile.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	return Open(1, r, w, bloomfilter.New(0, 0))
}

func TestInsertAndFindByPosition(t *testing.T) {
	dir := t.TempDir()
	df := openActive(t, filepath.Join(dir, "1.data"))
	defer df.Close()

	pos, length, err := df.Insert([]byte("hello"), []byte("world"), false)
	if err != nil {
		t.Fatal(err)
	}

	got, err := df.FindByPosition(pos, length)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "world" {
		t.Fatal("expected world", "got", string(got))
	}

	if !df.MayContain([]byte("hello")) {
		t.Fatal("expected bloom filter to contain hello")
	}
}

func TestPopulateIndexRebuildsFromClosedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.data")

	writerDF := openActive(t, path)
	writerDF.Insert([]byte("a"), []byte("1"), false)
	writerDF.Insert([]byte("b"), []byte("2"), false)
	writerDF.Insert([]byte("a"), []byte("3"), false)
	writerDF.Insert([]byte("b"), nil, true)
	writerDF.Close()

	r, err := iofile.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	closedDF := Open(1, r, nil, bloomfilter.New(0, 0))
	defer closedDF.Close()

	idx := index.New()
	if err := closedDF.PopulateIndex(idx); err != nil {
		t.Fatal(err)
	}

	e, ok := idx.Get([]byte("a"))
	if !ok {
		t.Fatal("expected a present")
	}
	got, err := closedDF.FindByPosition(e.ValuePos, e.ValueLen)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "3" {
		t.Fatal("expected last write to win", "got", string(got))
	}

	if idx.Contains([]byte("b")) {
		t.Fatal("expected b removed by tombstone")
	}
}

func TestPopulateIndexTerminatesOnTruncatedTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.data")

	writerDF := openActive(t, path)
	writerDF.Insert([]byte("a"), []byte("1"), false)
	writerDF.Close()

	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte{0x02, 0x00, 0x05, 0x00, 'x'}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	r, err := iofile.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	df := Open(1, r, nil, bloomfilter.New(0, 0))
	defer df.Close()

	idx := index.New()
	if err := df.PopulateIndex(idx); err != nil {
		t.Fatal(err)
	}

	e, ok := idx.Get([]byte("a"))
	if !ok {
		t.Fatal("expected a still present despite truncated trailing record")
	}
	if e.ValueLen != 1 {
		t.Fatal("unexpected entry", e)
	}
}
