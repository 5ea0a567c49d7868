package db

import (
	"errors"
	"testing"

	"github.com/nireo/karu/dbconfig"
	"github.com/nireo/karu/dberrors"
)

func TestInsertGetDelete(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Insert([]byte("k"), []byte("v1")); err != nil {
		t.Fatal(err)
	}

	got, err := d.Get([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Fatal("expected v1", "got", string(got))
	}

	if err := d.Insert([]byte("k"), []byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, err = d.Get([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2" {
		t.Fatal("expected v2 after overwrite", "got", string(got))
	}

	if err := d.Delete([]byte("k")); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Get([]byte("k")); !errors.Is(err, dberrors.ErrNotFound) {
		t.Fatal("expected NotFound after delete", "got", err)
	}
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if _, err := d.Get([]byte("nope")); !errors.Is(err, dberrors.ErrNotFound) {
		t.Fatal("expected NotFound", "got", err)
	}
}

func TestFlushActiveFileThenGetAcrossClosedFile(t *testing.T) {
	dir := t.TempDir()
	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	if err := d.Insert([]byte("a"), []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := d.FlushActiveFile(); err != nil {
		t.Fatal(err)
	}
	if err := d.Insert([]byte("b"), []byte("2")); err != nil {
		t.Fatal(err)
	}

	got, err := d.Get([]byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1" {
		t.Fatal("expected 1 from closed file", "got", string(got))
	}

	got, err = d.Get([]byte("b"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "2" {
		t.Fatal("expected 2 from active file", "got", string(got))
	}
}

func TestReopenWithScanRecoveryRestoresAllKeys(t *testing.T) {
	dir := t.TempDir()

	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	d.Insert([]byte("a"), []byte("1"))
	d.Insert([]byte("b"), []byte("2"))
	d.FlushActiveFile()
	d.Insert([]byte("c"), []byte("3"))
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	for key, want := range map[string]string{"a": "1", "b": "2", "c": "3"} {
		got, err := reopened.Get([]byte(key))
		if err != nil {
			t.Fatal(key, err)
		}
		if string(got) != want {
			t.Fatal("mismatch for", key, "got", string(got), "want", want)
		}
	}
}

func TestReopenWithHintModeMatchesScanMode(t *testing.T) {
	dir := t.TempDir()

	d, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	d.Insert([]byte("a"), []byte("1"))
	d.Insert([]byte("b"), []byte("2"))
	if err := d.FlushActiveFile(); err != nil {
		t.Fatal(err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir, dbconfig.WithHintMode(true))
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Get([]byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "1" {
		t.Fatal("expected 1", "got", string(got))
	}
}
