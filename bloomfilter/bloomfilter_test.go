package bloomfilter

import "testing"

func TestContainsNoFalseNegatives(t *testing.T) {
	f := New(DefaultBits, DefaultHashes)

	keys := [][]byte{[]byte("hello"), []byte("key"), []byte("keykey"), []byte("xdxd")}
	for _, k := range keys {
		f.Add(k)
	}

	for _, k := range keys {
		if !f.Contains(k) {
			t.Fatal("expected Contains true for added key", "got false", "key", string(k))
		}
	}
}

func TestContainsUnaddedKeyMayBeFalse(t *testing.T) {
	f := New(DefaultBits, DefaultHashes)
	f.Add([]byte("hello"))

	if f.Contains([]byte("definitely-not-added-xyz")) {
		t.Log("false positive on unadded key, which is allowed but noteworthy")
	}
}

func TestZeroValuesFallBackToDefaults(t *testing.T) {
	f := New(0, 0)
	f.Add([]byte("a"))
	if !f.Contains([]byte("a")) {
		t.Fatal("expected Contains true", "got false")
	}
}
