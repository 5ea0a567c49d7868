// Package bloomfilter wraps a per-data-file membership filter used to
// short-circuit negative lookups against closed files (spec §4.2). It
// guarantees no false negatives: every key ever Add-ed reports Contains
// true, at the cost of occasional false positives.
package bloomfilter

import "github.com/bits-and-blooms/bloom/v3"

const (
	// DefaultBits is the default per-file bit-array size.
	DefaultBits = 30000
	// DefaultHashes is the default per-file hash-function count.
	DefaultHashes = 13
)

// Filter is a per-file bloom filter over key bytes.
type Filter struct {
	f *bloom.BloomFilter
}

// New builds a Filter with the given bit-array size and hash count.
func New(bits, hashes uint) *Filter {
	if bits == 0 {
		bits = DefaultBits
	}
	if hashes == 0 {
		hashes = DefaultHashes
	}
	return &Filter{f: bloom.New(bits, hashes)}
}

// Add marks key as present.
func (f *Filter) Add(key []byte) {
	f.f.Add(key)
}

// Contains reports whether key may be present. It never returns false for
// a key that was Add-ed, but may return true for a key that wasn't.
func (f *Filter) Contains(key []byte) bool {
	return f.f.Test(key)
}
