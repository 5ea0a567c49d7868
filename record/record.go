// Package record implements the on-disk framing for karu's data and hint
// files: little-endian fixed headers over caller-owned byte buffers, with
// no allocation and no I/O of its own.
//
// Data record:
//
//	| key_len : u16 LE | value_len : u16 LE | key bytes | value bytes |
//
// Hint record:
//
//	| key_len : u16 LE | value_len : u16 LE | value_pos : u32 LE | key bytes |
//
// A value_len of Tombstone marks a logical delete; no value bytes follow it
// in a data record, and a hint record carries no positional meaning for it.
package record

import (
	"encoding/binary"

	"github.com/nireo/karu/dberrors"
)

const (
	// Tombstone is the value_len sentinel marking a deleted key.
	Tombstone = 0xFFFF

	// MaxKeyLen is the largest key length the format can represent.
	MaxKeyLen = 0xFF

	// DataHeaderSize is the fixed header size of a data record.
	DataHeaderSize = 4

	// HintHeaderSize is the fixed header size of a hint record.
	HintHeaderSize = 8
)

// DataHeader is a 4-byte view over a data record's header.
type DataHeader []byte

// NewDataHeader wraps buf, which must be at least DataHeaderSize bytes.
func NewDataHeader(buf []byte) DataHeader { return DataHeader(buf[:DataHeaderSize]) }

func (h DataHeader) KeyLen() uint16   { return binary.LittleEndian.Uint16(h[0:2]) }
func (h DataHeader) ValueLen() uint16 { return binary.LittleEndian.Uint16(h[2:4]) }

func (h DataHeader) SetKeyLen(n uint16)   { binary.LittleEndian.PutUint16(h[0:2], n) }
func (h DataHeader) SetValueLen(n uint16) { binary.LittleEndian.PutUint16(h[2:4], n) }

// IsTombstone reports whether this header marks a deleted key.
func (h DataHeader) IsTombstone() bool { return h.ValueLen() == Tombstone }

// HintHeader is an 8-byte view over a hint record's header.
type HintHeader []byte

// NewHintHeader wraps buf, which must be at least HintHeaderSize bytes.
func NewHintHeader(buf []byte) HintHeader { return HintHeader(buf[:HintHeaderSize]) }

func (h HintHeader) KeyLen() uint16   { return binary.LittleEndian.Uint16(h[0:2]) }
func (h HintHeader) ValueLen() uint16 { return binary.LittleEndian.Uint16(h[2:4]) }
func (h HintHeader) ValuePos() uint32 { return binary.LittleEndian.Uint32(h[4:8]) }

func (h HintHeader) SetKeyLen(n uint16)   { binary.LittleEndian.PutUint16(h[0:2], n) }
func (h HintHeader) SetValueLen(n uint16) { binary.LittleEndian.PutUint16(h[2:4], n) }
func (h HintHeader) SetValuePos(n uint32) { binary.LittleEndian.PutUint32(h[4:8], n) }

// IsTombstone reports whether this hint marks a deleted key.
func (h HintHeader) IsTombstone() bool { return h.ValueLen() == Tombstone }

// ValidateLengths enforces spec §4.1's encode-time invariants: a non-zero
// key no longer than MaxKeyLen, and a value strictly shorter than the
// tombstone sentinel (unless isTombstone, which carries no value).
func ValidateLengths(keyLen int, valueLen int, isTombstone bool) error {
	if keyLen == 0 {
		return dberrors.InvalidArgument("key must not be empty")
	}
	if keyLen > MaxKeyLen {
		return dberrors.InvalidArgument("key exceeds maximum length of 255 bytes")
	}
	if !isTombstone && valueLen >= Tombstone {
		return dberrors.InvalidArgument("value exceeds maximum length of 65534 bytes")
	}
	return nil
}

// EncodeData builds a complete `| header | key | value |` record into a
// freshly allocated buffer. value is ignored (and must be empty) when
// isTombstone is true.
func EncodeData(key, value []byte, isTombstone bool) ([]byte, error) {
	if err := ValidateLengths(len(key), len(value), isTombstone); err != nil {
		return nil, err
	}

	valueLen := len(value)
	if isTombstone {
		valueLen = 0
	}

	buf := make([]byte, DataHeaderSize+len(key)+valueLen)
	h := NewDataHeader(buf)
	h.SetKeyLen(uint16(len(key)))
	if isTombstone {
		h.SetValueLen(Tombstone)
	} else {
		h.SetValueLen(uint16(len(value)))
	}
	copy(buf[DataHeaderSize:], key)
	if !isTombstone {
		copy(buf[DataHeaderSize+len(key):], value)
	}
	return buf, nil
}

// EncodeHint builds a complete `| header | key |` hint record.
func EncodeHint(key []byte, valueLen uint16, valuePos uint32, isTombstone bool) ([]byte, error) {
	if err := ValidateLengths(len(key), int(valueLen), isTombstone); err != nil {
		return nil, err
	}

	buf := make([]byte, HintHeaderSize+len(key))
	h := NewHintHeader(buf)
	h.SetKeyLen(uint16(len(key)))
	if isTombstone {
		h.SetValueLen(Tombstone)
	} else {
		h.SetValueLen(valueLen)
	}
	h.SetValuePos(valuePos)
	copy(buf[HintHeaderSize:], key)
	return buf, nil
}
