// Package archive reads and writes ZSTD-compressed mapper snapshots.
//
// A snapshot is a fixed header followed by a single zstd stream holding the
// plaintext (unencrypted) mapper text.
package archive

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Magic bytes identifying a snapshot header.
var Magic = [4]byte{0x54, 0x4d, 0x4d, 0x53} // "TMMS"

// Version is the only snapshot layout this package writes.
const Version = 1

// MaxLength is the largest uncompressed snapshot accepted. Mapper text is a
// few megabytes; anything near this limit is a damaged header.
const MaxLength = math.MaxInt32

// HeaderSize is the fixed binary size of a snapshot header.
const HeaderSize = 32 // 4 + 4 + 8 + 8 + 8 bytes

// Header describes a snapshot file.
type Header struct {
	Magic            [4]byte
	Version          uint32
	EntryCount       uint64 // Number of mapper entries in the snapshot
	Length           uint64 // Uncompressed size
	CompressedLength uint64 // Compressed size
}

// Size returns the binary size of the header.
func (h *Header) Size() int {
	return HeaderSize
}

// Validate checks the header for validity. An empty snapshot (zero length)
// is allowed.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("invalid magic: expected %x, got %x", Magic, h.Magic)
	}
	if h.Version != Version {
		return fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	if h.Length > MaxLength {
		return fmt.Errorf("uncompressed size %d exceeds %d", h.Length, MaxLength)
	}
	if h.CompressedLength > math.MaxInt64-HeaderSize {
		return fmt.Errorf("compressed size %d out of range", h.CompressedLength)
	}
	if h.Length > 0 && h.CompressedLength == 0 {
		return fmt.Errorf("compressed size is zero")
	}
	return nil
}

// MarshalBinary encodes the header to binary format.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint64(buf[8:16], h.EntryCount)
	binary.LittleEndian.PutUint64(buf[16:24], h.Length)
	binary.LittleEndian.PutUint64(buf[24:32], h.CompressedLength)
}

// UnmarshalBinary decodes and validates the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from the given buffer.
// Does not validate - use UnmarshalBinary for validation.
func (h *Header) DecodeFrom(data []byte) {
	copy(h.Magic[:], data[0:4])
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	h.EntryCount = binary.LittleEndian.Uint64(data[8:16])
	h.Length = binary.LittleEndian.Uint64(data[16:24])
	h.CompressedLength = binary.LittleEndian.Uint64(data[24:32])
}

// NewHeader creates a snapshot header for the given sizes.
func NewHeader(entryCount, uncompressedSize, compressedSize uint64) *Header {
	return &Header{
		Magic:            Magic,
		Version:          Version,
		EntryCount:       entryCount,
		Length:           uncompressedSize,
		CompressedLength: compressedSize,
	}
}
