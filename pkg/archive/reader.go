package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
)

const (
	// DefaultCompressionLevel is the default compression level for encoding.
	DefaultCompressionLevel = zstd.BestSpeed
)

// Reader wraps an io.Reader to provide decompression of snapshot data.
type Reader struct {
	header    *Header
	zReader   io.ReadCloser
	headerBuf [HeaderSize]byte
}

// NewReader reads and validates the header, then returns a reader for the
// decompressed content.
func NewReader(r io.Reader) (*Reader, error) {
	reader := &Reader{
		header: &Header{},
	}

	if _, err := io.ReadFull(r, reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if err := reader.header.UnmarshalBinary(reader.headerBuf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	reader.zReader = zstd.NewReader(io.LimitReader(r, int64(reader.header.CompressedLength)))
	return reader, nil
}

// Header returns the snapshot header.
func (r *Reader) Header() *Header {
	return r.header
}

// Read reads decompressed data into p.
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.zReader.Read(p)
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.zReader.Close()
}

// ReadAll reads the entire decompressed content of a snapshot.
func ReadAll(r io.Reader) ([]byte, *Header, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	length := reader.header.Length
	if length == 0 {
		return []byte{}, reader.header, nil
	}

	// The buffer grows with the data actually decompressed, never with the
	// size the header claims.
	data, err := io.ReadAll(io.LimitReader(reader, int64(length)+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read content: %w", err)
	}
	if uint64(len(data)) != length {
		return nil, nil, fmt.Errorf("content is %d bytes, header says %d", len(data), length)
	}

	return data, reader.header, nil
}
