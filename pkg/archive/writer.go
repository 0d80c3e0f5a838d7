package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
)

// Writer compresses snapshot content into dst. The header goes out first
// as a placeholder and is completed by Close, once both sizes are known.
type Writer struct {
	dst     io.WriteSeeker
	start   int64 // Offset of the header in dst
	z       *zstd.Writer
	header  Header
	written uint64
	level   int
	closed  bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the zstd level.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// WithEntryCount records the number of mapper entries in the header.
func WithEntryCount(n uint64) WriterOption {
	return func(w *Writer) {
		w.header.EntryCount = n
	}
}

// NewWriter starts a snapshot at dst's current position.
func NewWriter(dst io.WriteSeeker, opts ...WriterOption) (*Writer, error) {
	start, err := dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}

	w := &Writer{
		dst:    dst,
		start:  start,
		header: *NewHeader(0, 0, 0),
		level:  DefaultCompressionLevel,
	}
	for _, opt := range opts {
		opt(w)
	}

	var placeholder [HeaderSize]byte
	w.header.EncodeTo(placeholder[:])
	if _, err := dst.Write(placeholder[:]); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	w.z = zstd.NewWriterLevel(dst, w.level)
	return w, nil
}

// Write compresses p and counts it toward the header's Length.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed snapshot")
	}
	n, err := w.z.Write(p)
	w.written += uint64(n)
	return n, err
}

// Close flushes the compressor, fills in the header sizes and leaves dst
// positioned after the snapshot. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.z.Close(); err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}

	end, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("get position: %w", err)
	}
	w.header.Length = w.written
	w.header.CompressedLength = uint64(end - w.start - HeaderSize)
	if err := w.header.Validate(); err != nil {
		return err
	}

	var buf [HeaderSize]byte
	w.header.EncodeTo(buf[:])
	if _, err := w.dst.Seek(w.start, io.SeekStart); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}
	if _, err := w.dst.Write(buf[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.dst.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}
	return nil
}

// Header returns the header as written so far. Sizes are final after Close.
func (w *Writer) Header() Header {
	return w.header
}

// Encode writes data as a complete snapshot to dst.
func Encode(dst io.WriteSeeker, data []byte, opts ...WriterOption) error {
	w, err := NewWriter(dst, opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	return w.Close()
}
