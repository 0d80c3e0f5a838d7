package archive

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestHeader(t *testing.T) {
	t.Run("MarshalUnmarshal", func(t *testing.T) {
		original := NewHeader(3, 1024, 512)

		data, err := original.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if len(data) != HeaderSize {
			t.Fatalf("size: got %d, want %d", len(data), HeaderSize)
		}

		decoded := &Header{}
		if err := decoded.UnmarshalBinary(data); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		if *decoded != *original {
			t.Errorf("mismatch: got %+v, want %+v", decoded, original)
		}
	})

	t.Run("InvalidMagic", func(t *testing.T) {
		h := NewHeader(1, 1024, 512)
		h.Magic = [4]byte{0x5a, 0x53, 0x54, 0x44}
		if err := h.Validate(); err == nil {
			t.Error("expected error for invalid magic")
		}
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		h := NewHeader(1, 1024, 512)
		h.Version = 9
		if err := h.Validate(); err == nil {
			t.Error("expected error for unknown version")
		}
	})

	t.Run("MissingCompressedLength", func(t *testing.T) {
		h := NewHeader(1, 1024, 0)
		if err := h.Validate(); err == nil {
			t.Error("expected error for zero compressed length")
		}
	})

	t.Run("LengthTooLarge", func(t *testing.T) {
		h := NewHeader(1, MaxLength+1, 8)
		if err := h.Validate(); err == nil {
			t.Error("expected error for oversized length")
		}
	})

	t.Run("Short", func(t *testing.T) {
		h := &Header{}
		if err := h.UnmarshalBinary(make([]byte, HeaderSize-1)); err == nil {
			t.Error("expected error for short header")
		}
	})
}

func TestReadWrite(t *testing.T) {
	original := []byte("S1Data_01.gpk?S1Data.Obj_A,c1,0,10,|S1Data.Obj_B,c2,10,20,|!")

	t.Run("EncodeDecodeRoundTrip", func(t *testing.T) {
		var buf bytes.Buffer
		ws := &seekableBuffer{Buffer: &buf}

		if err := Encode(ws, original, WithEntryCount(2)); err != nil {
			t.Fatalf("encode: %v", err)
		}

		decoded, header, err := ReadAll(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}

		if !bytes.Equal(decoded, original) {
			t.Errorf("data mismatch: got %q, want %q", decoded, original)
		}
		if header.EntryCount != 2 {
			t.Errorf("EntryCount: got %d, want 2", header.EntryCount)
		}
		if header.CompressedLength != uint64(buf.Len()-HeaderSize) {
			t.Errorf("CompressedLength: got %d, want %d", header.CompressedLength, buf.Len()-HeaderSize)
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "snap.tmms")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := Encode(f, original, WithEntryCount(2), WithCompressionLevel(DefaultCompressionLevel)); err != nil {
			t.Fatalf("encode: %v", err)
		}
		f.Close()

		f, err = os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		decoded, _, err := ReadAll(f)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !bytes.Equal(decoded, original) {
			t.Errorf("data mismatch")
		}
	})

	t.Run("Empty", func(t *testing.T) {
		var buf bytes.Buffer
		ws := &seekableBuffer{Buffer: &buf}

		if err := Encode(ws, nil); err != nil {
			t.Fatalf("encode: %v", err)
		}

		decoded, header, err := ReadAll(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(decoded) != 0 || header.EntryCount != 0 {
			t.Errorf("got %d bytes, %d entries", len(decoded), header.EntryCount)
		}
	})
}

func TestReadCorrupt(t *testing.T) {
	original := []byte("S1Data_01.gpk?S1Data.Obj_A,c1,0,10,|!")

	encode := func(t *testing.T) []byte {
		t.Helper()
		var buf bytes.Buffer
		if err := Encode(&seekableBuffer{Buffer: &buf}, original, WithEntryCount(1)); err != nil {
			t.Fatalf("encode: %v", err)
		}
		return buf.Bytes()
	}

	t.Run("HugeLength", func(t *testing.T) {
		header, _ := NewHeader(1, 1<<62, 8).MarshalBinary()
		data := append(header, make([]byte, 8)...)

		if _, _, err := ReadAll(bytes.NewReader(data)); err == nil {
			t.Error("expected error for huge length")
		}
	})

	t.Run("LengthLongerThanContent", func(t *testing.T) {
		data := encode(t)
		binary.LittleEndian.PutUint64(data[16:24], uint64(len(original)+5))

		if _, _, err := ReadAll(bytes.NewReader(data)); err == nil {
			t.Error("expected error for short content")
		}
	})

	t.Run("LengthShorterThanContent", func(t *testing.T) {
		data := encode(t)
		binary.LittleEndian.PutUint64(data[16:24], uint64(len(original)-5))

		if _, _, err := ReadAll(bytes.NewReader(data)); err == nil {
			t.Error("expected error for extra content")
		}
	})
}

func TestWriter(t *testing.T) {
	t.Run("TracksLength", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := NewWriter(&seekableBuffer{Buffer: &buf}, WithEntryCount(7))
		if err != nil {
			t.Fatal(err)
		}
		for _, chunk := range []string{"S1Data_01.gpk?", "A,c1,0,1,|", "!"} {
			if _, err := w.Write([]byte(chunk)); err != nil {
				t.Fatal(err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Errorf("second close: %v", err)
		}
		if _, err := w.Write([]byte("x")); err == nil {
			t.Error("expected error writing after close")
		}

		h := w.Header()
		if h.Length != 25 || h.EntryCount != 7 {
			t.Errorf("header: %+v", h)
		}
		if h.CompressedLength != uint64(buf.Len()-HeaderSize) {
			t.Errorf("CompressedLength: got %d, want %d", h.CompressedLength, buf.Len()-HeaderSize)
		}
	})

	t.Run("StartsAtCurrentOffset", func(t *testing.T) {
		var buf bytes.Buffer
		ws := &seekableBuffer{Buffer: &buf}
		if _, err := ws.Write([]byte("prefix")); err != nil {
			t.Fatal(err)
		}
		payload := []byte("S1Data_01.gpk?A,c1,0,1,|!")
		if err := Encode(ws, payload, WithEntryCount(1)); err != nil {
			t.Fatalf("encode: %v", err)
		}

		if !bytes.HasPrefix(buf.Bytes(), []byte("prefix")) {
			t.Fatal("prefix overwritten")
		}
		decoded, _, err := ReadAll(bytes.NewReader(buf.Bytes()[len("prefix"):]))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !bytes.Equal(decoded, payload) {
			t.Errorf("got %q", decoded)
		}
	})
}

type seekableBuffer struct {
	*bytes.Buffer
	pos int64
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case 0:
		newPos = offset
	case 1:
		newPos = s.pos + offset
	case 2:
		newPos = int64(s.Buffer.Len()) + offset
	}
	s.pos = newPos
	return newPos, nil
}

func (s *seekableBuffer) Write(p []byte) (n int, err error) {
	for int64(s.Buffer.Len()) < s.pos {
		s.Buffer.WriteByte(0)
	}
	if s.pos < int64(s.Buffer.Len()) {
		data := s.Buffer.Bytes()
		n = copy(data[s.pos:], p)
		if n < len(p) {
			m, err := s.Buffer.Write(p[n:])
			n += m
			if err != nil {
				return n, err
			}
		}
	} else {
		n, err = s.Buffer.Write(p)
	}
	s.pos += int64(n)
	return n, err
}
