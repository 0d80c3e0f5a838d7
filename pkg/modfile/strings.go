package modfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// MaxStringLen is the longest length-prefixed string accepted, in characters.
const MaxStringLen = 1024

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

type integer interface {
	~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

func readInt[T integer](r io.Reader) (T, error) {
	var v T
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func writeInt[T integer](w io.Writer, v T) error {
	return binary.Write(w, binary.LittleEndian, v)
}

// readString reads an int32 length-prefixed string. A negative length means
// the string is stored as UTF-16LE code units. A trailing NUL is dropped.
func readString(r io.Reader) (string, error) {
	n, err := readInt[int32](r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if n > MaxStringLen || n < -MaxStringLen {
		return "", fmt.Errorf("%w: %d", ErrStringTooLong, n)
	}

	wide := n < 0
	size := int(n)
	if wide {
		size = -size * 2
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	var s string
	if wide {
		decoded, err := utf16le.NewDecoder().Bytes(buf)
		if err != nil {
			return "", fmt.Errorf("decode utf-16 string: %w", err)
		}
		s = string(decoded)
	} else {
		s = strings.ToValidUTF8(string(buf), "\uFFFD")
	}
	return strings.TrimSuffix(s, "\x00"), nil
}

// writeString writes s in the form readString expects: ASCII as single
// bytes, anything else as UTF-16LE with a negated length.
func writeString(w io.Writer, s string) error {
	if isASCII(s) {
		if len(s) > MaxStringLen {
			return fmt.Errorf("%w: %d", ErrStringTooLong, len(s))
		}
		if err := writeInt(w, int32(len(s))); err != nil {
			return err
		}
		_, err := io.WriteString(w, s)
		return err
	}

	encoded, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return fmt.Errorf("encode utf-16 string: %w", err)
	}
	units := len(encoded) / 2
	if units > MaxStringLen {
		return fmt.Errorf("%w: %d", ErrStringTooLong, units)
	}
	if err := writeInt(w, -int32(units)); err != nil {
		return err
	}
	_, err = w.Write(encoded)
	return err
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
