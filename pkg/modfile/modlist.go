package modfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goopsie/teraModTools/internal/atomicfile"
)

// ListFileName is the mod list's file name inside the mods directory.
const ListFileName = "ModList.mods"

// ListEntry is one persisted mod list record.
type ListEntry struct {
	File      string // File name inside the mods directory
	Enabled   bool
	Name      string
	Container string
}

// ReadList decodes a mod list: an int32 count, then per mod an int32
// enabled flag and the file, name and container strings. The trailing magic
// is checked when present.
func ReadList(r io.Reader) ([]ListEntry, error) {
	count, err := readInt[int32](r)
	if err != nil {
		return nil, fmt.Errorf("read mod count: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("invalid mod count %d", count)
	}

	entries := make([]ListEntry, 0, min(int(count), 1024))
	for i := 0; i < int(count); i++ {
		var e ListEntry
		enabled, err := readInt[int32](r)
		if err != nil {
			return nil, fmt.Errorf("read mod %d: %w", i, err)
		}
		e.Enabled = enabled != 0
		if e.File, err = readString(r); err != nil {
			return nil, fmt.Errorf("read mod %d file: %w", i, err)
		}
		if e.Name, err = readString(r); err != nil {
			return nil, fmt.Errorf("read mod %d name: %w", i, err)
		}
		if e.Container, err = readString(r); err != nil {
			return nil, fmt.Errorf("read mod %d container: %w", i, err)
		}
		entries = append(entries, e)
	}

	magic, err := readInt[uint32](r)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		return nil, fmt.Errorf("read trailer: %w", err)
	case magic != Magic:
		return nil, fmt.Errorf("bad mod list trailer 0x%08X", magic)
	}
	return entries, nil
}

// WriteList encodes entries in the format ReadList reads.
func WriteList(w io.Writer, entries []ListEntry) error {
	if err := writeInt(w, int32(len(entries))); err != nil {
		return fmt.Errorf("write mod count: %w", err)
	}
	for i, e := range entries {
		enabled := int32(0)
		if e.Enabled {
			enabled = 1
		}
		if err := writeInt(w, enabled); err != nil {
			return fmt.Errorf("write mod %d: %w", i, err)
		}
		for _, s := range []string{e.File, e.Name, e.Container} {
			if err := writeString(w, s); err != nil {
				return fmt.Errorf("write mod %d: %w", i, err)
			}
		}
	}
	if err := writeInt(w, Magic); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}
	return nil
}

// LoadList reads the mod list at path. A missing file is an empty list.
func LoadList(path string) ([]ListEntry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mod list: %w", err)
	}
	return ReadList(bytes.NewReader(data))
}

// SaveList writes the mod list to path atomically.
func SaveList(path string, entries []ListEntry) error {
	var buf bytes.Buffer
	if err := WriteList(&buf, entries); err != nil {
		return err
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write mod list: %w", err)
	}
	return nil
}
