package mapper

import (
	"fmt"
	"os"

	"github.com/goopsie/teraModTools/pkg/archive"
)

// WriteSnapshot writes the map's plaintext into a compressed snapshot file.
// Entries with no container are not serialized and not counted.
func WriteSnapshot(path string, m *Map) error {
	text, err := m.MarshalText()
	if err != nil {
		return fmt.Errorf("marshal mapper: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	var count uint64
	for _, e := range m.Entries() {
		if e.Container != "" {
			count++
		}
	}

	if err := archive.Encode(f, text, archive.WithEntryCount(count)); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return f.Close()
}

// ReadSnapshot reads a snapshot file written by WriteSnapshot. The returned
// map is marked dirty so a commit writes it.
func ReadSnapshot(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	text, header, err := archive.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	m := New()
	if err := m.UnmarshalText(text); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if uint64(m.Len()) != header.EntryCount {
		return nil, fmt.Errorf("snapshot has %d entries, header says %d", m.Len(), header.EntryCount)
	}

	m.dirty = true
	return m, nil
}
