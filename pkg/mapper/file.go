package mapper

import (
	"fmt"
	"os"

	"github.com/goopsie/teraModTools/internal/atomicfile"
	"github.com/goopsie/teraModTools/pkg/cipher"
)

// Default file names inside the game's CookedPC directory.
const (
	FileName       = "CompositePackageMapper.dat"
	BackupFileName = "CompositePackageMapper.clean"
)

// ReadFile reads and decrypts a mapper file.
func ReadFile(path string) (*Map, error) {
	m := New()
	if err := m.Load(path); err != nil {
		return nil, err
	}
	return m, nil
}

// Load replaces the map's entries with the contents of the mapper file at
// path. Malformed content yields a partial map; see Truncated.
func (m *Map) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read mapper: %w", err)
	}
	plain := cipher.DecodeText(cipher.Decrypt(data))
	return m.UnmarshalText([]byte(plain))
}

// Save encrypts the map and writes it to path. The write goes through a
// temporary file so a reader never sees a partial mapper.
func (m *Map) Save(path string) error {
	text, err := m.MarshalText()
	if err != nil {
		return fmt.Errorf("marshal mapper: %w", err)
	}
	if err := atomicfile.WriteFile(path, cipher.Encrypt(text), 0o644); err != nil {
		return fmt.Errorf("write mapper: %w", err)
	}
	m.dirty = false
	return nil
}
