// Package modfile reads and writes mod container files and the mod list.
//
// A mod container is a concatenation of game packages followed by a
// metadata block and a fixed footer at the very end of the file:
//
//	[package 0][package 1]...[author][name][container][offsets]
//	regionLock i32 | version i32 | authorOffset i32 | nameOffset i32 |
//	containerOffset i32 | offsetsOffset i32 | count i32 | metaSize i32 | magic u32
//
// All integers are little-endian. Files without the trailing magic are raw
// game packages and are treated as a single package spanning the file.
package modfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Magic marks both the start of a game package and the end of a mod footer.
const Magic uint32 = 0x9E2A83C1

// FooterSize is the size of the fixed footer in bytes.
const FooterSize = 36

// packageHeaderSize is the offset of the folder name inside a package.
const packageHeaderSize = 12

// objectPathPrefix marks a folder name that carries the replaced object path.
const objectPathPrefix = "MOD:"

// Extension is the file extension of game and mod containers.
const Extension = ".gpk"

var (
	// ErrNotModPackage is returned when a file is too short or its footer
	// points outside the file.
	ErrNotModPackage = errors.New("not a mod package")

	// ErrStringTooLong is returned for a length-prefixed string longer than
	// MaxStringLen.
	ErrStringTooLong = errors.New("string too long")
)

// Package is one game package inside a mod container.
type Package struct {
	ObjectPath      string // Object the package replaces, empty when undeclared
	Offset          uint64 // Byte offset inside the container
	Size            uint64 // Byte length inside the container
	FileVersion     uint16
	LicenseeVersion uint16
}

// ModFile describes a mod container.
type ModFile struct {
	Name       string
	Author     string
	Container  string // Container name written into the mapper, without extension
	Version    int32
	RegionLock bool
	Packages   []Package
	HasFooter  bool // False for raw game packages
}

// IsRaw reports whether the file carries no usable package declarations and
// must be resolved from its file name instead.
func (m *ModFile) IsRaw() bool {
	if len(m.Packages) == 1 && m.Packages[0].Size == 0 {
		return true
	}
	for _, p := range m.Packages {
		if p.ObjectPath != "" {
			return false
		}
	}
	return true
}

// ContainerName returns the container name for a mod file name: the base
// name with the .gpk extension removed.
func ContainerName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), Extension)
}

// ReadFile opens and parses a mod container.
func ReadFile(path string) (*ModFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mod file: %w", err)
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// Read parses a mod container from r.
func Read(r io.ReadSeeker) (*ModFile, error) {
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end: %w", err)
	}
	if end < 4 {
		return nil, fmt.Errorf("%w: file is %d bytes", ErrNotModPackage, end)
	}

	magic, err := readUint32At(r, end-4)
	if err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}

	m := &ModFile{}
	if magic != Magic || end < FooterSize {
		p, err := readPackage(r, 0)
		if err != nil {
			return nil, fmt.Errorf("read package header: %w", err)
		}
		p.Size = uint64(end)
		m.Packages = []Package{p}
		return m, nil
	}

	m.HasFooter = true
	if err := m.readFooter(r, end); err != nil {
		return nil, err
	}
	return m, nil
}

type footer struct {
	regionLock      int32
	version         int32
	authorOffset    int32
	nameOffset      int32
	containerOffset int32
	offsetsOffset   int32
	count           int32
	metaSize        int32
}

func (m *ModFile) readFooter(r io.ReadSeeker, end int64) error {
	if _, err := r.Seek(end-FooterSize, io.SeekStart); err != nil {
		return fmt.Errorf("seek footer: %w", err)
	}

	var f footer
	for _, field := range []*int32{
		&f.regionLock, &f.version, &f.authorOffset, &f.nameOffset,
		&f.containerOffset, &f.offsetsOffset, &f.count, &f.metaSize,
	} {
		v, err := readInt[int32](r)
		if err != nil {
			return fmt.Errorf("read footer: %w", err)
		}
		*field = v
	}

	compositeEnd := end - int64(f.metaSize)
	if f.metaSize < FooterSize || compositeEnd < 0 {
		return fmt.Errorf("%w: metadata size %d", ErrNotModPackage, f.metaSize)
	}
	if f.count < 0 || int64(f.offsetsOffset)+4*int64(f.count) > end || f.offsetsOffset < 0 {
		return fmt.Errorf("%w: %d packages at offset %d", ErrNotModPackage, f.count, f.offsetsOffset)
	}

	m.RegionLock = f.regionLock != 0
	m.Version = f.version

	var err error
	if m.Author, err = readStringAt(r, f.authorOffset, end); err != nil {
		return fmt.Errorf("read author: %w", err)
	}
	if m.Name, err = readStringAt(r, f.nameOffset, end); err != nil {
		return fmt.Errorf("read name: %w", err)
	}
	if m.Container, err = readStringAt(r, f.containerOffset, end); err != nil {
		return fmt.Errorf("read container: %w", err)
	}

	if _, err := r.Seek(int64(f.offsetsOffset), io.SeekStart); err != nil {
		return fmt.Errorf("seek offsets: %w", err)
	}
	offsets := make([]int64, f.count)
	for i := range offsets {
		v, err := readInt[int32](r)
		if err != nil {
			return fmt.Errorf("read offset %d: %w", i, err)
		}
		offsets[i] = int64(v)
	}

	for i, off := range offsets {
		next := compositeEnd
		if i+1 < len(offsets) {
			next = offsets[i+1]
		}
		if off < 0 || next < off || next > end {
			return fmt.Errorf("%w: package %d spans %d..%d", ErrNotModPackage, i, off, next)
		}

		p, err := readPackage(r, off)
		if err != nil {
			return fmt.Errorf("read package %d: %w", i, err)
		}
		p.Size = uint64(next - off)
		m.Packages = append(m.Packages, p)
	}
	return nil
}

// readPackage reads the header of the game package starting at offset.
func readPackage(r io.ReadSeeker, offset int64) (Package, error) {
	p := Package{Offset: uint64(offset)}
	if _, err := r.Seek(offset+4, io.SeekStart); err != nil {
		return p, err
	}

	var err error
	if p.FileVersion, err = readInt[uint16](r); err != nil {
		return p, err
	}
	if p.LicenseeVersion, err = readInt[uint16](r); err != nil {
		return p, err
	}

	if _, err := r.Seek(offset+packageHeaderSize, io.SeekStart); err != nil {
		return p, err
	}
	folder, err := readString(r)
	if err != nil {
		return p, fmt.Errorf("read folder name: %w", err)
	}
	if path, ok := strings.CutPrefix(folder, objectPathPrefix); ok {
		p.ObjectPath = path
	}
	return p, nil
}

func readUint32At(r io.ReadSeeker, offset int64) (uint32, error) {
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}
	return readInt[uint32](r)
}

func readStringAt(r io.ReadSeeker, offset int32, end int64) (string, error) {
	if offset < 0 || int64(offset) >= end {
		return "", fmt.Errorf("%w: string offset %d", ErrNotModPackage, offset)
	}
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return "", err
	}
	return readString(r)
}
