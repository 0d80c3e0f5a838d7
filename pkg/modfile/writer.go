package modfile

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/goopsie/teraModTools/internal/atomicfile"
)

// MaxContainerSize is the largest container the footer's int32 offsets can
// address.
const MaxContainerSize = math.MaxInt32

// Builder assembles a mod container from package payloads.
type Builder struct {
	name            string
	author          string
	container       string
	version         int32
	regionLock      bool
	fileVersion     uint16
	licenseeVersion uint16
	packages        []pendingPackage
}

type pendingPackage struct {
	objectPath string
	payload    []byte
}

// NewBuilder creates a builder for a container with the given name.
func NewBuilder(container string) *Builder {
	return &Builder{
		name:      container,
		container: container,
		version:   1,
	}
}

// SetName sets the display name. It defaults to the container name.
func (b *Builder) SetName(name string) { b.name = name }

// SetAuthor sets the author string.
func (b *Builder) SetAuthor(author string) { b.author = author }

// SetRegionLock sets the region lock flag.
func (b *Builder) SetRegionLock(lock bool) { b.regionLock = lock }

// SetEngineVersion sets the file and licensee versions written into every
// package header.
func (b *Builder) SetEngineVersion(file, licensee uint16) {
	b.fileVersion = file
	b.licenseeVersion = licensee
}

// Add appends a package replacing objectPath with payload.
func (b *Builder) Add(objectPath string, payload []byte) {
	b.packages = append(b.packages, pendingPackage{objectPath: objectPath, payload: payload})
}

// AddFile appends a package whose payload is read from path.
func (b *Builder) AddFile(objectPath, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read payload %s: %w", path, err)
	}
	b.Add(objectPath, data)
	return nil
}

// Build writes the container to w and returns its description as Read
// would report it.
func (b *Builder) Build(w io.Writer) (*ModFile, error) {
	var buf bytes.Buffer
	m := &ModFile{
		Name:       b.name,
		Author:     b.author,
		Container:  b.container,
		Version:    b.version,
		RegionLock: b.regionLock,
		HasFooter:  true,
		Packages:   make([]Package, 0, len(b.packages)),
	}

	for i, p := range b.packages {
		offset := buf.Len()
		if err := b.writePackage(&buf, p); err != nil {
			return nil, fmt.Errorf("write package %d: %w", i, err)
		}
		m.Packages = append(m.Packages, Package{
			ObjectPath:      p.objectPath,
			Offset:          uint64(offset),
			Size:            uint64(buf.Len() - offset),
			FileVersion:     b.fileVersion,
			LicenseeVersion: b.licenseeVersion,
		})
	}
	compositeEnd := buf.Len()

	authorOffset := buf.Len()
	if err := writeString(&buf, b.author); err != nil {
		return nil, fmt.Errorf("write author: %w", err)
	}
	nameOffset := buf.Len()
	if err := writeString(&buf, b.name); err != nil {
		return nil, fmt.Errorf("write name: %w", err)
	}
	containerOffset := buf.Len()
	if err := writeString(&buf, b.container); err != nil {
		return nil, fmt.Errorf("write container: %w", err)
	}

	offsetsOffset := buf.Len()
	for _, p := range m.Packages {
		_ = writeInt(&buf, int32(p.Offset))
	}

	metaSize := buf.Len() - compositeEnd + FooterSize
	regionLock := int32(0)
	if b.regionLock {
		regionLock = 1
	}
	for _, v := range []int32{
		regionLock,
		b.version,
		int32(authorOffset),
		int32(nameOffset),
		int32(containerOffset),
		int32(offsetsOffset),
		int32(len(m.Packages)),
		int32(metaSize),
	} {
		_ = writeInt(&buf, v)
	}
	_ = writeInt(&buf, Magic)

	if buf.Len() > MaxContainerSize {
		return nil, fmt.Errorf("container is %d bytes, limit %d", buf.Len(), MaxContainerSize)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("write container: %w", err)
	}
	return m, nil
}

// WriteFile builds the container and writes it to path atomically.
func (b *Builder) WriteFile(path string) (*ModFile, error) {
	var buf bytes.Buffer
	m, err := b.Build(&buf)
	if err != nil {
		return nil, err
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write mod file: %w", err)
	}
	return m, nil
}

// writePackage writes a minimal package header followed by the payload.
func (b *Builder) writePackage(buf *bytes.Buffer, p pendingPackage) error {
	folder := objectPathPrefix + p.objectPath

	var header bytes.Buffer
	if err := writeString(&header, folder); err != nil {
		return fmt.Errorf("write folder name: %w", err)
	}

	_ = writeInt(buf, Magic)
	_ = writeInt(buf, b.fileVersion)
	_ = writeInt(buf, b.licenseeVersion)
	_ = writeInt(buf, int32(packageHeaderSize+header.Len()))
	buf.Write(header.Bytes())
	buf.Write(p.payload)
	return nil
}
