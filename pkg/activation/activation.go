// Package activation applies and reverts mods against the composite package
// mapper.
//
// A Session holds two maps: the active map, which is written back to the
// game's mapper file, and the backup map, loaded once from the clean copy
// of the mapper. Turning a mod on redirects the entries its packages name to
// the mod's container. Turning it off copies the original redirection back
// from the backup map. Mods that declare the same object path conflict; the
// most recently enabled one wins and the others are disabled.
package activation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goopsie/teraModTools/pkg/modfile"
)

var (
	// ErrBackupMissing is returned when the clean mapper copy does not exist
	// and cannot be created.
	ErrBackupMissing = errors.New("backup mapper missing")

	// ErrModNotFound is returned for a mod index or name not in the list.
	ErrModNotFound = errors.New("mod not found")

	// ErrUnresolvable is returned when a raw mod's file name matches no
	// container in the active map.
	ErrUnresolvable = errors.New("cannot resolve raw mod")

	// ErrAlreadyInstalled is returned when installing a file name already in
	// the mod list.
	ErrAlreadyInstalled = errors.New("mod already installed")
)

// Location says where a package's bytes live inside the mod container.
type Location interface {
	location()
}

// Resolved is a package with a known byte range.
type Resolved struct {
	Offset uint64
	Size   uint64
}

// Unresolved is a package matched by file name only. Applying it writes a
// zero offset and size.
type Unresolved struct{}

func (Resolved) location()   {}
func (Unresolved) location() {}

// span returns the byte range a location patches into the mapper.
func span(loc Location) (offset, size uint64) {
	if r, ok := loc.(Resolved); ok {
		return r.Offset, r.Size
	}
	return 0, 0
}

// Package is one object a mod replaces.
type Package struct {
	ObjectPath string
	Location   Location
}

// Declaration is what a mod asks of the mapper: redirect each package's
// object to Container.
type Declaration struct {
	Container string
	Packages  []Package
}

// ObjectPaths returns the declared object paths in order.
func (d Declaration) ObjectPaths() []string {
	out := make([]string, len(d.Packages))
	for i, p := range d.Packages {
		out[i] = p.ObjectPath
	}
	return out
}

// Overlaps reports whether d and other declare an identical, non-empty
// object path.
func (d Declaration) Overlaps(other Declaration) bool {
	seen := make(map[string]struct{}, len(d.Packages))
	for _, p := range d.Packages {
		if p.ObjectPath != "" {
			seen[p.ObjectPath] = struct{}{}
		}
	}
	for _, p := range other.Packages {
		if _, ok := seen[p.ObjectPath]; ok {
			return true
		}
	}
	return false
}

// Unresolved reports whether any package lacks a byte range.
func (d Declaration) Unresolved() bool {
	for _, p := range d.Packages {
		if _, ok := p.Location.(Resolved); !ok {
			return true
		}
	}
	return false
}

// DeclarationOf builds the declaration of a parsed mod container. When the
// container names no target container, the file name stem is used. Packages
// without an object path replace nothing and are left out.
func DeclarationOf(m *modfile.ModFile, file string) Declaration {
	d := Declaration{Container: m.Container}
	if d.Container == "" {
		d.Container = modfile.ContainerName(file)
	}
	for _, p := range m.Packages {
		if p.ObjectPath == "" {
			continue
		}
		d.Packages = append(d.Packages, Package{
			ObjectPath: p.ObjectPath,
			Location:   Resolved{Offset: p.Offset, Size: p.Size},
		})
	}
	return d
}

// Mod is one entry of the mod list.
type Mod struct {
	File        string // File name inside the mods directory
	Enabled     bool
	Name        string
	Author      string
	Raw         bool // Declaration was guessed from the file name
	Declaration Declaration
}

// DisplayName returns Name, or File when the mod has no name.
func (m Mod) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.File
}

func (m Mod) listEntry() modfile.ListEntry {
	return modfile.ListEntry{
		File:      m.File,
		Enabled:   m.Enabled,
		Name:      m.Name,
		Container: m.Declaration.Container,
	}
}

// PackageError describes a package that could not be applied or reverted.
type PackageError struct {
	Container  string
	ObjectPath string
	Err        error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Container, e.ObjectPath, e.Err)
}

func (e *PackageError) Unwrap() error {
	return e.Err
}

// Report counts what a turn-on or turn-off did.
type Report struct {
	Patched  int // Entries redirected to a mod or back to the original
	Removed  int // Entries dropped because the backup never had them
	Failures []*PackageError
}

// Add merges other into r.
func (r *Report) Add(other Report) {
	r.Patched += other.Patched
	r.Removed += other.Removed
	r.Failures = append(r.Failures, other.Failures...)
}

// Err joins the failures, or returns nil when there are none.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d patched", r.Patched)
	if r.Removed > 0 {
		fmt.Fprintf(&b, ", %d removed", r.Removed)
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, ", %d failed", len(r.Failures))
	}
	return b.String()
}
