package activation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goopsie/teraModTools/internal/atomicfile"
	"github.com/goopsie/teraModTools/pkg/mapper"
	"github.com/goopsie/teraModTools/pkg/modfile"
)

// ResolveRaw guesses the declaration of a raw mod from its file name. Every
// entry of m whose container stem contains the mod's stem, or is contained
// in it, ignoring case, becomes an unresolved package. The declaration's
// container is the mod's file name stem.
func ResolveRaw(file string, m *mapper.Map) (Declaration, error) {
	container := modfile.ContainerName(file)
	stem := strings.ToLower(container)
	decl := Declaration{Container: container}
	if stem == "" {
		return decl, fmt.Errorf("%w: %s", ErrUnresolvable, file)
	}

	for _, e := range m.Entries() {
		entryStem := strings.ToLower(strings.TrimSuffix(e.Container, modfile.Extension))
		if entryStem == "" {
			continue
		}
		if strings.Contains(stem, entryStem) || strings.Contains(entryStem, stem) {
			decl.Packages = append(decl.Packages, Package{
				ObjectPath: e.ObjectPath,
				Location:   Unresolved{},
			})
		}
	}

	if len(decl.Packages) == 0 {
		return decl, fmt.Errorf("%w: %s matches no container", ErrUnresolvable, file)
	}
	return decl, nil
}

// Install copies the container at src into the mods directory, reads its
// declaration, disables the enabled mods it conflicts with and appends it to
// the list enabled. Unless writes wait for the game to launch, the mod is
// turned on and the mapper saved. It returns the new mod's index. A file of
// the same name already in the mods directory is never overwritten, since
// game containers live there too.
func (s *Session) Install(src string) (int, error) {
	file := filepath.Base(src)
	for _, m := range s.mods {
		if strings.EqualFold(m.File, file) {
			return -1, fmt.Errorf("%w: %s", ErrAlreadyInstalled, file)
		}
	}

	dst := filepath.Join(s.paths.ModsDir, file)
	copied := false
	if !sameFile(src, dst) {
		if atomicfile.Exists(dst) {
			return -1, fmt.Errorf("%s already exists in %s", file, s.paths.ModsDir)
		}
		if err := atomicfile.CopyFile(src, dst); err != nil {
			return -1, fmt.Errorf("copy mod file: %w", err)
		}
		copied = true
	}

	mod := Mod{File: file}
	mf, err := modfile.ReadFile(dst)
	if err == nil && !mf.IsRaw() {
		mod.Declaration = DeclarationOf(mf, file)
		mod.Name = mf.Name
		mod.Author = mf.Author
	} else {
		if err != nil {
			s.logger.Debug("mod file unreadable, treating as raw", "file", file, "err", err)
		}
		s.logger.Info("raw mod, resolving by file name", "file", file)
		decl, rerr := ResolveRaw(file, s.active)
		if rerr != nil {
			if copied {
				_ = os.Remove(dst)
			}
			return -1, rerr
		}
		mod.Raw = true
		mod.Name = file
		mod.Declaration = decl
		s.logger.Info("raw mod resolved", "file", file, "objects", len(decl.Packages))
	}

	s.disableConflicts(mod.Declaration, -1, mod.DisplayName())

	mod.Enabled = true
	s.mods = append(s.mods, mod)
	index := len(s.mods) - 1

	if !s.waitForLaunch {
		s.TurnOn(mod.Declaration)
		s.active.MarkDirty()
		if err := s.Commit(); err != nil {
			return index, err
		}
	}
	if err := s.SaveList(); err != nil {
		return index, err
	}

	s.logger.Info("installed mod", "mod", mod.DisplayName(), "container", mod.Declaration.Container)
	return index, nil
}

// Remove turns off the mod at index if it is enabled, drops it from the list
// and deletes its file from the mods directory.
func (s *Session) Remove(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	m := s.mods[index]

	if m.Enabled {
		s.TurnOff(m.Declaration, false)
		s.active.MarkDirty()
	}
	s.mods = append(s.mods[:index], s.mods[index+1:]...)

	if err := s.Persist(); err != nil {
		return err
	}

	path := filepath.Join(s.paths.ModsDir, m.File)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete mod file: %w", err)
	}
	s.logger.Info("removed mod", "mod", m.DisplayName())
	return nil
}

// Scan lists packed mod containers in the mods directory that are not in
// the mod list.
func (s *Session) Scan() ([]modfile.ScannedMod, error) {
	found, err := modfile.ScanDir(s.paths.ModsDir)
	if err != nil {
		return nil, err
	}

	listed := make(map[string]struct{}, len(s.mods))
	for _, m := range s.mods {
		listed[strings.ToLower(m.File)] = struct{}{}
	}

	var out []modfile.ScannedMod
	for _, f := range found {
		if _, ok := listed[strings.ToLower(f.File)]; ok {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
