package activation

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/goopsie/teraModTools/internal/atomicfile"
	"github.com/goopsie/teraModTools/internal/logging"
	"github.com/goopsie/teraModTools/pkg/mapper"
	"github.com/goopsie/teraModTools/pkg/modfile"
)

// CookedDir is the game directory holding the mapper and the mods.
const CookedDir = "CookedPC"

// Paths locates the files a session works on.
type Paths struct {
	Root    string // Game root, the parent of CookedPC
	Mapper  string // Live mapper
	Backup  string // Clean mapper copy
	ModsDir string // Directory mod containers are installed to
	ModList string // Persisted mod list
}

// NewPaths returns the standard layout under a game root directory.
func NewPaths(root string) Paths {
	cooked := filepath.Join(root, CookedDir)
	return Paths{
		Root:    root,
		Mapper:  filepath.Join(cooked, mapper.FileName),
		Backup:  filepath.Join(cooked, mapper.BackupFileName),
		ModsDir: cooked,
		ModList: filepath.Join(cooked, modfile.ListFileName),
	}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithWaitForLaunch defers writing the mapper until the game launches.
func WithWaitForLaunch(wait bool) Option {
	return func(s *Session) {
		s.waitForLaunch = wait
	}
}

// Session is the mod manager state for one game installation. It is not
// safe for concurrent use.
type Session struct {
	paths         Paths
	active        *mapper.Map
	backup        *mapper.Map
	mods          []Mod
	waitForLaunch bool
	logger        *log.Logger
}

// Open prepares a session: it creates the clean backup if it is absent,
// loads the backup and live mappers and the mod list, and re-reads every
// listed mod container to rebuild its declaration.
func Open(paths Paths, opts ...Option) (*Session, error) {
	s := &Session{paths: paths}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger).WithPrefix("activation")

	if err := os.MkdirAll(paths.ModsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create mods dir: %w", err)
	}

	liveExists := atomicfile.Exists(paths.Mapper)
	if !liveExists {
		s.logger.Warn("live mapper not found", "path", paths.Mapper)
	}
	if err := s.ensureBackup(liveExists); err != nil {
		return nil, err
	}

	backup, err := mapper.ReadFile(paths.Backup)
	if err != nil {
		return nil, fmt.Errorf("load backup mapper: %w", err)
	}
	s.warnTruncated(backup, paths.Backup)
	s.backup = backup

	if liveExists {
		active, err := mapper.ReadFile(paths.Mapper)
		if err != nil {
			return nil, fmt.Errorf("load mapper: %w", err)
		}
		s.warnTruncated(active, paths.Mapper)
		s.active = active
	} else {
		s.active = backup.Clone()
		s.active.MarkDirty()
	}

	if err := s.loadMods(); err != nil {
		return nil, err
	}

	s.logger.Debug("session open", "entries", s.active.Len(), "backup", s.backup.Len(), "mods", len(s.mods))
	return s, nil
}

// ensureBackup copies the live mapper to the backup path if no backup
// exists yet. An existing backup is never overwritten.
func (s *Session) ensureBackup(liveExists bool) error {
	if atomicfile.Exists(s.paths.Backup) {
		return nil
	}
	if !liveExists {
		return fmt.Errorf("%w: no mapper at %s to back up", ErrBackupMissing, s.paths.Mapper)
	}
	if err := atomicfile.CopyFile(s.paths.Mapper, s.paths.Backup); err != nil {
		return fmt.Errorf("create backup mapper: %w", err)
	}
	s.logger.Info("created backup mapper", "path", s.paths.Backup)
	return nil
}

func (s *Session) warnTruncated(m *mapper.Map, path string) {
	if m.Truncated() {
		s.logger.Warn("mapper is truncated, using the entries before the damage", "path", path, "entries", m.Len())
	}
}

// loadMods reads the mod list, creating an empty one when absent, and
// rescans each mod container.
func (s *Session) loadMods() error {
	if !atomicfile.Exists(s.paths.ModList) {
		if err := modfile.SaveList(s.paths.ModList, nil); err != nil {
			return fmt.Errorf("create mod list: %w", err)
		}
	}

	entries, err := modfile.LoadList(s.paths.ModList)
	if err != nil {
		return fmt.Errorf("load mod list: %w", err)
	}

	s.mods = make([]Mod, 0, len(entries))
	for _, e := range entries {
		m := Mod{
			File:        e.File,
			Enabled:     e.Enabled,
			Name:        e.Name,
			Declaration: Declaration{Container: e.Container},
		}
		s.rescan(&m)
		s.mods = append(s.mods, m)
	}
	return nil
}

// rescan rebuilds a listed mod's declaration from its container file. A
// missing or unresolvable file leaves the mod with no packages.
func (s *Session) rescan(m *Mod) {
	path := filepath.Join(s.paths.ModsDir, m.File)
	if !atomicfile.Exists(path) {
		s.logger.Warn("mod file missing", "file", m.File)
		return
	}

	mf, err := modfile.ReadFile(path)
	if err == nil && !mf.IsRaw() {
		m.Declaration = DeclarationOf(mf, m.File)
		if mf.Name != "" {
			m.Name = mf.Name
		}
		m.Author = mf.Author
		return
	}

	decl, rerr := ResolveRaw(m.File, s.active)
	if rerr != nil {
		s.logger.Warn("raw mod matches no container", "file", m.File)
		return
	}
	m.Raw = true
	m.Declaration = decl
	if m.Name == "" {
		m.Name = m.File
	}
}

// Paths returns the session's file locations.
func (s *Session) Paths() Paths {
	return s.paths
}

// WaitForLaunch reports whether mapper writes are deferred to game launch.
func (s *Session) WaitForLaunch() bool {
	return s.waitForLaunch
}

// Active returns the active map. Callers must not keep it across session
// operations that replace entries.
func (s *Session) Active() *mapper.Map {
	return s.active
}

// Backup returns the clean map.
func (s *Session) Backup() *mapper.Map {
	return s.backup
}

// Mods returns a copy of the mod list.
func (s *Session) Mods() []Mod {
	out := make([]Mod, len(s.mods))
	copy(out, s.mods)
	return out
}

// Mod returns the mod at index.
func (s *Session) Mod(index int) (Mod, error) {
	if err := s.checkIndex(index); err != nil {
		return Mod{}, err
	}
	return s.mods[index], nil
}

// FindMod resolves a reference to a list index. The reference may be a
// zero-based index, a file name or a mod name; names compare ignoring case.
func (s *Session) FindMod(ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if err := s.checkIndex(i); err != nil {
			return -1, err
		}
		return i, nil
	}
	for i, m := range s.mods {
		if strings.EqualFold(m.File, ref) || strings.EqualFold(m.Name, ref) ||
			strings.EqualFold(modfile.ContainerName(m.File), ref) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrModNotFound, ref)
}

func (s *Session) checkIndex(index int) error {
	if index < 0 || index >= len(s.mods) {
		return fmt.Errorf("%w: index %d", ErrModNotFound, index)
	}
	return nil
}

// Commit writes the active map if it changed.
func (s *Session) Commit() error {
	if !s.active.Dirty() {
		return nil
	}
	return s.Save()
}

// Save writes the active map unconditionally.
func (s *Session) Save() error {
	if err := s.active.Save(s.paths.Mapper); err != nil {
		return err
	}
	s.logger.Info("saved mapper", "entries", s.active.Len())
	return nil
}

// SaveList persists the mod list.
func (s *Session) SaveList() error {
	entries := make([]modfile.ListEntry, len(s.mods))
	for i, m := range s.mods {
		entries[i] = m.listEntry()
	}
	return modfile.SaveList(s.paths.ModList, entries)
}

// Persist saves the mod list and, unless writes wait for the game to
// launch, commits the active map.
func (s *Session) Persist() error {
	if err := s.SaveList(); err != nil {
		return err
	}
	if s.waitForLaunch {
		return nil
	}
	return s.Commit()
}

// Restore copies the clean backup over the live mapper and reloads the
// active map from it. Without a backup the live mapper is left untouched.
func (s *Session) Restore() error {
	if !atomicfile.Exists(s.paths.Backup) {
		return fmt.Errorf("%w: %s", ErrBackupMissing, s.paths.Backup)
	}
	if err := atomicfile.CopyFile(s.paths.Backup, s.paths.Mapper); err != nil {
		return fmt.Errorf("restore mapper: %w", err)
	}
	if err := s.active.Load(s.paths.Mapper); err != nil {
		return fmt.Errorf("reload mapper: %w", err)
	}
	s.logger.Info("restored mapper from backup")
	return nil
}

// DisableAll turns off every enabled mod, saves, and then restores the
// clean backup. It returns the number of mods disabled; with none enabled
// nothing is written.
func (s *Session) DisableAll() (int, error) {
	var changed []int
	for i := range s.mods {
		if s.mods[i].Enabled {
			s.mods[i].Enabled = false
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	for _, i := range changed {
		s.TurnOff(s.mods[i].Declaration, false)
	}

	s.active.MarkDirty()
	if err := s.Commit(); err != nil {
		return 0, err
	}
	if err := s.SaveList(); err != nil {
		return 0, err
	}
	if err := s.Restore(); err != nil {
		return len(changed), err
	}
	return len(changed), nil
}
