// Package mapper provides types and functions for working with the game's
// composite package mapper file.
//
// The mapper is an encrypted text index that tells the engine, for every
// composite entry, which container file holds the object and at which byte
// offset and size. Mods are activated by patching entries to point at the
// mod's container.
package mapper

import (
	"errors"
	"fmt"
	"slices"

	"github.com/goopsie/teraModTools/pkg/pathmatch"
)

// ErrEntryNotFound is returned when a patch or removal names an entry id the
// map does not contain.
var ErrEntryNotFound = errors.New("composite entry not found")

// ErrAmbiguousMatch describes a lookup that matched more than one entry.
var ErrAmbiguousMatch = errors.New("ambiguous object path")

// Entry is one redirection record of the composite map.
type Entry struct {
	Container  string // Container file currently serving the object
	ObjectPath string // Logical object path, may carry engine suffixes
	ID         string // Composite name, unique within a map
	Offset     uint64 // Byte offset inside Container
	Size       uint64 // Byte length inside Container
}

// Map is an insertion-ordered collection of entries keyed by entry id.
type Map struct {
	order     []string
	entries   map[string]*Entry
	dirty     bool
	truncated bool
}

// New returns an empty map.
func New() *Map {
	return &Map{entries: make(map[string]*Entry)}
}

// FromEntries builds a map from entries in order. A repeated id replaces the
// earlier entry but keeps its position.
func FromEntries(entries []Entry) *Map {
	m := New()
	m.setEntries(entries)
	return m
}

func (m *Map) setEntries(entries []Entry) {
	m.order = make([]string, 0, len(entries))
	m.entries = make(map[string]*Entry, len(entries))
	for _, e := range entries {
		if existing, ok := m.entries[e.ID]; ok {
			*existing = e
			continue
		}
		entry := e
		m.order = append(m.order, e.ID)
		m.entries[e.ID] = &entry
	}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.order)
}

// Dirty reports whether the map changed since it was loaded or saved.
func (m *Map) Dirty() bool {
	return m.dirty
}

// MarkDirty forces the next commit to write the map.
func (m *Map) MarkDirty() {
	m.dirty = true
}

// Truncated reports whether the last load stopped early on malformed input.
func (m *Map) Truncated() bool {
	return m.truncated
}

// Entry returns the entry with the given id.
func (m *Map) Entry(id string) (Entry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns a copy of all entries in insertion order.
func (m *Map) Entries() []Entry {
	out := make([]Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.entries[id])
	}
	return out
}

// Containers returns the distinct container names in first-seen order.
func (m *Map) Containers() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range m.order {
		c := m.entries[id].Container
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Clone returns a deep copy of the map, including its flags.
func (m *Map) Clone() *Map {
	c := FromEntries(m.Entries())
	c.dirty = m.dirty
	c.truncated = m.truncated
	return c
}

// ReplaceEntries makes m an exact copy of src's entries and marks m dirty
// when the result is non-empty.
func (m *Map) ReplaceEntries(src *Map) {
	m.setEntries(src.Entries())
	if len(m.order) > 0 {
		m.dirty = true
	}
}

// MatchKind classifies a lookup result.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchUnique
	MatchAmbiguous
)

func (k MatchKind) String() string {
	switch k {
	case MatchUnique:
		return "unique"
	case MatchAmbiguous:
		return "ambiguous"
	default:
		return "none"
	}
}

// Match is the result of FindByIncompletePath.
type Match struct {
	Kind  MatchKind
	Entry Entry // Set only for MatchUnique
	Count int   // Number of candidate entries
}

// Err describes a non-unique match, or returns nil.
func (r Match) Err(query string) error {
	switch r.Kind {
	case MatchNone:
		return fmt.Errorf("%w: %s", ErrEntryNotFound, query)
	case MatchAmbiguous:
		return fmt.Errorf("%w: %s matches %d entries", ErrAmbiguousMatch, query, r.Count)
	}
	return nil
}

// FindByIncompletePath matches query against every entry's object path.
func (m *Map) FindByIncompletePath(query string) Match {
	var res Match
	for _, id := range m.order {
		e := m.entries[id]
		if !pathmatch.IncompletePathsEqual(e.ObjectPath, query) {
			continue
		}
		res.Count++
		if res.Count == 1 {
			res.Entry = *e
		}
	}

	switch res.Count {
	case 0:
		res.Kind = MatchNone
	case 1:
		res.Kind = MatchUnique
	default:
		res.Kind = MatchAmbiguous
		res.Entry = Entry{}
	}
	return res
}

// Lookup returns the single entry matching query. Zero and multiple matches
// both report false.
func (m *Map) Lookup(query string) (Entry, bool) {
	res := m.FindByIncompletePath(query)
	return res.Entry, res.Kind == MatchUnique
}

// ApplyPatch redirects the entry with the given id.
func (m *Map) ApplyPatch(id, container string, offset, size uint64) error {
	e, ok := m.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	e.Container = container
	e.Offset = offset
	e.Size = size
	m.dirty = true
	return nil
}

// RemoveEntry deletes the entry with the given id and reports whether it
// existed.
func (m *Map) RemoveEntry(id string) bool {
	if _, ok := m.entries[id]; !ok {
		return false
	}
	delete(m.entries, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	m.dirty = true
	return true
}

// MarshalText encodes the map in the plaintext grammar.
func (m *Map) MarshalText() ([]byte, error) {
	return Serialize(m.Entries()), nil
}

// UnmarshalText replaces the map's entries with the parsed text and clears
// the dirty flag.
func (m *Map) UnmarshalText(text []byte) error {
	res := Parse(string(text))
	m.setEntries(res.Entries)
	m.truncated = res.Truncated
	m.dirty = false
	return nil
}
