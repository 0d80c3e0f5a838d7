package activation

import "github.com/goopsie/teraModTools/pkg/mapper"

// TurnOn redirects every package of decl to decl.Container in the active
// map. A package whose object path does not resolve to exactly one entry is
// logged and skipped.
func (s *Session) TurnOn(decl Declaration) Report {
	var r Report
	for _, p := range decl.Packages {
		match := s.active.FindByIncompletePath(p.ObjectPath)
		if match.Kind != mapper.MatchUnique {
			s.logger.Warn("object not found in mapper, skipping", "object", p.ObjectPath, "container", decl.Container, "match", match.Kind)
			r.Failures = append(r.Failures, &PackageError{
				Container:  decl.Container,
				ObjectPath: p.ObjectPath,
				Err:        match.Err(p.ObjectPath),
			})
			continue
		}

		offset, size := span(p.Location)
		if err := s.active.ApplyPatch(match.Entry.ID, decl.Container, offset, size); err != nil {
			s.logger.Warn("patch failed", "object", p.ObjectPath, "err", err)
			r.Failures = append(r.Failures, &PackageError{Container: decl.Container, ObjectPath: p.ObjectPath, Err: err})
			continue
		}
		r.Patched++
	}
	return r
}

// TurnOff reverts every package of decl. An object the backup knows is
// patched back to its original container, offset and size. An object only
// the active map knows is removed from it. Anything else is logged unless
// silent is set.
func (s *Session) TurnOff(decl Declaration, silent bool) Report {
	var r Report
	for _, p := range decl.Packages {
		if orig, ok := s.backup.Lookup(p.ObjectPath); ok {
			err := s.active.ApplyPatch(orig.ID, orig.Container, orig.Offset, orig.Size)
			if err != nil {
				// The entry was dropped from the active map since the backup
				// was taken.
				s.logger.Warn("original entry missing from active mapper", "object", p.ObjectPath, "id", orig.ID)
				r.Failures = append(r.Failures, &PackageError{Container: decl.Container, ObjectPath: p.ObjectPath, Err: err})
				continue
			}
			r.Patched++
			continue
		}

		if cur, ok := s.active.Lookup(p.ObjectPath); ok {
			s.logger.Info("removing entry the backup never had", "object", p.ObjectPath)
			s.active.RemoveEntry(cur.ID)
			r.Removed++
			continue
		}

		if !silent {
			s.logger.Warn("object not found in mapper or backup", "object", p.ObjectPath)
			r.Failures = append(r.Failures, &PackageError{
				Container:  decl.Container,
				ObjectPath: p.ObjectPath,
				Err:        mapper.ErrEntryNotFound,
			})
		}
	}
	return r
}

// conflicting returns the indexes of enabled mods other than skip whose
// declarations share an object path with decl.
func (s *Session) conflicting(decl Declaration, skip int) []int {
	var out []int
	for i, m := range s.mods {
		if i == skip || !m.Enabled {
			continue
		}
		if decl.Overlaps(m.Declaration) {
			out = append(out, i)
		}
	}
	return out
}

// Conflicts returns the indexes of the other enabled mods that declare an
// object path the mod at index also declares.
func (s *Session) Conflicts(index int) ([]int, error) {
	if err := s.checkIndex(index); err != nil {
		return nil, err
	}
	return s.conflicting(s.mods[index].Declaration, index), nil
}

// disableConflicts disables and silently reverts each enabled mod
// conflicting with decl, one at a time.
func (s *Session) disableConflicts(decl Declaration, skip int, winner string) []int {
	conflicts := s.conflicting(decl, skip)
	for _, i := range conflicts {
		s.logger.Info("disabling conflicting mod", "mod", s.mods[i].DisplayName(), "for", winner)
		s.mods[i].Enabled = false
		s.TurnOff(s.mods[i].Declaration, true)
	}
	return conflicts
}

// EnableMod enables the mod at index after disabling every enabled mod it
// conflicts with, then turns it on. It returns the indexes of the mods it
// disabled.
func (s *Session) EnableMod(index int) ([]int, Report, error) {
	if err := s.checkIndex(index); err != nil {
		return nil, Report{}, err
	}
	m := &s.mods[index]

	disabled := s.disableConflicts(m.Declaration, index, m.DisplayName())
	m.Enabled = true
	r := s.TurnOn(m.Declaration)
	s.active.MarkDirty()
	return disabled, r, nil
}

// DisableMod disables the mod at index and reverts its packages.
func (s *Session) DisableMod(index int) (Report, error) {
	if err := s.checkIndex(index); err != nil {
		return Report{}, err
	}
	m := &s.mods[index]
	m.Enabled = false
	r := s.TurnOff(m.Declaration, false)
	s.active.MarkDirty()
	return r, nil
}

// ApplyEnabledMods resets the active map to the backup and turns on every
// enabled mod in list order, so later mods win shared objects.
func (s *Session) ApplyEnabledMods() Report {
	s.active.ReplaceEntries(s.backup)

	var r Report
	applied := 0
	for _, m := range s.mods {
		if !m.Enabled {
			continue
		}
		r.Add(s.TurnOn(m.Declaration))
		applied++
	}
	s.logger.Info("applied enabled mods", "mods", applied, "result", r.String())
	return r
}

