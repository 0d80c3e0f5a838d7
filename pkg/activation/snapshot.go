package activation

import (
	"fmt"

	"github.com/goopsie/teraModTools/pkg/mapper"
)

// ExportSnapshot writes the active map to a compressed snapshot file.
func (s *Session) ExportSnapshot(path string) error {
	if err := mapper.WriteSnapshot(path, s.active); err != nil {
		return err
	}
	s.logger.Info("exported snapshot", "path", path, "entries", s.active.Len())
	return nil
}

// ImportSnapshot replaces the active map's entries with a snapshot's and
// writes the mapper. The backup is not touched.
func (s *Session) ImportSnapshot(path string) error {
	snap, err := mapper.ReadSnapshot(path)
	if err != nil {
		return err
	}
	if snap.Len() == 0 {
		return fmt.Errorf("snapshot %s has no entries", path)
	}

	s.active.ReplaceEntries(snap)
	if err := s.Commit(); err != nil {
		return err
	}
	s.logger.Info("imported snapshot", "path", path, "entries", s.active.Len())
	return nil
}
