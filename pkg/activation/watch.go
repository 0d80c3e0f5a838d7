package activation

import (
	"context"
	"fmt"

	"github.com/goopsie/teraModTools/pkg/procwatch"
)

// OnLaunch rebuilds the active map from the backup plus every enabled mod
// and writes it, so the starting game reads the modded mapper.
func (s *Session) OnLaunch(ctx context.Context) error {
	r := s.ApplyEnabledMods()
	if err := s.Save(); err != nil {
		return fmt.Errorf("save mapper on launch: %w", err)
	}
	s.logger.Info("game launched, mods applied", "result", r.String())
	return nil
}

// OnClose puts the clean mapper back when writes wait for the game to
// launch. Otherwise the modded mapper stays in place.
func (s *Session) OnClose(ctx context.Context) error {
	if !s.waitForLaunch {
		return s.Commit()
	}

	s.active.ReplaceEntries(s.backup)
	s.active.MarkDirty()
	if err := s.Commit(); err != nil {
		return fmt.Errorf("restore mapper on close: %w", err)
	}
	s.logger.Info("game closed, clean mapper restored")
	return nil
}

// Handler returns the session's launch and close callbacks for
// procwatch.Watch.
func (s *Session) Handler() procwatch.Handler {
	return procwatch.HandlerFuncs{
		OnLaunch: s.OnLaunch,
		OnClose:  s.OnClose,
	}
}
