// Package procwatch polls for a game process and reports launch and exit
// transitions.
package procwatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/goopsie/teraModTools/internal/logging"
)

// Detector reports whether the watched process is running.
type Detector interface {
	Running(ctx context.Context) (bool, error)
}

// ProcessDetector finds a process by executable name, ignoring ASCII case.
type ProcessDetector struct {
	Name string
}

// Running lists the system's processes and reports whether one matches Name.
// Processes whose name cannot be read are skipped.
func (d ProcessDetector) Running(ctx context.Context) (bool, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if strings.EqualFold(name, d.Name) {
			return true, nil
		}
	}
	return false, nil
}

// Handler receives process transitions.
type Handler interface {
	Launched(ctx context.Context) error
	Closed(ctx context.Context) error
}

// HandlerFuncs adapts two functions to a Handler. Nil functions are no-ops.
type HandlerFuncs struct {
	OnLaunch func(ctx context.Context) error
	OnClose  func(ctx context.Context) error
}

// Launched calls OnLaunch.
func (h HandlerFuncs) Launched(ctx context.Context) error {
	if h.OnLaunch == nil {
		return nil
	}
	return h.OnLaunch(ctx)
}

// Closed calls OnClose.
func (h HandlerFuncs) Closed(ctx context.Context) error {
	if h.OnClose == nil {
		return nil
	}
	return h.OnClose(ctx)
}

// Option configures Watch.
type Option func(*watcher)

// WithLogger sets the logger for poll and handler errors.
func WithLogger(l *log.Logger) Option {
	return func(w *watcher) {
		w.logger = l
	}
}

// WithTicker replaces the poll clock. The function returns a channel that
// delivers ticks and a stop function.
func WithTicker(newTicker func(time.Duration) (<-chan time.Time, func())) Option {
	return func(w *watcher) {
		w.newTicker = newTicker
	}
}

type watcher struct {
	logger    *log.Logger
	newTicker func(time.Duration) (<-chan time.Time, func())
}

func defaultTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Watch polls d every interval until ctx is done. It calls h.Launched when
// the process appears and h.Closed when it disappears. The process is assumed
// absent before the first poll. Detector and handler errors are logged and
// do not stop the loop. Watch returns nil when ctx is cancelled.
func Watch(ctx context.Context, d Detector, interval time.Duration, h Handler, opts ...Option) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", interval)
	}

	w := &watcher{newTicker: defaultTicker}
	for _, opt := range opts {
		opt(w)
	}
	logger := logging.OrDiscard(w.logger).WithPrefix("procwatch")

	ticks, stop := w.newTicker(interval)
	defer stop()

	running := false
	for {
		now, err := d.Running(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			logger.Warn("process check failed", "err", err)
		case now && !running:
			running = true
			logger.Info("process launched")
			if err := h.Launched(ctx); err != nil {
				logger.Error("launch handler failed", "err", err)
			}
		case !now && running:
			running = false
			logger.Info("process closed")
			if err := h.Closed(ctx); err != nil {
				logger.Error("close handler failed", "err", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
		}
	}
}
