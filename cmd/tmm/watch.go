package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goopsie/teraModTools/pkg/activation"
	"github.com/goopsie/teraModTools/pkg/procwatch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Apply mods when the game starts and clean up when it exits",
		Long: `Poll for the game process. When it starts, the mapper is rebuilt from
the clean copy and every enabled mod. When it exits and wait_for_launch is
set, the clean mapper is written back. Stops on interrupt.`,
		Args: cobra.NoArgs,
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "watching for %s every %s %s\n",
				accentStyle.Render(a.settings.ProcessName),
				a.settings.PollInterval,
				mutedStyle.Render("(ctrl-c to stop)"))

			return procwatch.Watch(ctx,
				procwatch.ProcessDetector{Name: a.settings.ProcessName},
				a.settings.PollInterval.Duration,
				s.Handler(),
				procwatch.WithLogger(a.logger),
			)
		}),
	}
}
