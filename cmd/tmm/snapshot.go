package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goopsie/teraModTools/pkg/activation"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import compressed copies of the mapper",
		Long: `Export or import compressed copies of the mapper. A bare file name is
placed in snapshot_dir when that setting is set.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export <file>",
		Short: "Write the current mapper to a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, args []string) error {
			path := a.snapshotPath(args[0])
			if err := s.ExportSnapshot(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("exported"), path)
			return nil
		}),
	}, &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the mapper with a snapshot",
		Long: `Replace the live mapper with a snapshot. The clean copy and the mod list
are not changed.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, args []string) error {
			path := a.snapshotPath(args[0])
			if err := s.ImportSnapshot(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("imported"), path)
			return nil
		}),
	})
	return cmd
}

func (a *app) snapshotPath(name string) string {
	if a.settings.SnapshotDir == "" || filepath.Base(name) != name {
		return name
	}
	return filepath.Join(a.settings.SnapshotDir, name)
}
