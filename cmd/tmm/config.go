package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goopsie/teraModTools/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, mutedStyle.Render("# "+a.configPath))
			for _, key := range config.Keys() {
				v, err := a.settings.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s = %s\n", accentStyle.Render(key), v)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting in the settings file",
		Long:  "Change a setting in the settings file. Keys: " + strings.Join(config.Keys(), ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Environment and flag overrides are not persisted.
			s, err := config.LoadFile(a.configPath)
			if err != nil {
				return err
			}
			if err := s.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := s.Save(a.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", accentStyle.Render(args[0]), args[1])
			return nil
		},
	}, &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.configPath)
			return nil
		},
	})
	return cmd
}
