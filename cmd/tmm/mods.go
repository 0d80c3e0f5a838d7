package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goopsie/teraModTools/pkg/activation"
)

func newListCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed mods",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, _ []string) error {
			w := cmd.OutOrStdout()
			mods := s.Mods()
			if len(mods) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("no mods installed"))
				return nil
			}

			fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d mods", len(mods))))
			for i, m := range mods {
				target := m.Declaration.Container
				if m.Raw {
					target += " " + warningStyle.Render("raw")
				}
				fmt.Fprintln(w,
					indexCol.Render(strconv.Itoa(i))+
						stateCol.Render(checkMark(m.Enabled))+
						nameCol.Render(m.DisplayName())+
						targetCol.Render(target)+
						mutedStyle.Render(fmt.Sprintf("%d objects", len(m.Declaration.Packages))))

				if verbose {
					if m.Author != "" {
						fmt.Fprintln(w, mutedStyle.Render("      by "+m.Author))
					}
					for _, p := range m.Declaration.ObjectPaths() {
						fmt.Fprintln(w, "      "+accentStyle.Render(p))
					}
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show authors and object paths")
	return cmd
}

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install <file.gpk>...",
		Short: "Copy mods into CookedPC and enable them",
		Long: `Copy each mod container into CookedPC, add it to the mod list enabled
and redirect its objects in the mapper. Enabled mods that declare the same
objects are disabled first. A container without a mod footer is matched to
game containers by file name.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, args []string) error {
			w := cmd.OutOrStdout()
			for _, src := range args {
				before := enabledSet(s)
				i, err := s.Install(src)
				if err != nil {
					return fmt.Errorf("install %s: %w", filepath.Base(src), err)
				}
				m, _ := s.Mod(i)
				fmt.Fprintf(w, "%s %s %s\n", successStyle.Render("installed"), m.DisplayName(), mutedStyle.Render("#"+strconv.Itoa(i)))
				printDisabled(w, s, before)
			}
			if s.WaitForLaunch() {
				fmt.Fprintln(w, mutedStyle.Render("mapper will be written when the game starts"))
			}
			return nil
		}),
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <mod>",
		Short: "Disable a mod, drop it from the list and delete its file",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, args []string) error {
			i, err := s.FindMod(args[0])
			if err != nil {
				return err
			}
			m, _ := s.Mod(i)
			if err := s.Remove(i); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("removed"), m.DisplayName())
			return nil
		}),
	}
}

func newEnableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <mod>",
		Short: "Enable a mod, disabling mods it conflicts with",
		Long: `Enable a mod by index, file name or name. Every enabled mod that declares
one of its objects is disabled and reverted first.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, args []string) error {
			i, err := s.FindMod(args[0])
			if err != nil {
				return err
			}
			disabled, r, err := s.EnableMod(i)
			if err != nil {
				return err
			}
			if err := s.Persist(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			m, _ := s.Mod(i)
			for _, j := range disabled {
				c, _ := s.Mod(j)
				fmt.Fprintln(w, warningStyle.Render("disabled"), c.DisplayName(), mutedStyle.Render("(conflict)"))
			}
			printReport(w, successStyle.Render("enabled")+" "+m.DisplayName(), r)
			return nil
		}),
	}
}

func newDisableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <mod>",
		Short: "Disable a mod and revert its objects",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, args []string) error {
			i, err := s.FindMod(args[0])
			if err != nil {
				return err
			}
			r, err := s.DisableMod(i)
			if err != nil {
				return err
			}
			if err := s.Persist(); err != nil {
				return err
			}
			m, _ := s.Mod(i)
			printReport(cmd.OutOrStdout(), "disabled "+m.DisplayName(), r)
			return nil
		}),
	}
}

func newDisableAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable-all",
		Short: "Disable every mod and restore the clean mapper",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, _ []string) error {
			n, err := s.DisableAll()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "disabled %d mods\n", n)
			return nil
		}),
	}
}

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Rebuild the mapper from the clean copy and every enabled mod",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, _ []string) error {
			r := s.ApplyEnabledMods()
			if err := s.Save(); err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), "applied enabled mods", r)
			return nil
		}),
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Copy the clean mapper over the live one",
		Long: `Copy the clean mapper over the live one. The mod list is left as is, so
enabled mods are applied again by 'tmm apply' or on the next game launch.`,
		Args: cobra.NoArgs,
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, _ []string) error {
			if err := s.Restore(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("restored"), s.Paths().Mapper)
			return nil
		}),
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the mod list and the mapper",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, _ []string) error {
			if err := s.SaveList(); err != nil {
				return err
			}
			if err := s.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved", s.Paths().Mapper)
			return nil
		}),
	}
}

func newScanCmd(a *app) *cobra.Command {
	var install bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Find mod containers in CookedPC that are not in the mod list",
		Args:  cobra.NoArgs,
		RunE: a.withSession(func(cmd *cobra.Command, s *activation.Session, _ []string) error {
			found, err := s.Scan()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("no unlisted mods"))
				return nil
			}

			for _, f := range found {
				name := f.Mod.Name
				if name == "" {
					name = f.File
				}
				if !install {
					fmt.Fprintln(w, nameCol.Render(f.File)+mutedStyle.Render(name))
					continue
				}
				i, err := s.Install(f.Path)
				if err != nil {
					return fmt.Errorf("install %s: %w", f.File, err)
				}
				fmt.Fprintf(w, "%s %s %s\n", successStyle.Render("installed"), name, mutedStyle.Render("#"+strconv.Itoa(i)))
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&install, "install", false, "install every mod found")
	return cmd
}

func enabledSet(s *activation.Session) map[string]bool {
	out := make(map[string]bool)
	for _, m := range s.Mods() {
		if m.Enabled {
			out[strings.ToLower(m.File)] = true
		}
	}
	return out
}

// printDisabled reports mods that were enabled in before and no longer are.
func printDisabled(w io.Writer, s *activation.Session, before map[string]bool) {
	for _, m := range s.Mods() {
		if before[strings.ToLower(m.File)] && !m.Enabled {
			fmt.Fprintln(w, warningStyle.Render("disabled"), m.DisplayName(), mutedStyle.Render("(conflict)"))
		}
	}
}
