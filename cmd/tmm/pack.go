package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goopsie/teraModTools/pkg/modfile"
)

func newPackCmd(a *app) *cobra.Command {
	var (
		output     string
		container  string
		name       string
		author     string
		regionLock bool
	)

	cmd := &cobra.Command{
		Use:   "pack <objectPath=file>...",
		Short: "Build a mod container from package files",
		Long: `Build a mod container from serialized packages. Each argument pairs the
object path the package replaces with the file holding it, for example
S1Armor.Elin.Body_lod0=body.upk.`,
		Example: `  tmm pack -o ElinBody.gpk --container ElinBody --author me S1Armor.Elin.Body_lod0=body.upk`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return errors.New("--output is required")
			}
			if container == "" {
				container = modfile.ContainerName(output)
			}

			b := modfile.NewBuilder(container)
			if name != "" {
				b.SetName(name)
			}
			b.SetAuthor(author)
			b.SetRegionLock(regionLock)

			for _, arg := range args {
				objectPath, file, ok := strings.Cut(arg, "=")
				if !ok || objectPath == "" || file == "" {
					return fmt.Errorf("bad package argument %q, want objectPath=file", arg)
				}
				if err := b.AddFile(objectPath, file); err != nil {
					return err
				}
			}

			m, err := b.WriteFile(output)
			if err != nil {
				return err
			}
			a.logger.Debug("packed mod", "output", output, "container", m.Container, "packages", len(m.Packages))

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, successStyle.Render("packed"), output)
			for _, p := range m.Packages {
				fmt.Fprintf(w, "  %s %s\n", accentStyle.Render(p.ObjectPath), mutedStyle.Render(fmt.Sprintf("@%d +%d", p.Offset, p.Size)))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "mod container to write")
	flags.StringVar(&container, "container", "", "container name the mod registers (default is the output file stem)")
	flags.StringVar(&name, "name", "", "display name (default is the container name)")
	flags.StringVar(&author, "author", "", "author")
	flags.BoolVar(&regionLock, "region-lock", false, "mark the mod region locked")
	return cmd
}
