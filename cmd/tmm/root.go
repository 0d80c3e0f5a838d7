package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/goopsie/teraModTools/internal/config"
	"github.com/goopsie/teraModTools/internal/logging"
	"github.com/goopsie/teraModTools/pkg/activation"
)

var errNoRoot = errors.New("game root not set (use --root, TMM_ROOT_DIR or 'tmm config set root_dir <dir>')")

// app holds state shared by every command of one invocation.
type app struct {
	logOut io.Writer

	configPath    string
	rootDir       string
	logLevel      string
	waitForLaunch bool

	settings config.Settings
	logger   *log.Logger
}

func newApp(logOut io.Writer) *app {
	return &app{logOut: logOut}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tmm",
		Short: "TERA mod manager",
		Long: titleStyle.Render("tmm") + mutedStyle.Render(" - TERA mod manager") + `

tmm installs .gpk mods into the client's CookedPC directory and switches
them on and off by rewriting CompositePackageMapper.dat. The first run
keeps a clean copy of the mapper next to it, which every disable and
restore reverts to.

` + mutedStyle.Render("Examples:") + `
  tmm --root "C:\Games\TERA\Client\S1Game" install ~/mods/Elin_Swimsuit.gpk
  tmm list
  tmm disable 0
  tmm watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "settings file (default is the user config dir)")
	flags.StringVar(&a.rootDir, "root", "", "game directory containing CookedPC (e.g. Client/S1Game)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	flags.BoolVar(&a.waitForLaunch, "wait-for-launch", false, "only write the mapper while the game runs")

	root.AddCommand(
		newListCmd(a),
		newInstallCmd(a),
		newRemoveCmd(a),
		newEnableCmd(a),
		newDisableCmd(a),
		newDisableAllCmd(a),
		newApplyCmd(a),
		newRestoreCmd(a),
		newSaveCmd(a),
		newScanCmd(a),
		newWatchCmd(a),
		newSnapshotCmd(a),
		newConfigCmd(a),
		newPackCmd(a),
	)
	return root
}

// setup loads the settings and lets explicitly set flags override them.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		a.configPath = p
	}

	s, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		s.RootDir = a.rootDir
	}
	if flags.Changed("log-level") {
		s.LogLevel = a.logLevel
	}
	if flags.Changed("wait-for-launch") {
		s.WaitForLaunch = a.waitForLaunch
	}
	a.settings = s

	logger, err := logging.New(a.logOut, s.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) openSession() (*activation.Session, error) {
	if a.settings.RootDir == "" {
		return nil, errNoRoot
	}
	s, err := activation.Open(
		activation.NewPaths(a.settings.RootDir),
		activation.WithLogger(a.logger),
		activation.WithWaitForLaunch(a.settings.WaitForLaunch),
	)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return s, nil
}

// withSession wraps a command body that needs an open session.
func (a *app) withSession(fn func(cmd *cobra.Command, s *activation.Session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := a.openSession()
		if err != nil {
			return err
		}
		return fn(cmd, s, args)
	}
}

// printReport prints a one-line summary of a turn-on or turn-off and a
// warning line per package that failed.
func printReport(w io.Writer, what string, r activation.Report) {
	fmt.Fprintf(w, "%s %s\n", what, mutedStyle.Render("("+r.String()+")"))
	for _, f := range r.Failures {
		fmt.Fprintln(w, warningStyle.Render("  skipped:"), f.Error())
	}
}
