// Package commands implements the subcommands of the chordgrid CLI.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vsariola/chordgrid/config"
	"github.com/vsariola/chordgrid/version"
)

// app holds the state shared by the subcommands of one invocation.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "chordgrid",
		Short: "Edit, convert and store chord grids",
		Long: `chordgrid - chord grid documents on the command line.

Songs are stored as YAML or JSON files. Chord text looks like this:

  = Verse
  | C | G ; D | . | Am |

Configuration is read from the OS config directory:
  Linux:   ~/.config/chordgrid/config.yaml
  macOS:   ~/Library/Application Support/chordgrid/config.yaml

Examples:
  # Convert all chord text files below charts/
  chordgrid import 'charts/**/*.txt'

  # Transpose a song up a whole step and print it
  chordgrid transpose song.yaml 2 && chordgrid show song.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is the OS config directory)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.AddCommand(
		newNewCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newTransposeCmd(a),
		newShowCmd(a),
		newWatchCmd(a),
		newRecognizeCmd(a),
		newLookupCmd(a),
		newSaveCmd(a),
		newLoadCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "chordgrid", versionString())
			if a.verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "  config: %s\n", a.cfg.Path())
				fmt.Fprintf(cmd.OutOrStdout(), "  store:  %s %s\n", a.cfg.Store.Driver, a.cfg.Store.Path)
			}
		},
	}
}

func versionString() string {
	if v := version.VersionOrHash; v != "" {
		return v
	}
	return "(devel)"
}
