// Package cli implements the travelctl command tree.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

type app struct {
	cfgFile  string
	verbose  bool
	settings *Settings
	printer  *Printer
	client   *Client
	logger   *slog.Logger
	out      io.Writer
}

// NewRootCmd builds the travelctl command tree writing to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "travelctl",
		Short: "Command line client for the travel-rag service",
		Long: `travelctl talks to a running travel-rag server and can seed the
vector index in-process.

Example usage:
  travelctl seed                          # Index the curated corpus
  travelctl stats                         # Show vector collection stats
  travelctl search "japan etiquette"      # Retrieval only, no generation
  travelctl ask "Do Indians need a visa for Japan?"
  travelctl validate "hi"                 # Query advice`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is .travelctl.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().String("server", "", "server base URL (overrides config)")
	root.PersistentFlags().String("color", "", "color mode: auto, always or never")

	root.AddCommand(
		newSeedCmd(a),
		newStatsCmd(a),
		newSearchCmd(a),
		newAskCmd(a),
		newValidateCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	settings, err := LoadSettings(a.cfgFile)
	if err != nil {
		return err
	}
	if server, _ := cmd.Flags().GetString("server"); server != "" {
		settings.Server.URL = server
	}
	if mode, _ := cmd.Flags().GetString("color"); mode != "" {
		settings.Output.Color = mode
	}
	colorMode, err := ParseColorMode(settings.Output.Color)
	if err != nil {
		return err
	}

	a.settings = settings
	a.printer = NewPrinter(a.out, colorMode)
	a.client = NewClient(settings.Server.URL, settings.Server.Timeout)
	a.logger.Debug("configuration loaded", "server", settings.Server.URL, "color", settings.Output.Color)
	return nil
}

// Execute runs travelctl against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stdout).ExecuteContext(ctx)
}
