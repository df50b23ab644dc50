package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"simtl/internal/config"
	appLog "simtl/internal/log"
)

const defaultConfigPath = "simtl.yaml"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "simtl",
		Short: "simtl - server-rendered Simile Timeline widgets",
		Long: `simtl renders Simile Timeline widgets from records held in YAML files,
iCalendar feeds or a PostgreSQL query.

It can:
- Write a standalone HTML page or the bare timeline script
- Serve the widget over HTTP with a render cache refreshed on a cron schedule
- Snapshot the rendered timeline to PNG with headless Chromium`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", defaultConfigPath, "config file path (created with defaults when missing)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: from config)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format (console, json) (default: from config)")

	root.AddCommand(newRenderCommand(g))
	root.AddCommand(newServeCommand(g))
	root.AddCommand(newSnapshotCommand(g))
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the command tree. It is called by main.main().
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the logging flags on top of
// the logging section.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	appLog.Configure(cfg.Logging.Level, cfg.Logging.Format)
	appLog.Debug("config loaded",
		"path", g.configPath,
		"source", cfg.Source.Type,
		"bands", len(cfg.Widget.Bands),
	)
	return cfg, nil
}
