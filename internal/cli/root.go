package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/tspstudio/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "tspstudio draws images as single-line TSP art",
		Long: `tspstudio turns raster images into TSP art: stippled points joined by
one continuous line per color channel, solved locally or on the NEOS server.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/tspstudio/tspstudio.toml)")
	root.PersistentFlags().StringVar(&c.storeBackend, "store", "", "study backend: file, redis, mongo (overrides config)")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.stippleCommand())
	root.AddCommand(c.solveCommand())
	root.AddCommand(c.submitCommand())
	root.AddCommand(c.pollCommand())
	root.AddCommand(c.cancelCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importTourCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
