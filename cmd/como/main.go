package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "como",
		Short: "Broadcast live typed sources to TCP observers",
		Long: `como publishes named, typed values ("sources") and pushes every
change to connected observers over a small binary TCP protocol.

  serve    run the broadcast server with its admin API and producers
  watch    browse a server's sources in the terminal
  tail     print a server's source events as they arrive
  status   query a server's admin API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "como.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "override log format (text, json)")

	rootCmd.AddCommand(
		serveCmd(g),
		watchCmd(),
		tailCmd(),
		statusCmd(),
		versionCmd(),
	)
	return rootCmd
}
