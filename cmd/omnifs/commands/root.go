// Package commands implements the omnifs CLI command tree.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	configFile    string
	containerFile string
)

var rootCmd = &cobra.Command{
	Use:   "omnifs",
	Short: "OMNIFS - a single-process TCP/JSON virtual filesystem",
	Long: `omnifs serves a virtual filesystem container over a newline-delimited
JSON/TCP protocol: directories, files, users, and sessions all live inside a
single container file on disk.

Use "omnifs [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config/default.uconf", "path to the INI-style config file")
	rootCmd.PersistentFlags().StringVar(&containerFile, "container", "data/filesystem.omni", "path to the container file")

	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statsCmd)
}

// Exit prints an error to stderr and exits with code 1.
func Exit(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
	os.Exit(1)
}
