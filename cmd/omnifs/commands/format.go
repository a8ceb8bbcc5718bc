package commands

import (
	"fmt"
	"os"

	"github.com/omnifs/omnifs/internal/config"
	"github.com/omnifs/omnifs/pkg/container"
	"github.com/spf13/cobra"
)

var formatForce bool

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Build a fresh container from the loaded configuration",
	Long: `format reads the configuration file and writes a brand-new container:
header, zero-filled user table, a single root directory, then zero-padding
to the configured total size. Refuses to overwrite an existing container
unless --force is given.`,
	RunE: runFormat,
}

func init() {
	formatCmd.Flags().BoolVar(&formatForce, "force", false, "overwrite an existing container file")
}

func runFormat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := os.Stat(containerFile); err == nil && !formatForce {
		return fmt.Errorf("container already exists at %s (use --force to overwrite)", containerFile)
	}

	state, err := container.Format(containerFile, container.FormatOptions{
		TotalSize:       cfg.Filesystem.TotalSize.Uint64(),
		BlockSize:       cfg.Filesystem.BlockSize.Uint64(),
		MaxUsers:        cfg.Security.MaxUsers,
		ConfigHash:      cfg.ConfigHash,
		ConfigTimestamp: cfg.ConfigTimestamp,
	})
	if err != nil {
		return fmt.Errorf("format container: %w", err)
	}

	fmt.Printf("Formatted container at %s (%d bytes, %d user slots)\n",
		containerFile, state.Header.TotalSize, state.Header.MaxUsers)
	return nil
}
