package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/omnifs/omnifs/internal/cli/output"
	"github.com/omnifs/omnifs/pkg/container"
	"github.com/omnifs/omnifs/pkg/fsnode"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Open a container read-only and print occupancy statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	state, err := container.Load(containerFile)
	if err != nil {
		return fmt.Errorf("load container: %w", err)
	}

	dirs, files := fsnode.CountAll(state.Root)

	pairs := [][2]string{
		{"container", containerFile},
		{"total_size", strconv.FormatUint(state.Header.TotalSize, 10)},
		{"block_size", strconv.FormatUint(state.Header.BlockSize, 10)},
		{"total_blocks", strconv.Itoa(state.Allocator.TotalBlocks())},
		{"used_blocks", strconv.Itoa(state.Allocator.UsedBlocks())},
		{"free_blocks", strconv.Itoa(state.Allocator.FreeBlocks())},
		{"directories", strconv.Itoa(dirs)},
		{"files", strconv.Itoa(files)},
		{"users", strconv.Itoa(len(state.Users))},
		{"max_users", strconv.FormatUint(uint64(state.Header.MaxUsers), 10)},
	}

	return output.SimpleTable(os.Stdout, pairs)
}
