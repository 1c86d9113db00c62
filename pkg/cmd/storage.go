package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/filesort/pkg/internal/service"
	"github.com/yeisme/filesort/pkg/internal/storage"
)

var (
	storageCmd = &cobra.Command{
		Use:   "storage",
		Short: "Upload root related commands",
	}

	storageListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list category directories and their entry counts",
		Aliases: []string{"ls", "l"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			files, err := storage.NewStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer files.Close()

			stats, err := service.NewStatsService(&storage.Manager{Files: files})
			if err != nil {
				return err
			}

			list, err := stats.Categories(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Store:", files.Name())

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tENTRIES")

			for _, s := range list {
				fmt.Fprintf(w, "%s\t%d\n", s.Category, s.Entries)
			}

			return w.Flush()
		},
	}
)

// registerStorageCommands 注册存储相关命令.
func registerStorageCommands() {
	rootCmd.AddCommand(storageCmd)
	storageCmd.AddCommand(storageListCmd)
}
