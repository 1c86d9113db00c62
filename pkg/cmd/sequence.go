package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yeisme/filesort/pkg/internal/storage/sequence"
)

var (
	sequenceCmd = &cobra.Command{
		Use:     "sequence",
		Short:   "Category sequencer related commands",
		Aliases: []string{"seq"},
	}

	sequenceListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered sequencer types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered sequencer types:")
			for _, t := range sequence.GetRegisteredTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	sequenceCountersCmd = &cobra.Command{
		Use:   "counters",
		Short: "print the last issued number of every category in the configured sequencer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			seq, err := sequence.New(cmd.Context(), cfg.Sequence)
			if err != nil {
				return err
			}
			defer seq.Close()

			snap, err := seq.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			names := make([]string, 0, len(snap))
			for name := range snap {
				names = append(names, name)
			}

			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", name, snap[name])
			}

			return nil
		},
	}
)

// registerSequenceCommands 注册序号分配器相关命令.
func registerSequenceCommands() {
	rootCmd.AddCommand(sequenceCmd)
	sequenceCmd.AddCommand(sequenceListCmd)
	sequenceCmd.AddCommand(sequenceCountersCmd)
}
