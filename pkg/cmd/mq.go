package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/filesort/pkg/configs"
	mq "github.com/yeisme/filesort/pkg/internal/storage/mq"
	"github.com/yeisme/filesort/pkg/queue"
)

var (
	eventsCmd = &cobra.Command{
		Use:     "events",
		Short:   "Event bus related commands",
		Aliases: []string{"mq"},
	}

	eventsListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered event bus types and published topics",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()

			current := configs.MQType("")
			if _, cfg, err := configs.Load(configPath); err == nil {
				current = cfg.Events.Type
			}

			fmt.Fprintln(out, "Registered event bus types:")

			for _, t := range mq.GetRegisteredMQTypes() {
				marker := " "
				if t == current {
					marker = "*"
				}

				fmt.Fprintf(out, " %s - %s\n", marker, t)
			}

			fmt.Fprintln(out, "Topics:")

			for _, topic := range queue.Topics {
				fmt.Fprintln(out, "   - "+topic)
			}
		},
	}
)

// registerMQCommands 注册事件总线相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListCmd)
}
