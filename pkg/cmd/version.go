package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yeisme/filesort/pkg/configs"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s %s/%s)\n",
			configs.AppName, configs.AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func registerVersionCommands() {
	rootCmd.AddCommand(versionCmd)
}
