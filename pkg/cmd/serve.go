package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/filesort/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the upload server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if debug {
		cfg.Server.Debug = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	return a.Run(ctx)
}

func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
