// Package cmd 提供 filesort 命令行.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/filesort/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:          configs.AppName,
		Short:        "Upload files and organize them into per-extension directories",
		SilenceUsage: true,
		RunE:         runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory containing config.{yaml,yml,json,toml}")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print extra diagnostics")

	registerServeCommands()
	registerConfigsCommands()
	registerStorageCommands()
	registerSequenceCommands()
	registerMQCommands()
	registerVersionCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig 初始化全局配置并返回快照.
func loadConfig() (configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return configs.AppConfig{}, err
	}

	return configs.GetConfig(), nil
}
