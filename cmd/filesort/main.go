// Package main 启动 filesort
package main

import (
	"os"

	"github.com/yeisme/filesort/pkg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
