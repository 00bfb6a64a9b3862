// Package main is the entry point of the riskboard CLI.
package main

import (
	"github.com/huangsam/riskboard/cmd"
	"github.com/huangsam/riskboard/internal/contract"
	"github.com/huangsam/riskboard/internal/logging"
)

func main() {
	defer logging.Sync()
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Error", err)
	}
	if err := cmd.StopProfiling(); err != nil {
		contract.LogWarn("Cannot stop profiling", err)
	}
}
