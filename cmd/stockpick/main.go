package main

import (
	"os"

	"stockpick/cmd/stockpick/commands"
)

// main is the entry point for the stockpick CLI: go run ./cmd/stockpick [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
