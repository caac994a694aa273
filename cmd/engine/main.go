package main

import (
	"os"

	"github.com/HatimBenzahra/rework-sub001/cmd/engine/commands"
)

// main is the entry point for the engine CLI
// usage: go run ./cmd/engine [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
