// Package main is the entry point for the Vigil catalog service.
package main

import (
	"fmt"
	"os"

	"vigil/bootstrap"
	"vigil/cmd"
)

// run initializes and starts the catalog service.
func run() error {
	app, err := bootstrap.NewApp()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	app.Start()
	app.WaitForShutdown()
	app.Shutdown()

	return nil
}

// main is the entry point.
func main() {
	// Check if running as CLI command
	if len(os.Args) > 1 && os.Args[1] == "catalog" {
		// Strip "catalog" from os.Args since the command already knows
		// it's the catalog command.
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

		catalogCmd := cmd.NewCatalogCmd()
		if err := catalogCmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Otherwise run as normal server
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
