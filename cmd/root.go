// Package cmd builds the CLI entry point on top of the pure
// internal/pipeline.Run function, using github.com/urfave/cli/v2 commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "diffingest",
		Usage:   "deterministic Git diff ingestion for downstream review tooling",
		Version: "1.0.0",
		Commands: []*cli.Command{
			DiffCmd(),
			ServeCmd(),
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
