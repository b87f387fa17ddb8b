package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/presidioforts/PR-Diff-Ingestion/internal/gitdriver"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/server"
)

// ServeCmd starts the optional HTTP server exposing the ingestion pipeline.
func ServeCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "expose the ingestion pipeline over HTTP (POST /diff, GET /health, GET /version)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "HTTP listen address"},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	addr := c.String("addr")
	srv := server.New(gitdriver.New())

	color.New(color.FgCyan).Fprintf(os.Stderr, "listening on %s\n", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
