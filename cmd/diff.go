package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/presidioforts/PR-Diff-Ingestion/config"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/gitdriver"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/pipeline"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/serialize"
)

// DiffCmd runs one ingestion and writes the resulting envelope to stdout or
// to the path given by --json.
func DiffCmd() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "ingest the change set between two commits into a canonical JSON envelope",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "repo-url", Required: true, Usage: "Git repository URL to clone"},
			&cli.StringFlag{Name: "commit-good", Required: true, Usage: "base commit SHA"},
			&cli.StringFlag{Name: "commit-candidate", Required: true, Usage: "candidate commit SHA"},
			&cli.StringFlag{Name: "branch-name", Usage: "branch hint for fetching the requested commits"},
			&cli.IntFlag{Name: "cap-total", Value: config.DefaultCapTotal, Usage: "global patch byte budget"},
			&cli.IntFlag{Name: "cap-file", Value: config.DefaultCapFile, Usage: "per-file patch byte budget"},
			&cli.IntFlag{Name: "context-lines", Value: config.DefaultContextLines, Usage: "unified diff context lines"},
			&cli.IntFlag{Name: "find-renames-threshold", Value: config.DefaultFindRenamesThreshold, Usage: "rename/copy detection similarity threshold, percent"},
			&cli.BoolFlag{Name: "keep-workdir", Usage: "do not remove the cloned workspace after a successful run"},
			&cli.BoolFlag{Name: "keep-on-error", Usage: "do not remove the cloned workspace after a failed run"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to a JSON configuration file loaded before these flags; every setting that has a flag takes the flag's value, its default included"},
			&cli.StringFlag{Name: "json", Usage: "write the envelope to this path instead of stdout"},
		},
		Action: diffAction,
	}
}

func diffAction(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg.RepoURL = c.String("repo-url")
	cfg.CommitGood = c.String("commit-good")
	cfg.CommitCandidate = c.String("commit-candidate")
	cfg.BranchName = c.String("branch-name")
	cfg.CapTotal = c.Int("cap-total")
	cfg.CapFile = c.Int("cap-file")
	cfg.ContextLines = c.Int("context-lines")
	cfg.FindRenamesThreshold = c.Int("find-renames-threshold")
	cfg.KeepWorkdir = c.Bool("keep-workdir")
	cfg.KeepOnError = c.Bool("keep-on-error")

	color.New(color.FgCyan).Fprintf(os.Stderr, "ingesting %s %s..%s\n", cfg.RepoURL, cfg.CommitGood, cfg.CommitCandidate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	env := pipeline.Run(ctx, cfg, gitdriver.New())
	stop()

	out, err := serialize.Envelope(env)
	if err != nil {
		return fmt.Errorf("failed to serialize envelope: %w", err)
	}

	if jsonPath := c.String("json"); jsonPath != "" {
		if err := os.WriteFile(jsonPath, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", jsonPath, err)
		}
	} else {
		fmt.Fprint(os.Stdout, out)
	}

	if !env.OK {
		color.New(color.FgRed).Fprintf(os.Stderr, "ingestion failed: %s: %s\n", env.Error.Code, env.Error.Message)
		os.Exit(1)
	}

	color.New(color.FgGreen).Fprintf(os.Stderr, "done: %d file(s), %d omitted\n", len(env.Data.Files), env.Data.OmittedFilesCount)
	return nil
}
