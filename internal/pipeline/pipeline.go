// Package pipeline wires the Git Driver, Change Discovery, Hunk Extractor,
// and Cap Engine collaborators into the single pure function each
// interactive surface (CLI, HTTP server) calls: Run takes a config.Config
// and returns a diffmodel.Envelope, never a bare error, so both surfaces
// share one translation of the closed error taxonomy into the wire shape.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/presidioforts/PR-Diff-Ingestion/config"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/apperr"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/capengine"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/diffmodel"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/discovery"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/gitdriver"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/hunkparse"
	"github.com/presidioforts/PR-Diff-Ingestion/internal/serialize"
)

// maxParallelExtractions bounds how many files are parsed for hunks at once.
// Each extraction runs one `git diff` subprocess and then parses its output,
// so an unbounded fan-out across a change set with thousands of files would
// start thousands of git processes at the same time.
const maxParallelExtractions = 8

// Run executes one full ingestion: workspace bootstrap, change discovery,
// hunk extraction, cap enforcement, and canonical serialization. It never
// panics and never returns a bare error; every failure is translated into a
// failed Envelope before Run returns.
func Run(ctx context.Context, cfg config.Config, driver gitdriver.Driver) diffmodel.Envelope {
	if appErr := cfg.Validate(); appErr != nil {
		return failureEnvelope(appErr)
	}

	gitVersion, err := driver.DetectVersion(ctx)
	if err != nil {
		return failureEnvelope(asAppErr(err, apperr.GitVersionUnsupported))
	}

	workdir, cleanup, err := driver.EnsureWorkspace(ctx, cfg.RepoURL, cfg.CommitGood, cfg.CommitCandidate, cfg.BranchName)
	if err != nil {
		return failureEnvelope(asAppErr(err, apperr.CloneFailed))
	}
	keepOnSuccess := cfg.KeepWorkdir
	succeeded := false
	defer func() {
		if succeeded && keepOnSuccess {
			return
		}
		if !succeeded && cfg.KeepOnError {
			return
		}
		cleanup()
	}()

	disc := discovery.New(driver)
	records, err := disc.Discover(ctx, workdir, cfg.CommitGood, cfg.CommitCandidate, cfg.FindRenamesThreshold)
	if err != nil {
		return failureEnvelope(asAppErr(err, apperr.Internal))
	}

	var notes []string
	if err := extractHunks(ctx, driver, workdir, cfg, records, &notes); err != nil {
		return failureEnvelope(asAppErr(err, apperr.Internal))
	}

	outcome, err := capengine.Run(records, capengine.Options{
		CapTotal: cfg.CapTotal,
		CapFile:  cfg.CapFile,
		Policies: cfg.PolicyTable(),
	})
	if err != nil {
		return failureEnvelope(apperr.Wrap(err))
	}

	payload := &diffmodel.Payload{
		Provenance: diffmodel.Provenance{
			RepoURL:         cfg.RepoURL,
			CommitGood:      cfg.CommitGood,
			CommitCandidate: cfg.CommitCandidate,
			BranchName:      cfg.BranchName,
			Caps: diffmodel.CapsBlock{
				CapTotal:     cfg.CapTotal,
				CapFile:      cfg.CapFile,
				ContextLines: cfg.ContextLines,
			},
			RenameDetection: diffmodel.RenameDetectionBlock{Threshold: cfg.FindRenamesThreshold},
			GitVersion:      gitVersion,
			DiffAlgorithm:   "myers",
			EnvLocks:        diffmodel.DefaultEnvLocks(),
		},
		Files:             outcome.Files,
		OmittedFilesCount: outcome.OmittedFilesCount,
	}
	for _, n := range notes {
		payload.AppendNote(n)
	}
	for _, n := range outcome.Notes {
		payload.AppendNote(n)
	}

	_, checksum, err := serialize.Payload(*payload)
	if err != nil {
		return failureEnvelope(apperr.Wrap(err))
	}
	payload.Provenance.Checksum = checksum

	succeeded = true
	return diffmodel.Success(payload)
}

// extractHunks runs the Hunk Extractor over every text, non-submodule,
// non-deleted-without-diff file concurrently, bounded by
// maxParallelExtractions, then folds per-file diagnostic notes back in a
// fixed order so the resulting envelope is deterministic regardless of
// goroutine scheduling.
func extractHunks(ctx context.Context, driver gitdriver.Driver, workdir string, cfg config.Config, records []diffmodel.FileChangeRecord, notes *[]string) error {
	type outcome struct {
		hunks []diffmodel.Hunk
		note  string
	}
	results := make([]outcome, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelExtractions)

	for i := range records {
		i := i
		rec := &records[i]
		if rec.IsBinary || rec.IsSubmodule {
			continue
		}
		g.Go(func() error {
			patch, err := driver.UnifiedPatch(gctx, workdir, cfg.CommitGood, cfg.CommitCandidate, rec.PathOld, rec.PathNew, cfg.ContextLines)
			if err != nil {
				return err
			}
			res := hunkparse.Extract(rec.EffectivePath(), patch)
			results[i] = outcome{hunks: res.Hunks, note: res.Note}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i := range records {
		records[i].Hunks = results[i].hunks
		eolOnly, wsOnly := len(results[i].hunks) > 0, len(results[i].hunks) > 0
		for _, h := range results[i].hunks {
			eolOnly = eolOnly && h.EOLOnlyChange
			wsOnly = wsOnly && h.WhitespaceOnlyChange
		}
		records[i].EOLOnlyChange = eolOnly
		records[i].WhitespaceOnlyChange = wsOnly
		if results[i].note != "" {
			*notes = append(*notes, results[i].note)
		}
	}
	return nil
}

func failureEnvelope(err *apperr.Error) diffmodel.Envelope {
	return diffmodel.Failure(string(err.Code), err.Message, err.Details)
}

func asAppErr(err error, fallback apperr.Code) *apperr.Error {
	if ae, ok := err.(*apperr.Error); ok {
		return ae
	}
	return apperr.New(fallback, err.Error(), nil)
}
