package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/spacevault/ragcore/internal/config"
	"github.com/spacevault/ragcore/internal/embedding"
	"github.com/spacevault/ragcore/internal/layout"
	"github.com/spacevault/ragcore/internal/reindex"
	"github.com/spacevault/ragcore/internal/vectorindex"
)

func runReindexCommand(ctx context.Context, cfg config.Config, logger *slog.Logger, cmd string, args []string) error {
	switch cmd {
	case "run":
		return reindexRun(ctx, cfg, logger, args)
	default:
		return fmt.Errorf("unknown reindex command %q", cmd)
	}
}

// reindexRun migrates a user's whole vector index to a new embedding model.
// It does not reuse the app.reindex service opened by openApp,
// since that one is bound to cfg.EmbeddingModel and a handle on the live,
// already-populated index: the migration needs an embedder bound to the
// -model the caller is moving to, and a fresh empty index of its own to
// build up without disturbing reads against the current one. Only once
// every ready item has been re-embedded does the new snapshot replace the
// canonical one on disk, atomically, the same way Persist always has.
func reindexRun(ctx context.Context, cfg config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("reindex run", flag.ExitOnError)
	user := fs.String("user", "", "owning user id")
	model := fs.String("model", "", "new embedding model identity to migrate to")
	dim := fs.Int("dim", 0, "vector dimension of the new model, 0 uses the configured default")
	deadline := fs.Duration("deadline", 0, "overall deadline for the migration, overrides default")
	fs.Parse(args)

	if *model == "" {
		return fmt.Errorf("reindex run: -model is required")
	}
	targetDim := *dim
	if targetDim <= 0 {
		targetDim = cfg.VectorDim
	}

	a, err := openApp(cfg, *user, logger)
	if err != nil {
		return err
	}
	// Not a.Close(): that persists a.index, the live index this migration
	// never touches, back over the same path the rebuilt one below is
	// written to. Only the metadata store needs closing here.
	defer func() {
		if err := a.store.Close(); err != nil {
			logger.Error("reindex run: close metadata store failed", "error", err)
		}
	}()

	rctx, cancel := withDeadline(ctx, *deadline)
	defer cancel()

	newEmbedder, err := embedding.New(cfg.OpenAIKey, *model)
	if err != nil {
		return fmt.Errorf("reindex run: build embedder for %q: %w", *model, err)
	}

	target := vectorindex.New(targetDim)
	svc := reindex.New(a.store, newEmbedder, reindex.DefaultWorkers, logger)

	report, err := svc.Reindex(rctx, target)
	if err != nil {
		return fmt.Errorf("reindex run: %w", err)
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("reindex run: %d of %d items failed to re-embed; canonical index left unchanged",
			len(report.Failed), len(report.Failed)+report.Reindexed)
	}

	canonicalPath := layout.VectorIndexPath(cfg.DataRoot, *user)
	if err := target.PersistTo(canonicalPath); err != nil {
		return fmt.Errorf("reindex run: persist rebuilt index: %w", err)
	}

	return printJSON(report)
}
