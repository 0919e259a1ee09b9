package main

import (
	"fmt"
	"log/slog"

	"github.com/spacevault/ragcore/internal/config"
	"github.com/spacevault/ragcore/internal/embedding"
	"github.com/spacevault/ragcore/internal/extractor"
	"github.com/spacevault/ragcore/internal/ingest"
	"github.com/spacevault/ragcore/internal/layout"
	"github.com/spacevault/ragcore/internal/llm"
	"github.com/spacevault/ragcore/internal/rag"
	"github.com/spacevault/ragcore/internal/reindex"
	"github.com/spacevault/ragcore/internal/space"
	"github.com/spacevault/ragcore/internal/spacestore"
	"github.com/spacevault/ragcore/internal/vectorindex"
)

// app bundles every per-user service ragctl's subcommands dispatch into:
// one struct wiring every collaborator a command needs, built once per
// invocation since ragctl is a one-shot process.
type app struct {
	cfg    config.Config
	userID string
	logger *slog.Logger

	store *spacestore.Store
	index *vectorindex.Index

	space   *space.Service
	ingest  *ingest.Service
	rag     *rag.Engine
	reindex *reindex.Service
}

func openApp(cfg config.Config, userID string, logger *slog.Logger) (*app, error) {
	store, err := spacestore.Open(cfg.DataRoot, userID, logger)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	index, err := vectorindex.Open(layout.VectorIndexPath(cfg.DataRoot, userID), cfg.VectorDim)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open vector index: %w", err)
	}

	embedder, err := embedding.New(cfg.OpenAIKey, cfg.EmbeddingModel)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	llmClient := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.LLMModel, cfg.LLMEndpoint)

	ex := extractor.New(extractor.NewGosseractEngine())

	spaceSvc := space.New(store, index, cfg.DataRoot, userID, logger)
	ingestSvc := ingest.New(store, ex, embedder, index, cfg.DataRoot, userID, logger)
	ragEngine := rag.New(store, index, embedder, llmClient,
		rag.WithRetrieveK(cfg.RetrieveK),
		rag.WithContextBudget(cfg.ContextBudgetChars),
	)
	reindexSvc := reindex.New(store, embedder, reindex.DefaultWorkers, logger)

	return &app{
		cfg:     cfg,
		userID:  userID,
		logger:  logger,
		store:   store,
		index:   index,
		space:   spaceSvc,
		ingest:  ingestSvc,
		rag:     ragEngine,
		reindex: reindexSvc,
	}, nil
}

// Close persists the vector index and releases the metadata store handle.
// Every subcommand except "reindex run" runs this on exit so a killed process still leaves the
// on-disk index as of its last successful write. If enough tombstones have
// accumulated, the index is compacted first; Compact persists the rebuilt
// structure itself.
func (a *app) Close() error {
	if a.index.NeedsCompaction() {
		if err := a.index.Compact(); err != nil {
			a.logger.Error("compact vector index failed", "error", err)
		} else {
			// Compaction reassigns internal-ids; swap every stored
			// vector_ref to the id its item now holds.
			for itemID, ref := range a.index.Refs() {
				if err := a.store.UpdateItemVectorRef(itemID, ref); err != nil {
					a.logger.Error("vector_ref reconcile failed", "item_id", itemID, "error", err)
				}
			}
		}
	} else if err := a.index.Persist(); err != nil {
		a.logger.Error("persist vector index failed", "error", err)
	}
	return a.store.Close()
}
