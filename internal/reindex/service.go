// Package reindex implements the administrative reindex operation: the
// embedding model identity is fixed once a user's index exists, so moving
// to a new model means re-embedding every ready Item the user owns into a
// freshly built index and swapping each Item's vector_ref, one item at a
// time, through a bounded worker pool. The scope is the whole user, not
// one space: the vector index is a single per-user structure with a fixed
// dimension, so a model migration has to rebuild it in full.
package reindex

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spacevault/ragcore/internal/model"
)

// DefaultWorkers bounds the embedding concurrency of a migration run.
const DefaultWorkers = 4

// Store is the subset of spacestore.Store the reindex operation depends
// on.
type Store interface {
	ListReadyItems() ([]*model.Item, error)
	UpdateItemReady(id, text string, vectorRef int64) error
}

// Embedder is the single-text embedding seam, bound to the NEW model
// identity the caller is migrating to.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// TargetIndex is the fresh vector index being populated; it is distinct
// from the live index so that in-flight queries keep serving the old one
// until the caller swaps them. A reindex builds a full replacement rather
// than mutating entries in place.
type TargetIndex interface {
	Add(itemID string, vector []float32, spaceID string) (int64, error)
}

// Service runs a bounded worker pool over a user's ready items.
type Service struct {
	store    Store
	embedder Embedder
	workers  int
	logger   *slog.Logger
}

// New builds a Service. workers<=0 uses DefaultWorkers.
func New(store Store, embedder Embedder, workers int, logger *slog.Logger) *Service {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, embedder: embedder, workers: workers, logger: logger}
}

// ItemFailure records one item's reindex error.
type ItemFailure struct {
	ItemID string
	Err    error
}

// Report summarizes the outcome of one Reindex call.
type Report struct {
	Reindexed int
	Failed    []ItemFailure
}

type job struct {
	item *model.Item
}

type jobResult struct {
	itemID string
	err    error
}

// Reindex re-embeds every ready Item this user owns against the Service's
// embedder and adds each vector to target, swapping the Item's vector_ref
// to the id target assigns. Per-item failures are collected in the report
// rather than aborting the whole run; one bad item should not block the
// rest of the migration.
func (s *Service) Reindex(ctx context.Context, target TargetIndex) (Report, error) {
	ready, err := s.store.ListReadyItems()
	if err != nil {
		return Report{}, fmt.Errorf("reindex: list ready items: %w", err)
	}
	if len(ready) == 0 {
		return Report{}, nil
	}

	jobs := make(chan job, len(ready))
	results := make(chan jobResult, len(ready))
	for _, it := range ready {
		jobs <- job{item: it}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go s.worker(ctx, jobs, target, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var report Report
	for res := range results {
		if res.err != nil {
			report.Failed = append(report.Failed, ItemFailure{ItemID: res.itemID, Err: res.err})
			continue
		}
		report.Reindexed++
	}
	return report, nil
}

func (s *Service) worker(ctx context.Context, jobs <-chan job, target TargetIndex, results chan<- jobResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		results <- s.reindexOne(ctx, j.item, target)
	}
}

func (s *Service) reindexOne(ctx context.Context, item *model.Item, target TargetIndex) jobResult {
	if err := ctx.Err(); err != nil {
		return jobResult{itemID: item.ID, err: err}
	}

	vec, err := s.embedder.EmbedQuery(ctx, item.Text)
	if err != nil {
		return jobResult{itemID: item.ID, err: fmt.Errorf("embed: %w", err)}
	}

	vectorRef, err := target.Add(item.ID, vec, item.SpaceID)
	if err != nil {
		return jobResult{itemID: item.ID, err: fmt.Errorf("index add: %w", err)}
	}

	if err := s.store.UpdateItemReady(item.ID, item.Text, vectorRef); err != nil {
		s.logger.Error("reindex: vector_ref swap failed", "item_id", item.ID, "error", err)
		return jobResult{itemID: item.ID, err: fmt.Errorf("swap vector_ref: %w", err)}
	}

	return jobResult{itemID: item.ID}
}
