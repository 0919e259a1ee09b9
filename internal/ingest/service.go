// Package ingest implements the item operations and the ingestion
// pipeline: save-item requests flow through insert-pending -> extract ->
// embed -> index -> mark-ready, with compensating cleanup on any failure
// past the initial insert. Every save is synchronous: ingestion completes
// before the call returns.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spacevault/ragcore/internal/extractor"
	"github.com/spacevault/ragcore/internal/layout"
	"github.com/spacevault/ragcore/internal/model"
	"github.com/spacevault/ragcore/internal/ragerr"
)

// MaxMessageChars is the message text length limit.
const MaxMessageChars = 100_000

// Store is the subset of spacestore.Store the ingestion pipeline depends
// on, narrowed to an interface so tests can fake the metadata layer.
type Store interface {
	InsertPendingItem(spaceID string, kind model.Kind, content string, meta model.ItemMetadata) (*model.Item, error)
	GetItem(id string) (*model.Item, error)
	UpdateItemContent(id, content string) error
	UpdateItemReady(id, text string, vectorRef int64) error
	UpdateItemFailed(id, reason string) error
	UpdateItemNotes(id, notes string) error
	DeleteItem(id string) error
	ListItemsPage(spaceID string, limit, offset int) ([]*model.Item, error)
}

// Extractor is the façade the pipeline dispatches file bytes through.
type Extractor interface {
	Extract(data []byte, family extractor.Family) (string, error)
}

// Embedder is the single-text embedding seam the pipeline depends on.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the subset of vectorindex.Index the pipeline depends on.
type VectorIndex interface {
	Add(itemID string, vector []float32, spaceID string) (int64, error)
	Delete(itemID string) error
}

// Service implements save_message, save_file, list_items, and delete_item.
type Service struct {
	store     Store
	extractor Extractor
	embedder  Embedder
	index     VectorIndex
	dataRoot  string
	userID    string
	logger    *slog.Logger
}

// New builds a Service over the pipeline's four collaborators.
func New(store Store, ex Extractor, embedder Embedder, index VectorIndex, dataRoot, userID string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, extractor: ex, embedder: embedder, index: index, dataRoot: dataRoot, userID: userID, logger: logger}
}

// SaveMessage ingests a plain-text message item synchronously.
func (s *Service) SaveMessage(ctx context.Context, spaceID, text, notes string) (*model.Item, error) {
	if text == "" || utf8.RuneCountInString(text) > MaxMessageChars {
		return nil, ragerr.New("SaveMessage", ragerr.KindInvalidInput, fmt.Errorf("message text must be 1-%d chars", MaxMessageChars))
	}

	item, err := s.store.InsertPendingItem(spaceID, model.KindMessage, text, model.ItemMetadata{
		SizeBytes: int64(len(text)),
	})
	if err != nil {
		return nil, err
	}
	if notes != "" {
		_ = s.store.UpdateItemNotes(item.ID, notes)
		item.Notes = notes
	}

	vectorRef, err := s.finishIngestion(ctx, item, text)
	if err != nil {
		return nil, err
	}
	item.Text = text
	item.Status = model.StatusReady
	item.VectorRef = &vectorRef
	return item, nil
}

// SaveFile ingests an uploaded file synchronously: stage the bytes to disk
// under the item's own id, extract text, embed, index, mark ready.
func (s *Service) SaveFile(ctx context.Context, spaceID string, data []byte, declaredMIME, originalName, notes string) (*model.Item, error) {
	if len(data) > extractor.MaxInputBytes {
		return nil, ragerr.New("SaveFile", ragerr.KindTooLarge, fmt.Errorf("file is %d bytes, limit is %d", len(data), extractor.MaxInputBytes))
	}

	family, ext := classify(data, declaredMIME)
	meta := model.ItemMetadata{
		OriginalName: originalName,
		SizeBytes:    int64(len(data)),
		MIMEFamily:   string(family),
		OCR:          family == extractor.FamilyImage,
	}

	item, err := s.store.InsertPendingItem(spaceID, model.KindFile, "", meta)
	if err != nil {
		return nil, err
	}
	if notes != "" {
		_ = s.store.UpdateItemNotes(item.ID, notes)
		item.Notes = notes
	}

	path := layout.ItemFilePath(s.dataRoot, s.userID, spaceID, item.ID, ext)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, s.compensateTransient(item, "", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, s.compensateTransient(item, "", err)
	}
	if err := s.store.UpdateItemContent(item.ID, path); err != nil {
		return nil, s.compensateTransient(item, path, err)
	}

	text, err := s.extractor.Extract(data, family)
	if err != nil {
		var rerr *ragerr.Error
		if errors.As(err, &rerr) && isIntrinsic(rerr.Kind) {
			return nil, s.compensateIntrinsic(item, rerr)
		}
		return nil, s.compensateTransient(item, path, err)
	}

	vectorRef, err := s.finishIngestion(ctx, item, text)
	if err != nil {
		s.removeFile(path)
		return nil, err
	}

	item.Content = path
	item.Text = text
	item.Status = model.StatusReady
	item.VectorRef = &vectorRef
	return item, nil
}

// finishIngestion runs the shared embed -> index -> mark-ready tail of the
// pipeline for both message and file items. On any failure it compensates
// by removing the Item row entirely (transient failures are retryable, so
// no trace should remain) and tombstoning a vector entry if one was
// assigned before the failure.
func (s *Service) finishIngestion(ctx context.Context, item *model.Item, text string) (int64, error) {
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return 0, s.compensateTransient(item, item.Content, err)
	}

	vectorRef, err := s.index.Add(item.ID, vec, item.SpaceID)
	if err != nil {
		return 0, s.compensateTransient(item, item.Content, err)
	}

	if err := s.store.UpdateItemReady(item.ID, text, vectorRef); err != nil {
		if delErr := s.index.Delete(item.ID); delErr != nil && !ragerr.Is(delErr, ragerr.KindNotFound) {
			s.logger.Error("finishIngestion: compensating vector delete failed", "item_id", item.ID, "error", delErr)
		}
		return 0, s.compensateTransient(item, item.Content, err)
	}
	return vectorRef, nil
}

// compensateIntrinsic handles an extractor failure intrinsic to the input
// itself (unsupported/corrupt/empty/too-large): the Item is kept with
// status failed and a failure reason; no vector entry is ever created for
// it.
func (s *Service) compensateIntrinsic(item *model.Item, cause *ragerr.Error) error {
	if err := s.store.UpdateItemFailed(item.ID, cause.Error()); err != nil {
		s.logger.Error("compensateIntrinsic: mark-failed failed", "item_id", item.ID, "error", err)
	}
	return cause
}

// compensateTransient handles a retryable failure (embedder/LLM backend
// unavailable, deadline exceeded, internal error): the Item row is removed
// entirely so the caller can retry the save from scratch.
func (s *Service) compensateTransient(item *model.Item, filePath string, cause error) error {
	if err := s.store.DeleteItem(item.ID); err != nil {
		s.logger.Error("compensateTransient: item delete failed", "item_id", item.ID, "error", err)
	}
	s.removeFile(filePath)

	var rerr *ragerr.Error
	if errors.As(cause, &rerr) {
		return rerr
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		return ragerr.New("ingest", ragerr.KindDeadlineExceeded, cause)
	}
	return ragerr.New("ingest", ragerr.KindBackendUnavailable, cause)
}

func (s *Service) removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error("compensate: file removal failed", "path", path, "error", err)
	}
}

func isIntrinsic(k ragerr.Kind) bool {
	switch k {
	case ragerr.KindUnsupported, ragerr.KindCorrupt, ragerr.KindEmpty, ragerr.KindTooLarge:
		return true
	default:
		return false
	}
}

// ListItems returns a page of a space's items, oldest first.
func (s *Service) ListItems(spaceID string, limit, offset int) ([]*model.Item, error) {
	return s.store.ListItemsPage(spaceID, limit, offset)
}

// DeleteItem removes an Item, self-compensating: tombstone the vector
// entry first, then the file bytes, then the metadata row, so a crash
// between steps never leaves a user-visible artifact (an orphaned vector
// or file with no owning Item is invisible to every read path, which all
// start from the metadata store).
func (s *Service) DeleteItem(spaceID, itemID string) error {
	item, err := s.store.GetItem(itemID)
	if err != nil {
		if ragerr.Is(err, ragerr.KindNotFound) {
			return nil
		}
		return err
	}
	if item.SpaceID != spaceID {
		return nil
	}

	if item.VectorRef != nil {
		if err := s.index.Delete(itemID); err != nil && !ragerr.Is(err, ragerr.KindNotFound) {
			s.logger.Error("DeleteItem: vector tombstone failed", "item_id", itemID, "error", err)
		}
	}

	if item.Kind == model.KindFile && item.Content != "" {
		s.removeFile(item.Content)
	}

	return s.store.DeleteItem(itemID)
}
