package space

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spacevault/ragcore/internal/layout"
	"github.com/spacevault/ragcore/internal/model"
	"github.com/spacevault/ragcore/internal/ragerr"
	"github.com/spacevault/ragcore/internal/spacestore"
	"github.com/spacevault/ragcore/internal/vectorindex"
)

const testUser = "user-1"

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dataRoot := t.TempDir()

	store, err := spacestore.Open(dataRoot, testUser, nil)
	if err != nil {
		t.Fatalf("spacestore.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	index := vectorindex.New(3)
	return New(store, index, dataRoot, testUser, nil), dataRoot
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	sp, err := svc.Create("Recipes", "things I cook")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sp.ItemCount != 0 {
		t.Fatalf("expected new space to have item_count 0, got %d", sp.ItemCount)
	}

	got, err := svc.Get(sp.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Recipes" {
		t.Fatalf("expected name %q, got %q", "Recipes", got.Name)
	}
}

func TestGetRejectsOtherUsersSpace(t *testing.T) {
	svc, dataRoot := newTestService(t)

	sp, err := svc.Create("Mine", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	otherStore, err := spacestore.Open(dataRoot, "user-2", nil)
	if err != nil {
		t.Fatalf("spacestore.Open: %v", err)
	}
	defer otherStore.Close()
	otherIndex := vectorindex.New(3)
	otherSvc := New(otherStore, otherIndex, dataRoot, "user-2", nil)

	if _, err := otherSvc.Get(sp.ID); !ragerr.Is(err, ragerr.KindNotFound) {
		t.Fatalf("expected not-found for cross-user access, got %v", err)
	}
}

func TestListPopulatesItemCount(t *testing.T) {
	svc, _ := newTestService(t)

	sp, err := svc.Create("Notes", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.store.InsertPendingItem(sp.ID, model.KindMessage, "hello", model.ItemMetadata{}); err != nil {
		t.Fatalf("InsertPendingItem: %v", err)
	}

	spaces, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(spaces) != 1 || spaces[0].ItemCount != 1 {
		t.Fatalf("expected one space with item_count 1, got %+v", spaces)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	svc, _ := newTestService(t)

	sp, err := svc.Create("Old Name", "old description")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newName := "New Name"
	updated, err := svc.Update(sp.ID, &newName, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "New Name" || updated.Description != "old description" {
		t.Fatalf("expected only name to change, got %+v", updated)
	}
}

func TestDeleteCascadesItemsFilesAndVectors(t *testing.T) {
	svc, dataRoot := newTestService(t)

	sp, err := svc.Create("Temp", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	item, err := svc.store.InsertPendingItem(sp.ID, model.KindFile, "", model.ItemMetadata{
		MIMEFamily:   "pdf",
		OriginalName: "report.pdf",
	})
	if err != nil {
		t.Fatalf("InsertPendingItem: %v", err)
	}

	vectorRef, err := svc.index.Add(item.ID, []float32{1, 0, 0}, sp.ID)
	if err != nil {
		t.Fatalf("index.Add: %v", err)
	}
	if err := svc.store.UpdateItemReady(item.ID, "extracted text", vectorRef); err != nil {
		t.Fatalf("UpdateItemReady: %v", err)
	}

	filesDir := layout.SpaceFilesDir(dataRoot, testUser, sp.ID)
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	filePath := filepath.Join(filesDir, item.ID+".pdf")
	if err := os.WriteFile(filePath, []byte("pdf bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := svc.store.InsertQuery(sp.ID, "what does the report say?", "an answer", []model.QuerySource{
		{ItemID: item.ID, Kind: model.KindFile, Snippet: "extracted text", Score: 0.8},
	}); err != nil {
		t.Fatalf("InsertQuery: %v", err)
	}

	if err := svc.Delete(sp.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.Get(sp.ID); !ragerr.Is(err, ragerr.KindNotFound) {
		t.Fatalf("expected space to be gone, got %v", err)
	}
	if _, err := svc.store.GetItem(item.ID); !ragerr.Is(err, ragerr.KindNotFound) {
		t.Fatalf("expected item row to be gone, got %v", err)
	}
	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, stat err = %v", err)
	}
	if svc.index.Len() != 0 {
		t.Fatalf("expected vector entry tombstoned, index.Len() = %d", svc.index.Len())
	}
	queries, err := svc.store.ListQueries(sp.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListQueries: %v", err)
	}
	if len(queries) != 0 {
		t.Fatalf("expected query history removed with the space, got %d records", len(queries))
	}
}

func TestDeleteOfUnknownSpaceIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	if err := svc.Delete("does-not-exist"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
