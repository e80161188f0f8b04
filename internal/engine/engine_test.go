package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codethatfits/phrasematch/config"
	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/internal/scrub"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	engine, err := NewEngine(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	t.Cleanup(func() {
		if err := engine.Close(); err != nil {
			t.Logf("Failed to close engine: %v", err)
		}
	})
	return engine
}

func createTestCollection(t *testing.T, engine *Engine, name string) services.CollectionAccessor {
	t.Helper()

	if err := engine.CreateCollection(config.CollectionSettings{Name: name}); err != nil {
		t.Fatalf("Failed to create collection %s: %v", name, err)
	}
	accessor, err := engine.GetCollection(name)
	if err != nil {
		t.Fatalf("Failed to get collection %s: %v", name, err)
	}
	return accessor
}

func TestCreateCollection(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.CreateCollection(config.CollectionSettings{Name: "kb"}); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}

	err := engine.CreateCollection(config.CollectionSettings{Name: "kb"})
	if !errors.Is(err, internalErrors.ErrCollectionAlreadyExists) {
		t.Errorf("duplicate CreateCollection() error = %v, want already-exists", err)
	}

	err = engine.CreateCollection(config.CollectionSettings{Name: "bad name!"})
	if !errors.Is(err, internalErrors.ErrInvalidInput) {
		t.Errorf("CreateCollection() with invalid name error = %v, want validation error", err)
	}
}

func TestGetCollectionSettingsAppliesDefaults(t *testing.T) {
	engine := newTestEngine(t)
	createTestCollection(t, engine, "kb")

	settings, err := engine.GetCollectionSettings("kb")
	if err != nil {
		t.Fatalf("GetCollectionSettings() error = %v", err)
	}

	if settings.BlockMarkerStart != config.DefaultBlockMarkerStart {
		t.Errorf("BlockMarkerStart = %q, want default %q", settings.BlockMarkerStart, config.DefaultBlockMarkerStart)
	}
	if settings.SnippetRadius != config.DefaultSnippetRadius {
		t.Errorf("SnippetRadius = %d, want default %d", settings.SnippetRadius, config.DefaultSnippetRadius)
	}

	if _, err := engine.GetCollection("missing"); !errors.Is(err, internalErrors.ErrCollectionNotFound) {
		t.Errorf("GetCollection('missing') error = %v, want not-found", err)
	}
}

func TestUpdateCollectionSettings(t *testing.T) {
	engine := newTestEngine(t)
	accessor := createTestCollection(t, engine, "kb")

	updated := config.CollectionSettings{Name: "kb", SnippetRadius: 40}
	if err := engine.UpdateCollectionSettings("kb", updated); err != nil {
		t.Fatalf("UpdateCollectionSettings() error = %v", err)
	}

	if got := accessor.Settings().SnippetRadius; got != 40 {
		t.Errorf("SnippetRadius after update = %d, want 40", got)
	}

	renamed := config.CollectionSettings{Name: "kb-v2"}
	if err := engine.UpdateCollectionSettings("kb", renamed); err == nil {
		t.Error("UpdateCollectionSettings() with a name change, wantErr, got nil")
	}
}

func TestDeleteCollection(t *testing.T) {
	engine := newTestEngine(t)
	createTestCollection(t, engine, "kb")
	createTestCollection(t, engine, "support")

	if err := engine.revisionStore.Record(&model.Revision{Collection: "kb", DocID: "doc-1", Phrase: "acme"}); err != nil {
		t.Fatalf("Failed to record revision: %v", err)
	}

	if err := engine.DeleteCollection("kb"); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}

	names := engine.ListCollections()
	if len(names) != 1 || names[0] != "support" {
		t.Errorf("ListCollections() after delete = %v, want [support]", names)
	}

	count, err := engine.revisionStore.CountByCollection("kb")
	if err != nil {
		t.Fatalf("CountByCollection() error = %v", err)
	}
	if count != 0 {
		t.Errorf("revisions for deleted collection = %d, want 0", count)
	}

	if err := engine.DeleteCollection("kb"); !errors.Is(err, internalErrors.ErrCollectionNotFound) {
		t.Errorf("second DeleteCollection() error = %v, want not-found", err)
	}
}

func TestCollectionsSurviveReload(t *testing.T) {
	dataDir := t.TempDir()

	engine, err := NewEngine(dataDir)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	if err := engine.CreateCollection(config.CollectionSettings{Name: "kb"}); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	accessor, err := engine.GetCollection("kb")
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}

	docs := []model.Document{
		{ID: "doc-1", Title: "Acme Corp launch", Content: "Acme Corp ships a new widget."},
		{ID: "doc-2", Title: "Unrelated", Content: "Nothing to see here."},
	}
	if err := accessor.UpsertDocuments(docs); err != nil {
		t.Fatalf("UpsertDocuments() error = %v", err)
	}
	if err := engine.PersistCollectionData("kb"); err != nil {
		t.Fatalf("PersistCollectionData() error = %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reloaded, err := NewEngine(dataDir)
	if err != nil {
		t.Fatalf("Failed to reload engine: %v", err)
	}
	defer func() {
		if err := reloaded.Close(); err != nil {
			t.Logf("Failed to close reloaded engine: %v", err)
		}
	}()

	names := reloaded.ListCollections()
	if len(names) != 1 || names[0] != "kb" {
		t.Fatalf("ListCollections() after reload = %v, want [kb]", names)
	}

	reloadedAccessor, err := reloaded.GetCollection("kb")
	if err != nil {
		t.Fatalf("GetCollection() after reload error = %v", err)
	}

	doc, err := reloadedAccessor.GetDocument("doc-1")
	if err != nil {
		t.Fatalf("GetDocument() after reload error = %v", err)
	}
	if doc.Title != "Acme Corp launch" {
		t.Errorf("reloaded document title = %q", doc.Title)
	}

	result, err := reloadedAccessor.Find(services.FindQuery{Phrase: "acme corp"})
	if err != nil {
		t.Fatalf("Find() after reload error = %v", err)
	}
	if result.Total != 1 {
		t.Errorf("Find() after reload Total = %d, want 1", result.Total)
	}
}

func TestScrubAndRestoreFlow(t *testing.T) {
	engine := newTestEngine(t)
	accessor := createTestCollection(t, engine, "kb")

	original := model.Document{
		ID:      "doc-1",
		Title:   "Acme Corp announcement",
		Content: "Acme Corp released a product. Contact Acme Corp for details.",
	}
	if err := accessor.UpsertDocuments([]model.Document{original}); err != nil {
		t.Fatalf("UpsertDocuments() error = %v", err)
	}

	found, err := accessor.Find(services.FindQuery{Phrase: "Acme Corp"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if found.TotalOccurrences != 3 {
		t.Fatalf("TotalOccurrences = %d, want 3", found.TotalOccurrences)
	}

	hit := found.Hits[0]
	scrubResult, err := accessor.Execute(services.ScrubRequest{
		Phrase: "Acme Corp",
		Targets: []services.ScrubTarget{{
			DocID:    hit.Document.ID,
			Requests: scrub.BuildRequests(hit.Occurrences, "", ""),
		}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if scrubResult.DocsModified != 1 || scrubResult.Removed != 3 {
		t.Fatalf("scrub result = %d modified, %d removed, want 1 and 3", scrubResult.DocsModified, scrubResult.Removed)
	}
	revisionID := scrubResult.Results[0].RevisionID
	if revisionID == "" {
		t.Fatal("scrub did not record a revision")
	}

	// The write bumped the store generation, so this scan must not reuse
	// the pre-scrub cached result.
	after, err := accessor.Find(services.FindQuery{Phrase: "Acme Corp"})
	if err != nil {
		t.Fatalf("Find() after scrub error = %v", err)
	}
	if after.Total != 0 {
		t.Fatalf("Find() after scrub Total = %d, want 0", after.Total)
	}

	restored, err := engine.RestoreRevision("kb", "doc-1", revisionID)
	if err != nil {
		t.Fatalf("RestoreRevision() error = %v", err)
	}
	if restored.Content != original.Content {
		t.Errorf("restored content = %q, want the original text", restored.Content)
	}

	revs, err := engine.ListRevisions("kb", "doc-1", 0)
	if err != nil {
		t.Fatalf("ListRevisions() error = %v", err)
	}
	if len(revs) != 2 {
		t.Errorf("revisions after restore = %d, want 2 (scrub + restore)", len(revs))
	}

	final, err := accessor.Find(services.FindQuery{Phrase: "Acme Corp"})
	if err != nil {
		t.Fatalf("Find() after restore error = %v", err)
	}
	if final.TotalOccurrences != 3 {
		t.Errorf("TotalOccurrences after restore = %d, want 3", final.TotalOccurrences)
	}
}

func TestRestoreRevisionUnknownRevision(t *testing.T) {
	engine := newTestEngine(t)
	accessor := createTestCollection(t, engine, "kb")

	if err := accessor.UpsertDocuments([]model.Document{{ID: "doc-1", Content: "text"}}); err != nil {
		t.Fatalf("UpsertDocuments() error = %v", err)
	}

	_, err := engine.RestoreRevision("kb", "doc-1", "01J00000000000000000000000")
	if !errors.Is(err, internalErrors.ErrRevisionNotFound) {
		t.Errorf("RestoreRevision() error = %v, want revision not-found", err)
	}

	_, err = engine.RestoreRevision("missing", "doc-1", "01J00000000000000000000000")
	if !errors.Is(err, internalErrors.ErrCollectionNotFound) {
		t.Errorf("RestoreRevision() on missing collection error = %v, want collection not-found", err)
	}
}

func TestFindAll(t *testing.T) {
	engine := newTestEngine(t)
	kb := createTestCollection(t, engine, "kb")
	support := createTestCollection(t, engine, "support")
	createTestCollection(t, engine, "empty")

	if err := kb.UpsertDocuments([]model.Document{
		{ID: "kb-1", Content: "acme corp appears here"},
		{ID: "kb-2", Content: "acme corp appears here too"},
	}); err != nil {
		t.Fatalf("UpsertDocuments(kb) error = %v", err)
	}
	if err := support.UpsertDocuments([]model.Document{
		{ID: "sup-1", Content: "acme corp in a ticket"},
	}); err != nil {
		t.Fatalf("UpsertDocuments(support) error = %v", err)
	}

	result, err := engine.FindAll(context.Background(), services.MultiFindQuery{
		Collections: []string{"kb", "support", "empty"},
		Phrase:      "acme corp",
	})
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}

	if result.TotalCollections != 3 {
		t.Errorf("TotalCollections = %d, want 3", result.TotalCollections)
	}
	if got := result.Results["kb"].Total; got != 2 {
		t.Errorf("kb Total = %d, want 2", got)
	}
	if got := result.Results["support"].Total; got != 1 {
		t.Errorf("support Total = %d, want 1", got)
	}
	if got := result.Results["empty"].Total; got != 0 {
		t.Errorf("empty Total = %d, want 0", got)
	}

	_, err = engine.FindAll(context.Background(), services.MultiFindQuery{
		Collections: []string{"kb", "missing"},
		Phrase:      "acme corp",
	})
	if !errors.Is(err, internalErrors.ErrCollectionNotFound) {
		t.Errorf("FindAll() with unknown collection error = %v, want not-found", err)
	}
}

func TestListDocumentsPagination(t *testing.T) {
	engine := newTestEngine(t)
	accessor := createTestCollection(t, engine, "kb")

	docs := []model.Document{
		{ID: "a", Content: "one"},
		{ID: "b", Content: "two"},
		{ID: "c", Content: "three"},
	}
	if err := accessor.UpsertDocuments(docs); err != nil {
		t.Fatalf("UpsertDocuments() error = %v", err)
	}

	page, total, err := accessor.ListDocuments(1, 2)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page) != 2 || page[0].ID != "a" || page[1].ID != "b" {
		ids := make([]string, 0, len(page))
		for _, doc := range page {
			ids = append(ids, doc.ID)
		}
		t.Errorf("page 1 IDs = %s, want a,b", strings.Join(ids, ","))
	}

	page, _, err = accessor.ListDocuments(2, 2)
	if err != nil {
		t.Fatalf("ListDocuments() page 2 error = %v", err)
	}
	if len(page) != 1 || page[0].ID != "c" {
		t.Errorf("page 2 = %v, want just c", page)
	}
}
