package discovery

import (
	"testing"
	"time"

	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/index"
	"github.com/codethatfits/phrasematch/internal/cache"
	"github.com/codethatfits/phrasematch/internal/indexing"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
	"github.com/codethatfits/phrasematch/store"
)

// --- Test Helpers ---

func newTestSettings() *config.CollectionSettings {
	settings := &config.CollectionSettings{Name: "test_collection"}
	settings.ApplyDefaults()
	return settings
}

// setupTestDiscovery creates a discovery service plus an indexing service so
// tests can add documents the same way the engine does.
func setupTestDiscovery(t *testing.T, resultCache *cache.ResultCache) (*Service, *indexing.Service) {
	t.Helper()

	tokenIndex := index.NewTokenIndex()
	docStore := store.NewDocumentStore()

	indexerService, err := indexing.NewService(tokenIndex, docStore)
	if err != nil {
		t.Fatalf("Failed to create indexing service: %v", err)
	}

	discoveryService, err := NewService(tokenIndex, docStore, newTestSettings(), resultCache)
	if err != nil {
		t.Fatalf("Failed to create discovery service: %v", err)
	}
	return discoveryService, indexerService
}

func addDocs(t *testing.T, indexer *indexing.Service, docs ...model.Document) {
	t.Helper()
	if err := indexer.UpsertDocuments(docs); err != nil {
		t.Fatalf("Failed to add documents: %v", err)
	}
}

// --- Test Cases ---

func TestNewService(t *testing.T) {
	tokenIndex := index.NewTokenIndex()
	docStore := store.NewDocumentStore()
	settings := newTestSettings()

	t.Run("valid initialization", func(t *testing.T) {
		if _, err := NewService(tokenIndex, docStore, settings, nil); err != nil {
			t.Errorf("NewService() error = %v, wantErr nil", err)
		}
	})

	t.Run("nil token index", func(t *testing.T) {
		if _, err := NewService(nil, docStore, settings, nil); err == nil {
			t.Error("NewService() with nil tokenIndex, wantErr, got nil")
		}
	})

	t.Run("nil document store", func(t *testing.T) {
		if _, err := NewService(tokenIndex, nil, settings, nil); err == nil {
			t.Error("NewService() with nil documentStore, wantErr, got nil")
		}
	})

	t.Run("nil settings", func(t *testing.T) {
		if _, err := NewService(tokenIndex, docStore, nil, nil); err == nil {
			t.Error("NewService() with nil settings, wantErr, got nil")
		}
	})
}

func TestFind_EmptyPhrase(t *testing.T) {
	service, indexer := setupTestDiscovery(t, nil)
	addDocs(t, indexer, model.Document{ID: "doc-1", Title: "Anything", Content: "Anything at all"})

	result, err := service.Find(services.FindQuery{Phrase: ""})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if result.Total != 0 || len(result.Hits) != 0 {
		t.Errorf("empty phrase returned %d hits, want 0", result.Total)
	}
	if result.QueryId == "" {
		t.Error("result is missing a query ID")
	}
}

func TestFind_ExactPhraseAcrossFields(t *testing.T) {
	service, indexer := setupTestDiscovery(t, nil)
	addDocs(t, indexer,
		model.Document{ID: "doc-1", Title: "Acme Corp history", Content: "Founded long ago, Acme Corp grew fast. Acme Corp is large."},
		model.Document{ID: "doc-2", Title: "Unrelated", Content: "Nothing to see here."},
		model.Document{ID: "doc-3", Title: "Misc", Content: "acme corp appears once."},
	)

	result, err := service.Find(services.FindQuery{Phrase: "Acme Corp"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	if result.Total != 2 {
		t.Fatalf("Total = %d, want 2", result.Total)
	}
	if result.TotalOccurrences != 4 {
		t.Errorf("TotalOccurrences = %d, want 4", result.TotalOccurrences)
	}

	// doc-1 has three occurrences (one title, two content), doc-3 has one.
	if result.Hits[0].Document.ID != "doc-1" {
		t.Errorf("first hit = %s, want doc-1 (most occurrences)", result.Hits[0].Document.ID)
	}
	if len(result.Hits[0].Occurrences) != 3 {
		t.Errorf("doc-1 occurrences = %d, want 3", len(result.Hits[0].Occurrences))
	}
	if result.Hits[1].Document.ID != "doc-3" {
		t.Errorf("second hit = %s, want doc-3", result.Hits[1].Document.ID)
	}

	first := result.Hits[0].Occurrences[0]
	if first.Field != model.FieldTitle {
		t.Errorf("first occurrence field = %s, want title", first.Field)
	}
	if first.Wrapping != model.WrappingPlain {
		t.Errorf("title occurrence wrapping = %s, want plain", first.Wrapping)
	}
	if first.Snippet == "" {
		t.Error("occurrence is missing a snippet")
	}
}

func TestFind_TokenPruningNeverDropsMatches(t *testing.T) {
	service, indexer := setupTestDiscovery(t, nil)

	// "data-set" tokenizes to [data, set]; a phrase query must still find the
	// exact byte sequence regardless of how the tokens were split.
	addDocs(t, indexer,
		model.Document{ID: "doc-1", Title: "", Content: "the data-set shrank"},
		model.Document{ID: "doc-2", Title: "", Content: "data without the other token"},
	)

	result, err := service.Find(services.FindQuery{Phrase: "data-set"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}
	if result.Hits[0].Document.ID != "doc-1" {
		t.Errorf("hit = %s, want doc-1", result.Hits[0].Document.ID)
	}
}

func TestFind_PhraseWithNoTokensScansEverything(t *testing.T) {
	service, indexer := setupTestDiscovery(t, nil)
	addDocs(t, indexer,
		model.Document{ID: "doc-1", Title: "", Content: "a -- b"},
		model.Document{ID: "doc-2", Title: "", Content: "a b"},
	)

	// "--" produces no tokens, so pruning is impossible and every document
	// must be verified directly.
	result, err := service.Find(services.FindQuery{Phrase: "--"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}
	if result.Hits[0].Document.ID != "doc-1" {
		t.Errorf("hit = %s, want doc-1", result.Hits[0].Document.ID)
	}
}

func TestFind_Filters(t *testing.T) {
	service, indexer := setupTestDiscovery(t, nil)
	addDocs(t, indexer,
		model.Document{ID: "doc-1", Content: "shared phrase", DocType: "article", Status: "published"},
		model.Document{ID: "doc-2", Content: "shared phrase", DocType: "faq", Status: "published"},
		model.Document{ID: "doc-3", Content: "shared phrase", DocType: "article", Status: "draft"},
	)

	tests := []struct {
		name    string
		query   services.FindQuery
		wantIDs []string
	}{
		{
			name:    "no filters",
			query:   services.FindQuery{Phrase: "shared phrase"},
			wantIDs: []string{"doc-1", "doc-2", "doc-3"},
		},
		{
			name:    "doc type filter",
			query:   services.FindQuery{Phrase: "shared phrase", DocTypes: []string{"article"}},
			wantIDs: []string{"doc-1", "doc-3"},
		},
		{
			name:    "both filters",
			query:   services.FindQuery{Phrase: "shared phrase", DocTypes: []string{"article"}, Statuses: []string{"published"}},
			wantIDs: []string{"doc-1"},
		},
		{
			name:    "filter matching nothing",
			query:   services.FindQuery{Phrase: "shared phrase", Statuses: []string{"archived"}},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.Find(tt.query)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if result.Total != len(tt.wantIDs) {
				t.Fatalf("Total = %d, want %d", result.Total, len(tt.wantIDs))
			}
			for i, wantID := range tt.wantIDs {
				if result.Hits[i].Document.ID != wantID {
					t.Errorf("hit %d = %s, want %s", i, result.Hits[i].Document.ID, wantID)
				}
			}
		})
	}
}

func TestFind_WrappingDetection(t *testing.T) {
	service, indexer := setupTestDiscovery(t, nil)
	addDocs(t, indexer, model.Document{
		ID:    "doc-1",
		Title: "",
		Content: "plain acme corp here\n" +
			"<em>acme corp</em> inline\n" +
			"<!-- start:note -->\n<p>acme corp</p>\n<!-- end:note -->\n",
	})

	result, err := service.Find(services.FindQuery{Phrase: "acme corp"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}

	occs := result.Hits[0].Occurrences
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
	wantWrappings := []model.Wrapping{model.WrappingPlain, model.WrappingInline, model.WrappingBlock}
	for i, want := range wantWrappings {
		if occs[i].Wrapping != want {
			t.Errorf("occurrence %d wrapping = %s, want %s", i, occs[i].Wrapping, want)
		}
	}
}

func TestFind_Pagination(t *testing.T) {
	service, indexer := setupTestDiscovery(t, nil)

	docs := make([]model.Document, 0, 5)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		docs = append(docs, model.Document{ID: "doc-" + id, Content: "the phrase"})
	}
	addDocs(t, indexer, docs...)

	page1, err := service.Find(services.FindQuery{Phrase: "the phrase", Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if page1.Total != 5 {
		t.Errorf("Total = %d, want 5", page1.Total)
	}
	if len(page1.Hits) != 2 {
		t.Fatalf("page 1 has %d hits, want 2", len(page1.Hits))
	}
	if page1.Hits[0].Document.ID != "doc-a" || page1.Hits[1].Document.ID != "doc-b" {
		t.Errorf("page 1 = %s, %s", page1.Hits[0].Document.ID, page1.Hits[1].Document.ID)
	}

	page3, err := service.Find(services.FindQuery{Phrase: "the phrase", Page: 3, PageSize: 2})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(page3.Hits) != 1 || page3.Hits[0].Document.ID != "doc-e" {
		t.Errorf("page 3 should hold only doc-e, got %d hits", len(page3.Hits))
	}

	beyond, err := service.Find(services.FindQuery{Phrase: "the phrase", Page: 9, PageSize: 2})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(beyond.Hits) != 0 {
		t.Errorf("page beyond the end returned %d hits, want 0", len(beyond.Hits))
	}
}

func TestFind_CacheHitSkipsVerification(t *testing.T) {
	resultCache := cache.New(time.Minute, 64)
	service, indexer := setupTestDiscovery(t, resultCache)
	addDocs(t, indexer, model.Document{ID: "doc-1", Content: "cached phrase here"})

	first, err := service.Find(services.FindQuery{Phrase: "cached phrase"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if first.CacheHit {
		t.Error("first query should not be a cache hit")
	}

	second, err := service.Find(services.FindQuery{Phrase: "Cached PHRASE"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if !second.CacheHit {
		t.Error("second query should be a cache hit (phrase case does not split the cache)")
	}
	if second.Total != 1 {
		t.Errorf("cached Total = %d, want 1", second.Total)
	}
	if len(second.Hits[0].Occurrences) != 1 {
		t.Error("cache hit must still carry freshly scanned occurrences")
	}
}

func TestFind_CacheInvalidatedByWrite(t *testing.T) {
	resultCache := cache.New(time.Minute, 64)
	service, indexer := setupTestDiscovery(t, resultCache)
	addDocs(t, indexer, model.Document{ID: "doc-1", Content: "volatile phrase"})

	if _, err := service.Find(services.FindQuery{Phrase: "volatile phrase"}); err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	// Any write bumps the store generation, so the memoized list is dead.
	addDocs(t, indexer, model.Document{ID: "doc-2", Content: "volatile phrase again"})

	result, err := service.Find(services.FindQuery{Phrase: "volatile phrase"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if result.CacheHit {
		t.Error("query after a write must not be served from the cache")
	}
	if result.Total != 2 {
		t.Errorf("Total after write = %d, want 2", result.Total)
	}
}

func TestFind_OccurrenceOffsetsAreByteAccurate(t *testing.T) {
	service, indexer := setupTestDiscovery(t, nil)
	content := "café before the phrase target here"
	addDocs(t, indexer, model.Document{ID: "doc-1", Content: content})

	result, err := service.Find(services.FindQuery{Phrase: "phrase target"})
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("Total = %d, want 1", result.Total)
	}

	occ := result.Hits[0].Occurrences[0]
	end := occ.Offset + len("phrase target")
	if content[occ.Offset:end] != "phrase target" {
		t.Errorf("offset %d does not point at the phrase bytes: %q", occ.Offset, content[occ.Offset:end])
	}
}
