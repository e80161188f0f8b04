package indexing

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

func smallBulkConfig(workers int) BulkIndexingConfig {
	config := DefaultBulkIndexingConfig()
	config.BatchSize = 10
	config.WorkerCount = workers
	config.FlushInterval = time.Second
	return config
}

func TestBulkUpsertDocuments(t *testing.T) {
	service := createTestService()
	docs := generateTestDocuments(25)

	bulkIndexer := NewBulkIndexer(service, smallBulkConfig(2))
	if err := bulkIndexer.BulkUpsertDocuments(docs); err != nil {
		t.Fatalf("BulkUpsertDocuments() error = %v", err)
	}

	if service.documentStore.Count() != 25 {
		t.Errorf("Expected 25 documents in store, got %d", service.documentStore.Count())
	}
	for i := 0; i < 25; i++ {
		if _, ok := service.documentStore.InternalID(fmt.Sprintf("doc-%d", i)); !ok {
			t.Errorf("doc-%d has no internal ID mapping", i)
		}
	}

	// Every document's content contains "document"
	candidates, pruned := service.tokenIndex.CandidateDocs([]string{"document"})
	if !pruned {
		t.Fatal("CandidateDocs returned no pruning for non-empty tokens")
	}
	if len(candidates) != 25 {
		t.Errorf("Expected 25 candidates for 'document', got %d", len(candidates))
	}

	// "7" only appears in doc-7 ("17" tokenizes as its own token)
	candidates, _ = service.tokenIndex.CandidateDocs([]string{"7"})
	if len(candidates) != 1 {
		t.Errorf("Expected 1 candidate for '7', got %d: %v", len(candidates), candidates)
	}

	if service.documentStore.CurrentGeneration() == 0 {
		t.Error("Bulk flush did not bump the store generation")
	}
}

func TestBulkUpsertMatchesMicroBatch(t *testing.T) {
	docs := generateTestDocuments(40)

	microService := createTestService()
	if err := microService.UpsertDocuments(docs); err != nil {
		t.Fatalf("UpsertDocuments() error = %v", err)
	}

	// Single worker keeps internal ID allocation deterministic
	bulkService := createTestService()
	bulkIndexer := NewBulkIndexer(bulkService, smallBulkConfig(1))
	if err := bulkIndexer.BulkUpsertDocuments(docs); err != nil {
		t.Fatalf("BulkUpsertDocuments() error = %v", err)
	}

	if !reflect.DeepEqual(microService.documentStore.ExternalIDtoInternalID, bulkService.documentStore.ExternalIDtoInternalID) {
		t.Error("Bulk and micro-batch paths assigned different internal IDs")
	}
	if !reflect.DeepEqual(microService.tokenIndex.Index, bulkService.tokenIndex.Index) {
		t.Error("Bulk and micro-batch paths produced different token indexes")
	}
}

func TestBulkReindexPreservesInternalIDs(t *testing.T) {
	service := createTestService()
	docs := generateTestDocuments(30)
	if err := service.UpsertDocuments(docs); err != nil {
		t.Fatalf("UpsertDocuments() error = %v", err)
	}

	idsBefore := make(map[string]uint32, len(docs))
	for _, doc := range docs {
		id, ok := service.documentStore.InternalID(doc.ID)
		if !ok {
			t.Fatalf("missing internal ID for %s", doc.ID)
		}
		idsBefore[doc.ID] = id
	}

	if err := service.BulkReindex(smallBulkConfig(2)); err != nil {
		t.Fatalf("BulkReindex() error = %v", err)
	}

	for docID, before := range idsBefore {
		after, ok := service.documentStore.InternalID(docID)
		if !ok {
			t.Errorf("%s lost its mapping during reindex", docID)
			continue
		}
		if after != before {
			t.Errorf("%s internal ID changed during reindex: %d -> %d", docID, before, after)
		}
	}

	candidates, _ := service.tokenIndex.CandidateDocs([]string{"document"})
	if len(candidates) != 30 {
		t.Errorf("Expected 30 candidates for 'document' after reindex, got %d", len(candidates))
	}
}
