package indexing

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codethatfits/phrasematch/index"
	"github.com/codethatfits/phrasematch/internal/tokenizer"
	"github.com/codethatfits/phrasematch/model"
)

// BulkIndexingConfig contains configuration for bulk indexing operations
type BulkIndexingConfig struct {
	BatchSize        int           // Number of documents to process in each batch
	WorkerCount      int           // Number of parallel workers for processing
	FlushInterval    time.Duration // How often to flush accumulated changes
	MemoryThreshold  int           // Memory threshold in MB before forcing flush
	ProgressCallback func(processed, total int, message string)
}

// DefaultBulkIndexingConfig returns sensible defaults for bulk indexing
func DefaultBulkIndexingConfig() BulkIndexingConfig {
	return BulkIndexingConfig{
		BatchSize:       1000,             // Larger batches for efficiency
		WorkerCount:     runtime.NumCPU(), // Use all available cores
		FlushInterval:   5 * time.Second,  // Flush every 5 seconds
		MemoryThreshold: 500,              // 500MB threshold
	}
}

// BulkIndexer provides high-performance bulk indexing operations
type BulkIndexer struct {
	service         *Service
	config          BulkIndexingConfig
	pendingPostings map[string][]index.PostingEntry // Token -> pending entries
	pendingDocs     map[uint32]model.Document       // Pending document updates
	pendingMappings map[string]uint32               // Pending ID mappings
	mu              sync.RWMutex
	lastFlush       time.Time
	processedCount  int
	totalCount      int
}

// NewBulkIndexer creates a new bulk indexer with the given configuration
func NewBulkIndexer(service *Service, config BulkIndexingConfig) *BulkIndexer {
	return &BulkIndexer{
		service:         service,
		config:          config,
		pendingPostings: make(map[string][]index.PostingEntry),
		pendingDocs:     make(map[uint32]model.Document),
		pendingMappings: make(map[string]uint32),
		lastFlush:       time.Now(),
	}
}

// BulkUpsertDocuments efficiently adds a large number of documents using parallel processing
func (bi *BulkIndexer) BulkUpsertDocuments(docs []model.Document) error {
	bi.totalCount = len(docs)
	bi.processedCount = 0

	if len(docs) == 0 {
		return nil
	}

	log.Printf("Starting bulk indexing of %d documents with %d workers", len(docs), bi.config.WorkerCount)
	start := time.Now()

	// Create worker pool
	docChan := make(chan []model.Document, bi.config.WorkerCount*2)
	resultChan := make(chan *bulkProcessResult, bi.config.WorkerCount*2)
	errorChan := make(chan error, bi.config.WorkerCount)

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < bi.config.WorkerCount; i++ {
		wg.Add(1)
		go bi.worker(docChan, resultChan, errorChan, &wg)
	}

	// Start result collector
	collectorDone := make(chan struct{})
	go bi.resultCollector(resultChan, collectorDone)

	// Send work to workers in batches
	go func() {
		defer close(docChan)
		for i := 0; i < len(docs); i += bi.config.BatchSize {
			end := i + bi.config.BatchSize
			if end > len(docs) {
				end = len(docs)
			}
			batch := docs[i:end]
			docChan <- batch
		}
	}()

	// Wait for workers to complete
	wg.Wait()
	close(resultChan)

	// Wait for result collector to finish
	<-collectorDone

	// Check for errors
	select {
	case err := <-errorChan:
		return fmt.Errorf("bulk indexing failed: %w", err)
	default:
	}

	// Final flush
	if err := bi.flush(); err != nil {
		return fmt.Errorf("final flush failed: %w", err)
	}

	duration := time.Since(start)
	log.Printf("Bulk indexing completed: %d documents in %v (%.2f docs/sec)",
		len(docs), duration, float64(len(docs))/duration.Seconds())

	return nil
}

// bulkProcessResult contains the result of processing a batch of documents
type bulkProcessResult struct {
	postingUpdates map[string][]index.PostingEntry
	docUpdates     map[uint32]model.Document
	idMappings     map[string]uint32
	processed      int
}

// worker processes batches of documents in parallel
func (bi *BulkIndexer) worker(docChan <-chan []model.Document, resultChan chan<- *bulkProcessResult, errorChan chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()

	for batch := range docChan {
		result, err := bi.processBatch(batch)
		if err != nil {
			select {
			case errorChan <- err:
			default:
			}
			return
		}
		resultChan <- result
	}
}

// processBatch processes a batch of documents and returns the updates
func (bi *BulkIndexer) processBatch(docs []model.Document) (*bulkProcessResult, error) {
	result := &bulkProcessResult{
		postingUpdates: make(map[string][]index.PostingEntry),
		docUpdates:     make(map[uint32]model.Document),
		idMappings:     make(map[string]uint32),
		processed:      len(docs),
	}

	// Pre-allocate internal IDs for this batch to avoid contention
	bi.service.documentStore.Mu.Lock()
	nextID := bi.service.documentStore.NextID
	batchIDMappings := make(map[string]uint32, len(docs))

	for _, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			bi.service.documentStore.Mu.Unlock()
			return nil, fmt.Errorf("document ID cannot be empty")
		}
		docID := strings.TrimSpace(doc.ID)

		// Check if document already exists
		if existingID, exists := bi.service.documentStore.ExternalIDtoInternalID[docID]; exists {
			batchIDMappings[docID] = existingID
		} else {
			batchIDMappings[docID] = nextID
			nextID++
		}
	}

	bi.service.documentStore.NextID = nextID
	bi.service.documentStore.Mu.Unlock()

	// Process documents without holding locks
	now := time.Now()
	for _, doc := range docs {
		doc.ID = strings.TrimSpace(doc.ID)
		doc.UpdatedAt = now
		if doc.Format == "" {
			doc.Format = model.FormatHTML
		}
		internalID := batchIDMappings[doc.ID]

		result.docUpdates[internalID] = doc
		result.idMappings[doc.ID] = internalID

		// Tokenize each scannable field
		for _, field := range scannableFields {
			text := doc.FieldText(field)
			if strings.TrimSpace(text) == "" {
				continue
			}

			for _, token := range tokenizer.UniqueTokens(text) {
				entry := index.PostingEntry{
					DocID: internalID,
					Field: field,
				}
				result.postingUpdates[token] = append(result.postingUpdates[token], entry)
			}
		}
	}

	return result, nil
}

// resultCollector collects results from workers and accumulates them
func (bi *BulkIndexer) resultCollector(resultChan <-chan *bulkProcessResult, done chan<- struct{}) {
	defer close(done)

	for result := range resultChan {
		bi.mu.Lock()

		// Accumulate posting updates
		for token, entries := range result.postingUpdates {
			bi.pendingPostings[token] = append(bi.pendingPostings[token], entries...)
		}

		// Accumulate document updates
		for id, doc := range result.docUpdates {
			bi.pendingDocs[id] = doc
		}

		// Accumulate ID mappings
		for extID, intID := range result.idMappings {
			bi.pendingMappings[extID] = intID
		}

		bi.processedCount += result.processed
		bi.mu.Unlock()

		// Report progress
		if bi.config.ProgressCallback != nil {
			bi.config.ProgressCallback(bi.processedCount, bi.totalCount,
				fmt.Sprintf("Processed %d/%d documents", bi.processedCount, bi.totalCount))
		}

		// Check if we should flush
		bi.mu.RLock()
		shouldFlush := time.Since(bi.lastFlush) > bi.config.FlushInterval ||
			bi.estimateMemoryUsage() > bi.config.MemoryThreshold*1024*1024
		bi.mu.RUnlock()

		if shouldFlush {
			if err := bi.flush(); err != nil {
				log.Printf("Error during flush: %v", err)
			}
		}
	}
}

// flush applies all pending updates to the live store and index
func (bi *BulkIndexer) flush() error {
	bi.mu.Lock()
	defer bi.mu.Unlock()

	if len(bi.pendingPostings) == 0 && len(bi.pendingDocs) == 0 {
		return nil
	}

	log.Printf("Flushing %d token updates and %d document updates",
		len(bi.pendingPostings), len(bi.pendingDocs))

	// Acquire locks for the flush operation
	bi.service.documentStore.Mu.Lock()
	bi.service.tokenIndex.Mu.Lock()
	defer bi.service.documentStore.Mu.Unlock()
	defer bi.service.tokenIndex.Mu.Unlock()

	// Apply document updates
	for id, doc := range bi.pendingDocs {
		bi.service.documentStore.Docs[id] = doc
	}

	// Apply ID mappings
	for extID, intID := range bi.pendingMappings {
		bi.service.documentStore.ExternalIDtoInternalID[extID] = intID
	}

	// Apply posting updates efficiently
	for token, newEntries := range bi.pendingPostings {
		currentList := bi.service.tokenIndex.Index[token]

		// Merge and sort the posting list
		mergedList := bi.mergePostingLists(currentList, newEntries)
		bi.service.tokenIndex.Index[token] = mergedList
	}

	// One generation bump per flush so cached phrase results go stale
	bi.service.documentStore.Generation++

	// Clear pending updates
	bi.pendingPostings = make(map[string][]index.PostingEntry)
	bi.pendingDocs = make(map[uint32]model.Document)
	bi.pendingMappings = make(map[string]uint32)
	bi.lastFlush = time.Now()

	return nil
}

// mergePostingLists merges two posting lists while maintaining sort order
// and dropping duplicates.
func (bi *BulkIndexer) mergePostingLists(existing, incoming []index.PostingEntry) index.PostingList {
	if len(existing) == 0 && len(incoming) == 0 {
		return nil
	}

	seen := make(map[index.PostingEntry]struct{}, len(existing)+len(incoming))
	merged := make(index.PostingList, 0, len(existing)+len(incoming))

	for _, entry := range existing {
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		merged = append(merged, entry)
	}
	for _, entry := range incoming {
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		merged = append(merged, entry)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Less(merged[j])
	})

	return merged
}

// estimateMemoryUsage provides a rough estimate of memory usage for pending updates
func (bi *BulkIndexer) estimateMemoryUsage() int {
	// Rough estimation: each posting entry ~100 bytes, each document ~1KB
	tokenMemory := len(bi.pendingPostings) * 100
	for _, entries := range bi.pendingPostings {
		tokenMemory += len(entries) * 100
	}
	docMemory := len(bi.pendingDocs) * 1024
	return tokenMemory + docMemory
}

// BulkReindex rebuilds the token index through the bulk pipeline. Stored
// documents keep their internal IDs; only postings are rebuilt.
func (s *Service) BulkReindex(config BulkIndexingConfig) error {
	log.Printf("Starting bulk reindex operation")
	start := time.Now()

	// Extract all documents efficiently
	s.documentStore.Mu.RLock()
	docs := make([]model.Document, 0, len(s.documentStore.Docs))
	for _, doc := range s.documentStore.Docs {
		docs = append(docs, doc)
	}
	s.documentStore.Mu.RUnlock()

	if len(docs) == 0 {
		log.Printf("No documents to reindex")
		return nil
	}

	log.Printf("Extracted %d documents for reindexing", len(docs))

	s.tokenIndex.Clear()

	// Re-add through the bulk pipeline; existing ID mappings are reused
	bulkIndexer := NewBulkIndexer(s, config)
	if err := bulkIndexer.BulkUpsertDocuments(docs); err != nil {
		return fmt.Errorf("bulk reindex failed: %w", err)
	}

	duration := time.Since(start)
	log.Printf("Bulk reindex completed: %d documents in %v (%.2f docs/sec)",
		len(docs), duration, float64(len(docs))/duration.Seconds())

	return nil
}
