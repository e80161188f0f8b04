package engine

import (
	"fmt"
	"time"

	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/index"
	"github.com/codethatfits/phrasematch/internal/audit"
	"github.com/codethatfits/phrasematch/internal/discovery"
	"github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/internal/indexing"
	"github.com/codethatfits/phrasematch/internal/scrub"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
	"github.com/codethatfits/phrasematch/store"
)

const defaultListPageSize = 10

// CollectionInstance holds all components and services for a single collection.
// It implements the services.CollectionAccessor interface.
type CollectionInstance struct {
	settings      *config.CollectionSettings
	TokenIndex    *index.TokenIndex
	DocumentStore *store.DocumentStore
	indexer       *indexing.Service
	discoverer    *discovery.Service
	scrubber      *scrub.Service
	auditor       *audit.Service
}

// NewCollectionInstance creates and initializes a new CollectionInstance.
// The discovery and scrub services are wired in by the engine afterwards,
// because they depend on engine-owned shared state.
func NewCollectionInstance(settings config.CollectionSettings) (*CollectionInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("collection name cannot be empty in settings")
	}

	docStore := store.NewDocumentStore()
	tokenIndex := index.NewTokenIndex()

	indexerService, err := indexing.NewService(tokenIndex, docStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}

	return &CollectionInstance{
		settings:      &settings,
		TokenIndex:    tokenIndex,
		DocumentStore: docStore,
		indexer:       indexerService,
	}, nil
}

// UpsertDocuments delegates to the underlying indexer service.
// This satisfies a part of the services.CollectionAccessor interface.
func (c *CollectionInstance) UpsertDocuments(docs []model.Document) error {
	if c.indexer == nil {
		return fmt.Errorf("indexer service not initialized for collection '%s'", c.settings.Name)
	}
	return c.indexer.UpsertDocuments(docs)
}

// GetDocument returns a document by its external ID.
// This satisfies a part of the services.CollectionAccessor interface.
func (c *CollectionInstance) GetDocument(docID string) (model.Document, error) {
	doc, exists := c.DocumentStore.GetByExternalID(docID)
	if !exists {
		return model.Document{}, errors.NewDocumentNotFoundError(docID, c.settings.Name)
	}
	return doc, nil
}

// ListDocuments returns one page of documents ordered by external ID,
// along with the total document count.
// This satisfies a part of the services.CollectionAccessor interface.
func (c *CollectionInstance) ListDocuments(page, pageSize int) ([]model.Document, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultListPageSize
	}

	docs := c.DocumentStore.List((page-1)*pageSize, pageSize)
	return docs, c.DocumentStore.Count(), nil
}

// DeleteAllDocuments delegates to the underlying indexer service.
// This satisfies a part of the services.CollectionAccessor interface.
func (c *CollectionInstance) DeleteAllDocuments() error {
	if c.indexer == nil {
		return fmt.Errorf("indexer service not initialized for collection '%s'", c.settings.Name)
	}
	return c.indexer.DeleteAllDocuments()
}

// DeleteDocument delegates to the underlying indexer service.
// This satisfies a part of the services.CollectionAccessor interface.
func (c *CollectionInstance) DeleteDocument(docID string) error {
	if c.indexer == nil {
		return fmt.Errorf("indexer service not initialized for collection '%s'", c.settings.Name)
	}
	return c.indexer.DeleteDocument(docID)
}

// Find delegates to the underlying discovery service and tracks the scan
// for audit metrics.
// This satisfies a part of the services.CollectionAccessor interface.
func (c *CollectionInstance) Find(query services.FindQuery) (services.FindResult, error) {
	if c.discoverer == nil {
		return services.FindResult{}, fmt.Errorf("discovery service not initialized for collection '%s'", c.settings.Name)
	}

	startTime := time.Now()
	result, err := c.discoverer.Find(query)
	if err != nil {
		return result, err
	}

	if c.auditor != nil {
		c.auditor.TrackScan(model.ScanEvent{
			Collection:  c.settings.Name,
			Phrase:      query.Phrase,
			DocsMatched: result.Total,
			Occurrences: result.TotalOccurrences,
			Duration:    time.Since(startTime),
		})
	}
	return result, nil
}

// Execute delegates to the underlying scrub service.
// This satisfies a part of the services.CollectionAccessor interface.
func (c *CollectionInstance) Execute(req services.ScrubRequest) (*services.ScrubResult, error) {
	if c.scrubber == nil {
		return nil, fmt.Errorf("scrub service not initialized for collection '%s'", c.settings.Name)
	}
	return c.scrubber.Execute(req)
}

// Settings returns the configuration settings for this collection.
// This satisfies a part of the services.CollectionAccessor interface.
func (c *CollectionInstance) Settings() config.CollectionSettings {
	return *c.settings
}
