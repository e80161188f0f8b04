// Package scrub executes mutation passes against a collection: it feeds
// current document text through the mutator, persists what changed, and
// records one revision per modified document.
package scrub

import (
	"log"
	"sync"
	"time"

	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/internal/audit"
	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/internal/indexing"
	"github.com/codethatfits/phrasematch/internal/markup"
	"github.com/codethatfits/phrasematch/internal/mutator"
	"github.com/codethatfits/phrasematch/internal/revisions"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
	"github.com/codethatfits/phrasematch/store"
)

// PersistFunc writes the collection's in-memory state to disk.
type PersistFunc func() error

// ProgressFunc reports how many targets of a batch have been processed.
type ProgressFunc func(processed, total int)

// Service implements mutation passes for a single collection. It fulfills
// the services.Scrubber interface.
type Service struct {
	documentStore *store.DocumentStore
	indexer       *indexing.Service
	settings      *config.CollectionSettings
	revisionStore *revisions.Store
	auditService  *audit.Service
	persist       PersistFunc

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// NewService creates a scrub Service. revisionStore, auditService and persist
// may be nil; the corresponding step is skipped.
func NewService(docStore *store.DocumentStore, indexer *indexing.Service, settings *config.CollectionSettings, revisionStore *revisions.Store, auditService *audit.Service, persist PersistFunc) (*Service, error) {
	if docStore == nil {
		return nil, internalErrors.NewValidationError("document_store", "cannot be nil")
	}
	if indexer == nil {
		return nil, internalErrors.NewValidationError("indexer", "cannot be nil")
	}
	if settings == nil {
		return nil, internalErrors.NewValidationError("settings", "cannot be nil")
	}

	return &Service{
		documentStore: docStore,
		indexer:       indexer,
		settings:      settings,
		revisionStore: revisionStore,
		auditService:  auditService,
		persist:       persist,
		docLocks:      make(map[string]*sync.Mutex),
	}, nil
}

// Execute runs one mutation pass per target document. A failure on one
// document never aborts the rest of the batch.
func (s *Service) Execute(req services.ScrubRequest) (*services.ScrubResult, error) {
	return s.ExecuteWithProgress(req, nil)
}

// ExecuteWithProgress is Execute with a per-document progress callback, for
// long corpus scrubs running as jobs.
func (s *Service) ExecuteWithProgress(req services.ScrubRequest, progress ProgressFunc) (*services.ScrubResult, error) {
	startTime := time.Now()

	if req.Phrase == "" {
		return nil, internalErrors.NewValidationError("phrase", "cannot be empty")
	}

	result := &services.ScrubResult{
		Results: make([]services.DocumentScrubResult, 0, len(req.Targets)),
	}

	for i, target := range req.Targets {
		docResult := s.scrubDocument(req.Phrase, target)
		result.Results = append(result.Results, docResult)

		switch docResult.Outcome {
		case services.OutcomeApplied:
			result.DocsModified++
			result.Removed += docResult.Removed
			result.Replaced += docResult.Replaced
		case services.OutcomeNoChanges:
			result.DocsSkipped++
		case services.OutcomePersistFailed, services.OutcomeNotFound:
			result.DocsFailed++
		}

		if progress != nil {
			progress(i+1, len(req.Targets))
		}
	}

	if s.auditService != nil && len(req.Targets) > 0 {
		s.auditService.TrackScrub(model.ScrubEvent{
			Collection:   s.settings.Name,
			Phrase:       req.Phrase,
			DocsModified: result.DocsModified,
			DocsSkipped:  result.DocsSkipped,
			DocsFailed:   result.DocsFailed,
			Removed:      result.Removed,
			Replaced:     result.Replaced,
		})
	}

	result.Took = time.Since(startTime).Milliseconds()
	return result, nil
}

// scrubDocument runs the mutation pass for one document under its lock, so
// two passes against the same document are strictly serialized.
func (s *Service) scrubDocument(phrase string, target services.ScrubTarget) services.DocumentScrubResult {
	docResult := services.DocumentScrubResult{DocID: target.DocID}

	lock := s.lockFor(target.DocID)
	lock.Lock()
	defer lock.Unlock()

	doc, found := s.documentStore.GetByExternalID(target.DocID)
	if !found {
		docResult.Outcome = services.OutcomeNotFound
		docResult.Error = internalErrors.NewDocumentNotFoundError(target.DocID, s.settings.Name).Error()
		return docResult
	}

	markers := markup.Markers{
		StartPrefix: s.settings.BlockMarkerStart,
		EndPrefix:   s.settings.BlockMarkerEnd,
	}

	applied := mutator.Apply(doc.Title, doc.Content, phrase, target.Requests, markers)
	if !applied.Modified() {
		docResult.Outcome = services.OutcomeNoChanges
		return docResult
	}

	docResult.Removed = applied.Removed
	docResult.Replaced = applied.Replaced

	updated := doc
	updated.Title = applied.Title
	updated.Content = applied.Content

	// Upsert reindexes the document and bumps the store generation, which
	// invalidates every cached result for the collection.
	if err := s.indexer.UpsertDocuments([]model.Document{updated}); err != nil {
		docResult.Outcome = services.OutcomePersistFailed
		docResult.Error = err.Error()
		return docResult
	}

	if s.persist != nil {
		if err := s.persist(); err != nil {
			docResult.Outcome = services.OutcomePersistFailed
			docResult.Error = err.Error()
			return docResult
		}
	}

	if s.revisionStore != nil {
		rev := model.Revision{
			Collection:    s.settings.Name,
			DocID:         doc.ID,
			Phrase:        phrase,
			TitleBefore:   doc.Title,
			TitleAfter:    updated.Title,
			ContentBefore: doc.Content,
			ContentAfter:  updated.Content,
			Removed:       applied.Removed,
			Replaced:      applied.Replaced,
		}
		if err := s.revisionStore.Record(&rev); err != nil {
			log.Printf("Warning: Failed to record revision for document '%s': %v", doc.ID, err)
		} else {
			docResult.RevisionID = rev.ID
		}
	}

	docResult.Outcome = services.OutcomeApplied
	return docResult
}

// lockFor returns the mutex serializing passes for one document ID.
func (s *Service) lockFor(docID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.docLocks[docID]
	if !ok {
		lock = &sync.Mutex{}
		s.docLocks[docID] = lock
	}
	return lock
}

// BuildRequests turns scanned occurrences into mutation requests, using the
// policy mode and replacement when given and text_only removal otherwise.
func BuildRequests(occurrences []model.Occurrence, mode model.RemovalMode, replacement string) []model.MutationRequest {
	if mode == "" {
		mode = model.ModeTextOnly
	}
	requests := make([]model.MutationRequest, 0, len(occurrences))
	for _, occ := range occurrences {
		requests = append(requests, model.MutationRequest{
			Offset:      occ.Offset,
			Field:       occ.Field,
			Mode:        mode,
			Replacement: replacement,
		})
	}
	return requests
}
