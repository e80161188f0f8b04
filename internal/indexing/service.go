package indexing

import (
	"fmt"
	"strings"
	"time"

	"github.com/codethatfits/phrasematch/index"
	"github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/internal/tokenizer"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/store"
)

// scannableFields are the document fields that feed the token index.
var scannableFields = [2]model.FieldKind{model.FieldTitle, model.FieldContent}

// Service implements the indexing logic for a single collection.
// It fulfills the services.DocumentIndexer interface.
type Service struct {
	tokenIndex    *index.TokenIndex
	documentStore *store.DocumentStore
}

// NewService creates a new indexing Service.
// It assumes that tokenIndex and documentStore are properly initialized.
func NewService(tokenIndex *index.TokenIndex, documentStore *store.DocumentStore) (*Service, error) {
	if tokenIndex == nil {
		return nil, fmt.Errorf("token index cannot be nil")
	}
	if documentStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if tokenIndex.Index == nil {
		// Initialize the map if it's nil to prevent panics later
		tokenIndex.Index = make(map[string]index.PostingList)
	}
	if documentStore.Docs == nil {
		documentStore.Docs = make(map[uint32]model.Document)
	}
	if documentStore.ExternalIDtoInternalID == nil {
		documentStore.ExternalIDtoInternalID = make(map[string]uint32)
	}
	return &Service{
		tokenIndex:    tokenIndex,
		documentStore: documentStore,
	}, nil
}

// UpsertDocuments adds or replaces a batch of documents.
// This satisfies the services.DocumentIndexer interface.
func (s *Service) UpsertDocuments(docs []model.Document) error {
	// Process documents in micro-batches to minimize lock contention and allow scan operations to interleave
	const microBatchSize = 10 // Very small batches to minimize lock hold time

	for i := 0; i < len(docs); i += microBatchSize {
		end := i + microBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		microBatch := docs[i:end]
		if err := s.upsertMicroBatch(microBatch); err != nil {
			return fmt.Errorf("failed to upsert document micro-batch starting at index %d: %w", i, err)
		}

		// Yield to allow scan operations to proceed between micro-batches
		// This prevents scan starvation during large indexing operations
		if i+microBatchSize < len(docs) {
			// Small delay to allow pending read operations to acquire locks
			// This is a cooperative scheduling approach
			time.Sleep(1 * time.Millisecond)
		}
	}
	return nil
}

// upsertMicroBatch processes a very small batch of documents.
func (s *Service) upsertMicroBatch(docs []model.Document) error {
	for _, doc := range docs {
		if err := s.upsertDocument(doc); err != nil {
			// Return on first error
			return fmt.Errorf("failed to upsert document ID %q: %w", doc.ID, err)
		}
	}
	return nil
}

// upsertDocument stores one document and updates its postings.
//
// New postings go in before stale ones come out, so at every instant each
// token of the stored document has a posting. A scan racing the upsert may
// see the previous corpus, never a document whose tokens are missing from
// the index.
func (s *Service) upsertDocument(doc model.Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		return errors.NewValidationError("id", "cannot be empty or whitespace-only")
	}
	doc.ID = strings.TrimSpace(doc.ID)

	oldDoc, isUpdate := s.documentStore.GetByExternalID(doc.ID)

	newTokens := make(map[model.FieldKind]map[string]struct{}, len(scannableFields))
	for _, field := range scannableFields {
		tokens := make(map[string]struct{})
		for _, token := range tokenizer.UniqueTokens(doc.FieldText(field)) {
			tokens[token] = struct{}{}
		}
		newTokens[field] = tokens
	}

	internalID, _ := s.documentStore.Upsert(doc)

	for _, field := range scannableFields {
		for token := range newTokens[field] {
			s.tokenIndex.Add(token, index.PostingEntry{DocID: internalID, Field: field})
		}
	}

	// Drop postings the previous version held but the new one no longer does.
	if isUpdate {
		for _, field := range scannableFields {
			for _, token := range tokenizer.UniqueTokens(oldDoc.FieldText(field)) {
				if _, stillThere := newTokens[field][token]; stillThere {
					continue
				}
				s.tokenIndex.Remove(token, index.PostingEntry{DocID: internalID, Field: field})
			}
		}
	}
	return nil
}

// DeleteAllDocuments removes every document, clearing both the document
// store and the token index.
// This satisfies the services.DocumentIndexer interface.
func (s *Service) DeleteAllDocuments() error {
	s.documentStore.Clear()
	s.tokenIndex.Clear()
	return nil
}

// DeleteDocument removes a specific document by its external ID.
// This satisfies the services.DocumentIndexer interface.
func (s *Service) DeleteDocument(docID string) error {
	// The document leaves the store before its postings leave the index, so
	// a racing scan sees at worst a candidate that verification drops.
	internalID, exists := s.documentStore.Delete(docID)
	if !exists {
		return errors.NewDocumentNotFoundError(docID)
	}
	s.tokenIndex.RemoveDocument(internalID)
	return nil
}

// ReindexAll rebuilds the token index from the stored documents. Documents
// themselves are untouched; internal IDs are preserved.
func (s *Service) ReindexAll() error {
	const microBatchSize = 10

	docs := s.documentStore.List(0, 0)
	s.tokenIndex.Clear()

	for i := 0; i < len(docs); i += microBatchSize {
		end := i + microBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		for _, doc := range docs[i:end] {
			internalID, ok := s.documentStore.InternalID(doc.ID)
			if !ok {
				continue // deleted while reindexing
			}
			for _, field := range scannableFields {
				for _, token := range tokenizer.UniqueTokens(doc.FieldText(field)) {
					s.tokenIndex.Add(token, index.PostingEntry{DocID: internalID, Field: field})
				}
			}
		}

		// Yield to allow scan operations to proceed between micro-batches
		if i+microBatchSize < len(docs) {
			time.Sleep(1 * time.Millisecond)
		}
	}
	return nil
}
