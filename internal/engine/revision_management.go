package engine

import (
	"fmt"
	"log"

	"github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/model"
)

// ListRevisions returns the recorded revisions for one document, newest
// first. A limit of 0 means no limit.
func (e *Engine) ListRevisions(collection, docID string, limit int) ([]model.Revision, error) {
	if _, err := e.GetCollection(collection); err != nil {
		return nil, err
	}
	return e.revisionStore.ListByDocument(collection, docID, limit)
}

// GetRevision returns one recorded revision.
func (e *Engine) GetRevision(collection, docID, revisionID string) (model.Revision, error) {
	if _, err := e.GetCollection(collection); err != nil {
		return model.Revision{}, err
	}
	return e.revisionStore.GetByID(collection, docID, revisionID)
}

// RestoreRevision rewinds a document to the texts captured before the given
// revision's scrub pass and returns the restored document. The restore is
// itself recorded as a new revision, so it can be undone the same way.
func (e *Engine) RestoreRevision(collection, docID, revisionID string) (model.Document, error) {
	e.mu.RLock()
	instance, exists := e.collections[collection]
	e.mu.RUnlock()
	if !exists {
		return model.Document{}, errors.NewCollectionNotFoundError(collection)
	}

	rev, err := e.revisionStore.GetByID(collection, docID, revisionID)
	if err != nil {
		return model.Document{}, err
	}

	doc, exists := instance.DocumentStore.GetByExternalID(docID)
	if !exists {
		return model.Document{}, errors.NewDocumentNotFoundError(docID, collection)
	}

	counter := model.Revision{
		Collection:    collection,
		DocID:         docID,
		Phrase:        rev.Phrase,
		TitleBefore:   doc.Title,
		TitleAfter:    rev.TitleBefore,
		ContentBefore: doc.Content,
		ContentAfter:  rev.ContentBefore,
	}

	doc.Title = rev.TitleBefore
	doc.Content = rev.ContentBefore

	if err := instance.UpsertDocuments([]model.Document{doc}); err != nil {
		return model.Document{}, fmt.Errorf("failed to restore document '%s' in collection '%s': %w", docID, collection, err)
	}
	if err := e.PersistCollectionData(collection); err != nil {
		return model.Document{}, fmt.Errorf("failed to persist restored document '%s': %w", docID, err)
	}

	if err := e.revisionStore.Record(&counter); err != nil {
		log.Printf("Warning: Failed to record restore revision for document '%s': %v", docID, err)
	}

	restored, _ := instance.DocumentStore.GetByExternalID(docID)
	log.Printf("Restored document '%s' in collection '%s' to the state before revision %s.", docID, collection, revisionID)
	return restored, nil
}
