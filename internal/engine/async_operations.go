package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/internal/indexing"
	"github.com/codethatfits/phrasematch/internal/scrub"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
)

// bulkIndexingThreshold is the document count above which async jobs switch
// from the plain indexer to the parallel bulk pipeline.
const bulkIndexingThreshold = 500

// UpsertDocumentsAsync adds or replaces documents in a collection asynchronously.
func (e *Engine) UpsertDocumentsAsync(collectionName string, docs []model.Document) (string, error) {
	e.mu.RLock()
	_, exists := e.collections[collectionName]
	e.mu.RUnlock()
	if !exists {
		return "", errors.NewCollectionNotFoundError(collectionName)
	}

	jobID := e.jobManager.CreateJob(model.JobTypeUpsertDocuments, collectionName, map[string]string{
		"operation":      "upsert_documents",
		"document_count": fmt.Sprintf("%d", len(docs)),
	})

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.executeUpsertDocumentsJob(ctx, collectionName, docs, jobID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start upsert documents job: %w", err)
	}

	return jobID, nil
}

// executeUpsertDocumentsJob executes the upsert documents job.
func (e *Engine) executeUpsertDocumentsJob(_ context.Context, name string, docs []model.Document, jobID string) error {
	e.mu.RLock()
	instance, exists := e.collections[name]
	e.mu.RUnlock()

	if !exists {
		return errors.NewCollectionNotFoundError(name)
	}

	e.jobManager.UpdateJobProgress(jobID, 0, len(docs), "Starting document upsert")

	if len(docs) >= bulkIndexingThreshold {
		bulkConfig := indexing.DefaultBulkIndexingConfig()
		bulkConfig.ProgressCallback = func(processed, total int, message string) {
			e.jobManager.UpdateJobProgress(jobID, processed, total, message)
		}
		bulkIndexer := indexing.NewBulkIndexer(instance.indexer, bulkConfig)
		if err := bulkIndexer.BulkUpsertDocuments(docs); err != nil {
			return fmt.Errorf("failed to bulk upsert documents into collection '%s': %w", name, err)
		}
	} else {
		if err := instance.UpsertDocuments(docs); err != nil {
			return fmt.Errorf("failed to upsert documents into collection '%s': %w", name, err)
		}
	}

	e.jobManager.UpdateJobProgress(jobID, len(docs), len(docs), "Documents upserted successfully")

	if err := e.PersistCollectionData(name); err != nil {
		return fmt.Errorf("failed to persist updated collection '%s': %w", name, err)
	}

	log.Printf("Upserted %d documents into collection '%s' (async).", len(docs), name)
	return nil
}

// DeleteAllDocumentsAsync deletes all documents from a collection asynchronously.
func (e *Engine) DeleteAllDocumentsAsync(collectionName string) (string, error) {
	e.mu.RLock()
	_, exists := e.collections[collectionName]
	e.mu.RUnlock()
	if !exists {
		return "", errors.NewCollectionNotFoundError(collectionName)
	}

	jobID := e.jobManager.CreateJob(model.JobTypeDeleteAllDocs, collectionName, map[string]string{
		"operation": "delete_all_documents",
	})

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.executeDeleteAllDocumentsJob(ctx, collectionName, jobID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start delete all documents job: %w", err)
	}

	return jobID, nil
}

// executeDeleteAllDocumentsJob executes the delete all documents job.
func (e *Engine) executeDeleteAllDocumentsJob(_ context.Context, name string, _ string) error {
	e.mu.RLock()
	instance, exists := e.collections[name]
	e.mu.RUnlock()

	if !exists {
		return errors.NewCollectionNotFoundError(name)
	}

	if err := instance.DeleteAllDocuments(); err != nil {
		return fmt.Errorf("failed to delete all documents from collection '%s': %w", name, err)
	}

	if err := e.PersistCollectionData(name); err != nil {
		return fmt.Errorf("failed to persist updated collection '%s': %w", name, err)
	}

	log.Printf("Deleted all documents from collection '%s' (async).", name)
	return nil
}

// DeleteDocumentAsync deletes a specific document from a collection asynchronously.
func (e *Engine) DeleteDocumentAsync(collectionName, documentID string) (string, error) {
	e.mu.RLock()
	_, exists := e.collections[collectionName]
	e.mu.RUnlock()
	if !exists {
		return "", errors.NewCollectionNotFoundError(collectionName)
	}

	jobID := e.jobManager.CreateJob(model.JobTypeDeleteDocument, collectionName, map[string]string{
		"operation":   "delete_document",
		"document_id": documentID,
	})

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.executeDeleteDocumentJob(ctx, collectionName, documentID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start delete document job: %w", err)
	}

	return jobID, nil
}

// executeDeleteDocumentJob executes the delete document job.
func (e *Engine) executeDeleteDocumentJob(_ context.Context, name, documentID string) error {
	e.mu.RLock()
	instance, exists := e.collections[name]
	e.mu.RUnlock()

	if !exists {
		return errors.NewCollectionNotFoundError(name)
	}

	if err := instance.DeleteDocument(documentID); err != nil {
		return fmt.Errorf("failed to delete document '%s' from collection '%s': %w", documentID, name, err)
	}

	if err := e.PersistCollectionData(name); err != nil {
		return fmt.Errorf("failed to persist updated collection '%s': %w", name, err)
	}

	log.Printf("Deleted document '%s' from collection '%s' (async).", documentID, name)
	return nil
}

// ScrubAllAsync scans a whole collection for a phrase and scrubs every
// verified occurrence asynchronously. An explicit mode or replacement takes
// precedence; otherwise, when an active policy covers the phrase, its removal
// mode and replacement apply, and failing that occurrences are removed as
// plain text.
func (e *Engine) ScrubAllAsync(collectionName, phrase string, mode model.RemovalMode, replacement string, docTypes, statuses []string) (string, error) {
	if phrase == "" {
		return "", errors.NewValidationError("phrase", "cannot be empty")
	}
	if mode != "" && !mode.Valid() {
		return "", errors.NewValidationError("mode", "unknown removal mode '"+string(mode)+"'")
	}

	e.mu.RLock()
	_, exists := e.collections[collectionName]
	e.mu.RUnlock()
	if !exists {
		return "", errors.NewCollectionNotFoundError(collectionName)
	}

	metadata := map[string]string{
		"operation": "corpus_scrub",
		"phrase":    phrase,
	}
	if mode != "" {
		metadata["mode"] = string(mode)
	}
	if replacement != "" {
		metadata["replacement"] = replacement
	}
	jobID := e.jobManager.CreateJob(model.JobTypeCorpusScrub, collectionName, metadata)

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.executeCorpusScrubJob(ctx, collectionName, phrase, mode, replacement, docTypes, statuses, jobID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start corpus scrub job: %w", err)
	}

	return jobID, nil
}

// executeCorpusScrubJob executes the corpus scrub job.
func (e *Engine) executeCorpusScrubJob(_ context.Context, name, phrase string, mode model.RemovalMode, replacement string, docTypes, statuses []string, jobID string) error {
	e.mu.RLock()
	instance, exists := e.collections[name]
	e.mu.RUnlock()

	if !exists {
		return errors.NewCollectionNotFoundError(name)
	}

	// Probe for the match count without tracking a scan event; the
	// follow-up full scan is the one that counts, and its candidate set
	// comes straight from the result cache.
	probe, err := instance.discoverer.Find(services.FindQuery{
		Phrase:   phrase,
		DocTypes: docTypes,
		Statuses: statuses,
		Page:     1,
		PageSize: 1,
	})
	if err != nil {
		return fmt.Errorf("corpus scan failed for collection '%s': %w", name, err)
	}
	if probe.Total == 0 {
		e.jobManager.UpdateJobProgress(jobID, 0, 0, "No documents matched")
		return nil
	}

	full, err := instance.Find(services.FindQuery{
		Phrase:   phrase,
		DocTypes: docTypes,
		Statuses: statuses,
		Page:     1,
		PageSize: probe.Total,
	})
	if err != nil {
		return fmt.Errorf("corpus scan failed for collection '%s': %w", name, err)
	}

	if mode == "" && replacement == "" {
		if policy, ok := e.policyStore.FindByPhrase(name, phrase); ok {
			mode = policy.Mode
			replacement = policy.Replacement
			log.Printf("Corpus scrub of '%s' uses policy '%s' (mode: %s)", name, policy.Name, policy.Mode)
		}
	}

	targets := make([]services.ScrubTarget, 0, len(full.Hits))
	for _, hit := range full.Hits {
		targets = append(targets, services.ScrubTarget{
			DocID:    hit.Document.ID,
			Requests: scrub.BuildRequests(hit.Occurrences, mode, replacement),
		})
	}

	e.jobManager.UpdateJobProgress(jobID, 0, len(targets), "Scrubbing matched documents")
	result, err := instance.scrubber.ExecuteWithProgress(services.ScrubRequest{Phrase: phrase, Targets: targets}, func(processed, total int) {
		e.jobManager.UpdateJobProgress(jobID, processed, total, "Scrubbing matched documents")
	})
	if err != nil {
		return fmt.Errorf("corpus scrub failed for collection '%s': %w", name, err)
	}

	e.jobManager.UpdateJobProgress(jobID, len(targets), len(targets),
		fmt.Sprintf("Scrubbed %d documents (%d removed, %d replaced, %d skipped, %d failed)",
			result.DocsModified, result.Removed, result.Replaced, result.DocsSkipped, result.DocsFailed))

	if result.DocsFailed > 0 {
		return fmt.Errorf("corpus scrub finished with %d failed documents", result.DocsFailed)
	}

	log.Printf("Corpus scrub of collection '%s' for phrase %q modified %d documents (async).", name, phrase, result.DocsModified)
	return nil
}

// ReindexCollectionAsync rebuilds a collection's token index asynchronously.
// Large collections go through the parallel bulk pipeline.
func (e *Engine) ReindexCollectionAsync(name string) (string, error) {
	e.mu.RLock()
	_, exists := e.collections[name]
	e.mu.RUnlock()
	if !exists {
		return "", errors.NewCollectionNotFoundError(name)
	}

	jobID := e.jobManager.CreateJob(model.JobTypeReindex, name, map[string]string{
		"operation": "reindex",
	})

	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return e.executeReindexJob(ctx, name, jobID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start reindex job: %w", err)
	}

	return jobID, nil
}

// executeReindexJob executes the reindex job.
func (e *Engine) executeReindexJob(_ context.Context, name, jobID string) error {
	e.mu.RLock()
	instance, exists := e.collections[name]
	e.mu.RUnlock()

	if !exists {
		return errors.NewCollectionNotFoundError(name)
	}

	docCount := instance.DocumentStore.Count()
	e.jobManager.UpdateJobProgress(jobID, 0, docCount, "Rebuilding token index")

	if docCount >= bulkIndexingThreshold {
		bulkConfig := indexing.DefaultBulkIndexingConfig()
		bulkConfig.ProgressCallback = func(processed, total int, message string) {
			e.jobManager.UpdateJobProgress(jobID, processed, total, message)
		}
		if err := instance.indexer.BulkReindex(bulkConfig); err != nil {
			return fmt.Errorf("failed to bulk reindex collection '%s': %w", name, err)
		}
	} else {
		if err := instance.indexer.ReindexAll(); err != nil {
			return fmt.Errorf("failed to reindex collection '%s': %w", name, err)
		}
	}

	e.jobManager.UpdateJobProgress(jobID, docCount, docCount, "Token index rebuilt")

	if err := e.PersistCollectionData(name); err != nil {
		return fmt.Errorf("failed to persist updated collection '%s': %w", name, err)
	}

	log.Printf("Reindexed collection '%s' (%d documents) (async).", name, docCount)
	return nil
}
