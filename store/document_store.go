package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codethatfits/phrasematch/model"
)

// DocumentStore holds a collection's documents in memory. External IDs are
// the caller-facing document identifiers; internal uint32 IDs key the token
// index postings. Generation counts writes and is the cache invalidation
// signal: any upsert, delete, or clear bumps it.
type DocumentStore struct {
	Mu                     sync.RWMutex
	Docs                   map[uint32]model.Document // Internal ID to full document
	ExternalIDtoInternalID map[string]uint32         // User-provided ID to internal uint32 ID
	NextID                 uint32
	Generation             uint64
}

// NewDocumentStore returns an empty store ready for use.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		Docs:                   make(map[uint32]model.Document),
		ExternalIDtoInternalID: make(map[string]uint32),
		NextID:                 1,
	}
}

// Upsert stores the document under its external ID, preserving the internal
// ID on update, and returns the internal ID plus whether the document was
// newly created. UpdatedAt is stamped here.
func (ds *DocumentStore) Upsert(doc model.Document) (uint32, bool) {
	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	doc.UpdatedAt = time.Now()
	if doc.Format == "" {
		doc.Format = model.FormatHTML
	}

	if internalID, exists := ds.ExternalIDtoInternalID[doc.ID]; exists {
		ds.Docs[internalID] = doc
		ds.Generation++
		return internalID, false
	}

	internalID := ds.NextID
	ds.NextID++
	ds.Docs[internalID] = doc
	ds.ExternalIDtoInternalID[doc.ID] = internalID
	ds.Generation++
	return internalID, true
}

// GetByExternalID returns the document stored under the external ID.
func (ds *DocumentStore) GetByExternalID(externalID string) (model.Document, bool) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	internalID, exists := ds.ExternalIDtoInternalID[externalID]
	if !exists {
		return model.Document{}, false
	}
	doc, ok := ds.Docs[internalID]
	return doc, ok
}

// GetByInternalID returns the document stored under the internal ID.
func (ds *DocumentStore) GetByInternalID(internalID uint32) (model.Document, bool) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	doc, ok := ds.Docs[internalID]
	return doc, ok
}

// InternalID resolves an external ID without returning the document.
func (ds *DocumentStore) InternalID(externalID string) (uint32, bool) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	internalID, exists := ds.ExternalIDtoInternalID[externalID]
	return internalID, exists
}

// Delete removes the document stored under the external ID and returns its
// internal ID for posting cleanup.
func (ds *DocumentStore) Delete(externalID string) (uint32, bool) {
	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	internalID, exists := ds.ExternalIDtoInternalID[externalID]
	if !exists {
		return 0, false
	}
	delete(ds.Docs, internalID)
	delete(ds.ExternalIDtoInternalID, externalID)
	ds.Generation++
	return internalID, true
}

// Clear drops every document but keeps the ID counter, so internal IDs are
// never reused within a collection's lifetime.
func (ds *DocumentStore) Clear() int {
	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	n := len(ds.Docs)
	ds.Docs = make(map[uint32]model.Document)
	ds.ExternalIDtoInternalID = make(map[string]uint32)
	ds.Generation++
	return n
}

// List returns documents ordered by external ID, sliced by offset/limit.
// A limit of 0 means no limit.
func (ds *DocumentStore) List(offset, limit int) []model.Document {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	docs := make([]model.Document, 0, len(ds.Docs))
	for _, doc := range ds.Docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	if offset >= len(docs) {
		return []model.Document{}
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

// Count returns the number of stored documents.
func (ds *DocumentStore) Count() int {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	return len(ds.Docs)
}

// CurrentGeneration returns the write-generation counter.
func (ds *DocumentStore) CurrentGeneration() uint64 {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	return ds.Generation
}

// gobDocumentStoreData is a helper struct for Gob encoding/decoding
// DocumentStore data. It excludes the mutex.
type gobDocumentStoreData struct {
	Docs                   map[uint32]model.Document
	ExternalIDtoInternalID map[string]uint32
	NextID                 uint32
	Generation             uint64
}

// GobEncode implements the gob.GobEncoder interface for DocumentStore.
func (ds *DocumentStore) GobEncode() ([]byte, error) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	dataToEncode := gobDocumentStoreData{
		Docs:                   ds.Docs,
		ExternalIDtoInternalID: ds.ExternalIDtoInternalID,
		NextID:                 ds.NextID,
		Generation:             ds.Generation,
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, fmt.Errorf("failed to gob encode document store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for DocumentStore.
func (ds *DocumentStore) GobDecode(data []byte) error {
	decodedData := gobDocumentStoreData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return fmt.Errorf("failed to gob decode document store data: %w", err)
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	ds.Docs = decodedData.Docs
	ds.ExternalIDtoInternalID = decodedData.ExternalIDtoInternalID
	ds.NextID = decodedData.NextID
	ds.Generation = decodedData.Generation

	// Ensure maps are initialized if they were nil after decoding
	if ds.Docs == nil {
		ds.Docs = make(map[uint32]model.Document)
	}
	if ds.ExternalIDtoInternalID == nil {
		ds.ExternalIDtoInternalID = make(map[string]uint32)
	}
	if ds.NextID == 0 {
		ds.NextID = 1
	}

	return nil
}
