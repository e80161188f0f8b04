package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/internal/persistence"
	"github.com/codethatfits/phrasematch/model"
)

const (
	dataDirPerm       = 0750
	settingsFile      = "settings.gob"
	tokenIndexFile    = "token_index.gob"
	documentStoreFile = "document_store.gob"
)

// loadCollectionsFromDisk loads all collections from the data directory.
func (e *Engine) loadCollectionsFromDisk() {
	log.Printf("Loading collections from disk: %s", e.dataDir)

	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		log.Printf("Warning: Failed to read data directory %s: %v. No collections loaded.", e.dataDir, err)
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		name := item.Name()
		collectionPath := filepath.Join(e.dataDir, name)

		var settings config.CollectionSettings
		settingsPath := filepath.Join(collectionPath, settingsFile)
		if err := persistence.LoadGob(settingsPath, &settings); err != nil {
			if err == os.ErrNotExist {
				// A directory without a settings file is not a collection.
				continue
			}
			log.Printf("Warning: Failed to load settings for collection %s from %s: %v. Skipping this collection.", name, settingsPath, err)
			continue
		}

		// Settings name must match the directory name
		if settings.Name != name {
			log.Printf("Warning: Collection name in settings ('%s') does not match directory name ('%s') for path %s. Skipping this collection.", settings.Name, name, collectionPath)
			continue
		}
		settings.ApplyDefaults()

		instance, err := NewCollectionInstance(settings)
		if err != nil {
			log.Printf("Error creating instance for loaded collection %s: %v. Skipping.", name, err)
			continue
		}

		dsPath := filepath.Join(collectionPath, documentStoreFile)
		if err := persistence.LoadGob(dsPath, instance.DocumentStore); err != nil && err != os.ErrNotExist {
			log.Printf("Warning: Failed to load document store for collection %s from %s: %v. Proceeding with empty store.", name, dsPath, err)
		} else if err == os.ErrNotExist {
			log.Printf("Info: Document store file %s not found for collection %s. Starting with empty store.", dsPath, name)
		}

		tiPath := filepath.Join(collectionPath, tokenIndexFile)
		if err := persistence.LoadGob(tiPath, instance.TokenIndex); err != nil && err != os.ErrNotExist {
			log.Printf("Warning: Failed to load token index for collection %s from %s: %v. Rebuilding from documents.", name, tiPath, err)
			e.rebuildTokenIndex(name, instance)
		} else if err == os.ErrNotExist {
			log.Printf("Info: Token index file %s not found for collection %s. Rebuilding from documents.", tiPath, name)
			e.rebuildTokenIndex(name, instance)
		}

		if err := e.wireInstanceServices(instance); err != nil {
			log.Printf("Error wiring services for loaded collection %s: %v. Skipping.", name, err)
			continue
		}

		e.collections[name] = instance
		log.Printf("Successfully loaded collection: %s (%d documents)", name, instance.DocumentStore.Count())
	}
}

// rebuildTokenIndex regenerates postings from the loaded documents. A stale
// or missing token index only costs scan pruning, never correctness, so a
// rebuild failure downgrades to a warning.
func (e *Engine) rebuildTokenIndex(name string, instance *CollectionInstance) {
	if instance.DocumentStore.Count() == 0 {
		return
	}
	if err := instance.indexer.ReindexAll(); err != nil {
		log.Printf("Warning: Failed to rebuild token index for collection %s: %v. Scans fall back to full verification.", name, err)
	}
}

// PersistCollectionData persists the data for a specific collection to disk.
func (e *Engine) PersistCollectionData(name string) error {
	e.mu.RLock()
	instance, exists := e.collections[name]
	e.mu.RUnlock()

	if !exists {
		return fmt.Errorf("cannot persist: collection '%s' not found", name)
	}

	return e.persistCollectionUnsafe(name, *instance.settings, instance)
}

// persistCollectionUnsafe persists a collection instance to disk.
// This method assumes the caller has appropriate locking.
func (e *Engine) persistCollectionUnsafe(name string, settings config.CollectionSettings, instance *CollectionInstance) error {
	collectionPath := filepath.Join(e.dataDir, name)
	if err := os.MkdirAll(collectionPath, dataDirPerm); err != nil {
		return fmt.Errorf("failed to create directory for collection %s: %w", name, err)
	}

	if err := persistence.SaveGob(filepath.Join(collectionPath, settingsFile), settings); err != nil {
		return fmt.Errorf("failed to save settings for collection %s: %w", name, err)
	}
	if err := persistence.SaveGob(filepath.Join(collectionPath, tokenIndexFile), instance.TokenIndex); err != nil {
		return fmt.Errorf("failed to save token index for collection %s: %w", name, err)
	}
	if err := persistence.SaveGob(filepath.Join(collectionPath, documentStoreFile), instance.DocumentStore); err != nil {
		return fmt.Errorf("failed to save document store for collection %s: %w", name, err)
	}

	return nil
}

// extractAllDocumentsUnsafe extracts all documents from a collection instance.
// This method assumes the caller has appropriate locking.
func (e *Engine) extractAllDocumentsUnsafe(instance *CollectionInstance) []model.Document {
	return instance.DocumentStore.List(0, 0)
}
