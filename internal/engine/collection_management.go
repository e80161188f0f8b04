package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/internal/persistence"
	"github.com/codethatfits/phrasematch/services"
)

// CreateCollection creates a new collection with the given settings and
// persists it.
func (e *Engine) CreateCollection(settings config.CollectionSettings) error {
	settings.ApplyDefaults()
	if conflicts := settings.Validate(); len(conflicts) > 0 {
		return errors.NewValidationError("settings", strings.Join(conflicts, "; "))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.collections[settings.Name]; exists {
		return errors.NewCollectionAlreadyExistsError(settings.Name)
	}

	// Create in-memory instance first
	instance, err := NewCollectionInstance(settings)
	if err != nil {
		return fmt.Errorf("failed to create new collection instance for '%s': %w", settings.Name, err)
	}

	if err := e.wireInstanceServices(instance); err != nil {
		return err
	}

	// Persist the initial state
	if err := e.persistCollectionUnsafe(settings.Name, settings, instance); err != nil {
		return fmt.Errorf("failed to persist new collection '%s': %w", settings.Name, err)
	}

	e.collections[settings.Name] = instance
	log.Printf("Collection '%s' created and persisted.", settings.Name)
	return nil
}

// GetCollection retrieves a collection by its name.
func (e *Engine) GetCollection(name string) (services.CollectionAccessor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.collections[name]
	if !exists {
		return nil, errors.NewCollectionNotFoundError(name)
	}
	return instance, nil
}

// GetCollectionSettings retrieves the settings for a specific collection.
func (e *Engine) GetCollectionSettings(name string) (config.CollectionSettings, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.collections[name]
	if !exists {
		return config.CollectionSettings{}, errors.NewCollectionNotFoundError(name)
	}
	return *instance.settings, nil // Return a copy
}

// UpdateCollectionSettings updates the settings for an existing collection
// and persists them. The collection name itself cannot change.
func (e *Engine) UpdateCollectionSettings(name string, newSettings config.CollectionSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	instance, exists := e.collections[name]
	if !exists {
		return errors.NewCollectionNotFoundError(name)
	}

	if newSettings.Name != "" && newSettings.Name != name {
		return errors.NewValidationError("name", fmt.Sprintf("cannot change collection name from '%s' to '%s' during settings update", name, newSettings.Name))
	}
	newSettings.Name = name

	newSettings.ApplyDefaults()
	if conflicts := newSettings.Validate(); len(conflicts) > 0 {
		return errors.NewValidationError("settings", strings.Join(conflicts, "; "))
	}

	// Discovery and scrub share the settings pointer, so the update is
	// visible to them immediately. Marker prefixes and the snippet radius
	// apply on the next scan; the token index never needs rebuilding.
	*instance.settings = newSettings

	settingsPath := filepath.Join(e.dataDir, name, settingsFile)
	if err := persistence.SaveGob(settingsPath, newSettings); err != nil {
		log.Printf("CRITICAL: Failed to persist updated settings for collection '%s'. In-memory settings updated, but disk is stale: %v", name, err)
		return fmt.Errorf("failed to save updated settings for collection '%s': %w", name, err)
	}

	log.Printf("Settings for collection '%s' updated and persisted.", name)
	return nil
}

// DeleteCollection removes a collection by its name from memory and disk,
// along with its cached scan results and recorded revisions.
func (e *Engine) DeleteCollection(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.collections[name]; !exists {
		return errors.NewCollectionNotFoundError(name)
	}

	// Remove from memory
	delete(e.collections, name)

	// Remove from disk
	collectionPath := filepath.Join(e.dataDir, name)
	if err := os.RemoveAll(collectionPath); err != nil {
		return fmt.Errorf("failed to remove collection directory %s: %w", collectionPath, err)
	}

	e.resultCache.PurgeCollection(name)
	if err := e.revisionStore.DeleteByCollection(name); err != nil {
		log.Printf("Warning: Failed to delete revisions for collection '%s': %v", name, err)
	}

	log.Printf("Collection '%s' deleted from memory and disk.", name)
	return nil
}

// ListCollections returns the names of all loaded collections, sorted.
func (e *Engine) ListCollections() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.collections))
	for name := range e.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
