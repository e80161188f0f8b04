package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codethatfits/phrasematch/config"
	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/services"
)

// CreateCollectionHandler handles the request to create a new collection.
// Request Body: config.CollectionSettings
func (api *API) CreateCollectionHandler(c *gin.Context) {
	var settings config.CollectionSettings

	// Validate JSON binding
	if result := ValidateJSONBinding(c, &settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	// Validate collection settings
	if result := ValidateCollectionSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.engine.CreateCollection(settings); err != nil {
		if errors.Is(err, internalErrors.ErrCollectionAlreadyExists) {
			SendCollectionExistsError(c, settings.Name)
			return
		}
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		SendInternalError(c, "create collection", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Collection '" + settings.Name + "' created successfully"})
}

// ListCollectionsHandler lists all available collections.
func (api *API) ListCollectionsHandler(c *gin.Context) {
	names := api.engine.ListCollections()
	c.JSON(http.StatusOK, gin.H{"collections": names, "count": len(names)})
}

// GetCollectionHandler retrieves details about a specific collection (its settings).
func (api *API) GetCollectionHandler(c *gin.Context) {
	collectionName := c.Param("name")

	settings, err := api.engine.GetCollectionSettings(collectionName)
	if err != nil {
		SendCollectionNotFoundError(c, collectionName)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// DeleteCollectionHandler handles deleting a collection.
func (api *API) DeleteCollectionHandler(c *gin.Context) {
	collectionName := c.Param("name")

	if err := api.engine.DeleteCollection(collectionName); err != nil {
		if errors.Is(err, internalErrors.ErrCollectionNotFound) {
			SendCollectionNotFoundError(c, collectionName)
			return
		}
		SendInternalError(c, "delete collection", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Collection '" + collectionName + "' deleted successfully"})
}

// UpdateCollectionSettingsHandler handles requests to update collection
// settings. Marker prefixes and the snippet radius are scan-time settings, so
// no update ever triggers a reindex.
func (api *API) UpdateCollectionSettingsHandler(c *gin.Context) {
	collectionName := c.Param("name")

	settings, err := api.engine.GetCollectionSettings(collectionName)
	if err != nil {
		SendCollectionNotFoundError(c, collectionName)
		return
	}

	// Read raw request first to check for key presence
	rawRequest := make(map[string]interface{})
	if err := c.ShouldBindJSON(&rawRequest); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	updated := false

	if fieldValue, keyExists := rawRequest["filterable_fields"]; keyExists {
		if fieldValue == nil {
			settings.FilterableFields = []string{}
		} else if fieldSlice, isSlice := fieldValue.([]interface{}); isSlice {
			stringSlice := make([]string, len(fieldSlice))
			for i, v := range fieldSlice {
				if str, isStr := v.(string); isStr {
					stringSlice[i] = str
				}
			}
			settings.FilterableFields = stringSlice
		}
		updated = true
	}

	if fieldValue, keyExists := rawRequest["block_marker_start"]; keyExists {
		if str, isStr := fieldValue.(string); isStr {
			settings.BlockMarkerStart = str
			updated = true
		}
	}

	if fieldValue, keyExists := rawRequest["block_marker_end"]; keyExists {
		if str, isStr := fieldValue.(string); isStr {
			settings.BlockMarkerEnd = str
			updated = true
		}
	}

	if fieldValue, keyExists := rawRequest["snippet_radius"]; keyExists {
		if num, isNum := fieldValue.(float64); isNum {
			settings.SnippetRadius = int(num)
			updated = true
		}
	}

	if !updated {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "No valid updatable fields provided")
		return
	}

	if conflicts := settings.Validate(); len(conflicts) > 0 {
		result := &ValidationResult{Valid: false}
		for _, conflict := range conflicts {
			result.AddError("settings", conflict)
		}
		SendValidationError(c, result)
		return
	}

	if err := api.engine.UpdateCollectionSettings(collectionName, settings); err != nil {
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		SendInternalError(c, "update collection settings", err)
		return
	}

	log.Printf("Updated settings for collection '%s' via API", collectionName)
	c.JSON(http.StatusOK, gin.H{
		"message": "Settings updated successfully for collection '" + collectionName + "'",
	})
}

// ReindexCollectionHandler rebuilds a collection's token index from its
// document store. Recovery path for postings that drifted from the documents.
func (api *API) ReindexCollectionHandler(c *gin.Context) {
	collectionName := c.Param("name")

	engineWithReindex, ok := api.engine.(services.CollectionManagerWithAsyncReindex)
	if !ok {
		SendNotSupportedError(c, "Async reindexing")
		return
	}

	jobID, err := engineWithReindex.ReindexCollectionAsync(collectionName)
	if err != nil {
		if errors.Is(err, internalErrors.ErrCollectionNotFound) {
			SendCollectionNotFoundError(c, collectionName)
			return
		}
		SendJobExecutionError(c, "reindex", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Reindex started for collection '" + collectionName + "'",
		"job_id":  jobID,
	})
}
