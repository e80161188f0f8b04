// Package api provides validation utilities for API request handling.
package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/model"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateCollectionName validates a collection name parameter
func ValidateCollectionName(collectionName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if collectionName == "" {
		result.AddError("collectionName", "Collection name is required")
		return result
	}

	if strings.TrimSpace(collectionName) != collectionName {
		result.AddError("collectionName", "Collection name cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateDocumentID validates a document ID
func ValidateDocumentID(documentID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if documentID == "" {
		result.AddError("documentID", "Document ID is required")
		return result
	}

	if strings.TrimSpace(documentID) != documentID {
		result.AddError("documentID", "Document ID cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidatePhrase validates a scan or scrub phrase
func ValidatePhrase(phrase string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if strings.TrimSpace(phrase) == "" {
		result.AddError("phrase", "Phrase is required and cannot be empty or whitespace-only")
	}

	return result
}

// ValidateRemovalMode validates a removal mode string. An empty mode is
// allowed and means text_only.
func ValidateRemovalMode(mode string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if mode != "" && !model.RemovalMode(mode).Valid() {
		result.AddError("mode", "Unknown removal mode '"+mode+"' (expected text_only, inline_markup or block_wrapper)")
	}

	return result
}

// ValidateCollectionSettings validates collection settings for creation
func ValidateCollectionSettings(settings *config.CollectionSettings) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if settings == nil {
		result.AddError("settings", "Collection settings are required")
		return result
	}

	if settings.Name == "" {
		result.AddError("name", "Collection name is required")
	}

	// Apply defaults before validation
	settings.ApplyDefaults()

	if conflicts := settings.Validate(); len(conflicts) > 0 {
		for _, conflict := range conflicts {
			result.AddError("settings", conflict)
		}
	}

	return result
}

// ValidateDocuments validates a slice of documents for upsert
func ValidateDocuments(docs []model.Document) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(docs) == 0 {
		result.AddError("documents", "No documents provided")
		return result
	}

	for i, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			result.AddError(fmt.Sprintf("documents[%d].id", i), "Document ID cannot be empty or whitespace-only")
			continue
		}
		if strings.TrimSpace(doc.ID) != doc.ID {
			result.AddError(fmt.Sprintf("documents[%d].id", i), "Document ID cannot have leading or trailing whitespace")
		}
	}

	return result
}

// ValidateScrubTargets validates the per-document mutation requests of a
// scrub batch: known fields, known modes, non-negative offsets.
func ValidateScrubTargets(targets []ScrubTargetRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(targets) == 0 {
		result.AddError("targets", "No scrub targets provided")
		return result
	}

	for i, target := range targets {
		if strings.TrimSpace(target.DocID) == "" {
			result.AddError(fmt.Sprintf("targets[%d].doc_id", i), "Document ID cannot be empty")
		}
		for j, req := range target.Requests {
			prefix := fmt.Sprintf("targets[%d].requests[%d]", i, j)
			if req.Offset < 0 {
				result.AddError(prefix+".offset", "Offset cannot be negative")
			}
			if !model.FieldKind(req.Field).Valid() {
				result.AddError(prefix+".field", "Unknown field '"+req.Field+"' (expected title or content)")
			}
			if req.Mode != "" && !model.RemovalMode(req.Mode).Valid() {
				result.AddError(prefix+".mode", "Unknown removal mode '"+req.Mode+"'")
			}
		}
	}

	return result
}

// ValidatePagination validates pagination parameters
func ValidatePagination(page, pageSize int) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	// Set defaults
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	// Validate limits
	if pageSize > 100 {
		pageSize = 100 // Maximum page size
	}

	return page, pageSize, result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}

// ValidateQueryBinding validates query parameter binding
func ValidateQueryBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindQuery(target); err != nil {
		result.AddError("query_parameters", "Invalid query parameters: "+err.Error())
	}

	return result
}
