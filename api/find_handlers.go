package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/services"
)

// FindRequest defines the structure for find queries.
type FindRequest struct {
	Phrase   string   `json:"phrase"`
	DocTypes []string `json:"doc_types,omitempty"` // Optional: restrict to documents with these doc_type values
	Statuses []string `json:"statuses,omitempty"`  // Optional: restrict to documents with these status values
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// MultiFindRequest represents the JSON request for a multi-collection find
type MultiFindRequest struct {
	Collections []string `json:"collections" binding:"required"`
	Phrase      string   `json:"phrase"`
	DocTypes    []string `json:"doc_types,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
	PageSize    int      `json:"page_size,omitempty"`
}

// FindHandler handles find requests against one collection.
// Request Body: FindRequest (adapted for JSON from services.FindQuery)
func (api *API) FindHandler(c *gin.Context) {
	collectionName := c.Param("name")

	if result := ValidateCollectionName(collectionName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	accessor, err := api.engine.GetCollection(collectionName)
	if err != nil {
		if errors.Is(err, internalErrors.ErrCollectionNotFound) {
			SendCollectionNotFoundError(c, collectionName)
			return
		}
		SendInternalError(c, "get collection", err)
		return
	}

	var req FindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}

	if result := ValidatePhrase(req.Phrase); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	findQuery := services.FindQuery{
		Phrase:   req.Phrase,
		DocTypes: req.DocTypes,
		Statuses: req.Statuses,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	result, err := accessor.Find(findQuery)
	if err != nil {
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		SendScanError(c, collectionName, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MultiFindHandler runs one phrase across several collections in a single
// request. Request Body: MultiFindRequest
func (api *API) MultiFindHandler(c *gin.Context) {
	multiDiscoverer, ok := api.engine.(services.MultiDiscoverer)
	if !ok {
		SendNotSupportedError(c, "Multi-collection find")
		return
	}

	var req MultiFindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}

	if result := ValidatePhrase(req.Phrase); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	query := services.MultiFindQuery{
		Collections: req.Collections,
		Phrase:      req.Phrase,
		DocTypes:    req.DocTypes,
		Statuses:    req.Statuses,
		PageSize:    req.PageSize,
	}

	results, err := multiDiscoverer.FindAll(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, internalErrors.ErrCollectionNotFound) {
			SendError(c, http.StatusNotFound, ErrorCodeCollectionNotFound, err.Error())
			return
		}
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		SendError(c, http.StatusInternalServerError, ErrorCodeScanFailed, "Multi-collection scan failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, results)
}
