package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codethatfits/phrasematch/internal/engine"
	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
)

// ListRevisionsHandler lists the scrub revisions recorded for a document,
// newest first. An optional ?limit= query parameter caps the count.
func (api *API) ListRevisionsHandler(c *gin.Context) {
	collectionName := c.Param("name")
	documentID := c.Param("documentId")

	concreteEngine, ok := api.engine.(*engine.Engine)
	if !ok {
		SendNotSupportedError(c, "Revision history")
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid 'limit' parameter: must be a non-negative integer")
			return
		}
		limit = parsed
	}

	revisions, err := concreteEngine.ListRevisions(collectionName, documentID, limit)
	if err != nil {
		if errors.Is(err, internalErrors.ErrCollectionNotFound) {
			SendCollectionNotFoundError(c, collectionName)
			return
		}
		SendInternalError(c, "list revisions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collection": collectionName,
		"doc_id":     documentID,
		"revisions":  revisions,
		"count":      len(revisions),
	})
}

// RestoreRevisionHandler rewinds a document to the text captured before a
// scrub pass and reindexes it. The restore itself is recorded as a new
// revision.
func (api *API) RestoreRevisionHandler(c *gin.Context) {
	collectionName := c.Param("name")
	documentID := c.Param("documentId")
	revisionID := c.Param("revisionId")

	concreteEngine, ok := api.engine.(*engine.Engine)
	if !ok {
		SendNotSupportedError(c, "Revision history")
		return
	}

	document, err := concreteEngine.RestoreRevision(collectionName, documentID, revisionID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrCollectionNotFound) {
			SendCollectionNotFoundError(c, collectionName)
			return
		}
		if errors.Is(err, internalErrors.ErrDocumentNotFound) {
			SendDocumentNotFoundError(c, documentID, collectionName)
			return
		}
		if errors.Is(err, internalErrors.ErrRevisionNotFound) {
			SendRevisionNotFoundError(c, revisionID)
			return
		}
		SendInternalError(c, "restore revision", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Revision '" + revisionID + "' restored for document '" + documentID + "'",
		"document": document,
	})
}
