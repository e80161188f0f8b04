package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yuin/goldmark"

	"github.com/codethatfits/phrasematch/internal/engine"
	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/model"
)

// UpsertDocumentsHandler handles adding/updating documents in a collection.
// The body may be a single document object or an array of documents.
func (api *API) UpsertDocumentsHandler(c *gin.Context) {
	collectionName := c.Param("name")
	accessor, err := api.engine.GetCollection(collectionName)
	if err != nil {
		SendCollectionNotFoundError(c, collectionName)
		return
	}

	var docs []model.Document
	if err := c.ShouldBindBodyWith(&docs, binding.JSON); err != nil {
		var single model.Document
		if err := c.ShouldBindBodyWith(&single, binding.JSON); err != nil {
			SendInvalidJSONError(c, err)
			return
		}
		docs = []model.Document{single}
	}

	if result := ValidateDocuments(docs); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	// Upsert documents asynchronously
	if concreteEngine, ok := api.engine.(*engine.Engine); ok {
		jobID, err := concreteEngine.UpsertDocumentsAsync(collectionName, docs)
		if err != nil {
			SendJobExecutionError(c, "document upsert", err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":         "accepted",
			"message":        fmt.Sprintf("Document upsert started for collection '%s' (%d documents)", collectionName, len(docs)),
			"job_id":         jobID,
			"document_count": len(docs),
		})
	} else {
		if err := accessor.UpsertDocuments(docs); err != nil {
			SendIndexingError(c, collectionName, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%d document(s) added/updated in collection '%s'", len(docs), collectionName)})
	}
}

// DeleteAllDocumentsHandler handles the request to delete all documents from a collection.
func (api *API) DeleteAllDocumentsHandler(c *gin.Context) {
	collectionName := c.Param("name")
	accessor, err := api.engine.GetCollection(collectionName)
	if err != nil {
		SendCollectionNotFoundError(c, collectionName)
		return
	}

	// Delete all documents asynchronously
	if concreteEngine, ok := api.engine.(*engine.Engine); ok {
		jobID, err := concreteEngine.DeleteAllDocumentsAsync(collectionName)
		if err != nil {
			SendJobExecutionError(c, "document deletion", err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": fmt.Sprintf("Document deletion started for collection '%s'", collectionName),
			"job_id":  jobID,
		})
	} else {
		if err := accessor.DeleteAllDocuments(); err != nil {
			SendInternalError(c, "delete all documents", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All documents deleted from collection '" + collectionName + "'"})
	}
}

// DocumentListRequest defines the structure for document listing requests
type DocumentListRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// ListDocumentsHandler lists documents in a collection with pagination,
// ordered by document ID.
func (api *API) ListDocumentsHandler(c *gin.Context) {
	collectionName := c.Param("name")
	accessor, err := api.engine.GetCollection(collectionName)
	if err != nil {
		SendCollectionNotFoundError(c, collectionName)
		return
	}

	var req DocumentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid query parameters: "+err.Error())
		return
	}

	page, pageSize, result := ValidatePagination(req.Page, req.PageSize)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	documents, totalCount, err := accessor.ListDocuments(page, pageSize)
	if err != nil {
		SendInternalError(c, "list documents", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
		"pages":     (totalCount + pageSize - 1) / pageSize,
	})
}

// GetDocumentHandler retrieves a specific document by ID
func (api *API) GetDocumentHandler(c *gin.Context) {
	collectionName := c.Param("name")
	documentID := c.Param("documentId")

	accessor, err := api.engine.GetCollection(collectionName)
	if err != nil {
		SendCollectionNotFoundError(c, collectionName)
		return
	}

	document, err := accessor.GetDocument(documentID)
	if err != nil {
		SendDocumentNotFoundError(c, documentID, collectionName)
		return
	}

	c.JSON(http.StatusOK, document)
}

// GetRenderedDocumentHandler returns a document's content as HTML. Markdown
// documents are converted; HTML documents are served as stored.
func (api *API) GetRenderedDocumentHandler(c *gin.Context) {
	collectionName := c.Param("name")
	documentID := c.Param("documentId")

	accessor, err := api.engine.GetCollection(collectionName)
	if err != nil {
		SendCollectionNotFoundError(c, collectionName)
		return
	}

	document, err := accessor.GetDocument(documentID)
	if err != nil {
		SendDocumentNotFoundError(c, documentID, collectionName)
		return
	}

	if document.Format == model.FormatHTML {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(document.Content))
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(document.Content), &buf); err != nil {
		SendInternalError(c, "render document", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// DeleteDocumentHandler deletes a specific document by ID
func (api *API) DeleteDocumentHandler(c *gin.Context) {
	collectionName := c.Param("name")
	documentID := c.Param("documentId")

	accessor, err := api.engine.GetCollection(collectionName)
	if err != nil {
		SendCollectionNotFoundError(c, collectionName)
		return
	}

	// Check existence up front so a missing document is a 404, not a failed job.
	if _, err := accessor.GetDocument(documentID); err != nil {
		SendDocumentNotFoundError(c, documentID, collectionName)
		return
	}

	// Delete document asynchronously
	if concreteEngine, ok := api.engine.(*engine.Engine); ok {
		jobID, err := concreteEngine.DeleteDocumentAsync(collectionName, documentID)
		if err != nil {
			if errors.Is(err, internalErrors.ErrDocumentNotFound) {
				SendDocumentNotFoundError(c, documentID, collectionName)
				return
			}
			SendJobExecutionError(c, "document deletion", err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":      "accepted",
			"message":     fmt.Sprintf("Document deletion started for document '%s' in collection '%s'", documentID, collectionName),
			"job_id":      jobID,
			"document_id": documentID,
		})
	} else {
		if err := accessor.DeleteDocument(documentID); err != nil {
			if errors.Is(err, internalErrors.ErrDocumentNotFound) {
				SendDocumentNotFoundError(c, documentID, collectionName)
				return
			}
			SendInternalError(c, "delete document", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Document '" + documentID + "' deleted from collection '" + collectionName + "'"})
	}
}
