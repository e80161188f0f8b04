package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codethatfits/phrasematch/internal/audit"
	"github.com/codethatfits/phrasematch/internal/engine"
	"github.com/codethatfits/phrasematch/internal/policies"
	"github.com/codethatfits/phrasematch/services"
)

// maxRequestBodySize bounds document upload payloads.
const maxRequestBodySize = 10 << 20 // 10 MiB

// API holds dependencies for API handlers, primarily the collection manager.
type API struct {
	engine   services.CollectionManager
	audit    *audit.Service
	policies *policies.Store
}

// NewAPI creates a new API handler structure. The audit and policy handlers
// need the concrete engine's shared services; behind any other
// CollectionManager they answer 501.
func NewAPI(manager services.CollectionManager) *API {
	api := &API{engine: manager}
	if concrete, ok := manager.(*engine.Engine); ok {
		api.audit = concrete.AuditService()
		api.policies = concrete.PolicyStore()
	}
	return api
}

// SetupRoutes defines all the API routes for the phrase engine.
func SetupRoutes(router *gin.Engine, manager services.CollectionManager) {
	apiHandler := NewAPI(manager)

	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware())
	router.Use(RequestSizeLimitMiddleware(maxRequestBodySize))

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)

	// Audit route
	router.GET("/audit/summary", apiHandler.GetAuditSummaryHandler)

	// Multi-collection scan route
	router.POST("/scan", apiHandler.MultiFindHandler)

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)          // List jobs, filterable by collection/status/type
		jobRoutes.GET("/stats", apiHandler.GetJobStatsHandler) // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)     // Get job status by ID
	}

	// Scrub policy routes
	policyRoutes := router.Group("/policies")
	{
		policyRoutes.POST("", apiHandler.CreatePolicyHandler)
		policyRoutes.GET("", apiHandler.ListPoliciesHandler)
		policyRoutes.GET("/:policyId", apiHandler.GetPolicyHandler)
		policyRoutes.PUT("/:policyId", apiHandler.UpdatePolicyHandler)
		policyRoutes.DELETE("/:policyId", apiHandler.DeletePolicyHandler)
	}

	// Collection management routes
	collectionRoutes := router.Group("/collections")
	{
		collectionRoutes.POST("", apiHandler.CreateCollectionHandler)                         // Create a new collection
		collectionRoutes.GET("", apiHandler.ListCollectionsHandler)                           // List all collections
		collectionRoutes.GET("/:name", apiHandler.GetCollectionHandler)                       // Get collection settings
		collectionRoutes.DELETE("/:name", apiHandler.DeleteCollectionHandler)                 // Delete a collection
		collectionRoutes.PATCH("/:name/settings", apiHandler.UpdateCollectionSettingsHandler) // Update collection settings
		collectionRoutes.POST("/:name/reindex", apiHandler.ReindexCollectionHandler)          // Rebuild the token index

		// Scan and scrub routes per collection
		collectionRoutes.POST("/:name/scan", apiHandler.FindHandler)
		collectionRoutes.POST("/:name/scrub", apiHandler.ScrubHandler)
		collectionRoutes.POST("/:name/scrub-all", apiHandler.ScrubAllHandler)

		// Document management routes per collection
		docRoutes := collectionRoutes.Group("/:name/documents")
		{
			docRoutes.PUT("", apiHandler.UpsertDocumentsHandler)               // Add/Update documents
			docRoutes.GET("", apiHandler.ListDocumentsHandler)                 // List documents with pagination
			docRoutes.DELETE("", apiHandler.DeleteAllDocumentsHandler)         // Delete all documents
			docRoutes.GET("/:documentId", apiHandler.GetDocumentHandler)       // Get specific document
			docRoutes.DELETE("/:documentId", apiHandler.DeleteDocumentHandler) // Delete specific document

			docRoutes.GET("/:documentId/rendered", apiHandler.GetRenderedDocumentHandler)

			// Revision history routes per document
			docRoutes.GET("/:documentId/revisions", apiHandler.ListRevisionsHandler)
			docRoutes.POST("/:documentId/revisions/:revisionId/restore", apiHandler.RestoreRevisionHandler)
		}
	}
}

// HealthCheckHandler provides a simple health check endpoint
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "phrasematch",
		"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
	})
}
