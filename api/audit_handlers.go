package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetAuditSummaryHandler reports scan and scrub activity over a trailing
// window. An optional ?days= query parameter sets the window (default 7).
func (api *API) GetAuditSummaryHandler(c *gin.Context) {
	if api.audit == nil {
		SendNotSupportedError(c, "Audit reporting")
		return
	}

	days := 0
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid 'days' parameter: must be a positive integer")
			return
		}
		days = parsed
	}

	c.JSON(http.StatusOK, api.audit.Summary(days))
}
