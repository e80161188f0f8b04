package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/model"
)

// PolicyRequest represents the JSON request for creating/updating scrub policies
type PolicyRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description,omitempty"`
	Phrase      string   `json:"phrase" binding:"required"`
	Mode        string   `json:"mode,omitempty"`
	Replacement string   `json:"replacement,omitempty"`
	Collections []string `json:"collections,omitempty"`
	IsActive    bool     `json:"is_active"`
	Priority    int      `json:"priority"`
	CreatedBy   string   `json:"created_by,omitempty"`
}

// PolicyResponse represents the JSON response for single policy operations
type PolicyResponse struct {
	Status  string       `json:"status"`
	Policy  model.Policy `json:"policy"`
	Message string       `json:"message,omitempty"`
}

// PolicyListResponse represents the JSON response for listing policies
type PolicyListResponse struct {
	Status   string         `json:"status"`
	Policies []model.Policy `json:"policies"`
	Count    int            `json:"count"`
}

// PolicyMessageResponse represents the JSON response for operations that only return a message
type PolicyMessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreatePolicyHandler handles POST /policies
func (api *API) CreatePolicyHandler(c *gin.Context) {
	if api.policies == nil {
		SendNotSupportedError(c, "Scrub policies")
		return
	}

	var req PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}

	if result := ValidateRemovalMode(req.Mode); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	policy := model.Policy{
		Name:        req.Name,
		Description: req.Description,
		Phrase:      req.Phrase,
		Mode:        model.RemovalMode(req.Mode),
		Replacement: req.Replacement,
		Collections: req.Collections,
		IsActive:    req.IsActive,
		Priority:    req.Priority,
		CreatedBy:   req.CreatedBy,
	}

	createdPolicy, err := api.policies.Create(policy)
	if err != nil {
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		SendInternalError(c, "create policy", err)
		return
	}

	c.JSON(http.StatusCreated, PolicyResponse{
		Status:  "success",
		Policy:  createdPolicy,
		Message: "Policy created successfully",
	})
}

// GetPolicyHandler handles GET /policies/:policyId
func (api *API) GetPolicyHandler(c *gin.Context) {
	if api.policies == nil {
		SendNotSupportedError(c, "Scrub policies")
		return
	}

	policyID := c.Param("policyId")
	policy, err := api.policies.Get(policyID)
	if err != nil {
		SendPolicyNotFoundError(c, policyID)
		return
	}

	c.JSON(http.StatusOK, PolicyResponse{
		Status: "success",
		Policy: policy,
	})
}

// UpdatePolicyHandler handles PUT /policies/:policyId
func (api *API) UpdatePolicyHandler(c *gin.Context) {
	if api.policies == nil {
		SendNotSupportedError(c, "Scrub policies")
		return
	}

	policyID := c.Param("policyId")

	var req PolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}

	if result := ValidateRemovalMode(req.Mode); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	policy := model.Policy{
		ID:          policyID,
		Name:        req.Name,
		Description: req.Description,
		Phrase:      req.Phrase,
		Mode:        model.RemovalMode(req.Mode),
		Replacement: req.Replacement,
		Collections: req.Collections,
		IsActive:    req.IsActive,
		Priority:    req.Priority,
		CreatedBy:   req.CreatedBy,
	}

	if err := api.policies.Update(policy); err != nil {
		if errors.Is(err, internalErrors.ErrPolicyNotFound) {
			SendPolicyNotFoundError(c, policyID)
			return
		}
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		SendInternalError(c, "update policy", err)
		return
	}

	updatedPolicy, err := api.policies.Get(policyID)
	if err != nil {
		SendInternalError(c, "get updated policy", err)
		return
	}

	c.JSON(http.StatusOK, PolicyResponse{
		Status:  "success",
		Policy:  updatedPolicy,
		Message: "Policy updated successfully",
	})
}

// DeletePolicyHandler handles DELETE /policies/:policyId
func (api *API) DeletePolicyHandler(c *gin.Context) {
	if api.policies == nil {
		SendNotSupportedError(c, "Scrub policies")
		return
	}

	policyID := c.Param("policyId")
	if err := api.policies.Delete(policyID); err != nil {
		if errors.Is(err, internalErrors.ErrPolicyNotFound) {
			SendPolicyNotFoundError(c, policyID)
			return
		}
		SendInternalError(c, "delete policy", err)
		return
	}

	c.JSON(http.StatusOK, PolicyMessageResponse{
		Status:  "success",
		Message: "Policy deleted successfully",
	})
}

// ListPoliciesHandler handles GET /policies
func (api *API) ListPoliciesHandler(c *gin.Context) {
	if api.policies == nil {
		SendNotSupportedError(c, "Scrub policies")
		return
	}

	collection := c.Query("collection")
	isActiveStr := c.Query("is_active")

	var isActive *bool
	if isActiveStr != "" {
		if isActiveVal, err := strconv.ParseBool(isActiveStr); err == nil {
			isActive = &isActiveVal
		} else {
			SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid is_active parameter: must be true or false")
			return
		}
	}

	policies := api.policies.List(collection, isActive)

	c.JSON(http.StatusOK, PolicyListResponse{
		Status:   "success",
		Policies: policies,
		Count:    len(policies),
	})
}
