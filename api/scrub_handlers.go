package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codethatfits/phrasematch/internal/engine"
	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
)

// ScrubMutationRequest is one requested mutation inside a scrub batch.
type ScrubMutationRequest struct {
	Offset      int    `json:"offset"`
	Field       string `json:"field"`
	Mode        string `json:"mode,omitempty"`
	Replacement string `json:"replacement,omitempty"`
}

// ScrubTargetRequest names one document and the mutations requested against it.
type ScrubTargetRequest struct {
	DocID    string                 `json:"doc_id"`
	Requests []ScrubMutationRequest `json:"requests"`
}

// ScrubRequest defines the structure for synchronous scrub batches.
type ScrubRequest struct {
	Phrase  string               `json:"phrase"`
	Targets []ScrubTargetRequest `json:"targets"`
}

// ScrubAllRequest defines the structure for collection-wide scrub jobs. Either
// a phrase or a policy_id must be given; an explicit mode or replacement
// overrides whatever a matching policy would prescribe.
type ScrubAllRequest struct {
	PolicyID    string   `json:"policy_id,omitempty"`
	Phrase      string   `json:"phrase,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	Replacement string   `json:"replacement,omitempty"`
	DocTypes    []string `json:"doc_types,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
}

// ScrubHandler applies a mutation batch to named documents and returns the
// per-document outcomes synchronously.
// Request Body: ScrubRequest
func (api *API) ScrubHandler(c *gin.Context) {
	collectionName := c.Param("name")

	accessor, err := api.engine.GetCollection(collectionName)
	if err != nil {
		SendCollectionNotFoundError(c, collectionName)
		return
	}

	var req ScrubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if result := ValidatePhrase(req.Phrase); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateScrubTargets(req.Targets); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	scrubReq := services.ScrubRequest{Phrase: req.Phrase}
	for _, target := range req.Targets {
		requests := make([]model.MutationRequest, len(target.Requests))
		for i, r := range target.Requests {
			requests[i] = model.MutationRequest{
				Offset:      r.Offset,
				Field:       model.FieldKind(r.Field),
				Mode:        model.RemovalMode(r.Mode),
				Replacement: r.Replacement,
			}
		}
		scrubReq.Targets = append(scrubReq.Targets, services.ScrubTarget{
			DocID:    target.DocID,
			Requests: requests,
		})
	}

	result, err := accessor.Execute(scrubReq)
	if err != nil {
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		SendInternalError(c, "scrub", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ScrubAllHandler starts a background job that scrubs every occurrence of a
// phrase across a collection. The phrase and treatment come from the request
// body, from the policy named by policy_id, or from whichever active policy
// covers the phrase.
// Request Body: ScrubAllRequest
func (api *API) ScrubAllHandler(c *gin.Context) {
	collectionName := c.Param("name")

	var req ScrubAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	if req.PolicyID != "" {
		if api.policies == nil {
			SendNotSupportedError(c, "Policy-driven scrubbing")
			return
		}
		policy, err := api.policies.Get(req.PolicyID)
		if err != nil {
			SendPolicyNotFoundError(c, req.PolicyID)
			return
		}
		if req.Phrase == "" {
			req.Phrase = policy.Phrase
		}
		if req.Mode == "" {
			req.Mode = string(policy.Mode)
		}
		if req.Replacement == "" {
			req.Replacement = policy.Replacement
		}
	}

	if result := ValidatePhrase(req.Phrase); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateRemovalMode(req.Mode); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	concreteEngine, ok := api.engine.(*engine.Engine)
	if !ok {
		SendNotSupportedError(c, "Collection-wide scrubbing")
		return
	}

	jobID, err := concreteEngine.ScrubAllAsync(collectionName, req.Phrase, model.RemovalMode(req.Mode), req.Replacement, req.DocTypes, req.Statuses)
	if err != nil {
		if errors.Is(err, internalErrors.ErrCollectionNotFound) {
			SendCollectionNotFoundError(c, collectionName)
			return
		}
		if errors.Is(err, internalErrors.ErrInvalidInput) {
			SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
			return
		}
		SendJobExecutionError(c, "corpus scrub", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": fmt.Sprintf("Corpus scrub started for collection '%s'", collectionName),
		"job_id":  jobID,
		"phrase":  req.Phrase,
	})
}
