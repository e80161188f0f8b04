package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrCollectionNotFound is returned when a collection is not found
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionAlreadyExists is returned when trying to create a collection that already exists
	ErrCollectionAlreadyExists = errors.New("collection already exists")

	// ErrDocumentNotFound is returned when a document is not found
	ErrDocumentNotFound = errors.New("document not found")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrPolicyNotFound is returned when a scrub policy is not found
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrRevisionNotFound is returned when a revision is not found
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// CollectionNotFoundError represents a collection not found error with context
type CollectionNotFoundError struct {
	Collection string
}

func (e *CollectionNotFoundError) Error() string {
	return fmt.Sprintf("collection named '%s' not found", e.Collection)
}

func (e *CollectionNotFoundError) Is(target error) bool {
	return target == ErrCollectionNotFound
}

// NewCollectionNotFoundError creates a new CollectionNotFoundError
func NewCollectionNotFoundError(collection string) *CollectionNotFoundError {
	return &CollectionNotFoundError{Collection: collection}
}

// CollectionAlreadyExistsError represents a collection already exists error with context
type CollectionAlreadyExistsError struct {
	Collection string
}

func (e *CollectionAlreadyExistsError) Error() string {
	return fmt.Sprintf("collection named '%s' already exists", e.Collection)
}

func (e *CollectionAlreadyExistsError) Is(target error) bool {
	return target == ErrCollectionAlreadyExists
}

// NewCollectionAlreadyExistsError creates a new CollectionAlreadyExistsError
func NewCollectionAlreadyExistsError(collection string) *CollectionAlreadyExistsError {
	return &CollectionAlreadyExistsError{Collection: collection}
}

// DocumentNotFoundError represents a document not found error with context
type DocumentNotFoundError struct {
	DocumentID string
	Collection string
}

func (e *DocumentNotFoundError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("document with ID '%s' not found in collection '%s'", e.DocumentID, e.Collection)
	}
	return fmt.Sprintf("document with ID '%s' not found", e.DocumentID)
}

func (e *DocumentNotFoundError) Is(target error) bool {
	return target == ErrDocumentNotFound
}

// NewDocumentNotFoundError creates a new DocumentNotFoundError
func NewDocumentNotFoundError(documentID string, collection ...string) *DocumentNotFoundError {
	err := &DocumentNotFoundError{DocumentID: documentID}
	if len(collection) > 0 {
		err.Collection = collection[0]
	}
	return err
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// PolicyNotFoundError represents a policy not found error with context
type PolicyNotFoundError struct {
	PolicyID string
}

func (e *PolicyNotFoundError) Error() string {
	return fmt.Sprintf("policy with ID '%s' not found", e.PolicyID)
}

func (e *PolicyNotFoundError) Is(target error) bool {
	return target == ErrPolicyNotFound
}

// NewPolicyNotFoundError creates a new PolicyNotFoundError
func NewPolicyNotFoundError(policyID string) *PolicyNotFoundError {
	return &PolicyNotFoundError{PolicyID: policyID}
}

// RevisionNotFoundError represents a revision not found error with context
type RevisionNotFoundError struct {
	RevisionID string
	DocumentID string
}

func (e *RevisionNotFoundError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("revision '%s' not found for document '%s'", e.RevisionID, e.DocumentID)
	}
	return fmt.Sprintf("revision '%s' not found", e.RevisionID)
}

func (e *RevisionNotFoundError) Is(target error) bool {
	return target == ErrRevisionNotFound
}

// NewRevisionNotFoundError creates a new RevisionNotFoundError
func NewRevisionNotFoundError(revisionID string, documentID ...string) *RevisionNotFoundError {
	err := &RevisionNotFoundError{RevisionID: revisionID}
	if len(documentID) > 0 {
		err.DocumentID = documentID[0]
	}
	return err
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
