package errors

import (
	"errors"
	"testing"
)

func TestCollectionNotFoundError(t *testing.T) {
	collection := "kb-articles"
	err := NewCollectionNotFoundError(collection)

	// Test error message
	expectedMsg := "collection named 'kb-articles' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test Is() method
	if !errors.Is(err, ErrCollectionNotFound) {
		t.Error("Expected error to match ErrCollectionNotFound sentinel")
	}

	// Test that it doesn't match other sentinels
	if errors.Is(err, ErrDocumentNotFound) {
		t.Error("Error should not match ErrDocumentNotFound")
	}
}

func TestCollectionAlreadyExistsError(t *testing.T) {
	collection := "existing-collection"
	err := NewCollectionAlreadyExistsError(collection)

	// Test error message
	expectedMsg := "collection named 'existing-collection' already exists"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test Is() method
	if !errors.Is(err, ErrCollectionAlreadyExists) {
		t.Error("Expected error to match ErrCollectionAlreadyExists sentinel")
	}
}

func TestDocumentNotFoundError(t *testing.T) {
	// Test without collection name
	docID := "doc123"
	err := NewDocumentNotFoundError(docID)

	expectedMsg := "document with ID 'doc123' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test with collection name
	collection := "kb-articles"
	err2 := NewDocumentNotFoundError(docID, collection)

	expectedMsg2 := "document with ID 'doc123' not found in collection 'kb-articles'"
	if err2.Error() != expectedMsg2 {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg2, err2.Error())
	}

	// Test Is() method
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Error("Expected error to match ErrDocumentNotFound sentinel")
	}
	if !errors.Is(err2, ErrDocumentNotFound) {
		t.Error("Expected error with collection to match ErrDocumentNotFound sentinel")
	}
}

func TestJobNotFoundError(t *testing.T) {
	jobID := "job-456"
	err := NewJobNotFoundError(jobID)

	expectedMsg := "job with ID 'job-456' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test Is() method
	if !errors.Is(err, ErrJobNotFound) {
		t.Error("Expected error to match ErrJobNotFound sentinel")
	}
}

func TestPolicyNotFoundError(t *testing.T) {
	policyID := "policy-789"
	err := NewPolicyNotFoundError(policyID)

	expectedMsg := "policy with ID 'policy-789' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test Is() method
	if !errors.Is(err, ErrPolicyNotFound) {
		t.Error("Expected error to match ErrPolicyNotFound sentinel")
	}
}

func TestRevisionNotFoundError(t *testing.T) {
	// Test without document ID
	revisionID := "01HZXY"
	err := NewRevisionNotFoundError(revisionID)

	expectedMsg := "revision '01HZXY' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test with document ID
	err2 := NewRevisionNotFoundError(revisionID, "doc123")

	expectedMsg2 := "revision '01HZXY' not found for document 'doc123'"
	if err2.Error() != expectedMsg2 {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg2, err2.Error())
	}

	// Test Is() method
	if !errors.Is(err, ErrRevisionNotFound) {
		t.Error("Expected error to match ErrRevisionNotFound sentinel")
	}
	if !errors.Is(err2, ErrRevisionNotFound) {
		t.Error("Expected error with document to match ErrRevisionNotFound sentinel")
	}
}

func TestValidationError(t *testing.T) {
	// Test with field
	field := "phrase"
	message := "cannot be empty"
	err := NewValidationError(field, message)

	expectedMsg := "validation error for field 'phrase': cannot be empty"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	// Test without field
	err2 := NewValidationError("", message)

	expectedMsg2 := "validation error: cannot be empty"
	if err2.Error() != expectedMsg2 {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg2, err2.Error())
	}

	// Test Is() method
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("Expected error to match ErrInvalidInput sentinel")
	}
	if !errors.Is(err2, ErrInvalidInput) {
		t.Error("Expected error without field to match ErrInvalidInput sentinel")
	}
}

func TestErrorChaining(t *testing.T) {
	// Test that our custom errors can be wrapped and unwrapped
	originalErr := NewCollectionNotFoundError("kb-articles")
	wrappedErr := errors.Join(originalErr, errors.New("additional context"))

	// Should still be able to detect the original error
	if !errors.Is(wrappedErr, ErrCollectionNotFound) {
		t.Error("Expected wrapped error to still match ErrCollectionNotFound sentinel")
	}

	// Should be able to unwrap to get the original error
	var collErr *CollectionNotFoundError
	if !errors.As(wrappedErr, &collErr) {
		t.Error("Expected to be able to unwrap to CollectionNotFoundError")
	}

	if collErr.Collection != "kb-articles" {
		t.Errorf("Expected collection 'kb-articles', got '%s'", collErr.Collection)
	}
}
