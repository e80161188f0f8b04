package config

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		settings       CollectionSettings
		expectedErrors int
		description    string
	}{
		{
			name: "minimal valid settings",
			settings: CollectionSettings{
				Name: "kb-articles",
			},
			expectedErrors: 0,
			description:    "A bare name with defaults applied should validate",
		},
		{
			name: "full valid settings",
			settings: CollectionSettings{
				Name:             "support_pages",
				FilterableFields: []string{"doc_type", "status"},
				BlockMarkerStart: "begin:",
				BlockMarkerEnd:   "finish:",
				SnippetRadius:    120,
			},
			expectedErrors: 0,
			description:    "Custom marker prefixes and radius should validate",
		},
		{
			name:           "empty name fails",
			settings:       CollectionSettings{},
			expectedErrors: 1,
			description:    "Collection name is required",
		},
		{
			name: "name with spaces fails",
			settings: CollectionSettings{
				Name: "kb articles",
			},
			expectedErrors: 1,
			description:    "Names are restricted to letters, digits, '-' and '_'",
		},
		{
			name: "name with slash fails",
			settings: CollectionSettings{
				Name: "kb/articles",
			},
			expectedErrors: 1,
			description:    "Names become directory names so path separators are rejected",
		},
		{
			name: "unknown filterable field fails",
			settings: CollectionSettings{
				Name:             "kb-articles",
				FilterableFields: []string{"doc_type", "author"},
			},
			expectedErrors: 1,
			description:    "Only doc_type and status are filter dimensions",
		},
		{
			name: "duplicate filterable field fails",
			settings: CollectionSettings{
				Name:             "kb-articles",
				FilterableFields: []string{"status", "status"},
			},
			expectedErrors: 1,
			description:    "Duplicates within filterable_fields should be caught",
		},
		{
			name: "padded marker prefix fails",
			settings: CollectionSettings{
				Name:             "kb-articles",
				BlockMarkerStart: " start:",
			},
			expectedErrors: 1,
			description:    "Marker prefixes cannot carry surrounding whitespace",
		},
		{
			name: "negative snippet radius fails",
			settings: CollectionSettings{
				Name:          "kb-articles",
				SnippetRadius: -5,
			},
			expectedErrors: 1,
			description:    "Snippet radius must be zero or positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Apply defaults to ensure consistent validation
			tt.settings.ApplyDefaults()

			errors := tt.settings.Validate()

			if len(errors) != tt.expectedErrors {
				t.Errorf("Expected %d errors, got %d. Errors: %v", tt.expectedErrors, len(errors), errors)
				t.Logf("Description: %s", tt.description)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	settings := CollectionSettings{Name: "kb-articles"}
	settings.ApplyDefaults()

	if settings.BlockMarkerStart != DefaultBlockMarkerStart {
		t.Errorf("Expected default start prefix %q, got %q", DefaultBlockMarkerStart, settings.BlockMarkerStart)
	}
	if settings.BlockMarkerEnd != DefaultBlockMarkerEnd {
		t.Errorf("Expected default end prefix %q, got %q", DefaultBlockMarkerEnd, settings.BlockMarkerEnd)
	}
	if settings.SnippetRadius != DefaultSnippetRadius {
		t.Errorf("Expected default snippet radius %d, got %d", DefaultSnippetRadius, settings.SnippetRadius)
	}
	if len(settings.FilterableFields) != 2 {
		t.Errorf("Expected both filter dimensions by default, got %v", settings.FilterableFields)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	settings := CollectionSettings{
		Name:             "kb-articles",
		FilterableFields: []string{},
		BlockMarkerStart: "begin:",
		SnippetRadius:    40,
	}
	settings.ApplyDefaults()

	if settings.BlockMarkerStart != "begin:" {
		t.Errorf("Expected explicit start prefix to survive, got %q", settings.BlockMarkerStart)
	}
	if settings.BlockMarkerEnd != DefaultBlockMarkerEnd {
		t.Errorf("Expected default end prefix %q, got %q", DefaultBlockMarkerEnd, settings.BlockMarkerEnd)
	}
	if settings.SnippetRadius != 40 {
		t.Errorf("Expected explicit snippet radius to survive, got %d", settings.SnippetRadius)
	}
	// An explicitly empty list disables filtering rather than falling back to defaults.
	if len(settings.FilterableFields) != 0 {
		t.Errorf("Expected explicitly empty filterable fields to stay empty, got %v", settings.FilterableFields)
	}
}
