// Package config provides configuration structures for the phrase engine.
// It defines per-collection settings such as marker conventions, snippet
// sizing, and the filter dimensions discovery may use.
package config

import (
	"regexp"
	"strings"
)

// Defaults applied by CollectionSettings.ApplyDefaults.
const (
	DefaultBlockMarkerStart = "start:"
	DefaultBlockMarkerEnd   = "end:"
	DefaultSnippetRadius    = 80
)

// Filterable dimensions a collection may expose to discovery queries.
// Documents carry exactly these two enumerable attributes.
const (
	FilterFieldDocType = "doc_type"
	FilterFieldStatus  = "status"
)

var collectionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// CollectionSettings contains all configuration options for a collection.
//
// Marker prefixes and the snippet radius are scan-time concerns: changing
// them affects wrapping detection and snippet building on the next scan and
// never requires rebuilding the token index, which only depends on the
// document text itself.
type CollectionSettings struct {
	Name             string   `json:"name"`               // Unique name for the collection; also its directory name on disk
	FilterableFields []string `json:"filterable_fields"`  // Dimensions discovery may filter on; subset of {"doc_type", "status"}
	BlockMarkerStart string   `json:"block_marker_start"` // Label prefix of block start markers (e.g. "start:" matches [[start:promo]])
	BlockMarkerEnd   string   `json:"block_marker_end"`   // Label prefix of block end markers (e.g. "end:" matches [[end:promo]])
	SnippetRadius    int      `json:"snippet_radius"`     // Display characters kept on each side of a highlighted phrase
}

// Validate checks the settings for problems and returns a list of human
// readable conflict messages. An empty list means the settings are usable.
func (settings *CollectionSettings) Validate() []string {
	var conflicts []string

	if settings.Name == "" {
		conflicts = append(conflicts, "Collection name cannot be empty")
	} else if !collectionNamePattern.MatchString(settings.Name) {
		conflicts = append(conflicts, "Collection name '"+settings.Name+"' may only contain letters, digits, '-' and '_'")
	}

	conflicts = append(conflicts, checkDuplicates("filterable_fields", settings.FilterableFields)...)

	for _, field := range settings.FilterableFields {
		if field != FilterFieldDocType && field != FilterFieldStatus {
			conflicts = append(conflicts, "Field '"+field+"' in filterable_fields is not a known filter dimension (doc_type, status)")
		}
	}

	if strings.TrimSpace(settings.BlockMarkerStart) != settings.BlockMarkerStart ||
		strings.TrimSpace(settings.BlockMarkerEnd) != settings.BlockMarkerEnd {
		conflicts = append(conflicts, "Block marker prefixes cannot have leading or trailing whitespace")
	}

	if settings.SnippetRadius < 0 {
		conflicts = append(conflicts, "Snippet radius cannot be negative")
	}

	return conflicts
}

// FilterableFieldSet returns the filterable fields as a lookup set.
func (settings *CollectionSettings) FilterableFieldSet() map[string]bool {
	set := make(map[string]bool, len(settings.FilterableFields))
	for _, field := range settings.FilterableFields {
		set[field] = true
	}
	return set
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, fields []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, field := range fields {
		if seen[field] {
			errors = append(errors, "Duplicate field '"+field+"' found in "+fieldName)
		}
		seen[field] = true
	}

	return errors
}

// ApplyDefaults applies default values to the collection settings
func (settings *CollectionSettings) ApplyDefaults() {
	if settings.BlockMarkerStart == "" {
		settings.BlockMarkerStart = DefaultBlockMarkerStart
	}
	if settings.BlockMarkerEnd == "" {
		settings.BlockMarkerEnd = DefaultBlockMarkerEnd
	}
	if settings.SnippetRadius == 0 {
		settings.SnippetRadius = DefaultSnippetRadius
	}

	// Initialize empty slices if nil to prevent nil pointer issues
	if settings.FilterableFields == nil {
		settings.FilterableFields = []string{FilterFieldDocType, FilterFieldStatus}
	}
}
