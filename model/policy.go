package model

import (
	"time"
)

// Policy is a saved scrub configuration: a phrase together with the default
// removal mode or replacement to use when scrubbing it from a corpus.
type Policy struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Phrase      string      `json:"phrase"`
	Mode        RemovalMode `json:"mode,omitempty"`
	Replacement string      `json:"replacement,omitempty"`
	Collections []string    `json:"collections,omitempty"` // empty = applies to every collection
	IsActive    bool        `json:"is_active"`
	Priority    int         `json:"priority"` // higher numbers win when several policies name the same phrase
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CreatedBy   string      `json:"created_by,omitempty"`
}

// AppliesTo reports whether the policy covers the named collection.
func (p *Policy) AppliesTo(collection string) bool {
	if len(p.Collections) == 0 {
		return true
	}
	for _, c := range p.Collections {
		if c == collection {
			return true
		}
	}
	return false
}
