package model

import "time"

// Revision is one recoverable history entry: the full before/after texts of
// a document surrounding one mutation pass. IDs are ULIDs, so lexical order
// is creation order.
type Revision struct {
	ID            string    `json:"id"`
	Collection    string    `json:"collection"`
	DocID         string    `json:"doc_id"`
	Phrase        string    `json:"phrase"`
	TitleBefore   string    `json:"title_before"`
	TitleAfter    string    `json:"title_after"`
	ContentBefore string    `json:"content_before"`
	ContentAfter  string    `json:"content_after"`
	Removed       int       `json:"removed"`
	Replaced      int       `json:"replaced"`
	CreatedAt     time.Time `json:"created_at"`
}
