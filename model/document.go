package model

import "time"

// DocumentFormat describes how a document's content should be rendered for
// preview. Scanning and mutation always operate on the raw stored bytes
// regardless of format.
type DocumentFormat string

const (
	FormatHTML     DocumentFormat = "html"
	FormatMarkdown DocumentFormat = "markdown"
)

// Document is one phrase-bearing record in a collection. Title and Content
// are the two scannable fields; their offsets are independent coordinate
// spaces. DocType and Status are filter dimensions for discovery.
type Document struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	DocType   string         `json:"doc_type,omitempty"`
	Status    string         `json:"status,omitempty"`
	Format    DocumentFormat `json:"format,omitempty"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
}

// FieldText returns the text of the named field.
func (d Document) FieldText(field FieldKind) string {
	if field == FieldTitle {
		return d.Title
	}
	return d.Content
}
