package model

import "time"

// ScanEvent records one corpus scan for audit metrics.
type ScanEvent struct {
	Collection  string        `json:"collection"`
	Phrase      string        `json:"phrase"`
	DocsMatched int           `json:"docs_matched"`
	Occurrences int           `json:"occurrences"`
	Duration    time.Duration `json:"duration"`
	Timestamp   time.Time     `json:"timestamp"`
}

// ScrubEvent records one mutation batch for audit metrics.
type ScrubEvent struct {
	Collection   string    `json:"collection"`
	Phrase       string    `json:"phrase"`
	DocsModified int       `json:"docs_modified"`
	DocsSkipped  int       `json:"docs_skipped"` // no_changes outcomes
	DocsFailed   int       `json:"docs_failed"`  // persist_failed and not_found outcomes
	Removed      int       `json:"removed"`
	Replaced     int       `json:"replaced"`
	Timestamp    time.Time `json:"timestamp"`
}

// PhraseCount is one aggregated phrase-frequency entry.
type PhraseCount struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// DailyCount aggregates event counts for one calendar day.
type DailyCount struct {
	Day    string `json:"day"` // YYYY-MM-DD
	Scans  int    `json:"scans"`
	Scrubs int    `json:"scrubs"`
}

// AuditSummary is the aggregated audit view exposed over the API.
type AuditSummary struct {
	WindowDays    int           `json:"window_days"`
	TotalScans    int           `json:"total_scans"`
	TotalScrubs   int           `json:"total_scrubs"`
	TotalRemoved  int           `json:"total_removed"`
	TotalReplaced int           `json:"total_replaced"`
	NoOpRate      float64       `json:"no_op_rate"` // share of scrub events that modified nothing
	TopPhrases    []PhraseCount `json:"top_phrases"`
	Daily         []DailyCount  `json:"daily"`
}
