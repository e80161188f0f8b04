package services

import (
	"context"

	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/model"
)

// DocumentHit represents a single document in a find result, including the
// document itself and every verified occurrence of the phrase in its fields.
type DocumentHit struct {
	Document    model.Document     `json:"document"`
	Occurrences []model.Occurrence `json:"occurrences"`
}

type FindResult struct {
	Hits             []DocumentHit `json:"hits"`
	Total            int           `json:"total"`
	TotalOccurrences int           `json:"total_occurrences"`
	Page             int           `json:"page"`
	PageSize         int           `json:"page_size"`
	Took             int64         `json:"took"`      // milliseconds
	QueryId          string        `json:"query_id"`  // unique UUID for this find query
	CacheHit         bool          `json:"cache_hit"` // true when the candidate set came from the result cache
}

type FindQuery struct {
	Phrase   string
	DocTypes []string `json:"doc_types,omitempty"` // Optional: restrict to documents with these doc_type values
	Statuses []string `json:"statuses,omitempty"`  // Optional: restrict to documents with these status values
	Page     int
	PageSize int
}

// MultiFindQuery represents a request to run one phrase across multiple collections
type MultiFindQuery struct {
	Collections []string `json:"collections"`
	Phrase      string   `json:"phrase"`
	DocTypes    []string `json:"doc_types,omitempty"`
	Statuses    []string `json:"statuses,omitempty"`
	PageSize    int      `json:"page_size,omitempty"` // applied per collection
}

// MultiFindResult represents the response from a multi-collection find
type MultiFindResult struct {
	Results          map[string]FindResult `json:"results"`
	TotalCollections int                   `json:"total_collections"`
	ProcessingTimeMs float64               `json:"processing_time_ms"`
}

// ScrubOutcome classifies what happened to one document during a scrub pass.
type ScrubOutcome string

const (
	// OutcomeApplied means at least one mutation landed and the new text was persisted.
	OutcomeApplied ScrubOutcome = "applied"
	// OutcomeNoChanges means every requested mutation was stale; nothing was written.
	OutcomeNoChanges ScrubOutcome = "no_changes"
	// OutcomePersistFailed means mutations landed in memory but saving them failed.
	OutcomePersistFailed ScrubOutcome = "persist_failed"
	// OutcomeNotFound means the target document does not exist in the collection.
	OutcomeNotFound ScrubOutcome = "not_found"
)

// ScrubTarget names one document and the mutations requested against it.
type ScrubTarget struct {
	DocID    string                  `json:"doc_id"`
	Requests []model.MutationRequest `json:"requests"`
}

// ScrubRequest is one mutation batch: the phrase being scrubbed plus
// per-document targets.
type ScrubRequest struct {
	Phrase  string        `json:"phrase"`
	Targets []ScrubTarget `json:"targets"`
}

// DocumentScrubResult reports the scrub outcome for a single document.
type DocumentScrubResult struct {
	DocID      string       `json:"doc_id"`
	Outcome    ScrubOutcome `json:"outcome"`
	Removed    int          `json:"removed"`
	Replaced   int          `json:"replaced"`
	RevisionID string       `json:"revision_id,omitempty"` // set when the outcome is applied
	Error      string       `json:"error,omitempty"`       // set when the outcome is persist_failed or not_found
}

// ScrubResult aggregates the per-document outcomes of one mutation batch.
type ScrubResult struct {
	Results      []DocumentScrubResult `json:"results"`
	DocsModified int                   `json:"docs_modified"`
	DocsSkipped  int                   `json:"docs_skipped"`
	DocsFailed   int                   `json:"docs_failed"`
	Removed      int                   `json:"removed"`
	Replaced     int                   `json:"replaced"`
	Took         int64                 `json:"took"` // milliseconds
}

// DocumentManager defines operations for maintaining a collection's documents
type DocumentManager interface {
	UpsertDocuments(docs []model.Document) error
	GetDocument(docID string) (model.Document, error)
	ListDocuments(page, pageSize int) ([]model.Document, int, error)
	DeleteAllDocuments() error
	DeleteDocument(docID string) error
}

// Discoverer defines operations for locating a phrase across a collection
type Discoverer interface {
	Find(query FindQuery) (FindResult, error)
}

// MultiDiscoverer defines operations for fanning one phrase out over several collections
type MultiDiscoverer interface {
	FindAll(ctx context.Context, query MultiFindQuery) (*MultiFindResult, error)
}

// Scrubber defines operations for applying mutation batches to a collection
type Scrubber interface {
	Execute(req ScrubRequest) (*ScrubResult, error)
}

// CollectionManager manages the lifecycle of collections
type CollectionManager interface {
	CreateCollection(settings config.CollectionSettings) error
	GetCollection(name string) (CollectionAccessor, error) // CollectionAccessor combines DocumentManager, Discoverer and Scrubber
	GetCollectionSettings(name string) (config.CollectionSettings, error)
	UpdateCollectionSettings(name string, settings config.CollectionSettings) error
	DeleteCollection(name string) error
	ListCollections() []string
	PersistCollectionData(name string) error
}

// CollectionManagerWithAsyncReindex extends CollectionManager with an async
// posting rebuild for collections whose index drifted from the store
type CollectionManagerWithAsyncReindex interface {
	CollectionManager
	ReindexCollectionAsync(name string) (string, error) // Returns job ID
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(collection string, status *model.JobStatus, jobType *model.JobType) []*model.Job
}

type CollectionAccessor interface {
	DocumentManager
	Discoverer
	Scrubber
	Settings() config.CollectionSettings
}
