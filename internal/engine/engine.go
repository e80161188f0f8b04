package engine

import (
	"fmt"
	"os"
	"sync"

	"github.com/codethatfits/phrasematch/internal/audit"
	"github.com/codethatfits/phrasematch/internal/cache"
	"github.com/codethatfits/phrasematch/internal/discovery"
	"github.com/codethatfits/phrasematch/internal/jobs"
	"github.com/codethatfits/phrasematch/internal/policies"
	"github.com/codethatfits/phrasematch/internal/revisions"
	"github.com/codethatfits/phrasematch/internal/scrub"
	"github.com/codethatfits/phrasematch/model"
)

// maxConcurrentJobs bounds how many background jobs run at once.
const maxConcurrentJobs = 4

// Engine manages multiple phrase collections and the shared services that
// span them: the background job manager, the revision store, the audit
// tracker, the policy store, and the scan result cache.
// It implements the services.CollectionManager interface.
type Engine struct {
	mu          sync.RWMutex
	collections map[string]*CollectionInstance
	dataDir     string

	jobManager    *jobs.Manager
	revisionStore *revisions.Store
	auditService  *audit.Service
	policyStore   *policies.Store
	resultCache   *cache.ResultCache
}

// NewEngine creates a new phrase engine rooted at dataDir and loads every
// collection already persisted there.
func NewEngine(dataDir string) (*Engine, error) {
	if err := os.MkdirAll(dataDir, dataDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	revisionStore, err := revisions.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open revision store: %w", err)
	}

	eng := &Engine{
		collections:   make(map[string]*CollectionInstance),
		dataDir:       dataDir,
		jobManager:    jobs.NewManager(maxConcurrentJobs),
		revisionStore: revisionStore,
		auditService:  audit.NewService(dataDir),
		policyStore:   policies.NewStore(dataDir),
		resultCache:   cache.New(cache.DefaultTTL, cache.DefaultMaxEntries),
	}
	eng.jobManager.Start()
	eng.loadCollectionsFromDisk()
	return eng, nil
}

// wireInstanceServices attaches the discovery and scrub services to an
// instance. They are built here rather than in NewCollectionInstance because
// both lean on engine-owned shared state: the result cache, the revision
// store, the audit tracker, and the persistence callback.
func (e *Engine) wireInstanceServices(instance *CollectionInstance) error {
	name := instance.settings.Name

	discoverer, err := discovery.NewService(instance.TokenIndex, instance.DocumentStore, instance.settings, e.resultCache)
	if err != nil {
		return fmt.Errorf("failed to create discovery service for collection '%s': %w", name, err)
	}

	scrubber, err := scrub.NewService(instance.DocumentStore, instance.indexer, instance.settings, e.revisionStore, e.auditService, func() error {
		return e.PersistCollectionData(name)
	})
	if err != nil {
		return fmt.Errorf("failed to create scrub service for collection '%s': %w", name, err)
	}

	instance.discoverer = discoverer
	instance.scrubber = scrubber
	instance.auditor = e.auditService
	return nil
}

// Close shuts down the job manager and releases the revision store.
func (e *Engine) Close() error {
	e.jobManager.Stop()
	if err := e.revisionStore.Close(); err != nil {
		return fmt.Errorf("failed to close revision store: %w", err)
	}
	return nil
}

// GetJob retrieves the status of a background job by its ID.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns background jobs matching the given filters. An empty
// collection matches every collection.
func (e *Engine) ListJobs(collection string, status *model.JobStatus, jobType *model.JobType) []*model.Job {
	return e.jobManager.ListJobs(collection, status, jobType)
}

// GetJobMetrics returns current job performance metrics.
func (e *Engine) GetJobMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate.
func (e *Engine) GetJobSuccessRate() float64 {
	return e.jobManager.GetJobSuccessRate()
}

// GetCurrentWorkload returns the number of currently active jobs.
func (e *Engine) GetCurrentWorkload() int64 {
	return e.jobManager.GetCurrentWorkload()
}

// AuditService exposes the shared audit tracker.
func (e *Engine) AuditService() *audit.Service {
	return e.auditService
}

// PolicyStore exposes the shared scrub policy store.
func (e *Engine) PolicyStore() *policies.Store {
	return e.policyStore
}
