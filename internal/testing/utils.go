// Package testing provides utilities and helpers for testing the phrase engine.
package testing

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/internal/engine"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
)

// TestDirRegistry tracks test directories for cleanup
type TestDirRegistry struct {
	mu   sync.Mutex
	dirs []string
}

var globalTestDirRegistry = &TestDirRegistry{}

// RegisterTestDir registers a test directory for cleanup
func (r *TestDirRegistry) RegisterTestDir(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append(r.dirs, dir)
}

// CleanupAll removes all registered test directories
func (r *TestDirRegistry) CleanupAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dir := range r.dirs {
		if err := os.RemoveAll(dir); err != nil {
			fmt.Printf("Warning: Failed to remove test directory %s: %v\n", dir, err)
		}
	}
	r.dirs = nil
}

// CreateTestEngine creates a new engine instance for testing with automatic cleanup
func CreateTestEngine(t *testing.T) *engine.Engine {
	testDir := fmt.Sprintf("./test_data_%d", time.Now().UnixNano())
	globalTestDirRegistry.RegisterTestDir(testDir)

	eng, err := engine.NewEngine(testDir)
	require.NoError(t, err, "Failed to create test engine")

	t.Cleanup(func() {
		if err := eng.Close(); err != nil {
			t.Logf("Failed to close test engine: %v", err)
		}
	})

	return eng
}

// CreateTestCollection creates a test collection with default settings
func CreateTestCollection(t *testing.T, eng *engine.Engine, collectionName string) config.CollectionSettings {
	settings := config.CollectionSettings{
		Name:             collectionName,
		FilterableFields: []string{config.FilterFieldDocType, config.FilterFieldStatus},
	}

	err := eng.CreateCollection(settings)
	require.NoError(t, err, "Failed to create test collection")

	created, err := eng.GetCollectionSettings(collectionName)
	require.NoError(t, err, "Failed to read back test collection settings")

	return created
}

// AddTestDocuments adds a set of test documents to a collection. The first
// two mention "Acme Corp" (one in mixed case), the third never does.
func AddTestDocuments(t *testing.T, eng *engine.Engine, collectionName string) []model.Document {
	accessor, err := eng.GetCollection(collectionName)
	require.NoError(t, err, "Failed to get collection accessor")

	docs := []model.Document{
		{
			ID:      "doc1",
			Title:   "Acme Corp quarterly review",
			Content: "Acme Corp posted strong results. Analysts expect Acme Corp to keep growing.",
			DocType: "article",
			Status:  "published",
		},
		{
			ID:      "doc2",
			Title:   "Support handbook",
			Content: "Route escalations about acme corp to the partnerships desk.",
			DocType: "guide",
			Status:  "published",
		},
		{
			ID:      "doc3",
			Title:   "Unrelated note",
			Content: "This document never mentions the customer at all.",
			DocType: "note",
			Status:  "draft",
		},
	}

	err = accessor.UpsertDocuments(docs)
	require.NoError(t, err, "Failed to add test documents")

	return docs
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 100 * time.Millisecond,
		LogProgress:  true,
	}
}

// WaitForJobCompletion polls a job until it completes or times out
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	var job *model.Job
	var err error

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not complete within %v timeout", jobID, opts.Timeout)
		case <-ticker.C:
			job, err = jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			switch job.Status {
			case model.JobStatusCompleted:
				if opts.LogProgress {
					t.Logf("Job %s completed successfully in %v", jobID, job.CompletedAt.Sub(job.CreatedAt))
				}
				return job
			case model.JobStatusFailed:
				t.Fatalf("Job %s failed: %s", jobID, job.Error)
			case model.JobStatusRunning:
				if opts.LogProgress && job.Progress != nil {
					t.Logf("Job %s progress: %d/%d - %s",
						jobID,
						job.Progress.Current,
						job.Progress.Total,
						job.Progress.Message)
				}
			}
		}
	}
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedCollection string) {
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.Equal(t, expectedCollection, job.Collection, "Job collection should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}

// CleanupTestDirs should be called in TestMain to clean up all test directories
func CleanupTestDirs() {
	globalTestDirRegistry.CleanupAll()
}
