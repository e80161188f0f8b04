package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/services"
)

// maxParallelCollectionScans bounds the fan-out of a multi-collection find.
const maxParallelCollectionScans = 4

// FindAll runs one phrase query across several collections in parallel.
// Every named collection must exist; an unknown name fails the whole query
// before any scan runs.
func (e *Engine) FindAll(ctx context.Context, query services.MultiFindQuery) (*services.MultiFindResult, error) {
	startTime := time.Now()

	if len(query.Collections) == 0 {
		return nil, errors.NewValidationError("collections", "cannot be empty")
	}

	instances := make(map[string]*CollectionInstance, len(query.Collections))
	e.mu.RLock()
	for _, name := range query.Collections {
		instance, exists := e.collections[name]
		if !exists {
			e.mu.RUnlock()
			return nil, errors.NewCollectionNotFoundError(name)
		}
		instances[name] = instance
	}
	e.mu.RUnlock()

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallelCollectionScans)

	var (
		mu      sync.Mutex
		results = make(map[string]services.FindResult, len(instances))
	)

	for name, instance := range instances {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := instance.Find(services.FindQuery{
				Phrase:   query.Phrase,
				DocTypes: query.DocTypes,
				Statuses: query.Statuses,
				Page:     1,
				PageSize: query.PageSize,
			})
			if err != nil {
				return fmt.Errorf("scan of collection '%s' failed: %w", name, err)
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &services.MultiFindResult{
		Results:          results,
		TotalCollections: len(results),
		ProcessingTimeMs: float64(time.Since(startTime).Microseconds()) / 1000.0,
	}, nil
}
