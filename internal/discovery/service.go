// Package discovery implements phrase discovery over a single collection:
// candidate pruning through the token index, exact verification through the
// locator, and result decoration with wrapping classes and snippets.
package discovery

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/codethatfits/phrasematch/config"
	"github.com/codethatfits/phrasematch/index"
	"github.com/codethatfits/phrasematch/internal/cache"
	"github.com/codethatfits/phrasematch/internal/locator"
	"github.com/codethatfits/phrasematch/internal/markup"
	"github.com/codethatfits/phrasematch/internal/tokenizer"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
	"github.com/codethatfits/phrasematch/store"
)

const defaultPageSize = 10

// Service implements phrase discovery for a single collection. It fulfills
// the services.Discoverer interface.
type Service struct {
	tokenIndex    *index.TokenIndex
	documentStore *store.DocumentStore
	settings      *config.CollectionSettings
	resultCache   *cache.ResultCache
}

// NewService creates a discovery Service. The cache may be nil, in which case
// every query is verified from scratch.
func NewService(tokenIndex *index.TokenIndex, docStore *store.DocumentStore, settings *config.CollectionSettings, resultCache *cache.ResultCache) (*Service, error) {
	if tokenIndex == nil {
		return nil, fmt.Errorf("token index cannot be nil")
	}
	if docStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	return &Service{
		tokenIndex:    tokenIndex,
		documentStore: docStore,
		settings:      settings,
		resultCache:   resultCache,
	}, nil
}

// docMatch pairs a verified document with its raw occurrences, before
// wrapping detection and snippets are filled in.
type docMatch struct {
	internalID  uint32
	doc         model.Document
	titleOccs   []model.Occurrence
	contentOccs []model.Occurrence
}

// Find locates every document containing the phrase and decorates each
// occurrence with its wrapping class and a display snippet. Cached results
// only short-circuit candidate verification; occurrence scanning always runs
// against the current text, so offsets are valid at return time.
func (s *Service) Find(query services.FindQuery) (services.FindResult, error) {
	startTime := time.Now()
	queryID := uuid.New().String()

	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	if query.Phrase == "" {
		return services.FindResult{
			Hits:     []services.DocumentHit{},
			Total:    0,
			Page:     page,
			PageSize: pageSize,
			Took:     time.Since(startTime).Milliseconds(),
			QueryId:  queryID,
		}, nil
	}

	s.warnUnfilterableFields(query)

	generation := s.documentStore.CurrentGeneration()

	var matches []docMatch
	var cacheKey string
	cacheHit := false

	if s.resultCache != nil {
		cacheKey = cache.Key(s.settings.Name, query.Phrase, query.DocTypes, query.Statuses)
		if ids, ok := s.resultCache.Get(cacheKey, generation); ok {
			matches = s.scanVerifiedDocs(ids, query.Phrase)
			cacheHit = true
		}
	}

	if !cacheHit {
		matches = s.scanCandidates(query)
		if s.resultCache != nil {
			ids := make([]uint32, len(matches))
			for i, m := range matches {
				ids[i] = m.internalID
			}
			s.resultCache.Put(cacheKey, generation, ids)
		}
	}

	hits := s.decorateMatches(matches, query.Phrase)

	// Most occurrences first; external ID breaks ties so pagination is stable.
	sort.SliceStable(hits, func(i, j int) bool {
		if len(hits[i].Occurrences) != len(hits[j].Occurrences) {
			return len(hits[i].Occurrences) > len(hits[j].Occurrences)
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})

	totalHits := len(hits)
	totalOccurrences := 0
	for _, hit := range hits {
		totalOccurrences += len(hit.Occurrences)
	}

	startIndex := (page - 1) * pageSize
	endIndex := startIndex + pageSize
	var paginatedHits []services.DocumentHit
	if startIndex < totalHits {
		if endIndex > totalHits {
			endIndex = totalHits
		}
		paginatedHits = hits[startIndex:endIndex]
	} else {
		paginatedHits = []services.DocumentHit{}
	}

	return services.FindResult{
		Hits:             paginatedHits,
		Total:            totalHits,
		TotalOccurrences: totalOccurrences,
		Page:             page,
		PageSize:         pageSize,
		Took:             time.Since(startTime).Milliseconds(),
		QueryId:          queryID,
		CacheHit:         cacheHit,
	}, nil
}

// scanCandidates narrows the corpus through the token index, applies the
// filter dimensions, and keeps only documents where the phrase actually
// occurs. Token pruning may let false positives through; exact scanning here
// is what decides membership.
func (s *Service) scanCandidates(query services.FindQuery) []docMatch {
	tokens := tokenizer.UniqueTokens(query.Phrase)
	candidateIDs, pruned := s.tokenIndex.CandidateDocs(tokens)

	s.documentStore.Mu.RLock()
	defer s.documentStore.Mu.RUnlock()

	if !pruned {
		// Phrase has no indexable tokens, every document is a candidate.
		candidateIDs = make([]uint32, 0, len(s.documentStore.Docs))
		for docID := range s.documentStore.Docs {
			candidateIDs = append(candidateIDs, docID)
		}
		sort.Slice(candidateIDs, func(i, j int) bool { return candidateIDs[i] < candidateIDs[j] })
	}

	var matches []docMatch
	for _, docID := range candidateIDs {
		doc, found := s.documentStore.Docs[docID]
		if !found {
			log.Printf("Warning: Document with internal ID %d in candidate set but not in document store.\n", docID)
			continue
		}
		if !matchesFilters(doc, query) {
			continue
		}

		titleOccs := locator.Scan(doc.Title, query.Phrase)
		contentOccs := locator.Scan(doc.Content, query.Phrase)
		if len(titleOccs) == 0 && len(contentOccs) == 0 {
			continue
		}

		matches = append(matches, docMatch{
			internalID:  docID,
			doc:         doc,
			titleOccs:   titleOccs,
			contentOccs: contentOccs,
		})
	}
	return matches
}

// scanVerifiedDocs rebuilds matches for a memoized document ID list. The list
// is generation-bound, so the documents cannot have changed since it was
// verified; the occurrences are still scanned fresh.
func (s *Service) scanVerifiedDocs(ids []uint32, phrase string) []docMatch {
	var matches []docMatch
	for _, docID := range ids {
		doc, found := s.documentStore.GetByInternalID(docID)
		if !found {
			log.Printf("Warning: Document with internal ID %d in cached result but not in document store.\n", docID)
			continue
		}

		titleOccs := locator.Scan(doc.Title, phrase)
		contentOccs := locator.Scan(doc.Content, phrase)
		if len(titleOccs) == 0 && len(contentOccs) == 0 {
			continue
		}

		matches = append(matches, docMatch{
			internalID:  docID,
			doc:         doc,
			titleOccs:   titleOccs,
			contentOccs: contentOccs,
		})
	}
	return matches
}

// decorateMatches fills in field, wrapping and snippet for every occurrence.
// Title occurrences are always plain: titles carry no markup, so structural
// classification never applies to them.
func (s *Service) decorateMatches(matches []docMatch, phrase string) []services.DocumentHit {
	markers := markup.Markers{
		StartPrefix: s.settings.BlockMarkerStart,
		EndPrefix:   s.settings.BlockMarkerEnd,
	}
	radius := s.settings.SnippetRadius

	hits := make([]services.DocumentHit, 0, len(matches))
	for _, m := range matches {
		occurrences := make([]model.Occurrence, 0, len(m.titleOccs)+len(m.contentOccs))

		for _, occ := range m.titleOccs {
			occ.Field = model.FieldTitle
			occ.Wrapping = model.WrappingPlain
			occ.Snippet = locator.BuildSnippet(m.doc.Title, phrase, occ.Offset, radius)
			occurrences = append(occurrences, occ)
		}
		for _, occ := range m.contentOccs {
			occ.Field = model.FieldContent
			occ.Wrapping = locator.DetectWrapping(m.doc.Content, phrase, occ.Offset, markers)
			occ.Snippet = locator.BuildSnippet(m.doc.Content, phrase, occ.Offset, radius)
			occurrences = append(occurrences, occ)
		}

		hits = append(hits, services.DocumentHit{
			Document:    m.doc,
			Occurrences: occurrences,
		})
	}
	return hits
}

func matchesFilters(doc model.Document, query services.FindQuery) bool {
	if len(query.DocTypes) > 0 && !containsString(query.DocTypes, doc.DocType) {
		return false
	}
	if len(query.Statuses) > 0 && !containsString(query.Statuses, doc.Status) {
		return false
	}
	return true
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// warnUnfilterableFields flags queries filtering on a dimension the
// collection has disabled. The filter is still evaluated.
func (s *Service) warnUnfilterableFields(query services.FindQuery) {
	fields := s.settings.FilterableFieldSet()
	if len(query.DocTypes) > 0 && !fields[config.FilterFieldDocType] {
		log.Printf("Warning (Collection: %s): Field 'doc_type' is not designated as filterable in settings, but will be evaluated.\n", s.settings.Name)
	}
	if len(query.Statuses) > 0 && !fields[config.FilterFieldStatus] {
		log.Printf("Warning (Collection: %s): Field 'status' is not designated as filterable in settings, but will be evaluated.\n", s.settings.Name)
	}
}
