// Package audit keeps a rolling log of scan and scrub activity and aggregates
// it into the summary exposed over the API.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/codethatfits/phrasematch/model"
)

const (
	auditFileName   = "audit.json"
	maxEventsToKeep = 10000 // Keep last 10k events per kind for performance

	topPhraseCount = 5
)

type auditData struct {
	Scans  []model.ScanEvent  `json:"scans"`
	Scrubs []model.ScrubEvent `json:"scrubs"`
}

// Service implements audit tracking and reporting.
type Service struct {
	mu           sync.RWMutex
	data         auditData
	dataFilePath string
}

// NewService creates an audit service storing its log under dataDir.
func NewService(dataDir string) *Service {
	service := &Service{
		dataFilePath: filepath.Join(dataDir, auditFileName),
	}

	if err := service.loadData(); err != nil {
		log.Printf("Warning: Failed to load audit data: %v", err)
	}

	return service
}

// TrackScan records one completed scan.
func (s *Service) TrackScan(event model.ScanEvent) {
	s.mu.Lock()
	event.Timestamp = time.Now()
	s.data.Scans = append(s.data.Scans, event)
	if len(s.data.Scans) > maxEventsToKeep {
		s.data.Scans = s.data.Scans[len(s.data.Scans)-maxEventsToKeep:]
	}
	s.mu.Unlock()

	// Persist asynchronously so tracking never blocks the request path.
	go func() {
		if err := s.saveData(); err != nil {
			log.Printf("Warning: Failed to save audit data: %v", err)
		}
	}()
}

// TrackScrub records one completed scrub pass.
func (s *Service) TrackScrub(event model.ScrubEvent) {
	s.mu.Lock()
	event.Timestamp = time.Now()
	s.data.Scrubs = append(s.data.Scrubs, event)
	if len(s.data.Scrubs) > maxEventsToKeep {
		s.data.Scrubs = s.data.Scrubs[len(s.data.Scrubs)-maxEventsToKeep:]
	}
	s.mu.Unlock()

	go func() {
		if err := s.saveData(); err != nil {
			log.Printf("Warning: Failed to save audit data: %v", err)
		}
	}()
}

// Summary aggregates the events of the last windowDays days.
func (s *Service) Summary(windowDays int) model.AuditSummary {
	if windowDays <= 0 {
		windowDays = 7
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-time.Duration(windowDays) * 24 * time.Hour)

	summary := model.AuditSummary{WindowDays: windowDays}
	phraseCounts := make(map[string]int)
	daily := make(map[string]*model.DailyCount)

	dayOf := func(ts time.Time) *model.DailyCount {
		day := ts.Format("2006-01-02")
		dc, ok := daily[day]
		if !ok {
			dc = &model.DailyCount{Day: day}
			daily[day] = dc
		}
		return dc
	}

	for _, event := range s.data.Scans {
		if !event.Timestamp.After(cutoff) {
			continue
		}
		summary.TotalScans++
		if event.Phrase != "" {
			phraseCounts[event.Phrase]++
		}
		dayOf(event.Timestamp).Scans++
	}

	noOps := 0
	for _, event := range s.data.Scrubs {
		if !event.Timestamp.After(cutoff) {
			continue
		}
		summary.TotalScrubs++
		summary.TotalRemoved += event.Removed
		summary.TotalReplaced += event.Replaced
		if event.DocsModified == 0 && event.DocsFailed == 0 {
			noOps++
		}
		if event.Phrase != "" {
			phraseCounts[event.Phrase]++
		}
		dayOf(event.Timestamp).Scrubs++
	}

	if summary.TotalScrubs > 0 {
		summary.NoOpRate = float64(noOps) / float64(summary.TotalScrubs)
	}

	summary.TopPhrases = topPhrases(phraseCounts)

	for _, dc := range daily {
		summary.Daily = append(summary.Daily, *dc)
	}
	sort.Slice(summary.Daily, func(i, j int) bool {
		return summary.Daily[i].Day < summary.Daily[j].Day
	})

	return summary
}

func topPhrases(counts map[string]int) []model.PhraseCount {
	all := make([]model.PhraseCount, 0, len(counts))
	for phrase, count := range counts {
		all = append(all, model.PhraseCount{Phrase: phrase, Count: count})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Phrase < all[j].Phrase
	})

	if len(all) > topPhraseCount {
		all = all[:topPhraseCount]
	}
	return all
}

// loadData loads the audit log from disk. A missing file is not an error.
func (s *Service) loadData() error {
	dir := filepath.Dir(s.dataFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	if _, err := os.Stat(s.dataFilePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(s.dataFilePath) // #nosec G304 -- path is built from the server's own data dir
	if err != nil {
		return fmt.Errorf("failed to read audit file: %w", err)
	}

	if err := json.Unmarshal(data, &s.data); err != nil {
		return fmt.Errorf("failed to unmarshal audit data: %w", err)
	}

	return nil
}

// saveData writes the audit log to disk.
func (s *Service) saveData() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal audit data: %w", err)
	}

	dir := filepath.Dir(s.dataFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	if err := os.WriteFile(s.dataFilePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write audit file: %w", err)
	}

	return nil
}
