// Package policies stores saved scrub configurations: phrases paired with the
// removal mode or replacement to apply when scrubbing a corpus.
package policies

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codethatfits/phrasematch/config"
	internalErrors "github.com/codethatfits/phrasematch/internal/errors"
	"github.com/codethatfits/phrasematch/model"
)

const policiesFileName = "policies.json"

// Store is a file-backed policy store. All mutations are persisted
// immediately and rolled back in memory when the write fails.
type Store struct {
	policies     map[string]model.Policy
	mutex        sync.RWMutex
	dataFilePath string
}

// NewStore creates a policy store persisting to dataDir.
func NewStore(dataDir string) *Store {
	store := &Store{
		policies:     make(map[string]model.Policy),
		dataFilePath: filepath.Join(dataDir, policiesFileName),
	}

	// A missing file is fine, it gets created on first save.
	if err := store.loadData(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: Failed to load policy data: %v\n", err)
		}
	}

	return store
}

// Create stores a new policy, generating an ID when none is provided.
func (s *Store) Create(policy model.Policy) (model.Policy, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if policy.ID == "" {
		policy.ID = uuid.New().String()
	}

	if _, exists := s.policies[policy.ID]; exists {
		return model.Policy{}, fmt.Errorf("policy with ID %s already exists", policy.ID)
	}

	now := time.Now()
	policy.CreatedAt = now
	policy.UpdatedAt = now

	if err := validatePolicy(policy); err != nil {
		return model.Policy{}, fmt.Errorf("invalid policy: %w", err)
	}

	s.policies[policy.ID] = policy

	if err := s.saveData(); err != nil {
		// Rollback the in-memory change
		delete(s.policies, policy.ID)
		return model.Policy{}, fmt.Errorf("failed to persist policy: %w", err)
	}

	return policy, nil
}

// Update replaces an existing policy, preserving its creation timestamp.
func (s *Store) Update(policy model.Policy) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, exists := s.policies[policy.ID]
	if !exists {
		return internalErrors.NewPolicyNotFoundError(policy.ID)
	}

	policy.CreatedAt = existing.CreatedAt
	policy.UpdatedAt = time.Now()

	if err := validatePolicy(policy); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	s.policies[policy.ID] = policy

	if err := s.saveData(); err != nil {
		// Rollback the in-memory change
		s.policies[policy.ID] = existing
		return fmt.Errorf("failed to persist policy update: %w", err)
	}

	return nil
}

// Delete removes a policy.
func (s *Store) Delete(policyID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	policy, exists := s.policies[policyID]
	if !exists {
		return internalErrors.NewPolicyNotFoundError(policyID)
	}

	delete(s.policies, policyID)

	if err := s.saveData(); err != nil {
		// Rollback the in-memory change
		s.policies[policyID] = policy
		return fmt.Errorf("failed to persist policy deletion: %w", err)
	}

	return nil
}

// Get retrieves one policy by ID.
func (s *Store) Get(policyID string) (model.Policy, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	policy, exists := s.policies[policyID]
	if !exists {
		return model.Policy{}, internalErrors.NewPolicyNotFoundError(policyID)
	}

	return policy, nil
}

// List returns policies, optionally narrowed to one collection and one active
// state, ordered by priority descending then name.
func (s *Store) List(collection string, isActive *bool) []model.Policy {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var out []model.Policy
	for _, policy := range s.policies {
		if collection != "" && !policy.AppliesTo(collection) {
			continue
		}
		if isActive != nil && policy.IsActive != *isActive {
			continue
		}
		out = append(out, policy)
	}

	sortPolicies(out)
	return out
}

// GetActive returns the active policies covering a collection, highest
// priority first.
func (s *Store) GetActive(collection string) []model.Policy {
	active := true
	return s.List(collection, &active)
}

// FindByPhrase returns the highest-priority active policy for the given
// phrase in a collection. Phrase comparison is case-insensitive, matching how
// phrases match document text.
func (s *Store) FindByPhrase(collection, phrase string) (model.Policy, bool) {
	for _, policy := range s.GetActive(collection) {
		if strings.EqualFold(policy.Phrase, phrase) {
			return policy, true
		}
	}
	return model.Policy{}, false
}

// SeedFromFile creates the policies defined in a policy file that do not
// exist yet, matching by name. Returns how many were created.
func (s *Store) SeedFromFile(file config.PolicyFile) (int, error) {
	existing := make(map[string]bool)
	for _, policy := range s.List("", nil) {
		existing[policy.Name] = true
	}

	created := 0
	for _, seed := range file.Policies {
		if existing[seed.Name] {
			continue
		}

		active := true
		if seed.Active != nil {
			active = *seed.Active
		}

		policy := model.Policy{
			Name:        seed.Name,
			Description: seed.Description,
			Phrase:      seed.Phrase,
			Mode:        model.RemovalMode(seed.Mode),
			Replacement: seed.Replacement,
			Collections: seed.Collections,
			Priority:    seed.Priority,
			IsActive:    active,
			CreatedBy:   "policy-file",
		}
		if _, err := s.Create(policy); err != nil {
			return created, fmt.Errorf("failed to seed policy %q: %w", seed.Name, err)
		}
		created++
	}

	return created, nil
}

func sortPolicies(policies []model.Policy) {
	sort.Slice(policies, func(i, j int) bool {
		if policies[i].Priority != policies[j].Priority {
			return policies[i].Priority > policies[j].Priority
		}
		return policies[i].Name < policies[j].Name
	})
}

func validatePolicy(policy model.Policy) error {
	if policy.Name == "" {
		return fmt.Errorf("policy name cannot be empty")
	}

	if policy.Phrase == "" {
		return fmt.Errorf("policy phrase cannot be empty")
	}

	if policy.Mode != "" && !policy.Mode.Valid() {
		return fmt.Errorf("invalid removal mode '%s'. Valid modes: text_only, inline_markup, block_wrapper", policy.Mode)
	}

	if policy.Priority < 0 {
		return fmt.Errorf("priority cannot be negative")
	}

	return nil
}

// loadData loads policies from the data file.
func (s *Store) loadData() error {
	dir := filepath.Dir(s.dataFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := os.ReadFile(s.dataFilePath) // #nosec G304 -- path is built from the server's own data dir
	if err != nil {
		return err
	}

	var policies []model.Policy
	if err := json.Unmarshal(data, &policies); err != nil {
		return fmt.Errorf("failed to parse policy data: %w", err)
	}

	s.policies = make(map[string]model.Policy)
	for _, policy := range policies {
		s.policies[policy.ID] = policy
	}

	return nil
}

// saveData saves policies to the data file.
func (s *Store) saveData() error {
	policies := make([]model.Policy, 0, len(s.policies))
	for _, policy := range s.policies {
		policies = append(policies, policy)
	}
	sortPolicies(policies)

	data, err := json.MarshalIndent(policies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal policy data: %w", err)
	}

	dir := filepath.Dir(s.dataFilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := os.WriteFile(s.dataFilePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write policy data: %w", err)
	}

	return nil
}
