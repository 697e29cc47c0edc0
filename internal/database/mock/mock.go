// Package mock provides in-memory implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/facematch"
)

// MockCatalog is an in-memory implementation of database.Catalog.
// Rank computes real cosine similarities so ordering tests are meaningful.
type MockCatalog struct {
	mu         sync.RWMutex
	identities map[string]database.IdentityRecord
	profiles   map[string]database.ProfileRecord

	// Track calls
	UpsertIdentityCalls []database.IdentityRecord
	UpsertProfileCalls  []database.ProfileRecord

	// Error injection
	UpsertIdentityError error
	UpsertProfileError  error
	GetIdentityError    error
	GetProfileError     error
	CountError          error
	RankError           error
	FindByNameError     error
}

// NewMockCatalog creates an empty mock catalog.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		identities: make(map[string]database.IdentityRecord),
		profiles:   make(map[string]database.ProfileRecord),
	}
}

func profileKey(platform, profileID string) string {
	return platform + "/" + profileID
}

// AddIdentity seeds an identity without going through UpsertIdentity.
func (m *MockCatalog) AddIdentity(rec database.IdentityRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[rec.UserID] = rec
}

// UpsertIdentity stores or replaces the embedding for a subject.
func (m *MockCatalog) UpsertIdentity(ctx context.Context, rec database.IdentityRecord) error {
	if m.UpsertIdentityError != nil {
		return m.UpsertIdentityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertIdentityCalls = append(m.UpsertIdentityCalls, rec)
	m.identities[rec.UserID] = rec
	return nil
}

// GetIdentity retrieves an identity by key, nil if not found.
func (m *MockCatalog) GetIdentity(ctx context.Context, userID string) (*database.IdentityRecord, error) {
	if m.GetIdentityError != nil {
		return nil, m.GetIdentityError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.identities[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// CountIdentities returns the number of identities stored.
func (m *MockCatalog) CountIdentities(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities), nil
}

// Rank returns up to k identities ordered by descending cosine similarity.
func (m *MockCatalog) Rank(ctx context.Context, query []float32, k int) ([]database.Match, error) {
	if m.RankError != nil {
		return nil, m.RankError
	}
	if k <= 0 {
		k = database.DefaultTopK
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []database.Match
	for _, rec := range m.identities {
		matches = append(matches, database.Match{
			UserID:      rec.UserID,
			DisplayName: rec.DisplayName,
			Score:       database.CosineSimilarity(query, rec.Embedding),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// UpsertProfile stores or replaces a profile keyed by (platform, profile id).
func (m *MockCatalog) UpsertProfile(ctx context.Context, rec database.ProfileRecord) error {
	if m.UpsertProfileError != nil {
		return m.UpsertProfileError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertProfileCalls = append(m.UpsertProfileCalls, rec)
	m.profiles[profileKey(rec.Platform, rec.ProfileID)] = rec
	return nil
}

// GetProfile retrieves a profile by its composite key, nil if not found.
func (m *MockCatalog) GetProfile(ctx context.Context, platform, profileID string) (*database.ProfileRecord, error) {
	if m.GetProfileError != nil {
		return nil, m.GetProfileError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.profiles[profileKey(platform, profileID)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// CountProfiles returns the number of profiles stored.
func (m *MockCatalog) CountProfiles(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles), nil
}

// FindProfilesByName retrieves profiles matching the normalized name.
func (m *MockCatalog) FindProfilesByName(ctx context.Context, name string) ([]database.ProfileRecord, error) {
	if m.FindByNameError != nil {
		return nil, m.FindByNameError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := facematch.NormalizeName(name)
	var result []database.ProfileRecord
	for _, rec := range m.profiles {
		if facematch.NormalizeName(rec.DisplayName) == want {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Platform != result[j].Platform {
			return result[i].Platform < result[j].Platform
		}
		return result[i].ProfileID < result[j].ProfileID
	})
	return result, nil
}

// Verify interface compliance
var _ database.Catalog = (*MockCatalog)(nil)
