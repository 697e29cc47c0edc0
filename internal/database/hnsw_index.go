package database

import (
	"errors"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// HNSW graph tuning; mirrors the pgvector index parameters so both
// search paths have comparable recall.
const hnswMaxNeighbors = 16

// HNSWIndex wraps an in-memory HNSW graph over registered identities for
// O(log N) similarity search. PostgreSQL stays the source of truth; the
// index is rebuilt from it at startup and kept in sync on upserts.
type HNSWIndex struct {
	graph        *hnsw.Graph[string]
	idToIdentity map[string]*IdentityRecord
	mu           sync.RWMutex
}

// NewHNSWIndex creates a new empty HNSW index.
func NewHNSWIndex() *HNSWIndex {
	return &HNSWIndex{
		idToIdentity: make(map[string]*IdentityRecord),
	}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // Standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// BuildFromIdentities builds the index from a slice of identities.
func (h *HNSWIndex) BuildFromIdentities(identities []IdentityRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.idToIdentity = make(map[string]*IdentityRecord, len(identities))
	if len(identities) == 0 {
		h.graph = nil
		return nil
	}

	g := newGraph()
	for i := range identities {
		rec := &identities[i]
		if len(rec.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(rec.UserID, rec.Embedding))
		h.idToIdentity[rec.UserID] = rec
	}

	h.graph = g
	return nil
}

// Upsert adds or replaces a single identity in the index.
func (h *HNSWIndex) Upsert(rec IdentityRecord) {
	if len(rec.Embedding) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.graph == nil {
		h.graph = newGraph()
	}
	// Graph.Add panics when re-inserting an existing key, so drop the
	// old node first on replacement.
	if _, exists := h.idToIdentity[rec.UserID]; exists {
		h.graph.Delete(rec.UserID)
	}
	h.graph.Add(hnsw.MakeNode(rec.UserID, rec.Embedding))
	h.idToIdentity[rec.UserID] = &rec
}

// Search returns up to k identities ordered by descending cosine
// similarity to the query. Scores are recomputed from the current map
// entry, so an updated identity never matches against a stale vector.
func (h *HNSWIndex) Search(query []float32, k int) ([]Match, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph == nil {
		return nil, errors.New("index not initialized")
	}

	neighbors := h.graph.Search(query, k)

	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		rec, ok := h.idToIdentity[n.Key]
		if !ok {
			continue
		}
		matches = append(matches, Match{
			UserID:      rec.UserID,
			DisplayName: rec.DisplayName,
			Score:       CosineSimilarity(query, rec.Embedding),
		})
	}

	// Recomputed scores can disagree with graph order after an update;
	// re-sort so the ordering contract always holds.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}

// Count returns the number of indexed identities.
func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToIdentity)
}

// IsEmpty returns true if no graph has been built yet.
func (h *HNSWIndex) IsEmpty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.graph == nil
}
