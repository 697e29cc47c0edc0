package database

import (
	"testing"
)

func unitVec(dim, hot int) []float32 {
	v := make([]float32, dim)
	v[hot] = 1
	return v
}

func TestHNSWIndex_BuildAndSearch(t *testing.T) {
	idx := NewHNSWIndex()

	identities := []IdentityRecord{
		{UserID: "u1", Embedding: unitVec(8, 0)},
		{UserID: "u2", Embedding: unitVec(8, 1)},
		{UserID: "u3", Embedding: unitVec(8, 2)},
	}
	if err := idx.BuildFromIdentities(identities); err != nil {
		t.Fatalf("BuildFromIdentities failed: %v", err)
	}

	if idx.Count() != 3 {
		t.Errorf("expected 3 indexed identities, got %d", idx.Count())
	}

	matches, err := idx.Search(unitVec(8, 1), 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) == 0 || matches[0].UserID != "u2" {
		t.Fatalf("expected u2 as top match, got %+v", matches)
	}
	if matches[0].Score < 0.999 {
		t.Errorf("expected similarity ~1 for exact match, got %f", matches[0].Score)
	}
}

func TestHNSWIndex_SearchOrdering(t *testing.T) {
	idx := NewHNSWIndex()
	if err := idx.BuildFromIdentities([]IdentityRecord{
		{UserID: "close", Embedding: []float32{0.9, 0.43589, 0}},
		{UserID: "far", Embedding: unitVec(3, 2)},
		{UserID: "exact", Embedding: unitVec(3, 0)},
	}); err != nil {
		t.Fatalf("BuildFromIdentities failed: %v", err)
	}

	matches, err := idx.Search(unitVec(3, 0), 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not ordered by descending score: %+v", matches)
		}
	}
	if matches[0].UserID != "exact" {
		t.Errorf("expected 'exact' first, got %s", matches[0].UserID)
	}
}

func TestHNSWIndex_UpsertReplaces(t *testing.T) {
	idx := NewHNSWIndex()
	idx.Upsert(IdentityRecord{UserID: "u1", Embedding: unitVec(4, 0)})
	idx.Upsert(IdentityRecord{UserID: "u2", Embedding: unitVec(4, 1)})

	// Re-register u1 with a different vector.
	idx.Upsert(IdentityRecord{UserID: "u1", Embedding: unitVec(4, 3)})

	if idx.Count() != 2 {
		t.Errorf("expected 2 identities after re-upsert, got %d", idx.Count())
	}

	matches, err := idx.Search(unitVec(4, 3), 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches without duplicates, got %+v", matches)
	}
	if matches[0].UserID != "u1" || matches[0].Score < 0.999 {
		t.Errorf("expected updated u1 first with score ~1, got %+v", matches)
	}

	// The old vector must be gone.
	stale, err := idx.Search(unitVec(4, 0), 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if stale[0].UserID == "u1" && stale[0].Score > 0.5 {
		t.Errorf("stale vector still indexed for u1: %+v", stale)
	}
}

func TestHNSWIndex_BuildEmptyThenUpsert(t *testing.T) {
	idx := NewHNSWIndex()
	if err := idx.BuildFromIdentities(nil); err != nil {
		t.Fatalf("BuildFromIdentities failed: %v", err)
	}

	idx.Upsert(IdentityRecord{UserID: "u1", Embedding: unitVec(4, 0)})

	matches, err := idx.Search(unitVec(4, 0), 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].UserID != "u1" {
		t.Errorf("expected u1 indexed after empty build, got %+v", matches)
	}
}

func TestHNSWIndex_EmptySearch(t *testing.T) {
	idx := NewHNSWIndex()
	if _, err := idx.Search(unitVec(4, 0), 5); err == nil {
		t.Error("expected error for search on empty index")
	}
	if !idx.IsEmpty() {
		t.Error("expected empty index")
	}
}

func TestHNSWIndex_UpsertIntoEmpty(t *testing.T) {
	idx := NewHNSWIndex()
	idx.Upsert(IdentityRecord{UserID: "u1", DisplayName: "First", Embedding: unitVec(4, 0)})

	matches, err := idx.Search(unitVec(4, 0), 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].DisplayName != "First" {
		t.Errorf("expected single match with display name, got %+v", matches)
	}
}
