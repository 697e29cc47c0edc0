//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	// Run migrations
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

// axisEmbedding builds a unit vector pointing along the given axis,
// slightly rotated toward the next one so similarities are distinct.
func axisEmbedding(axis int, lean float32) []float32 {
	emb := make([]float32, 512)
	emb[axis%512] = 1 - lean
	emb[(axis+1)%512] = lean
	return emb
}

func TestIdentityRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	t.Run("UpsertAndGet", func(t *testing.T) {
		rec := database.IdentityRecord{
			UserID:      "alice",
			DisplayName: "Alice",
			Embedding:   axisEmbedding(0, 0),
			Dim:         512,
		}
		if err := repo.UpsertIdentity(ctx, rec); err != nil {
			t.Fatalf("Failed to upsert identity: %v", err)
		}

		got, err := repo.GetIdentity(ctx, "alice")
		if err != nil {
			t.Fatalf("Failed to get identity: %v", err)
		}
		if got == nil {
			t.Fatal("Expected identity, got nil")
		}
		if got.DisplayName != "Alice" {
			t.Errorf("Expected DisplayName 'Alice', got '%s'", got.DisplayName)
		}
		if len(got.Embedding) != 512 {
			t.Errorf("Expected 512 dimensions, got %d", len(got.Embedding))
		}
	})

	t.Run("UpsertReplacesEmbedding", func(t *testing.T) {
		first := database.IdentityRecord{
			UserID:    "bob",
			Embedding: axisEmbedding(1, 0),
			Dim:       512,
		}
		second := database.IdentityRecord{
			UserID:      "bob",
			DisplayName: "Bob",
			Embedding:   axisEmbedding(2, 0),
			Dim:         512,
		}
		if err := repo.UpsertIdentity(ctx, first); err != nil {
			t.Fatalf("Failed to upsert identity: %v", err)
		}
		if err := repo.UpsertIdentity(ctx, second); err != nil {
			t.Fatalf("Failed to upsert identity again: %v", err)
		}

		got, err := repo.GetIdentity(ctx, "bob")
		if err != nil {
			t.Fatalf("Failed to get identity: %v", err)
		}
		if got.Embedding[2] == 0 {
			t.Error("Expected second embedding to replace the first")
		}
		if got.DisplayName != "Bob" {
			t.Errorf("Expected DisplayName 'Bob', got '%s'", got.DisplayName)
		}

		count, err := repo.CountIdentities(ctx)
		if err != nil {
			t.Fatalf("Failed to count identities: %v", err)
		}
		// alice + bob, the double upsert must not create a third row
		if count != 2 {
			t.Errorf("Expected 2 identities, got %d", count)
		}
	})

	t.Run("RankOrdering", func(t *testing.T) {
		// carol leans 10% off axis 0, dave 30%, so against an axis 0
		// query the order must be alice, carol, dave
		others := []database.IdentityRecord{
			{UserID: "carol", Embedding: axisEmbedding(0, 0.1), Dim: 512},
			{UserID: "dave", Embedding: axisEmbedding(0, 0.3), Dim: 512},
		}
		for _, rec := range others {
			if err := repo.UpsertIdentity(ctx, rec); err != nil {
				t.Fatalf("Failed to upsert identity: %v", err)
			}
		}

		matches, err := repo.Rank(ctx, axisEmbedding(0, 0), 3)
		if err != nil {
			t.Fatalf("Failed to rank: %v", err)
		}
		if len(matches) != 3 {
			t.Fatalf("Expected 3 matches, got %d", len(matches))
		}
		if matches[0].UserID != "alice" {
			t.Errorf("Expected best match 'alice', got '%s'", matches[0].UserID)
		}
		for i := 1; i < len(matches); i++ {
			if matches[i].Score > matches[i-1].Score {
				t.Error("Matches not sorted by descending similarity")
			}
		}
	})

	t.Run("RankSmallCatalog", func(t *testing.T) {
		matches, err := repo.Rank(ctx, axisEmbedding(0, 0), 50)
		if err != nil {
			t.Fatalf("Failed to rank: %v", err)
		}
		// alice, bob, carol, dave
		if len(matches) != 4 {
			t.Errorf("Expected 4 matches, got %d", len(matches))
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.GetIdentity(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("Failed to get identity: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil, got %+v", got)
		}
	})

	t.Run("HNSWPath", func(t *testing.T) {
		if err := repo.EnableHNSW(ctx); err != nil {
			t.Fatalf("Failed to enable HNSW: %v", err)
		}
		if repo.HNSWCount() != 4 {
			t.Errorf("Expected 4 indexed identities, got %d", repo.HNSWCount())
		}

		matches, err := repo.Rank(ctx, axisEmbedding(0, 0), 2)
		if err != nil {
			t.Fatalf("Failed to rank via HNSW: %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("Expected 2 matches, got %d", len(matches))
		}
		if matches[0].UserID != "alice" {
			t.Errorf("Expected best match 'alice', got '%s'", matches[0].UserID)
		}
	})
}

func TestIdentityRepositoryHNSWEmptyStart(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	// Enabling HNSW on an empty catalog must still leave the index live
	// so later registrations get indexed.
	if err := repo.EnableHNSW(ctx); err != nil {
		t.Fatalf("Failed to enable HNSW: %v", err)
	}
	if repo.HNSWCount() != 0 {
		t.Errorf("Expected empty index, got %d entries", repo.HNSWCount())
	}

	matches, err := repo.Rank(ctx, axisEmbedding(0, 0), 3)
	if err != nil {
		t.Fatalf("Failed to rank on empty catalog: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected no matches on empty catalog, got %+v", matches)
	}

	rec := database.IdentityRecord{
		UserID:      "alice",
		DisplayName: "Alice",
		Embedding:   axisEmbedding(0, 0),
		Dim:         512,
	}
	if err := repo.UpsertIdentity(ctx, rec); err != nil {
		t.Fatalf("Failed to upsert identity: %v", err)
	}

	if repo.HNSWCount() != 1 {
		t.Fatalf("Expected upsert to reach the index, got %d entries", repo.HNSWCount())
	}

	matches, err = repo.Rank(ctx, axisEmbedding(0, 0), 3)
	if err != nil {
		t.Fatalf("Failed to rank via HNSW: %v", err)
	}
	if len(matches) != 1 || matches[0].UserID != "alice" {
		t.Fatalf("Expected alice as only match, got %+v", matches)
	}
	if matches[0].Score < 0.999 {
		t.Errorf("Expected similarity ~1, got %f", matches[0].Score)
	}
}

func TestProfileRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewProfileRepository(pool)

	t.Run("UpsertAndGet", func(t *testing.T) {
		rec := database.ProfileRecord{
			Platform:    "twitter",
			ProfileID:   "12345",
			DisplayName: "Jane Doe",
			ImageURL:    "https://pbs.twimg.com/profile_images/abc.jpg",
			Embedding:   axisEmbedding(0, 0),
			Dim:         512,
		}
		if err := repo.UpsertProfile(ctx, rec); err != nil {
			t.Fatalf("Failed to upsert profile: %v", err)
		}

		got, err := repo.GetProfile(ctx, "twitter", "12345")
		if err != nil {
			t.Fatalf("Failed to get profile: %v", err)
		}
		if got == nil {
			t.Fatal("Expected profile, got nil")
		}
		if got.DisplayName != "Jane Doe" {
			t.Errorf("Expected DisplayName 'Jane Doe', got '%s'", got.DisplayName)
		}
	})

	t.Run("UpsertSameKeyKeepsOneRow", func(t *testing.T) {
		updated := database.ProfileRecord{
			Platform:    "twitter",
			ProfileID:   "12345",
			DisplayName: "Jane D.",
			ImageURL:    "https://pbs.twimg.com/profile_images/def.jpg",
			Embedding:   axisEmbedding(1, 0),
			Dim:         512,
		}
		if err := repo.UpsertProfile(ctx, updated); err != nil {
			t.Fatalf("Failed to upsert profile: %v", err)
		}

		count, err := repo.CountProfiles(ctx)
		if err != nil {
			t.Fatalf("Failed to count profiles: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 profile, got %d", count)
		}

		got, err := repo.GetProfile(ctx, "twitter", "12345")
		if err != nil {
			t.Fatalf("Failed to get profile: %v", err)
		}
		if got.DisplayName != "Jane D." {
			t.Errorf("Expected updated DisplayName 'Jane D.', got '%s'", got.DisplayName)
		}
		if got.Embedding[1] == 0 {
			t.Error("Expected updated embedding")
		}
	})

	t.Run("SameIDOtherPlatformIsSeparate", func(t *testing.T) {
		rec := database.ProfileRecord{
			Platform:    "instagram",
			ProfileID:   "12345",
			DisplayName: "Someone Else",
			Embedding:   axisEmbedding(2, 0),
			Dim:         512,
		}
		if err := repo.UpsertProfile(ctx, rec); err != nil {
			t.Fatalf("Failed to upsert profile: %v", err)
		}

		count, err := repo.CountProfiles(ctx)
		if err != nil {
			t.Fatalf("Failed to count profiles: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 profiles, got %d", count)
		}
	})

	t.Run("FindByName", func(t *testing.T) {
		rec := database.ProfileRecord{
			Platform:    "twitter",
			ProfileID:   "67890",
			DisplayName: "José Núñez",
			Embedding:   axisEmbedding(3, 0),
			Dim:         512,
		}
		if err := repo.UpsertProfile(ctx, rec); err != nil {
			t.Fatalf("Failed to upsert profile: %v", err)
		}

		profiles, err := repo.FindProfilesByName(ctx, "jose nunez")
		if err != nil {
			t.Fatalf("Failed to find profiles: %v", err)
		}
		if len(profiles) != 1 {
			t.Fatalf("Expected 1 profile, got %d", len(profiles))
		}
		if profiles[0].ProfileID != "67890" {
			t.Errorf("Expected ProfileID '67890', got '%s'", profiles[0].ProfileID)
		}

		profiles, err = repo.FindProfilesByName(ctx, "nobody here")
		if err != nil {
			t.Fatalf("Failed to find profiles: %v", err)
		}
		if len(profiles) != 0 {
			t.Errorf("Expected no profiles, got %d", len(profiles))
		}
	})
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	applied, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}

	expectedMigrations := []string{
		"001_create_identities.sql",
		"002_create_public_profiles.sql",
		"003_create_indexes.sql",
	}

	if len(applied) != len(expectedMigrations) {
		t.Errorf("Expected %d migrations, got %d", len(expectedMigrations), len(applied))
	}

	for i, expected := range expectedMigrations {
		if i < len(applied) && applied[i] != expected {
			t.Errorf("Migration %d: expected '%s', got '%s'", i, expected, applied[i])
		}
	}
}
