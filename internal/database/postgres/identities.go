package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/pgvector/pgvector-go"
)

// hnswEfSearch matches the in-memory graph configuration so both search
// paths have comparable recall.
const hnswEfSearch = 100

// IdentityRepository provides PostgreSQL-backed identity storage with an
// optional in-memory HNSW index for the search path.
type IdentityRepository struct {
	pool        *Pool
	hnswIndex   *database.HNSWIndex
	hnswEnabled bool
	hnswMu      sync.RWMutex
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// UpsertIdentity stores or replaces the embedding for a subject.
// Calling twice with the same key leaves only the latest embedding; the
// unique-key overwrite is the only conflict resolution in play.
func (r *IdentityRepository) UpsertIdentity(ctx context.Context, rec database.IdentityRecord) error {
	query := `
		INSERT INTO identities (user_id, display_name, embedding, dim)
		VALUES ($1, $2, $3::vector, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			embedding = EXCLUDED.embedding,
			dim = EXCLUDED.dim,
			updated_at = NOW()
	`

	var name sql.NullString
	if rec.DisplayName != "" {
		name = sql.NullString{String: rec.DisplayName, Valid: true}
	}

	vec := pgvector.NewVector(rec.Embedding)
	if _, err := r.pool.Exec(ctx, query, rec.UserID, name, vec, rec.Dim); err != nil {
		return fmt.Errorf("upsert identity %s: %w", rec.UserID, err)
	}

	if idx := r.activeHNSW(); idx != nil {
		idx.Upsert(rec)
	}
	return nil
}

// GetIdentity retrieves an identity by key, nil if not found.
func (r *IdentityRepository) GetIdentity(ctx context.Context, userID string) (*database.IdentityRecord, error) {
	query := `
		SELECT user_id, display_name, embedding, dim, created_at, updated_at
		FROM identities
		WHERE user_id = $1
	`

	rec, err := scanIdentity(r.pool.QueryRow(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity %s: %w", userID, err)
	}
	return &rec, nil
}

// CountIdentities returns the number of identities stored.
func (r *IdentityRepository) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM identities").Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}
	return count, nil
}

// Rank returns up to k identities ordered by descending cosine
// similarity to the query vector. Uses the in-memory HNSW index when
// enabled, otherwise pgvector.
func (r *IdentityRepository) Rank(ctx context.Context, query []float32, k int) ([]database.Match, error) {
	if k <= 0 {
		k = database.DefaultTopK
	}

	if idx := r.activeHNSW(); idx != nil && !idx.IsEmpty() {
		matches, err := idx.Search(query, k)
		if err != nil {
			return nil, fmt.Errorf("HNSW search: %w", err)
		}
		return matches, nil
	}

	return r.rankPostgres(ctx, query, k)
}

// rankPostgres runs the similarity query against pgvector with ef_search
// raised for better recall.
func (r *IdentityRepository) rankPostgres(ctx context.Context, query []float32, k int) ([]database.Match, error) {
	tx, err := r.pool.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", hnswEfSearch)); err != nil {
		return nil, fmt.Errorf("set ef_search: %w", err)
	}

	stmt := `
		SELECT user_id, display_name, 1 - (embedding <=> $1::vector) AS similarity
		FROM identities
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`

	vec := pgvector.NewVector(query)
	rows, err := tx.QueryContext(ctx, stmt, vec, k)
	if err != nil {
		return nil, fmt.Errorf("query similar identities: %w", err)
	}
	defer rows.Close()

	var matches []database.Match
	for rows.Next() {
		var m database.Match
		var name sql.NullString
		if err := rows.Scan(&m.UserID, &name, &m.Score); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if name.Valid {
			m.DisplayName = name.String
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}

	return matches, nil
}

// GetAllIdentities retrieves every identity, used to build the HNSW index.
func (r *IdentityRepository) GetAllIdentities(ctx context.Context) ([]database.IdentityRecord, error) {
	query := `
		SELECT user_id, display_name, embedding, dim, created_at, updated_at
		FROM identities
		ORDER BY user_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all identities: %w", err)
	}
	defer rows.Close()

	var identities []database.IdentityRecord
	for rows.Next() {
		rec, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		identities = append(identities, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

// EnableHNSW builds the in-memory HNSW index from the current catalog.
// Should be called once at startup; later upserts keep it in sync.
func (r *IdentityRepository) EnableHNSW(ctx context.Context) error {
	identities, err := r.GetAllIdentities(ctx)
	if err != nil {
		return fmt.Errorf("failed to load identities: %w", err)
	}

	idx := database.NewHNSWIndex()
	if err := idx.BuildFromIdentities(identities); err != nil {
		return fmt.Errorf("failed to build HNSW index: %w", err)
	}

	r.hnswMu.Lock()
	r.hnswIndex = idx
	r.hnswEnabled = true
	r.hnswMu.Unlock()
	return nil
}

// HNSWCount returns the number of identities in the HNSW index.
func (r *IdentityRepository) HNSWCount() int {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	if r.hnswIndex == nil {
		return 0
	}
	return r.hnswIndex.Count()
}

// activeHNSW returns the HNSW index when enabled, nil otherwise. The
// index may be empty; an empty catalog at startup still gets indexed as
// identities register.
func (r *IdentityRepository) activeHNSW() *database.HNSWIndex {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	if !r.hnswEnabled {
		return nil
	}
	return r.hnswIndex
}

// scanIdentity scans a single row into an IdentityRecord.
func scanIdentity(scanner interface{ Scan(...any) error }) (database.IdentityRecord, error) {
	var rec database.IdentityRecord
	var vec pgvector.Vector
	var name sql.NullString

	if err := scanner.Scan(&rec.UserID, &name, &vec, &rec.Dim, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan identity: %w", err)
	}

	rec.Embedding = vec.Slice()
	if name.Valid {
		rec.DisplayName = name.String
	}
	return rec, nil
}

// Verify interface compliance.
var _ database.IdentityReader = (*IdentityRepository)(nil)
var _ database.IdentityWriter = (*IdentityRepository)(nil)
