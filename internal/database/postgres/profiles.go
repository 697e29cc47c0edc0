package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/facematch"
	"github.com/pgvector/pgvector-go"
)

// ProfileRepository provides PostgreSQL-backed storage for harvested
// public profiles.
type ProfileRepository struct {
	pool *Pool
}

// NewProfileRepository creates a new PostgreSQL profile repository.
func NewProfileRepository(pool *Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// UpsertProfile stores or replaces a profile keyed by (platform,
// profile_id). Re-ingesting the same profile overwrites the previous
// row instead of creating a duplicate.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, rec database.ProfileRecord) error {
	query := `
		INSERT INTO public_profiles (platform, profile_id, display_name, image_url, embedding, dim)
		VALUES ($1, $2, $3, $4, $5::vector, $6)
		ON CONFLICT (platform, profile_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			image_url = EXCLUDED.image_url,
			embedding = EXCLUDED.embedding,
			dim = EXCLUDED.dim,
			updated_at = NOW()
	`

	vec := pgvector.NewVector(rec.Embedding)
	_, err := r.pool.Exec(ctx, query,
		rec.Platform, rec.ProfileID, rec.DisplayName, rec.ImageURL, vec, rec.Dim)
	if err != nil {
		return fmt.Errorf("upsert profile %s/%s: %w", rec.Platform, rec.ProfileID, err)
	}
	return nil
}

// GetProfile retrieves a profile by its platform key, nil if not found.
func (r *ProfileRepository) GetProfile(ctx context.Context, platform, profileID string) (*database.ProfileRecord, error) {
	query := `
		SELECT platform, profile_id, display_name, image_url, embedding, dim, created_at, updated_at
		FROM public_profiles
		WHERE platform = $1 AND profile_id = $2
	`

	rec, err := scanProfile(r.pool.QueryRow(ctx, query, platform, profileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s/%s: %w", platform, profileID, err)
	}
	return &rec, nil
}

// CountProfiles returns the number of profiles stored.
func (r *ProfileRepository) CountProfiles(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM public_profiles").Scan(&count); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

// FindProfilesByName looks up profiles whose display name matches after
// accent removal, hyphen folding and lowercasing on both sides.
func (r *ProfileRepository) FindProfilesByName(ctx context.Context, name string) ([]database.ProfileRecord, error) {
	query := `
		SELECT platform, profile_id, display_name, image_url, embedding, dim, created_at, updated_at
		FROM public_profiles
		WHERE LOWER(REPLACE(unaccent(display_name), '-', ' ')) = $1
		ORDER BY platform, profile_id
	`

	rows, err := r.pool.Query(ctx, query, facematch.NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("query profiles by name: %w", err)
	}
	defer rows.Close()

	var profiles []database.ProfileRecord
	for rows.Next() {
		rec, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

// scanProfile scans a single row into a ProfileRecord.
func scanProfile(scanner interface{ Scan(...any) error }) (database.ProfileRecord, error) {
	var rec database.ProfileRecord
	var vec pgvector.Vector
	var name, imageURL sql.NullString

	if err := scanner.Scan(&rec.Platform, &rec.ProfileID, &name, &imageURL, &vec, &rec.Dim, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan profile: %w", err)
	}

	rec.Embedding = vec.Slice()
	if name.Valid {
		rec.DisplayName = name.String
	}
	if imageURL.Valid {
		rec.ImageURL = imageURL.String
	}
	return rec, nil
}

// Verify interface compliance.
var _ database.ProfileReader = (*ProfileRepository)(nil)
var _ database.ProfileWriter = (*ProfileRepository)(nil)
