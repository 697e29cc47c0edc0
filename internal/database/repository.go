package database

import (
	"context"
)

// DefaultTopK is the number of matches a search returns when the caller
// does not ask for a specific count.
const DefaultTopK = 5

// IdentityWriter provides write access to registered identities.
type IdentityWriter interface {
	// UpsertIdentity stores or replaces the embedding for a subject.
	// Last write wins; there is no merge or versioning.
	UpsertIdentity(ctx context.Context, rec IdentityRecord) error
}

// IdentityReader provides read access and similarity search over
// registered identities.
type IdentityReader interface {
	// GetIdentity retrieves an identity by key, nil if not found.
	GetIdentity(ctx context.Context, userID string) (*IdentityRecord, error)
	// CountIdentities returns the number of identities stored.
	CountIdentities(ctx context.Context) (int, error)
	// Rank returns up to k identities ordered by descending cosine
	// similarity to the query vector. A catalog smaller than k returns
	// everything; that is not an error.
	Rank(ctx context.Context, query []float32, k int) ([]Match, error)
}

// ProfileWriter provides write access to harvested public profiles.
type ProfileWriter interface {
	// UpsertProfile stores or replaces a profile keyed by
	// (platform, profile id). Last write wins.
	UpsertProfile(ctx context.Context, rec ProfileRecord) error
}

// ProfileReader provides read access to harvested public profiles.
type ProfileReader interface {
	// GetProfile retrieves a profile by its composite key, nil if not found.
	GetProfile(ctx context.Context, platform, profileID string) (*ProfileRecord, error)
	// CountProfiles returns the number of profiles stored.
	CountProfiles(ctx context.Context) (int, error)
	// FindProfilesByName retrieves profiles whose display name matches the
	// given name. Names are normalized before comparison (lowercase, no
	// diacritics, dashes to spaces).
	FindProfilesByName(ctx context.Context, name string) ([]ProfileRecord, error)
}

// Catalog bundles the full store surface the serve command wires up.
type Catalog interface {
	IdentityWriter
	IdentityReader
	ProfileWriter
	ProfileReader
}
