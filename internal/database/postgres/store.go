package postgres

import "github.com/facetrace/facetrace/internal/database"

// Store bundles the identity and profile repositories into the full
// catalog surface.
type Store struct {
	*IdentityRepository
	*ProfileRepository
}

// NewStore creates repositories over the given pool.
func NewStore(pool *Pool) *Store {
	return &Store{
		IdentityRepository: NewIdentityRepository(pool),
		ProfileRepository:  NewProfileRepository(pool),
	}
}

// Verify interface compliance.
var _ database.Catalog = (*Store)(nil)
