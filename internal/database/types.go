package database

import (
	"time"
)

// IdentityRecord is a subject whose face is known, registered through the
// API. At most one current embedding exists per UserID; a later register
// for the same key replaces it.
type IdentityRecord struct {
	UserID      string
	DisplayName string
	Embedding   []float32 // unit-normalized, Dim components
	Dim         int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileRecord is a harvested, externally sourced identity. The pair
// (Platform, ProfileID) is the uniqueness invariant: re-ingesting the
// same profile updates in place, never creates a second row.
type ProfileRecord struct {
	Platform    string
	ProfileID   string
	DisplayName string
	ImageURL    string // canonical full-size avatar URL
	Embedding   []float32
	Dim         int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Match is one entry of a similarity search result: an identity key and
// its cosine similarity to the query, higher is closer.
type Match struct {
	UserID      string  `json:"identity"`
	DisplayName string  `json:"display_name,omitempty"`
	Score       float64 `json:"score"`
}
