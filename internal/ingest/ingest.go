// Package ingest harvests public social profiles, embeds their avatars
// and writes them to the catalog in paced batches.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/twitter"
)

// PlatformTwitter is the platform tag stored with harvested profiles.
const PlatformTwitter = "twitter"

// maxAvatarBytes caps a single avatar download.
const maxAvatarBytes = 10 << 20

// ProfileSource resolves handles and search queries into public profiles.
type ProfileSource interface {
	LookupUsers(ctx context.Context, usernames []string) ([]twitter.Profile, error)
	SearchRecentAuthors(ctx context.Context, query string, maxResults int) ([]twitter.Profile, error)
}

// Embedder turns raw image bytes into a canonical face embedding.
type Embedder interface {
	EmbedFace(ctx context.Context, imageData []byte) ([]float32, error)
	Dim() int
}

// Stats summarizes an ingestion run. Stored plus Skipped equals the
// number of profiles the source returned.
type Stats struct {
	Stored  int
	Skipped int
}

// Ingestor drives the harvest loop: batch profile lookups, avatar
// downloads, embedding and catalog writes. One bad profile never stops
// the run; it is counted as skipped.
type Ingestor struct {
	source   ProfileSource
	embedder Embedder
	store    database.ProfileWriter
	limiter  *rate.Limiter
	client   *http.Client

	chunkSize int
	recentMax int

	// Optional progress bar, nil keeps the run silent.
	Bar *progressbar.ProgressBar
}

// New creates an ingestor with pacing and chunking from the config.
func New(source ProfileSource, embedder Embedder, store database.ProfileWriter, cfg config.IngestConfig) *Ingestor {
	pause := time.Duration(cfg.PauseMs) * time.Millisecond
	if pause <= 0 {
		pause = 500 * time.Millisecond
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 || chunkSize > 100 {
		chunkSize = 100
	}
	recentMax := cfg.RecentMaxResults
	if recentMax <= 0 {
		recentMax = 10
	}
	timeout := time.Duration(cfg.DownloadTimeoutS) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Ingestor{
		source:    source,
		embedder:  embedder,
		store:     store,
		limiter:   rate.NewLimiter(rate.Every(pause), 1),
		client:    &http.Client{Timeout: timeout},
		chunkSize: chunkSize,
		recentMax: recentMax,
	}
}

// IngestHandles resolves the handles in chunks and stores every profile
// with a usable avatar face.
func (ing *Ingestor) IngestHandles(ctx context.Context, handles []string) (Stats, error) {
	var stats Stats

	for _, chunk := range chunkStrings(handles, ing.chunkSize) {
		if err := ing.limiter.Wait(ctx); err != nil {
			return stats, fmt.Errorf("rate limiter: %w", err)
		}

		profiles, err := ing.source.LookupUsers(ctx, chunk)
		if err != nil {
			return stats, fmt.Errorf("lookup handles: %w", err)
		}

		// handles the API did not resolve count as skipped
		stats.Skipped += len(chunk) - len(profiles)
		ing.barAdd(len(chunk) - len(profiles))

		s := ing.storeProfiles(ctx, profiles)
		stats.Stored += s.Stored
		stats.Skipped += s.Skipped
	}
	return stats, nil
}

// IngestRecent searches recent tweets for the keyword and stores the
// distinct authors' profiles.
func (ing *Ingestor) IngestRecent(ctx context.Context, keyword string) (Stats, error) {
	if err := ing.limiter.Wait(ctx); err != nil {
		return Stats{}, fmt.Errorf("rate limiter: %w", err)
	}

	profiles, err := ing.source.SearchRecentAuthors(ctx, keyword, ing.recentMax)
	if err != nil {
		return Stats{}, fmt.Errorf("search recent: %w", err)
	}
	return ing.storeProfiles(ctx, profiles), nil
}

// storeProfiles processes each profile independently. Failures are
// counted, not propagated.
func (ing *Ingestor) storeProfiles(ctx context.Context, profiles []twitter.Profile) Stats {
	var stats Stats
	for _, p := range profiles {
		if err := ing.storeProfile(ctx, p); err != nil {
			stats.Skipped++
		} else {
			stats.Stored++
		}
		ing.barAdd(1)
	}
	return stats
}

// storeProfile downloads the fullsize avatar, embeds it and upserts the
// catalog row.
func (ing *Ingestor) storeProfile(ctx context.Context, p twitter.Profile) error {
	if p.ProfileImageURL == "" {
		return fmt.Errorf("profile %s has no avatar", p.ID)
	}

	imageURL := twitter.FullsizeAvatar(p.ProfileImageURL)
	data, err := ing.download(ctx, imageURL)
	if err != nil {
		return fmt.Errorf("download avatar for %s: %w", p.Username, err)
	}

	emb, err := ing.embedder.EmbedFace(ctx, data)
	if err != nil {
		return fmt.Errorf("embed avatar for %s: %w", p.Username, err)
	}

	rec := database.ProfileRecord{
		Platform:    PlatformTwitter,
		ProfileID:   p.ID,
		DisplayName: p.Name,
		ImageURL:    imageURL,
		Embedding:   emb,
		Dim:         ing.embedder.Dim(),
	}
	if err := ing.store.UpsertProfile(ctx, rec); err != nil {
		return fmt.Errorf("store profile %s: %w", p.Username, err)
	}
	return nil
}

func (ing *Ingestor) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := ing.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes))
	if err != nil {
		return nil, fmt.Errorf("could not read image: %w", err)
	}
	return data, nil
}

func (ing *Ingestor) barAdd(n int) {
	if ing.Bar != nil && n > 0 {
		_ = ing.Bar.Add(n)
	}
}

// chunkStrings splits items into slices of at most size elements.
func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for len(items) > size {
		chunks = append(chunks, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}
