package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed ingest.yaml
var ingestYAML []byte

type Config struct {
	Twitter   TwitterConfig
	Embedding EmbeddingConfig
	Database  DatabaseConfig
	Ingest    IngestConfig
}

type TwitterConfig struct {
	BaseURL     string // defaults to https://api.twitter.com
	BearerToken string
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
	Dim int    // defaults to 512
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
	UseHNSW      bool   // Build an in-memory HNSW index over identities at startup
}

// IngestConfig holds batch ingestion tunables. Defaults live in the
// embedded ingest.yaml; none of them changes ingestion semantics, only
// chunking and pacing against the external directory.
type IngestConfig struct {
	ChunkSize        int `yaml:"chunk_size"`
	PauseMs          int `yaml:"pause_ms"`
	RecentMaxResults int `yaml:"recent_max_results"`
	DownloadTimeoutS int `yaml:"download_timeout_s"`
}

type ingestFile struct {
	Ingest IngestConfig `yaml:"ingest"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean flag.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func Load() *Config {
	var ingest ingestFile
	if err := yaml.Unmarshal(ingestYAML, &ingest); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded ingest.yaml: " + err.Error())
	}

	return &Config{
		Twitter: TwitterConfig{
			BaseURL:     os.Getenv("TW_API_URL"),
			BearerToken: os.Getenv("TW_BEARER_TOKEN"),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
			Dim: envInt("EMBEDDING_DIM", 512),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
			UseHNSW:      envBool("IDENTITY_HNSW", false),
		},
		Ingest: ingest.Ingest,
	}
}
