package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database"
	"github.com/facetrace/facetrace/internal/ingest"
	"github.com/facetrace/facetrace/internal/twitter"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Harvest public social profiles into the catalog",
	Long: `Commands for harvesting public Twitter profiles. Each profile's
avatar is downloaded, embedded and stored so it can be matched against
registered faces.`,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// newIngestor wires the Twitter client and face pipeline into an ingestor.
func newIngestor(cfg *config.Config, store database.ProfileWriter) (*ingest.Ingestor, error) {
	if cfg.Twitter.BearerToken == "" {
		return nil, errors.New("TW_BEARER_TOKEN environment variable is required")
	}

	source := twitter.NewClient(cfg.Twitter.BaseURL, cfg.Twitter.BearerToken)
	return ingest.New(source, newFacePipeline(cfg), store, cfg.Ingest), nil
}
