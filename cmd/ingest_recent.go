package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database/postgres"
)

var ingestRecentCmd = &cobra.Command{
	Use:   "recent <keyword>",
	Short: "Ingest profiles of recent tweet authors",
	Long: `Search recent tweets for a keyword and store the authors'
profiles. An author who tweeted several times is stored once.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestRecent,
}

func init() {
	ingestCmd.AddCommand(ingestRecentCmd)
}

func runIngestRecent(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	keyword := args[0]

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}

	ing, err := newIngestor(cfg, postgres.NewProfileRepository(pool))
	if err != nil {
		return err
	}

	stats, err := ing.IngestRecent(context.Background(), keyword)
	if err != nil {
		return fmt.Errorf("ingesting recent authors: %w", err)
	}

	fmt.Printf("Stored %d profiles (%d skipped)\n", stats.Stored, stats.Skipped)
	return nil
}
