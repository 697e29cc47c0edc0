package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database/postgres"
	"github.com/facetrace/facetrace/internal/ingest"
)

var ingestHandlesCmd = &cobra.Command{
	Use:   "handles",
	Short: "Ingest profiles by Twitter handle",
	Long: `Resolve Twitter handles into profiles and store their avatar
embeddings. Handles come from --handles, --file, or both. Profiles
whose avatar cannot be downloaded or contains no face are skipped.`,
	RunE: runIngestHandles,
}

func init() {
	ingestCmd.AddCommand(ingestHandlesCmd)

	ingestHandlesCmd.Flags().String("handles", "", "Comma separated list of handles")
	ingestHandlesCmd.Flags().String("file", "", "File with one handle per line")
}

// collectHandles gathers handles from both flag sources.
func collectHandles(cmd *cobra.Command) ([]string, error) {
	handles := ingest.ParseHandles(mustGetString(cmd, "handles"))

	if path := mustGetString(cmd, "file"); path != "" {
		fromFile, err := ingest.ReadHandlesFile(path)
		if err != nil {
			return nil, err
		}
		handles = append(handles, fromFile...)
	}

	if len(handles) == 0 {
		return nil, errors.New("no handles given, use --handles or --file")
	}
	return handles, nil
}

func runIngestHandles(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	handles, err := collectHandles(cmd)
	if err != nil {
		return err
	}

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}

	ing, err := newIngestor(cfg, postgres.NewProfileRepository(pool))
	if err != nil {
		return err
	}

	ing.Bar = progressbar.NewOptions(len(handles),
		progressbar.OptionSetDescription("Ingesting profiles"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("profiles"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	stats, err := ing.IngestHandles(context.Background(), handles)
	if err != nil {
		return fmt.Errorf("ingesting handles: %w", err)
	}

	fmt.Printf("\nStored %d profiles (%d skipped)\n", stats.Stored, stats.Skipped)
	return nil
}
