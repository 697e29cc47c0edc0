package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database/postgres"
)

var profilesCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count stored identities and profiles",
	RunE:  runProfilesCount,
}

func init() {
	profilesCmd.AddCommand(profilesCountCmd)
}

func runProfilesCount(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	store := postgres.NewStore(pool)
	ctx := context.Background()

	identities, err := store.CountIdentities(ctx)
	if err != nil {
		return fmt.Errorf("counting identities: %w", err)
	}
	profiles, err := store.CountProfiles(ctx)
	if err != nil {
		return fmt.Errorf("counting profiles: %w", err)
	}

	fmt.Printf("Identities: %d\n", identities)
	fmt.Printf("Profiles:   %d\n", profiles)
	return nil
}
