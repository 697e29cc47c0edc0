package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/facetrace/facetrace/internal/database/postgres"
)

var profilesFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Find harvested profiles by display name",
	Long: `Look up profiles whose display name matches the given name.
Comparison ignores case, accents and hyphens.`,
	RunE: runProfilesFind,
}

func init() {
	profilesCmd.AddCommand(profilesFindCmd)

	profilesFindCmd.Flags().String("name", "", "Display name to search for")
}

func runProfilesFind(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	name := mustGetString(cmd, "name")
	if name == "" {
		return errors.New("--name is required")
	}

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	repo := postgres.NewProfileRepository(pool)

	profiles, err := repo.FindProfilesByName(context.Background(), name)
	if err != nil {
		return fmt.Errorf("finding profiles: %w", err)
	}

	if len(profiles) == 0 {
		fmt.Println("No profiles found")
		return nil
	}
	for _, p := range profiles {
		fmt.Printf("%s/%s  %s  %s\n", p.Platform, p.ProfileID, p.DisplayName, p.ImageURL)
	}
	return nil
}
