package cmd

import (
	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect harvested profiles",
	Long:  `Commands for inspecting the harvested public profile catalog.`,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
