package cmd

import (
	"github.com/spf13/cobra"

	"usedcar-market/services"
)

var bucketsCmd = &cobra.Command{
	Use:   "buckets",
	Short: "Print the active age and listing-age bucket schemes as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		schemes, err := activeSchemes()
		if err != nil {
			return err
		}
		out, err := services.MarshalSchemes(schemes)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(bucketsCmd)
}
