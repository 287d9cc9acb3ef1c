package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Datron/jilebi/internal/domain/manifest"
)

// validateCmd parses and validates a manifest.toml without loading the
// plugin, so authors can check permission patterns and input schemas
// before shipping.
var validateCmd = &cobra.Command{
	Use:   "validate <manifest.toml>",
	Short: "Validate a plugin manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		m, err := manifest.Load(data)
		if err != nil {
			return fmt.Errorf("manifest is invalid: %w", err)
		}
		fmt.Printf("%s %s is valid: %d tools, %d resources, %d prompts\n",
			m.Name, m.Version, len(m.Tools), len(m.Resources), len(m.Prompts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
