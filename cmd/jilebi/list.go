package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// listCmd prints the loaded plugins and what each one exposes, including
// the permission grants so a user can audit what a tool may touch.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded plugins, their tools and their permission grants",
	RunE: func(_ *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		for _, m := range rt.registry.Manifests() {
			fmt.Printf("%s %s\n", m.Name, m.Version)

			toolIDs := make([]string, 0, len(m.Tools))
			for id := range m.Tools {
				toolIDs = append(toolIDs, id)
			}
			sort.Strings(toolIDs)
			for _, id := range toolIDs {
				t := m.Tools[id]
				fmt.Printf("  tool %s - %s\n", id, t.Description)
				printGrants(t.Permissions.Hosts, "hosts")
				printGrants(t.Permissions.URLs, "urls")
				printGrants(t.Permissions.ReadDirs, "read_dirs")
				printGrants(t.Permissions.WriteDirs, "write_dirs")
				printGrants(t.Permissions.ReadFiles, "read_files")
				printGrants(t.Permissions.WriteFiles, "write_files")
				printGrants(t.Permissions.ConfigKeys, "config_keys")
			}
			for id, r := range m.Resources {
				fmt.Printf("  resource %s (%s) - %s\n", id, r.URI, r.Description)
			}
			for id, p := range m.Prompts {
				fmt.Printf("  prompt %s - %s\n", id, p.Description)
			}
			fmt.Println()
		}
		return nil
	},
}

func printGrants(entries []string, label string) {
	if len(entries) == 0 {
		return
	}
	fmt.Printf("    %s:", label)
	for _, e := range entries {
		fmt.Printf(" %s", e)
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(listCmd)
}
