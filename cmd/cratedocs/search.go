package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search crates",
	Long: `Search crates by name and description.

Examples:
  cratedocs search serde
  cratedocs search async runtime`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearchCmd,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearchCmd(_ *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	client := NewClient(serverURL)
	results, err := client.Search(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if jsonOutput {
		printJSON(results)
		return nil
	}

	if len(results.Releases) == 0 {
		fmt.Printf("No crates found matching %q\n", query)
		if len(results.Suggestions) > 0 {
			fmt.Printf("Did you mean: %s?\n", strings.Join(results.Suggestions, ", "))
		}
		return nil
	}

	printSearchHuman(query, results)
	return nil
}

func printSearchHuman(query string, r *SearchResponse) {
	fmt.Printf("Found %d releases for %q:\n\n", len(r.Releases), query)
	fmt.Printf("%-30s %-12s %s\n", "CRATE", "VERSION", "DESCRIPTION")

	for _, rel := range r.Releases {
		desc := rel.Description
		if len(desc) > 50 {
			desc = desc[:47] + "..."
		}
		fmt.Printf("%-30s %-12s %s\n", rel.Crate, rel.Version, desc)
	}
}
