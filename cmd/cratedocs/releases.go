package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "Manage crate releases",
}

var addReleaseCmd = &cobra.Command{
	Use:   "add <crate> <version>",
	Short: "Publish a new release",
	Long: `Publish a new release of a crate.

Examples:
  cratedocs releases add serde 1.0.200
  cratedocs releases add serde 1.0.201 --description "Bugfix release"`,
	Args: cobra.ExactArgs(2),
	RunE: runAddReleaseCmd,
}

var yankCmd = &cobra.Command{
	Use:   "yank <crate> <version>",
	Short: "Yank or unyank a release",
	Long: `Yank a release so version resolution skips it. Direct links keep working.

Examples:
  cratedocs releases yank serde 1.0.200
  cratedocs releases yank serde 1.0.200 --undo`,
	Args: cobra.ExactArgs(2),
	RunE: runYankCmd,
}

func init() {
	rootCmd.AddCommand(releasesCmd)
	releasesCmd.AddCommand(addReleaseCmd)
	releasesCmd.AddCommand(yankCmd)
	addReleaseCmd.Flags().String("description", "", "Release description")
	yankCmd.Flags().Bool("undo", false, "Unyank instead of yank")
}

func runAddReleaseCmd(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")

	client := NewClient(serverURL)
	rel, err := client.AddRelease(AddReleaseRequest{
		Crate:       args[0],
		Version:     args[1],
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("add release failed: %w", err)
	}

	if jsonOutput {
		printJSON(rel)
		return nil
	}

	fmt.Printf("Published %s %s\n", rel.Crate, rel.Version)
	return nil
}

func runYankCmd(cmd *cobra.Command, args []string) error {
	undo, _ := cmd.Flags().GetBool("undo")

	client := NewClient(serverURL)
	err := client.YankRelease(YankReleaseRequest{
		Crate:   args[0],
		Version: args[1],
		Undo:    undo,
	})
	if err != nil {
		return fmt.Errorf("yank failed: %w", err)
	}

	verb := "Yanked"
	if undo {
		verb = "Unyanked"
	}
	fmt.Printf("%s %s %s\n", verb, args[0], args[1])
	return nil
}
