package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cratesCmd = &cobra.Command{
	Use:   "crates",
	Short: "List registered crates",
	Args:  cobra.NoArgs,
	RunE:  runCratesCmd,
}

var addCrateCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new crate",
	Long: `Register a new crate.

Examples:
  cratedocs crates add serde --description "Serialization framework"
  cratedocs crates add tokio --repository https://github.com/tokio-rs/tokio`,
	Args: cobra.ExactArgs(1),
	RunE: runAddCrateCmd,
}

func init() {
	rootCmd.AddCommand(cratesCmd)
	cratesCmd.AddCommand(addCrateCmd)
	addCrateCmd.Flags().String("description", "", "Crate description")
	addCrateCmd.Flags().String("repository", "", "Repository URL")
}

func runCratesCmd(_ *cobra.Command, _ []string) error {
	client := NewClient(serverURL)
	crates, err := client.Crates()
	if err != nil {
		return fmt.Errorf("list crates failed: %w", err)
	}

	if jsonOutput {
		printJSON(crates)
		return nil
	}

	if len(crates) == 0 {
		fmt.Println("No crates registered")
		return nil
	}

	for _, c := range crates {
		fmt.Printf("%-30s %s\n", c.Name, c.Description)
	}
	return nil
}

func runAddCrateCmd(cmd *cobra.Command, args []string) error {
	description, _ := cmd.Flags().GetString("description")
	repository, _ := cmd.Flags().GetString("repository")

	client := NewClient(serverURL)
	crate, err := client.AddCrate(AddCrateRequest{
		Name:        args[0],
		Description: description,
		Repository:  repository,
	})
	if err != nil {
		return fmt.Errorf("add crate failed: %w", err)
	}

	if jsonOutput {
		printJSON(crate)
		return nil
	}

	fmt.Printf("Added crate %s\n", crate.Name)
	return nil
}
