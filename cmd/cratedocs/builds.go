package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "Manage documentation builds",
}

var addBuildCmd = &cobra.Command{
	Use:   "add <crate> <version>",
	Short: "Record a documentation build",
	Long: `Record a documentation build for a release.

Examples:
  cratedocs builds add serde 1.0.200 --status success --rustc "rustc 1.80.0"
  cratedocs builds add serde 1.0.200 --status failure --log-file build.log`,
	Args: cobra.ExactArgs(2),
	RunE: runAddBuildCmd,
}

func init() {
	rootCmd.AddCommand(buildsCmd)
	buildsCmd.AddCommand(addBuildCmd)
	addBuildCmd.Flags().String("status", "queued", "Build status (queued, in_progress, success, failure)")
	addBuildCmd.Flags().String("rustc", "", "Rustc version used for the build")
	addBuildCmd.Flags().String("log-file", "", "File containing the build log")
}

func runAddBuildCmd(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	rustc, _ := cmd.Flags().GetString("rustc")
	logFile, _ := cmd.Flags().GetString("log-file")

	var buildLog string
	if logFile != "" {
		data, err := os.ReadFile(logFile)
		if err != nil {
			return fmt.Errorf("read log file: %w", err)
		}
		buildLog = string(data)
	}

	client := NewClient(serverURL)
	build, err := client.AddBuild(AddBuildRequest{
		Crate:        args[0],
		Version:      args[1],
		Status:       status,
		RustcVersion: rustc,
		Log:          buildLog,
	})
	if err != nil {
		return fmt.Errorf("add build failed: %w", err)
	}

	if jsonOutput {
		printJSON(build)
		return nil
	}

	fmt.Printf("Recorded build #%d for %s %s (%s)\n", build.ID, build.Crate, build.Version, build.Status)
	return nil
}
