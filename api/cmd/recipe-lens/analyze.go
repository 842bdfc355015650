package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recipe-lens/api/internal/analyze"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Run the pipeline on a local image and print the JSON result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		a, err := buildApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.svc.Analyze(cmd.Context(), analyze.Request{Image: data, Source: "cli"})
		if err != nil {
			return fmt.Errorf("analyze %s: %w", args[0], err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
