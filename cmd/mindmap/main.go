package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toM7x7/LLM-mindmap/pkg/config"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "mindmap",
		Short: "LLM-assisted mind-map editor and backend",
		Long: `mindmap edits mind maps with help from a language model.

  mindmap edit     interactive editor in the terminal
  mindmap serve    REST backend with accounts, stored maps and metered AI`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.ConfigSetPath(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./data/config.json", "path to the JSON config file")

	root.AddCommand(newServeCmd(), newEditCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mindmap %s\n", version)
		},
	}
}
