// Package cmd wires the CLI entry points.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile      string
	providerFlag string
	modelFlag    string
	addrFlag     string
)

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	rootCmd := &cobra.Command{
		Use:   "wally",
		Short: "Document-assistant chat service",
		Long:  "wally serves the document-translation assistant's chat API over HTTP.",
		// Running wally with no subcommand starts the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(version)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/wally/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "override provider")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "override model")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "override listen address (host:port)")

	rootCmd.AddCommand(newServeCmd(version))
	rootCmd.AddCommand(newVersionCmd(version, commit, date))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wally version %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
