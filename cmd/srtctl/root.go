package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:8080"

func newRootCommand() *cobra.Command {
	var serverFlag string
	var timeoutFlag time.Duration

	newClient := func() *apiClient {
		return newAPIClient(serverFlag, timeoutFlag)
	}

	rootCmd := &cobra.Command{
		Use:           "srtctl",
		Short:         "Submit and follow subtitle translation jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	server := os.Getenv("SRTCTL_SERVER")
	if server == "" {
		server = defaultServer
	}
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", server, "Base URL of the translation service")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 2*time.Minute, "Per-request timeout")

	rootCmd.AddCommand(newSubmitCommand(newClient))
	rootCmd.AddCommand(newPollCommand(newClient))
	rootCmd.AddCommand(newRunCommand(newClient))
	rootCmd.AddCommand(newExtractCommand())

	return rootCmd
}
