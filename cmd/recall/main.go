package main

import (
	"os"

	"github.com/spf13/cobra"

	"recall/internal/logger"
)

func main() {
	logger.Init()

	rootCmd := &cobra.Command{
		Use:   "recall",
		Short: "Recall is a conversational memory service for stateless chat models",
	}

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
