// Command smartclaim runs the policy pipeline from a terminal: extract and
// classify PDFs, ask questions about them, and mint session tokens.
package main

import (
	"os"

	"smartclaim/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "smartclaim",
	Short: "Insurance policy assistant tools",
	Long:  "Command line access to PDF extraction, policy classification and question answering.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
