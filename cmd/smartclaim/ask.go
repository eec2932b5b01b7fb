package main

import (
	"encoding/json"
	"fmt"

	"smartclaim/internal/advice"
	"smartclaim/internal/logger"
	"smartclaim/internal/models"
	"smartclaim/internal/providers"

	"github.com/spf13/cobra"
)

var (
	askFiles  []string
	askActive int
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about one or more policy PDFs",
	Long: `Extracts the given PDFs and asks the configured inference providers.

With --active N the question is about the Nth file only (1-based); with
--active 0 every file is compared. Without files the question is general.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayVarP(&askFiles, "file", "f", nil, "policy PDF to include (repeatable)")
	askCmd.Flags().IntVar(&askActive, "active", 1, "1-based index of the file to focus on, 0 for all")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the model message as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askActive < 0 {
		return fmt.Errorf("--active must be 0 or a 1-based file index, got %d", askActive)
	}
	log, err := logger.NewLogger(cfg.Env, "error")
	if err != nil {
		return err
	}
	docs := make([]models.Document, 0, len(askFiles))
	for _, path := range askFiles {
		doc, err := extractFile(cmd, path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	activeID := ""
	if askActive > 0 && askActive <= len(docs) {
		activeID = docs[askActive-1].ID
	} else if askActive > len(docs) && len(docs) > 0 {
		return fmt.Errorf("--active %d out of range: %d files given", askActive, len(docs))
	}

	pm, err := providers.NewManager(cfg, log)
	if err != nil {
		return err
	}
	advisor := advice.NewAdvisor(pm, advice.NewPromptBuilder(cfg.ContextBudget, cfg.SummaryBudget), cfg.InferenceTimeout(), log)
	mode, contextText := advice.Assemble(docs, activeID)
	msg, err := advisor.Ask(cmd.Context(), mode, contextText, args[0])
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(msg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printMessage(cmd, mode, msg)
	return nil
}

func printMessage(cmd *cobra.Command, mode models.Mode, msg models.Message) {
	cmd.Printf("[%s]\n", mode)
	cmd.Println(msg.Text)
	if msg.Structured == nil {
		return
	}
	if msg.Structured.Warning != "" {
		cmd.Printf("  ! %s\n", msg.Structured.Warning)
	}
	for _, item := range msg.Structured.KeyPoints {
		cmd.Printf("  * %s\n", item)
	}
	for _, item := range msg.Structured.Checklist {
		cmd.Printf("  [ ] %s\n", item)
	}
	if len(msg.Structured.SuggestedQuestions) > 0 {
		cmd.Println()
		for _, q := range msg.Structured.SuggestedQuestions {
			cmd.Printf("  ? %s\n", q)
		}
	}
}
