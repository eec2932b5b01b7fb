package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"smartclaim/internal/models"
	"smartclaim/internal/pdftext"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract [file.pdf]",
	Short: "Print the text reconstructed from a PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output the document as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	doc, err := extractFile(cmd, args[0])
	if err != nil {
		return err
	}
	if extractJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal document: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	if len(doc.Pages) == 0 {
		cmd.Println("No extractable text.")
		return nil
	}
	cmd.Print(doc.FullText)
	return nil
}

func extractFile(cmd *cobra.Command, path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	ex := pdftext.NewExtractor(nil, zap.NewNop(), pdftext.WithoutRetention())
	return ex.ExtractBytes(cmd.Context(), filepath.Base(path), data)
}
